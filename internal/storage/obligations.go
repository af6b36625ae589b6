package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
)

// SaveObligation inserts a recurring obligation and returns its authoritative identifier.
func (s *SQLiteStorage) SaveObligation(ctx context.Context, obligation *model.RecurringObligation) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateObligation(obligation); err != nil {
		return "", err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obligations (
			id, name, magnitude, frequency, next_due_date, category, account_id, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		obligation.ID,
		obligation.Name,
		obligation.Magnitude.String(),
		string(obligation.Frequency),
		obligation.NextDueDate,
		obligation.Category,
		obligation.AccountID,
		obligation.Active,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert obligation %s: %w", obligation.ID, err)
	}

	return obligation.ID, nil
}

// UpdateObligation replaces a stored obligation's fields. The scheduler calls
// this after every posting to commit the advanced due date.
func (s *SQLiteStorage) UpdateObligation(ctx context.Context, obligation *model.RecurringObligation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateObligation(obligation); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE obligations
		SET name = ?, magnitude = ?, frequency = ?, next_due_date = ?,
		    category = ?, account_id = ?, active = ?
		WHERE id = ?
	`,
		obligation.Name,
		obligation.Magnitude.String(),
		string(obligation.Frequency),
		obligation.NextDueDate,
		obligation.Category,
		obligation.AccountID,
		obligation.Active,
		obligation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update obligation %s: %w", obligation.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: obligation %s", common.ErrNotFound, obligation.ID)
	}

	return nil
}

// DeleteObligation removes an obligation by id.
func (s *SQLiteStorage) DeleteObligation(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM obligations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete obligation %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: obligation %s", common.ErrNotFound, id)
	}

	return nil
}

// GetObligations retrieves every recurring obligation ordered by due date.
func (s *SQLiteStorage) GetObligations(ctx context.Context) ([]model.RecurringObligation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, magnitude, frequency, next_due_date, category, account_id, active
		FROM obligations ORDER BY next_due_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var obligations []model.RecurringObligation
	for rows.Next() {
		var obligation model.RecurringObligation
		var magnitude, frequency string
		var category, accountID sql.NullString

		err := rows.Scan(
			&obligation.ID,
			&obligation.Name,
			&magnitude,
			&frequency,
			&obligation.NextDueDate,
			&category,
			&accountID,
			&obligation.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}

		obligation.Frequency = model.Frequency(frequency)
		obligation.Category = category.String
		obligation.AccountID = accountID.String
		if obligation.Magnitude, err = parseDecimal(magnitude); err != nil {
			return nil, fmt.Errorf("bad magnitude: %w", err)
		}

		obligations = append(obligations, obligation)
	}
	return obligations, rows.Err()
}
