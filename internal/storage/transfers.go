package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/coinpurse/internal/model"
)

// SaveTransfer inserts a transfer and returns its authoritative identifier.
func (s *SQLiteStorage) SaveTransfer(ctx context.Context, transfer *model.Transfer) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateTransfer(transfer); err != nil {
		return "", err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (
			id, source_account_id, destination_account_id, magnitude, date, note
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		transfer.ID,
		transfer.SourceAccountID,
		transfer.DestinationAccountID,
		transfer.Magnitude.String(),
		transfer.Date,
		transfer.Note,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transfer %s: %w", transfer.ID, err)
	}

	return transfer.ID, nil
}

// GetTransfers retrieves every transfer ordered by date.
func (s *SQLiteStorage) GetTransfers(ctx context.Context) ([]model.Transfer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_account_id, destination_account_id, magnitude, date, note
		FROM transfers ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transfers []model.Transfer
	for rows.Next() {
		var transfer model.Transfer
		var magnitude string
		var note sql.NullString

		err := rows.Scan(
			&transfer.ID,
			&transfer.SourceAccountID,
			&transfer.DestinationAccountID,
			&magnitude,
			&transfer.Date,
			&note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}

		transfer.Note = note.String
		if transfer.Magnitude, err = parseDecimal(magnitude); err != nil {
			return nil, fmt.Errorf("bad magnitude: %w", err)
		}

		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}
