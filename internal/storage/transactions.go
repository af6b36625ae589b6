package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
)

// SaveTransaction inserts a transaction and returns its authoritative identifier.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateTransaction(txn); err != nil {
		return "", err
	}

	var installmentIndex, installmentTotal sql.NullInt64
	if txn.Installment != nil {
		installmentIndex = sql.NullInt64{Int64: int64(txn.Installment.Index), Valid: true}
		installmentTotal = sql.NullInt64{Int64: int64(txn.Installment.Total), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, account_id, direction, magnitude, date,
			category, installment_index, installment_total, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.AccountID,
		string(txn.Direction),
		txn.Magnitude.String(),
		txn.Date,
		txn.Category,
		installmentIndex,
		installmentTotal,
		txn.Note,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}

	return txn.ID, nil
}

// UpdateTransaction replaces a stored transaction's fields.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	var installmentIndex, installmentTotal sql.NullInt64
	if txn.Installment != nil {
		installmentIndex = sql.NullInt64{Int64: int64(txn.Installment.Index), Valid: true}
		installmentTotal = sql.NullInt64{Int64: int64(txn.Installment.Total), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, direction = ?, magnitude = ?, date = ?,
		    category = ?, installment_index = ?, installment_total = ?, note = ?
		WHERE id = ?
	`,
		txn.AccountID,
		string(txn.Direction),
		txn.Magnitude.String(),
		txn.Date,
		txn.Category,
		installmentIndex,
		installmentTotal,
		txn.Note,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, txn.ID)
	}

	return nil
}

// DeleteTransaction removes a transaction by id.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}

	return nil
}

// GetTransactionsByAccount retrieves every transaction owned by an account.
func (s *SQLiteStorage) GetTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `
		SELECT id, account_id, direction, magnitude, date,
		       category, installment_index, installment_total, note
		FROM transactions WHERE account_id = ? ORDER BY date, id
	`, accountID)
}

// GetTransactions retrieves the whole transaction ledger.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `
		SELECT id, account_id, direction, magnitude, date,
		       category, installment_index, installment_total, note
		FROM transactions ORDER BY date, id
	`)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var direction, magnitude string
		var category, note sql.NullString
		var installmentIndex, installmentTotal sql.NullInt64

		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&direction,
			&magnitude,
			&txn.Date,
			&category,
			&installmentIndex,
			&installmentTotal,
			&note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Direction = model.TransactionDirection(direction)
		txn.Category = category.String
		txn.Note = note.String
		if txn.Magnitude, err = parseDecimal(magnitude); err != nil {
			return nil, fmt.Errorf("bad magnitude: %w", err)
		}
		if installmentTotal.Valid && installmentTotal.Int64 > 0 {
			txn.Installment = &model.Installment{
				Index: int(installmentIndex.Int64),
				Total: int(installmentTotal.Int64),
			}
		}

		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}
