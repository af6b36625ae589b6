package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
)

// SaveAccount inserts an account and returns its authoritative identifier.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, account *model.Account) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateAccount(account); err != nil {
		return "", err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, name, kind, currency, opening_balance,
			credit_limit, cutoff_day, payment_day, handling_fee
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID,
		account.Name,
		string(account.Kind),
		account.Currency,
		account.OpeningBalance.String(),
		account.CreditLimit.String(),
		account.CutoffDay,
		account.PaymentDay,
		account.HandlingFee.String(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert account %s: %w", account.ID, err)
	}

	return account.ID, nil
}

// UpdateAccount replaces a stored account's fields.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, kind = ?, currency = ?, opening_balance = ?,
		    credit_limit = ?, cutoff_day = ?, payment_day = ?, handling_fee = ?
		WHERE id = ?
	`,
		account.Name,
		string(account.Kind),
		account.Currency,
		account.OpeningBalance.String(),
		account.CreditLimit.String(),
		account.CutoffDay,
		account.PaymentDay,
		account.HandlingFee.String(),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, account.ID)
	}

	return nil
}

// GetAccountByID retrieves a single account, or nil if absent.
func (s *SQLiteStorage) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, currency, opening_balance,
		       credit_limit, cutoff_day, payment_day, handling_fee, created_at
		FROM accounts WHERE id = ?
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// GetAccounts retrieves every account ordered by creation time.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, currency, opening_balance,
		       credit_limit, cutoff_day, payment_day, handling_fee, created_at
		FROM accounts ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account: %w", scanErr)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var account model.Account
	var kind, openingBalance, creditLimit, handlingFee string
	var createdAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Name,
		&kind,
		&account.Currency,
		&openingBalance,
		&creditLimit,
		&account.CutoffDay,
		&account.PaymentDay,
		&handlingFee,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	account.Kind = model.AccountKind(kind)
	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	if account.OpeningBalance, err = parseDecimal(openingBalance); err != nil {
		return nil, fmt.Errorf("bad opening balance: %w", err)
	}
	if account.CreditLimit, err = parseDecimal(creditLimit); err != nil {
		return nil, fmt.Errorf("bad credit limit: %w", err)
	}
	if account.HandlingFee, err = parseDecimal(handlingFee); err != nil {
		return nil, fmt.Errorf("bad handling fee: %w", err)
	}
	return &account, nil
}

// parseDecimal reads a stored decimal column; empty means zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
