package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite is an embedded single-file ledger.
type SQLite struct {
	Currency

	db    *sql.DB
	start int64
}

// OpenSQLite opens (or creates) the database file and applies migrations.
func OpenSQLite(ctx context.Context, path string, cur Currency, start int64) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// Один writer: SQLite сериализует запись
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{Currency: cur, db: db, start: start}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Balance returns the account balance; unknown accounts report the start balance.
func (s *SQLite) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM ledger_accounts WHERE account_id = ?`, accountID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.start, nil
		}
		return 0, fmt.Errorf("querying balance of %s: %w", accountID, err)
	}
	return balance, nil
}

// Withdraw removes amount from the account.
func (s *SQLite) Withdraw(ctx context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning withdraw: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_accounts (account_id, balance) VALUES (?, ?)
		 ON CONFLICT (account_id) DO NOTHING`,
		accountID, s.start,
	); err != nil {
		return fmt.Errorf("opening account %s: %w", accountID, err)
	}

	var after int64
	err = tx.QueryRowContext(ctx,
		`UPDATE ledger_accounts SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE account_id = ? AND balance >= ?
		 RETURNING balance`,
		amount, accountID, amount,
	).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("withdrawing %d from %s: %w", amount, accountID, ErrInsufficientFunds)
		}
		return fmt.Errorf("withdrawing %d from %s: %w", amount, accountID, err)
	}

	if err := logMovement(ctx, tx, accountID, -amount, after); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing withdraw: %w", err)
	}
	return nil
}

// Deposit adds amount to the account.
func (s *SQLite) Deposit(ctx context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning deposit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var after int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO ledger_accounts (account_id, balance) VALUES (?, ?)
		 ON CONFLICT (account_id) DO UPDATE
		 SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		 RETURNING balance`,
		accountID, s.start+amount, amount,
	).Scan(&after)
	if err != nil {
		return fmt.Errorf("depositing %d to %s: %w", amount, accountID, err)
	}

	if err := logMovement(ctx, tx, accountID, amount, after); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing deposit: %w", err)
	}
	return nil
}

func logMovement(ctx context.Context, tx *sql.Tx, accountID string, delta, after int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_movements (account_id, delta, balance_after) VALUES (?, ?, ?)`,
		accountID, delta, after,
	)
	if err != nil {
		return fmt.Errorf("logging movement of %s: %w", accountID, err)
	}
	return nil
}
