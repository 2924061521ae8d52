package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a ledger backed by PostgreSQL.
// Withdraw is a single conditional UPDATE, so a balance never goes negative.
type Postgres struct {
	Currency

	pool  *pgxpool.Pool
	start int64
}

// OpenPostgres connects to PostgreSQL and returns a ledger handle.
// Migrations are not applied (see RunMigrations).
func OpenPostgres(ctx context.Context, dsn string, cur Currency, start int64) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return NewPostgres(pool, cur, start), nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool, cur Currency, start int64) *Postgres {
	return &Postgres{Currency: cur, pool: pool, start: start}
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Pool returns the underlying pgx pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Balance returns the account balance; unknown accounts report the start balance.
func (p *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := p.pool.QueryRow(ctx,
		`SELECT balance FROM ledger_accounts WHERE account_id = $1`, accountID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p.start, nil
		}
		return 0, fmt.Errorf("querying balance of %s: %w", accountID, err)
	}
	return balance, nil
}

// Withdraw removes amount from the account.
func (p *Postgres) Withdraw(ctx context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning withdraw: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_accounts (account_id, balance) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO NOTHING`,
		accountID, p.start,
	); err != nil {
		return fmt.Errorf("opening account %s: %w", accountID, err)
	}

	var after int64
	err = tx.QueryRow(ctx,
		`UPDATE ledger_accounts SET balance = balance - $2, updated_at = CURRENT_TIMESTAMP
		 WHERE account_id = $1 AND balance >= $2
		 RETURNING balance`,
		accountID, amount,
	).Scan(&after)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("withdrawing %d from %s: %w", amount, accountID, ErrInsufficientFunds)
		}
		return fmt.Errorf("withdrawing %d from %s: %w", amount, accountID, err)
	}

	if err := p.logMovement(ctx, tx, accountID, -amount, after); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing withdraw: %w", err)
	}
	return nil
}

// Deposit adds amount to the account.
func (p *Postgres) Deposit(ctx context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning deposit: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var after int64
	err = tx.QueryRow(ctx,
		`INSERT INTO ledger_accounts (account_id, balance) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE
		 SET balance = ledger_accounts.balance + $3, updated_at = CURRENT_TIMESTAMP
		 RETURNING balance`,
		accountID, p.start+amount, amount,
	).Scan(&after)
	if err != nil {
		return fmt.Errorf("depositing %d to %s: %w", amount, accountID, err)
	}

	if err := p.logMovement(ctx, tx, accountID, amount, after); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing deposit: %w", err)
	}
	return nil
}

func (p *Postgres) logMovement(ctx context.Context, tx pgx.Tx, accountID string, delta, after int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_movements (account_id, delta, balance_after) VALUES ($1, $2, $3)`,
		accountID, delta, after,
	)
	if err != nil {
		return fmt.Errorf("logging movement of %s: %w", accountID, err)
	}
	return nil
}
