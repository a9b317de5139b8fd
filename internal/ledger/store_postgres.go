package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	_ "github.com/jackc/pgx/v5/stdlib"

	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

// PostgresStore persists balances in PostgreSQL with the same optimistic
// versioned-commit contract as the file store. The guarded UPDATE makes the
// version check and the swap a single statement, so no explicit row lock is
// needed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pool over the pgx stdlib driver and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS balances (
			account_id TEXT PRIMARY KEY,
			balance    NUMERIC(18,2) NOT NULL,
			version    BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure balances schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, accountID id.AccountID) (Record, error) {
	var (
		balance string
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT balance, version FROM balances WHERE account_id = $1`,
		accountID.String(),
	).Scan(&balance, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("select balance: %w", err)
	}
	dec, err := decimal.NewFromString(balance)
	if err != nil {
		return Record{}, fmt.Errorf("decode balance %s: %w", accountID, err)
	}
	return Record{AccountID: accountID, Balance: dec, Version: version}, nil
}

func (s *PostgresStore) Create(ctx context.Context, accountID id.AccountID) error {
	rec := NewRecord(accountID)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (account_id, balance, version) VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO NOTHING`,
		accountID.String(), rec.Balance.StringFixed(moneyPlaces), rec.Version,
	)
	if err != nil {
		return fmt.Errorf("insert balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert balance result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrExists
	}
	return nil
}

func (s *PostgresStore) Commit(ctx context.Context, accountID id.AccountID, balance decimal.Decimal, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE balances SET balance = $1, version = version + 1
		 WHERE account_id = $2 AND version = $3`,
		balance.StringFixed(moneyPlaces), accountID.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("commit balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit balance result: %w", err)
	}
	if affected == 1 {
		return nil
	}
	// Distinguish a lost race from a missing account.
	if _, err := s.Get(ctx, accountID); errors.Is(err, sentinel.ErrNotFound) {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) Delete(ctx context.Context, accountID id.AccountID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM balances WHERE account_id = $1`, accountID.String())
	if err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete balance result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error { return s.db.Close() }
