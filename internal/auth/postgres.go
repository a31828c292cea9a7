package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"examhub.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

const pgUniqueViolation = "23505"

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) LookupAccount(ctx context.Context, username string) (Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, name, role, password_hash, disabled, created_at, updated_at
		 from accounts where username=$1`, username)
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.Name, &a.Role, &a.PasswordHash, &a.Disabled, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (s *PGStore) CreateAccount(ctx context.Context, account Account) (Account, error) {
	if account.ID == "" {
		account.ID = ids.New()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into accounts(id, username, name, role, password_hash, disabled, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		account.ID, account.Username, account.Name, account.Role, account.PasswordHash, account.Disabled, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Account{}, ErrAccountExists
		}
		return Account{}, err
	}
	return account, nil
}

func (s *PGStore) SetDisabled(ctx context.Context, username string, disabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set disabled=$2, updated_at=now() where username=$1`,
		username, disabled,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, username, name, role, password_hash, disabled, created_at, updated_at
		 from accounts order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Name, &a.Role, &a.PasswordHash, &a.Disabled, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
