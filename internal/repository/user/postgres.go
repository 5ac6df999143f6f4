package user

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, rec Record) (*Record, error) {
	const q = `
INSERT INTO users (id, email, password_hash, full_name, role)
VALUES ($1, lower($2), $3, $4, $5)
RETURNING id, email, password_hash, full_name, role
`
	var out Record
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), rec.Email, rec.PasswordHash, rec.FullName, string(rec.Role)).
		Scan(&out.ID, &out.Email, &out.PasswordHash, &out.FullName, &out.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: create email=%s error=%v", rec.Email, err)
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s role=%s", out.ID, out.Role)
	return &out, nil
}

func (r *postgresRepo) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	const q = `
SELECT id, email, password_hash, full_name, role
FROM users
WHERE lower(email) = lower($1)
`
	return r.query(ctx, q, email)
}

func (r *postgresRepo) List(ctx context.Context) ([]Record, error) {
	const q = `
SELECT id, email, password_hash, full_name, role
FROM users
ORDER BY created_at, id
`
	return r.query(ctx, q)
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("user repo: query error=%v", err)
		return nil, err
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		err := row.Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.FullName, &rec.Role)
		return rec, err
	})
	if err != nil {
		r.logger.Printf("user repo: scan error=%v", err)
		return nil, err
	}
	return records, nil
}
