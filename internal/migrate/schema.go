package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the applied migration state compared with the embedded files.
type Schema struct {
	Version uint `json:"version"`
	Latest  uint `json:"latest"`
	Dirty   bool `json:"dirty"`
}

// Current reports whether every embedded migration has been applied cleanly.
func (s Schema) Current() bool { return !s.Dirty && s.Version == s.Latest }

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LatestVersion returns the highest embedded migration version.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return 0, fmt.Errorf("init iofs: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("next migration after %d: %w", v, err)
		}
		v = next
	}
}

// Check reads the version row that Apply leaves in schema_migrations. A
// database that was never migrated reports version 0.
func Check(ctx context.Context, db rowQuerier) (Schema, error) {
	latest, err := LatestVersion()
	if err != nil {
		return Schema{}, err
	}
	s := Schema{Latest: latest}

	var version int64
	err = db.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &s.Dirty)
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case errors.As(err, &pgErr) && pgErr.Code == "42P01":
	case err != nil:
		return Schema{}, fmt.Errorf("read schema version: %w", err)
	default:
		s.Version = uint(version)
	}
	return s, nil
}
