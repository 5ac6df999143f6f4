package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id, name, price::text, image, description`

// List returns every product, or those whose name or description contains
// query when it is not blank.
func (r *postgresRepo) List(ctx context.Context, query string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		q += ` WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'`
		args = append(args, query)
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list q=%q error=%v", query, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows q=%q error=%v", query, err)
		return nil, err
	}
	r.logger.Printf("product repo: list q=%q count=%d", query, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: get id=%s not found", id)
		} else {
			r.logger.Printf("product repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, name, price, image, description)
VALUES ($1, $2, $3::numeric, $4, $5)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, uuid.NewString(), p.Name, p.Price.String(), p.Image, p.Description))
	if err != nil {
		r.logger.Printf("product repo: create name=%s error=%v", p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s name=%s", created.ID, created.Name)
	return created, nil
}

func (r *postgresRepo) Replace(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
UPDATE products
SET name = $2, price = $3::numeric, image = $4, description = $5
WHERE id = $1
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Price.String(), p.Image, p.Description))
	if err != nil {
		r.logger.Printf("product repo: replace id=%s error=%v", p.ID, err)
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%s", id)
	return nil
}

// UpsertByName inserts p or updates the product with the same
// (case-insensitive) name, keeping its id.
func (r *postgresRepo) UpsertByName(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, name, price, image, description)
VALUES ($1, $2, $3::numeric, $4, $5)
ON CONFLICT ((lower(name))) DO UPDATE SET
    price = EXCLUDED.price,
    image = EXCLUDED.image,
    description = EXCLUDED.description
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, uuid.NewString(), p.Name, p.Price.String(), p.Image, p.Description))
	if err != nil {
		r.logger.Printf("product repo: upsert name=%s error=%v", p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted name=%s id=%s", res.Name, res.ID)
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Image, &p.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product repo: price %q for id=%s: %w", price, p.ID, err)
	}
	p.Price = d
	return &p, nil
}
