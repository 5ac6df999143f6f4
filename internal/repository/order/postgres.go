package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

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

const orderColumns = `id, COALESCE(user_id, ''), customer_name, customer_address, customer_phone, items, total_amount::text, status, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("order repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("order repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	q := `
INSERT INTO orders (id, user_id, customer_name, customer_address, customer_phone, items, total_amount, status, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7::numeric, $8, $9)
RETURNING ` + orderColumns
	created, err := r.scanOrder(r.pool.QueryRow(ctx, q,
		uuid.NewString(),
		o.CustomerInfo.UserID,
		o.CustomerInfo.Name,
		o.CustomerInfo.Address,
		o.CustomerInfo.Phone,
		items,
		o.TotalAmount.String(),
		string(o.Status),
		createdAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.Validationf("unknown user %s", o.CustomerInfo.UserID)
		}
		r.logger.Printf("order repo: create error=%v", err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s total=%s", created.ID, created.TotalAmount)
	return created, nil
}

func (r *postgresRepo) Replace(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE orders
SET user_id = NULLIF($2, ''), customer_name = $3, customer_address = $4, customer_phone = $5,
    items = $6, total_amount = $7::numeric, status = $8
WHERE id = $1
RETURNING ` + orderColumns
	return r.scanOrder(r.pool.QueryRow(ctx, q,
		o.ID,
		o.CustomerInfo.UserID,
		o.CustomerInfo.Name,
		o.CustomerInfo.Address,
		o.CustomerInfo.Phone,
		items,
		o.TotalAmount.String(),
		string(o.Status),
	))
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	q := `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns
	o, err := r.scanOrder(r.pool.QueryRow(ctx, q, id, string(status)))
	if err != nil {
		r.logger.Printf("order repo: update status id=%s status=%s error=%v", id, status, err)
		return nil, err
	}
	r.logger.Printf("order repo: status id=%s status=%s", id, o.Status)
	return o, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var itemsJSON []byte
	var total string
	err := row.Scan(
		&o.ID,
		&o.CustomerInfo.UserID,
		&o.CustomerInfo.Name,
		&o.CustomerInfo.Address,
		&o.CustomerInfo.Phone,
		&itemsJSON,
		&total,
		&o.Status,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: scan error=%v", err)
		return nil, err
	}
	o.Items = []domain.CartItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			r.logger.Printf("order repo: decode items id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order repo: total %q for id=%s: %w", total, o.ID, err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
