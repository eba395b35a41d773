package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
	"github.com/dmehra2102/bookstore-order-engine/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id         TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_items (
			id       TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			position INT  NOT NULL,
			book_id  TEXT NOT NULL,
			quantity INT  NOT NULL CHECK (quantity > 0),
			UNIQUE (order_id, position)
		);
		CREATE TABLE IF NOT EXISTS outbox (
			id             BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			type           TEXT NOT NULL,
			payload        JSONB NOT NULL,
			traceparent    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'pending',
			relay_id       TEXT,
			lease_until    TIMESTAMPTZ,
			retry_count    INT NOT NULL DEFAULT 0,
			last_error     TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Save writes the order, its items and the OrderCommitted outbox row in one
// transaction, so the event can never describe an order that was not
// durably recorded.
func (r *Repository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	if len(o.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	o.ID = uuid.NewString()
	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, created_at) VALUES ($1,$2)`, o.ID, o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (id, order_id, position, book_id, quantity) VALUES ($1,$2,$3,$4,$5)`,
			item.ID, o.ID, i, item.BookID, item.Quantity)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, err
	}

	event := domain.OrderCommitted{
		OrderID:     o.ID,
		Items:       o.Items,
		CommittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Order{}, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID, domain.EventOrderCommitted, payload, tracing.Traceparent(ctx))
	if err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, book_id, quantity FROM order_items WHERE order_id=$1 ORDER BY position`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.BookID, &item.Quantity); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.created_at, i.id, i.book_id, i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		ORDER BY o.created_at, o.id, i.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var (
			o    domain.Order
			item domain.OrderItem
		)
		if err := rows.Scan(&o.ID, &o.CreatedAt, &item.ID, &item.BookID, &item.Quantity); err != nil {
			return nil, err
		}
		i, ok := index[o.ID]
		if !ok {
			out = append(out, o)
			i = len(out) - 1
			index[o.ID] = i
		}
		out[i].Items = append(out[i].Items, item)
	}
	return out, rows.Err()
}
