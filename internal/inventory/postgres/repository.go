package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
)

// Repository is the SQL-backed stock ledger. Reserve relies on a single
// conditional UPDATE, so the check and the deduction are one statement and
// atomicity comes from the row latch: no two transactions can both pass the
// quantity guard for the same book. Rows for different books never block
// each other.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS book_stock (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL DEFAULT '',
		quantity INT  NOT NULL CHECK (quantity >= 0)
	)`)
	return err
}

// Seed inserts catalog rows that do not exist yet. Existing rows keep their
// current quantity.
func (r *Repository) Seed(ctx context.Context, entries []domain.BookStock) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO book_stock (id, name, quantity) VALUES ($1,$2,$3)
			ON CONFLICT (id) DO NOTHING`, e.ID, e.Title, e.Quantity)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *Repository) Reserve(ctx context.Context, bookID string, qty int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE book_stock SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2`,
		bookID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the book does not exist or the guard failed.
	var exists bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM book_stock WHERE id = $1)`, bookID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.UnknownBookError{BookID: bookID}
	}
	return domain.InsufficientStockError{BookID: bookID}
}

func (r *Repository) Release(ctx context.Context, bookID string, qty int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE book_stock SET quantity = quantity + $2 WHERE id = $1`,
		bookID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.UnknownBookError{BookID: bookID}
	}
	return nil
}

func (r *Repository) Stock(ctx context.Context, bookID string) (domain.BookStock, error) {
	var s domain.BookStock
	err := r.pool.QueryRow(ctx, `SELECT id, name, quantity FROM book_stock WHERE id = $1`, bookID).
		Scan(&s.ID, &s.Title, &s.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BookStock{}, domain.UnknownBookError{BookID: bookID}
	}
	if err != nil {
		return domain.BookStock{}, err
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.BookStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, quantity FROM book_stock ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookStock
	for rows.Next() {
		var s domain.BookStock
		if err := rows.Scan(&s.ID, &s.Title, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
