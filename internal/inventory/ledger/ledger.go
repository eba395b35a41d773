// Package ledger holds the in-process stock ledger. It is the only shared
// mutable state of the engine: every quantity change goes through Reserve or
// Release, each atomic with respect to all other calls for the same book.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
)

type entry struct {
	mu    sync.Mutex
	stock domain.BookStock
}

// Ledger keys a mutex per book so reservations for distinct books never
// contend. The catalog is fixed after construction; the outer map is
// read-only once seeded, so lookups take no lock.
type Ledger struct {
	log   *slog.Logger
	books map[string]*entry
}

func New(log *slog.Logger, seed []domain.BookStock) *Ledger {
	books := make(map[string]*entry, len(seed))
	for _, s := range seed {
		if s.Quantity < 0 {
			s.Quantity = 0
		}
		books[s.ID] = &entry{stock: s}
	}
	return &Ledger{log: log, books: books}
}

func (l *Ledger) Reserve(ctx context.Context, bookID string, qty int) error {
	e, ok := l.books[bookID]
	if !ok {
		return domain.UnknownBookError{BookID: bookID}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stock.Quantity < qty {
		return domain.InsufficientStockError{BookID: bookID}
	}
	e.stock.Quantity -= qty
	l.log.Debug("stock reserved", "book_id", bookID, "qty", qty, "remaining", e.stock.Quantity)
	return nil
}

func (l *Ledger) Release(ctx context.Context, bookID string, qty int) error {
	e, ok := l.books[bookID]
	if !ok {
		return domain.UnknownBookError{BookID: bookID}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stock.Quantity += qty
	l.log.Debug("stock released", "book_id", bookID, "qty", qty, "available", e.stock.Quantity)
	return nil
}

func (l *Ledger) Stock(ctx context.Context, bookID string) (domain.BookStock, error) {
	e, ok := l.books[bookID]
	if !ok {
		return domain.BookStock{}, domain.UnknownBookError{BookID: bookID}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stock, nil
}

func (l *Ledger) List(ctx context.Context) ([]domain.BookStock, error) {
	out := make([]domain.BookStock, 0, len(l.books))
	for _, e := range l.books {
		e.mu.Lock()
		out = append(out, e.stock)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
