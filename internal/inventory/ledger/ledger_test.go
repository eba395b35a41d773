package ledger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
)

func newLedger(seed ...domain.BookStock) *Ledger {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), seed)
}

func TestReserveDeductsStock(t *testing.T) {
	l := newLedger(domain.BookStock{ID: "book-a", Quantity: 10})

	require.NoError(t, l.Reserve(context.Background(), "book-a", 2))

	s, err := l.Stock(context.Background(), "book-a")
	require.NoError(t, err)
	assert.Equal(t, 8, s.Quantity)
}

func TestReserveInsufficientStockLeavesStockUntouched(t *testing.T) {
	l := newLedger(domain.BookStock{ID: "book-a", Quantity: 1})

	err := l.Reserve(context.Background(), "book-a", 3)
	assert.ErrorAs(t, err, &domain.InsufficientStockError{})

	s, err := l.Stock(context.Background(), "book-a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Quantity)
}

func TestReserveUnknownBook(t *testing.T) {
	l := newLedger()

	err := l.Reserve(context.Background(), "missing", 1)

	var unknown domain.UnknownBookError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.BookID)
}

func TestReleaseReturnsStock(t *testing.T) {
	l := newLedger(domain.BookStock{ID: "book-a", Quantity: 5})

	require.NoError(t, l.Reserve(context.Background(), "book-a", 5))
	require.NoError(t, l.Release(context.Background(), "book-a", 5))

	s, err := l.Stock(context.Background(), "book-a")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Quantity)
}

func TestReleaseUnknownBook(t *testing.T) {
	l := newLedger()
	assert.ErrorAs(t, l.Release(context.Background(), "missing", 1), &domain.UnknownBookError{})
}

func TestList(t *testing.T) {
	l := newLedger(
		domain.BookStock{ID: "b", Quantity: 2},
		domain.BookStock{ID: "a", Quantity: 1},
	)

	out, err := l.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	const (
		initial = 10
		workers = 100
		qty     = 1
	)
	l := newLedger(domain.BookStock{ID: "book-a", Quantity: initial})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Reserve(context.Background(), "book-a", qty); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s, err := l.Stock(context.Background(), "book-a")
	require.NoError(t, err)
	assert.Equal(t, initial, succeeded)
	assert.Equal(t, 0, s.Quantity)
}

func TestConcurrentReserveAndReleaseConservation(t *testing.T) {
	const initial = 50
	l := newLedger(domain.BookStock{ID: "book-a", Quantity: initial})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Reserve(context.Background(), "book-a", 2); err == nil {
				assert.NoError(t, l.Release(context.Background(), "book-a", 2))
			}
		}()
	}
	wg.Wait()

	s, err := l.Stock(context.Background(), "book-a")
	require.NoError(t, err)
	assert.Equal(t, initial, s.Quantity)
}

func TestDistinctBooksAreIndependent(t *testing.T) {
	l := newLedger(
		domain.BookStock{ID: "book-a", Quantity: 100},
		domain.BookStock{ID: "book-b", Quantity: 100},
	)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = l.Reserve(context.Background(), "book-a", 1)
		}()
		go func() {
			defer wg.Done()
			_ = l.Reserve(context.Background(), "book-b", 1)
		}()
	}
	wg.Wait()

	a, _ := l.Stock(context.Background(), "book-a")
	b, _ := l.Stock(context.Background(), "book-b")
	assert.Equal(t, 0, a.Quantity)
	assert.Equal(t, 0, b.Quantity)
}
