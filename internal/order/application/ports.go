package application

import (
	"context"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
)

// StockLedger is the sole arbiter of stock truth. Reserve and Release are
// atomic per book; calls for different books never block one another.
type StockLedger interface {
	// Reserve deducts qty from the book's available stock, or leaves it
	// untouched and returns InsufficientStockError / UnknownBookError.
	Reserve(ctx context.Context, bookID string, qty int) error
	// Release returns previously reserved stock. Only valid as the undo of a
	// prior successful Reserve.
	Release(ctx context.Context, bookID string, qty int) error
	Stock(ctx context.Context, bookID string) (invdomain.BookStock, error)
	List(ctx context.Context) ([]invdomain.BookStock, error)
}

type OrderStore interface {
	// Save persists the order and its items as one durable unit and assigns
	// their identifiers.
	Save(ctx context.Context, o domain.Order) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}
