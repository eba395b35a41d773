package application

import (
	"context"
	"errors"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
)

// Validator performs the static checks on a submitted line-item list. It
// reads catalog existence through the ledger but never touches quantities:
// stock sufficiency is decided inside Reserve, where it is atomic. Fails
// fast on the first violation.
type Validator struct {
	ledger StockLedger
}

func NewValidator(ledger StockLedger) *Validator {
	return &Validator{ledger: ledger}
}

func (v *Validator) Validate(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyOrder
	}
	for _, item := range items {
		if item.BookID == "" {
			return invdomain.UnknownBookError{BookID: item.BookID}
		}
		if _, err := v.ledger.Stock(ctx, item.BookID); err != nil {
			var unknown invdomain.UnknownBookError
			if errors.As(err, &unknown) {
				return unknown
			}
			return err
		}
		if item.Quantity <= 0 {
			return domain.InvalidQuantityError{BookID: item.BookID}
		}
	}
	return nil
}
