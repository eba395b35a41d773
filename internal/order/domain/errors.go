package domain

import "errors"

var (
	ErrEmptyOrder    = errors.New("order has no items")
	ErrOrderNotFound = errors.New("order not found")
)

type InvalidQuantityError struct {
	BookID string
}

func (e InvalidQuantityError) Error() string {
	return "invalid quantity for book: " + e.BookID
}

// PersistenceError marks a failed durable write after all reservations were
// granted. The processor releases every reservation before surfacing it.
type PersistenceError struct {
	Err error
}

func (e PersistenceError) Error() string {
	return "order persistence failed: " + e.Err.Error()
}

func (e PersistenceError) Unwrap() error { return e.Err }
