package domain

import "time"

// Stage tracks where a submission is in its lifecycle. Committed and
// Rejected are terminal; entering Rejected after any reservation was granted
// requires releasing it first.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StageReserving  Stage = "reserving"
	StageCommitting Stage = "committing"
	StageCommitted  Stage = "committed"
	StageRejected   Stage = "rejected"
)

// LineItem is a single requested (book, quantity) pair as submitted by the
// caller, before validation.
type LineItem struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

// Order is the durable record of a committed submission. ID is assigned by
// the store at commit; the record is immutable afterwards. An order never
// has zero items.
type Order struct {
	ID        string      `json:"id"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderItem belongs to exactly one order and is persisted with it. Its
// quantity was deducted from the book's stock exactly once at commit.
type OrderItem struct {
	ID       string `json:"id"`
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

func NewOrder(items []LineItem) Order {
	orderItems := make([]OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = OrderItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		}
	}
	return Order{
		Items:     orderItems,
		CreatedAt: time.Now().UTC(),
	}
}
