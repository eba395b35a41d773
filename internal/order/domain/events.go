package domain

import "time"

// OrderCommitted is published after an order and its stock deductions are
// durable. It never describes an uncommitted order: the event row is written
// in the same transaction as the order itself.
type OrderCommitted struct {
	OrderID     string      `json:"orderId"`
	Items       []OrderItem `json:"items"`
	CommittedAt time.Time   `json:"committedAt"`
}

const EventOrderCommitted = "OrderCommitted"
