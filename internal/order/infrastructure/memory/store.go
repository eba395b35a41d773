// Package memory is the in-process order store used when the engine runs
// without a database, and as the backing store in unit tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
)

type Store struct {
	mu     sync.RWMutex
	orders []domain.Order
	byID   map[string]int
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

func (s *Store) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	if len(o.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	o.ID = uuid.NewString()
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		items[i].ID = uuid.NewString()
	}
	o.Items = items

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
	s.byID[o.ID] = len(s.orders) - 1
	return o, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return clone(s.orders[i]), nil
}

func (s *Store) List(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = clone(o)
	}
	return out, nil
}

// clone keeps stored orders immutable from the caller's point of view.
func clone(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
