package orders

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no order carries the requested order_id.
var ErrNotFound = errors.New("order not found")

// Store is the keyed collection behind the order API. order_id is the only
// lookup key and it is not required to be unique.
type Store interface {
	// Insert appends o without checking for an existing order_id.
	Insert(ctx context.Context, o Order) error
	// FindByID returns the first order with the id, in insertion order.
	FindByID(ctx context.Context, id string) (Order, error)
	// UpdateField sets field on the first matching order and returns it.
	UpdateField(ctx context.Context, id, field string, value any) (Order, error)
	// Delete removes every order with the id and reports how many went.
	Delete(ctx context.Context, id string) (int, error)
	// List returns the orders present at call time, in insertion order.
	List(ctx context.Context) ([]Order, error)
}

// MemoryStore keeps orders in a slice for the life of the process. It starts
// empty and is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	orders []Order
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o.Clone())
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.orders[i].Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateField(_ context.Context, id, field string, value any) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	s.orders[i][field] = value
	return s.orders[i].Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o.ID() != id {
			kept = append(kept, o)
		}
	}
	removed := len(s.orders) - len(kept)
	// clear the tail so removed maps can be collected
	clear(s.orders[len(kept):])
	s.orders = kept
	return removed, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	return out, nil
}

// indexOf must be called with mu held.
func (s *MemoryStore) indexOf(id string) int {
	for i, o := range s.orders {
		if o.ID() == id {
			return i
		}
	}
	return -1
}
