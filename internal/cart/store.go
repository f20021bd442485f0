package cart

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"storefront/internal/models"
)

var validate = models.NewValidator()

// Store is an ordered collection of line items keyed by product ID.
// Insertion order is display order. All mutations are serialized; while an
// order is being submitted they fail with ErrCartLocked.
type Store struct {
	mu     sync.Mutex
	order  []string
	items  map[string]models.LineItem
	locked bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]models.LineItem),
	}
}

// AddOrUpdate inserts item, or replaces the existing entry for the same
// product in place without changing its position.
func (s *Store) AddOrUpdate(item models.LineItem) error {
	if err := validate.Struct(item); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if err := ValidateQuantity(item.Quantity, item.AvailableStock); err != nil {
		return fmt.Errorf("%w: %s requested %d, %d available", err, item.ProductID, item.Quantity, item.AvailableStock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrCartLocked
	}
	if _, ok := s.items[item.ProductID]; !ok {
		s.order = append(s.order, item.ProductID)
	}
	s.items[item.ProductID] = item
	return nil
}

// Remove deletes the entry for productID. Removing an absent product is a no-op.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrCartLocked
	}
	s.removeLocked(productID)
	return nil
}

// Increment adds one unit of productID, bounded by its available stock.
func (s *Store) Increment(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrCartLocked
	}
	item, ok := s.items[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	qty, err := ValidateIncrement(item.Quantity, item.AvailableStock)
	if err != nil {
		return fmt.Errorf("%w: only %d of %s available", err, item.AvailableStock, item.Name)
	}
	item.Quantity = qty
	s.items[productID] = item
	return nil
}

// Decrement removes one unit of productID. Taking the last unit removes
// the line item entirely.
func (s *Store) Decrement(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrCartLocked
	}
	item, ok := s.items[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	qty, err := ValidateDecrement(item.Quantity)
	if errors.Is(err, ErrItemShouldBeRemoved) {
		s.removeLocked(productID)
		return nil
	}
	item.Quantity = qty
	s.items[productID] = item
	return nil
}

// Clear empties the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrCartLocked
	}
	s.resetLocked()
	return nil
}

// Items returns a copy of the current line items in display order.
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the line item for productID.
func (s *Store) Get(productID string) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[productID]
	return item, ok
}

// Len returns the number of distinct products in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Locked reports whether an order submission currently holds the store.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// beginSubmit locks the store against mutation and returns the snapshot
// that the pending order is built from.
func (s *Store) beginSubmit() ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return nil, ErrSubmissionInProgress
	}
	if len(s.order) == 0 {
		return nil, ErrEmptyCart
	}
	s.locked = true
	return s.snapshotLocked(), nil
}

// endSubmit releases the submission lock, clearing the store when the
// order was confirmed.
func (s *Store) endSubmit(confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locked = false
	if confirmed {
		s.resetLocked()
	}
}

func (s *Store) snapshotLocked() []models.LineItem {
	items := make([]models.LineItem, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id])
	}
	return items
}

func (s *Store) removeLocked(productID string) {
	if _, ok := s.items[productID]; !ok {
		return
	}
	delete(s.items, productID)
	if i := slices.Index(s.order, productID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *Store) resetLocked() {
	s.order = nil
	s.items = make(map[string]models.LineItem)
}
