package inventory

import (
	"errors"
	"math"
	"sort"
	"sync"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrReservationsInFlight = errors.New("product has reservations in flight")
	ErrQuantityOverflow     = errors.New("quantity exceeds the stock limit")
)

// MaxQuantity bounds a product's stock and any single stock movement. It
// matches the INTEGER quantity columns in Postgres.
const MaxQuantity = math.MaxInt32

// slot holds the quantity of one product. Every read-modify-write of quantity
// happens under mu, so operations on the same product are linearized while
// different products never share a lock.
type slot struct {
	mu       sync.Mutex
	quantity int
	inflight int
	retired  bool
}

// Store is the only mutator of product quantities.
type Store struct {
	mu    sync.RWMutex // guards the slots map, not the quantities
	slots map[string]*slot
}

func NewStore() *Store {
	return &Store{slots: make(map[string]*slot)}
}

// Register starts tracking a product with the given quantity. Registering an
// already tracked product is a no-op and reports false. Quantities outside
// [0, MaxQuantity] are clamped; callers validate before journaling.
func (s *Store) Register(productID string, quantity int) bool {
	quantity = min(max(quantity, 0), MaxQuantity)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[productID]; ok {
		return false
	}
	s.slots[productID] = &slot{quantity: quantity}
	return true
}

func (s *Store) lookup(productID string) (*slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[productID]
	return sl, ok
}

// TryReserve atomically checks that amount is positive and available, then
// decrements. On any failure nothing is mutated. The returned reservation stays
// in flight until it is committed or rolled back.
func (s *Store) TryReserve(productID string, amount int) (*Reservation, error) {
	sl, ok := s.lookup(productID)
	if !ok {
		return nil, ErrProductNotFound
	}
	if amount <= 0 {
		return nil, ErrInvalidQuantity
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.retired {
		return nil, ErrProductNotFound
	}
	if sl.quantity < amount {
		return nil, ErrInsufficientStock
	}
	sl.quantity -= amount
	sl.inflight++

	return &Reservation{
		ProductID: productID,
		Quantity:  amount,
		Remaining: sl.quantity,
		slot:      sl,
	}, nil
}

// Release adds amount back to the product's quantity. It fails without
// mutating when the sum would not fit in an int.
func (s *Store) Release(productID string, amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	sl, ok := s.lookup(productID)
	if !ok {
		return ErrProductNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if amount > math.MaxInt-sl.quantity {
		return ErrQuantityOverflow
	}
	sl.quantity += amount
	return nil
}

// QuantityOf returns a point-in-time snapshot of the available quantity.
func (s *Store) QuantityOf(productID string) (int, error) {
	sl, ok := s.lookup(productID)
	if !ok {
		return 0, ErrProductNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.retired {
		return 0, ErrProductNotFound
	}
	return sl.quantity, nil
}

// Snapshot returns the quantity of every tracked, non-retired product.
func (s *Store) Snapshot() map[string]int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	out := make(map[string]int, len(ids))
	for _, id := range ids {
		if q, err := s.QuantityOf(id); err == nil {
			out[id] = q
		}
	}
	return out
}

// Retire stops new reservations for a product. It fails while any reservation
// is still in flight, so once it succeeds the set of orders for the product is
// final until Reinstate or Remove.
func (s *Store) Retire(productID string) error {
	sl, ok := s.lookup(productID)
	if !ok {
		return ErrProductNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.retired {
		return ErrProductNotFound
	}
	if sl.inflight > 0 {
		return ErrReservationsInFlight
	}
	sl.retired = true
	return nil
}

// Reinstate undoes Retire.
func (s *Store) Reinstate(productID string) {
	if sl, ok := s.lookup(productID); ok {
		sl.mu.Lock()
		sl.retired = false
		sl.mu.Unlock()
	}
}

// Remove stops tracking a product.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, productID)
}

// Reservation is stock taken out of a slot by TryReserve.
type Reservation struct {
	ProductID string
	Quantity  int
	// Remaining is the quantity left right after this reservation was taken.
	Remaining int

	slot *slot
	once sync.Once
}

// Commit marks the reservation as durably recorded.
func (r *Reservation) Commit() {
	r.once.Do(func() {
		r.slot.mu.Lock()
		r.slot.inflight--
		r.slot.mu.Unlock()
	})
}

// Rollback releases the reserved quantity back to the product.
func (r *Reservation) Rollback() {
	r.once.Do(func() {
		r.slot.mu.Lock()
		r.slot.quantity += r.Quantity
		r.slot.inflight--
		r.slot.mu.Unlock()
	})
}
