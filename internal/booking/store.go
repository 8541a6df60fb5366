package booking

import (
	"context"
	"sync"
	"time"

	"dentalportal/internal/calendar"
	"dentalportal/internal/models"
)

// Store keeps bookings and guarantees at most one scheduled booking per slot.
type Store interface {
	// Insert adds a scheduled booking or fails with ConflictError.
	Insert(ctx context.Context, b models.Booking) (models.Booking, error)

	// Replace atomically overwrites an active booking, ignoring its own slot
	// in the conflict check. ID, status and CreatedAt are preserved.
	Replace(ctx context.Context, id string, b models.Booking) (models.Booking, error)

	// Cancel marks an active booking cancelled. Unknown or already
	// cancelled ids yield NotFoundError.
	Cancel(ctx context.Context, id string) error

	// Get returns an active booking.
	Get(ctx context.Context, id string) (models.Booking, error)

	// ListActive returns scheduled bookings in insertion order.
	ListActive(ctx context.Context) ([]models.Booking, error)

	// ListAll returns every booking, cancelled included, in insertion order.
	ListAll(ctx context.Context) ([]models.Booking, error)

	IsSlotBooked(ctx context.Context, practitionerID string, date time.Time, at calendar.TimeOfDay) (bool, error)
}

// MemoryStore is an in-process Store. One mutex serialises every mutation so
// the slot index check and update happen as a single step.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.Booking
	slots map[models.SlotKey]string
	order []string
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*models.Booking),
		slots: make(map[models.SlotKey]string),
		now:   time.Now,
	}
}

// Insert adds a scheduled booking.
func (s *MemoryStore) Insert(_ context.Context, b models.Booking) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := b.Slot()
	if holder, ok := s.slots[key]; ok {
		return models.Booking{}, &ConflictError{Slot: key, HeldBy: holder}
	}
	if _, exists := s.byID[b.ID]; exists {
		return models.Booking{}, &ValidationError{Field: "id", Reason: "duplicate booking id"}
	}

	now := s.now()
	b.Status = models.StatusScheduled
	b.CreatedAt = now
	b.UpdatedAt = now

	stored := b
	s.byID[b.ID] = &stored
	s.slots[key] = b.ID
	s.order = append(s.order, b.ID)
	return stored, nil
}

// Replace swaps an active booking's slot and fields in place.
func (s *MemoryStore) Replace(_ context.Context, id string, b models.Booking) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok || !current.IsActive() {
		return models.Booking{}, &NotFoundError{ID: id}
	}

	oldKey := current.Slot()
	newKey := b.Slot()
	if holder, taken := s.slots[newKey]; taken && holder != id {
		return models.Booking{}, &ConflictError{Slot: newKey, HeldBy: holder}
	}

	b.ID = id
	b.Status = models.StatusScheduled
	b.CreatedAt = current.CreatedAt
	b.UpdatedAt = s.now()

	delete(s.slots, oldKey)
	s.slots[newKey] = id
	*current = b
	return b, nil
}

// Cancel transitions an active booking to cancelled and frees its slot.
func (s *MemoryStore) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok || !current.IsActive() {
		return &NotFoundError{ID: id}
	}

	delete(s.slots, current.Slot())
	current.Status = models.StatusCancelled
	current.UpdatedAt = s.now()
	return nil
}

// Get returns an active booking by id.
func (s *MemoryStore) Get(_ context.Context, id string) (models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current, ok := s.byID[id]
	if !ok || !current.IsActive() {
		return models.Booking{}, &NotFoundError{ID: id}
	}
	return *current, nil
}

// ListActive returns scheduled bookings in insertion order.
func (s *MemoryStore) ListActive(_ context.Context) ([]models.Booking, error) {
	return s.list(true), nil
}

// ListAll returns all bookings in insertion order.
func (s *MemoryStore) ListAll(_ context.Context) ([]models.Booking, error) {
	return s.list(false), nil
}

func (s *MemoryStore) list(activeOnly bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Booking, 0, len(s.order))
	for _, id := range s.order {
		b := s.byID[id]
		if activeOnly && !b.IsActive() {
			continue
		}
		result = append(result, *b)
	}
	return result
}

// IsSlotBooked reports whether the practitioner's slot is held.
func (s *MemoryStore) IsSlotBooked(_ context.Context, practitionerID string, date time.Time, at calendar.TimeOfDay) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := models.SlotKey{Date: date.Format(calendar.DateLayout), Time: at, PractitionerID: practitionerID}
	_, ok := s.slots[key]
	return ok, nil
}
