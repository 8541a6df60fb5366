package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dentalportal/internal/calendar"
	"dentalportal/internal/metrics"
	"dentalportal/internal/models"
	"dentalportal/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types published by the resolver.
const (
	EventBookingCreated     = "booking.created"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingCancelled   = "booking.cancelled"
)

// Request is the raw booking request as submitted by a patient.
type Request struct {
	TypeID         string `json:"appointment_type_id"`
	PractitionerID string `json:"practitioner_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Reason         string `json:"reason,omitempty"`
}

// Publisher receives domain events after a successful mutation.
type Publisher interface {
	Publish(evType string, payload interface{})
}

// Resolver validates booking requests against the calendar policy and the
// catalog and applies them to the store.
type Resolver struct {
	mu      sync.RWMutex
	policy  calendar.Policy
	catalog Catalog

	store     Store
	locker    SlotLocker
	publisher Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLocker enables cross-instance slot locking.
func WithLocker(l SlotLocker) Option {
	return func(r *Resolver) { r.locker = l }
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(r *Resolver) { r.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l.With().Str("component", "booking").Logger()
		}
	}
}

// NewResolver creates a resolver over store.
func NewResolver(policy calendar.Policy, catalog Catalog, store Store, opts ...Option) *Resolver {
	r := &Resolver{
		policy:  policy,
		catalog: catalog,
		store:   store,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the current calendar policy.
func (r *Resolver) Policy() calendar.Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// SetPolicy swaps the calendar policy. Existing bookings are not revalidated.
func (r *Resolver) SetPolicy(p calendar.Policy) {
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
}

// Catalog returns the current catalog.
func (r *Resolver) Catalog() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// SetCatalog swaps the catalog.
func (r *Resolver) SetCatalog(c Catalog) {
	r.mu.Lock()
	r.catalog = c
	r.mu.Unlock()
}

// Store returns the underlying booking store.
func (r *Resolver) Store() Store {
	return r.store
}

// AvailableDates returns the bookable dates as of now.
func (r *Resolver) AvailableDates() ([]time.Time, error) {
	return slots.GenerateAvailableDates(r.Policy(), r.now())
}

// TimeSlots returns the bookable times of a working day.
func (r *Resolver) TimeSlots() []calendar.TimeOfDay {
	return slots.GenerateTimeSlots(r.Policy())
}

// DaySlots lists a day's slots for a practitioner with booked ones marked unavailable.
func (r *Resolver) DaySlots(ctx context.Context, practitionerID string, date time.Time) ([]slots.Slot, error) {
	policy := r.Policy()
	dates, err := slots.GenerateAvailableDates(policy, r.now())
	if err != nil {
		return nil, err
	}
	if !slots.ContainsDate(dates, date) {
		return nil, nil
	}
	return slots.NewGenerator(r.store).DaySlots(ctx, policy, practitionerID, date)
}

// Book validates req and creates a scheduled booking.
func (r *Resolver) Book(ctx context.Context, req Request) (models.Booking, error) {
	candidate, err := r.validate(req)
	if err != nil {
		r.rejected("create", req, err)
		return models.Booking{}, err
	}
	candidate.ID = uuid.NewString()

	unlock, err := r.lock(ctx, candidate.Slot())
	if err != nil {
		r.rejected("create", req, err)
		return models.Booking{}, err
	}
	created, err := r.store.Insert(ctx, candidate)
	unlock()
	if err != nil {
		r.rejected("create", req, err)
		return models.Booking{}, err
	}

	metrics.IncBookingCreated("scheduled")
	r.logger.Info().
		Str("booking_id", created.ID).
		Str("slot", created.Slot().String()).
		Msg("booking created")
	r.publish(EventBookingCreated, created)
	return created, nil
}

// Reschedule validates req and moves an active booking to the requested slot.
// On any failure the original booking is left unchanged.
func (r *Resolver) Reschedule(ctx context.Context, id string, req Request) (models.Booking, error) {
	current, err := r.store.Get(ctx, id)
	if err != nil {
		r.rejected("reschedule", req, err)
		return models.Booking{}, err
	}

	candidate, err := r.validate(req)
	if err != nil {
		r.rejected("reschedule", req, err)
		return models.Booking{}, err
	}

	unlock := func() {}
	if candidate.Slot() != current.Slot() {
		unlock, err = r.lock(ctx, candidate.Slot())
		if err != nil {
			r.rejected("reschedule", req, err)
			return models.Booking{}, err
		}
	}
	updated, err := r.store.Replace(ctx, id, candidate)
	unlock()
	if err != nil {
		r.rejected("reschedule", req, err)
		return models.Booking{}, err
	}

	metrics.IncBookingRescheduled("scheduled")
	r.logger.Info().
		Str("booking_id", id).
		Str("from", current.Slot().String()).
		Str("to", updated.Slot().String()).
		Msg("booking rescheduled")
	r.publish(EventBookingRescheduled, updated)
	return updated, nil
}

// Cancel cancels an active booking and frees its slot.
func (r *Resolver) Cancel(ctx context.Context, id string) error {
	current, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Cancel(ctx, id); err != nil {
		return err
	}

	metrics.IncBookingCancelled()
	r.logger.Info().Str("booking_id", id).Msg("booking cancelled")
	current.Status = models.StatusCancelled
	r.publish(EventBookingCancelled, current)
	return nil
}

// Get returns an active booking.
func (r *Resolver) Get(ctx context.Context, id string) (models.Booking, error) {
	return r.store.Get(ctx, id)
}

// ListActive returns scheduled bookings.
func (r *Resolver) ListActive(ctx context.Context) ([]models.Booking, error) {
	return r.store.ListActive(ctx)
}

// validate runs every check that does not touch the store. Fields are checked
// in a fixed order so the first failure is deterministic.
func (r *Resolver) validate(req Request) (models.Booking, error) {
	req.TypeID = strings.TrimSpace(req.TypeID)
	req.PractitionerID = strings.TrimSpace(req.PractitionerID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	required := []struct {
		field string
		value string
	}{
		{"appointment_type_id", req.TypeID},
		{"practitioner_id", req.PractitionerID},
		{"date", req.Date},
		{"time", req.Time},
	}
	for _, f := range required {
		if f.value == "" {
			return models.Booking{}, &ValidationError{Field: f.field, Reason: "is required"}
		}
	}

	policy := r.Policy()
	catalog := r.Catalog()

	date, err := policy.ParseDate(req.Date)
	if err != nil {
		return models.Booking{}, &ValidationError{Field: "date", Reason: err.Error()}
	}
	at, err := calendar.ParseTimeOfDay(req.Time)
	if err != nil {
		return models.Booking{}, &ValidationError{Field: "time", Reason: err.Error()}
	}

	if _, ok := catalog.TypeByID(req.TypeID); !ok {
		return models.Booking{}, &ValidationError{Field: "appointment_type_id", Reason: "unknown appointment type"}
	}
	if _, ok := catalog.PractitionerByID(req.PractitionerID); !ok {
		return models.Booking{}, &ValidationError{Field: "practitioner_id", Reason: "unknown practitioner"}
	}

	dates, err := slots.GenerateAvailableDates(policy, r.now())
	if err != nil {
		return models.Booking{}, err
	}
	if !slots.ContainsDate(dates, date) {
		return models.Booking{}, &ValidationError{Field: "date", Reason: "date is not available for booking"}
	}
	if !slots.ContainsTime(slots.GenerateTimeSlots(policy), at) {
		return models.Booking{}, &ValidationError{Field: "time", Reason: "time is not a bookable slot"}
	}

	return models.Booking{
		Date:              date,
		Time:              at,
		AppointmentTypeID: req.TypeID,
		PractitionerID:    req.PractitionerID,
		Reason:            strings.TrimSpace(req.Reason),
	}, nil
}

func (r *Resolver) lock(ctx context.Context, key models.SlotKey) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	unlock, err := r.locker.Lock(ctx, key.String())
	if errors.Is(err, ErrLockHeld) {
		return nil, &ConflictError{Slot: key}
	}
	if err != nil {
		return nil, err
	}
	return unlock, nil
}

func (r *Resolver) rejected(op string, req Request, err error) {
	if errors.Is(err, ErrConflict) {
		metrics.IncSlotConflict()
	}
	switch op {
	case "create":
		metrics.IncBookingCreated("rejected")
	case "reschedule":
		metrics.IncBookingRescheduled("rejected")
	}

	event := r.logger.Warn()
	if errors.Is(err, calendar.ErrPolicy) || !isUserError(err) {
		event = r.logger.Error()
	}
	event.Err(err).
		Str("op", op).
		Str("practitioner_id", req.PractitionerID).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("booking request rejected")
}

func (r *Resolver) publish(evType string, payload interface{}) {
	if r.publisher != nil {
		r.publisher.Publish(evType, payload)
	}
}

func isUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound)
}
