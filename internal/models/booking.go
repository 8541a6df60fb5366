package models

import (
	"encoding/json"
	"time"

	"dentalportal/internal/calendar"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking represents a patient appointment.
type Booking struct {
	ID                string             `json:"id"`
	Date              time.Time          `json:"-"`
	Time              calendar.TimeOfDay `json:"time"`
	AppointmentTypeID string             `json:"appointment_type_id"`
	PractitionerID    string             `json:"practitioner_id"`
	Reason            string             `json:"reason,omitempty"`
	Status            BookingStatus      `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// DateString returns the calendar day as "2006-01-02".
func (b *Booking) DateString() string {
	return b.Date.Format(calendar.DateLayout)
}

// MarshalJSON renders Date as a plain calendar day.
func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(b), Date: b.DateString()})
}

// IsActive reports whether the booking still holds its slot.
func (b *Booking) IsActive() bool {
	return b.Status == StatusScheduled
}

// Slot returns the practitioner-scoped slot the booking occupies.
func (b *Booking) Slot() SlotKey {
	return SlotKey{Date: b.DateString(), Time: b.Time, PractitionerID: b.PractitionerID}
}

// StartsAt combines the date and time in the date's location.
func (b *Booking) StartsAt() time.Time {
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), b.Time.Hour, b.Time.Minute, 0, 0, b.Date.Location())
}

// SlotKey identifies a practitioner's slot. At most one scheduled booking may hold it.
type SlotKey struct {
	Date           string
	Time           calendar.TimeOfDay
	PractitionerID string
}

// String renders the key for logs and lock names.
func (k SlotKey) String() string {
	return k.Date + "T" + k.Time.String() + "/" + k.PractitionerID
}

// AppointmentType is an entry of the static appointment catalog.
type AppointmentType struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
}

// Practitioner is a dentist who can be booked.
type Practitioner struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Specialty string `json:"specialty" yaml:"specialty"`
}
