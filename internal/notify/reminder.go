package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/models"

	"github.com/rs/zerolog"
)

// BookingLister provides active bookings.
type BookingLister interface {
	ListActive(ctx context.Context) ([]models.Booking, error)
}

// Reminder sends a daily digest of the next day's appointments.
type Reminder struct {
	bookings BookingLister
	notifier Notifier
	catalog  func() booking.Catalog
	hour     int
	now      func() time.Time
	logger   zerolog.Logger
}

func NewReminder(bookings BookingLister, n Notifier, catalog func() booking.Catalog, hour int, logger *zerolog.Logger) *Reminder {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "reminder").Logger()
	}
	return &Reminder{bookings: bookings, notifier: n, catalog: catalog, hour: hour, now: time.Now, logger: l}
}

// Start schedules the digest at r.hour local time every day until ctx is done.
func (r *Reminder) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(timeUntilNextHour(r.now(), r.hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if err := r.SendTomorrow(ctx); err != nil {
					r.logger.Error().Err(err).Msg("send reminders")
				}
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

// SendTomorrow sends the digest for the day after now. No message is sent
// when nothing is scheduled.
func (r *Reminder) SendTomorrow(ctx context.Context) error {
	text, err := r.Digest(ctx, r.now().AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return r.notifier.Notify(ctx, text)
}

// Digest renders the list of active bookings on day, ordered by time.
func (r *Reminder) Digest(ctx context.Context, day time.Time) (string, error) {
	all, err := r.bookings.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}

	key := day.Format(calendar.DateLayout)
	var due []models.Booking
	for _, b := range all {
		if b.DateString() == key {
			due = append(due, b)
		}
	}
	if len(due) == 0 {
		return "", nil
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].Time.Before(due[j].Time) })

	var c booking.Catalog
	if r.catalog != nil {
		c = r.catalog()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Appointments for %s:\n", day.Format("Mon 02 Jan 2006"))
	for _, b := range due {
		typeName := b.AppointmentTypeID
		if t, ok := c.TypeByID(b.AppointmentTypeID); ok {
			typeName = t.Name
		}
		practitioner := b.PractitionerID
		if p, ok := c.PractitionerByID(b.PractitionerID); ok {
			practitioner = p.Name
		}
		fmt.Fprintf(&sb, "%s %s, %s\n", b.Time, typeName, practitioner)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func timeUntilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
