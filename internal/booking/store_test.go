package booking

import (
	"context"
	"testing"
	"time"

	"dentalportal/internal/calendar"
	"dentalportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(id string, day int, at calendar.TimeOfDay, practitioner string) models.Booking {
	return models.Booking{
		ID:                id,
		Date:              time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC),
		Time:              at,
		AppointmentTypeID: "1",
		PractitionerID:    practitioner,
	}
}

func TestMemoryStore_InsertConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Insert(ctx, newBooking("a", 19, calendar.At(10, 0), "1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.Insert(ctx, newBooking("b", 19, calendar.At(10, 0), "1"))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Insert(ctx, newBooking("a", 20, calendar.At(10, 0), "1"))
	assert.ErrorIs(t, err, ErrValidation)

	booked, err := s.IsSlotBooked(ctx, "1", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), calendar.At(10, 0))
	require.NoError(t, err)
	assert.True(t, booked)

	booked, err = s.IsSlotBooked(ctx, "2", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), calendar.At(10, 0))
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestMemoryStore_ReplaceAndCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Insert(ctx, newBooking("a", 19, calendar.At(10, 0), "1"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, newBooking("b", 19, calendar.At(11, 0), "1"))
	require.NoError(t, err)

	_, err = s.Replace(ctx, "a", newBooking("", 19, calendar.At(11, 0), "1"))
	assert.ErrorIs(t, err, ErrConflict)

	moved, err := s.Replace(ctx, "a", newBooking("", 20, calendar.At(9, 0), "1"))
	require.NoError(t, err)
	assert.Equal(t, "a", moved.ID)
	assert.Equal(t, a.CreatedAt, moved.CreatedAt)

	require.NoError(t, s.Cancel(ctx, "b"))
	assert.ErrorIs(t, s.Cancel(ctx, "b"), ErrNotFound)
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Replace(ctx, "b", newBooking("", 21, calendar.At(9, 0), "1"))
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"a", "b"}, []string{all[0].ID, all[1].ID})
	assert.Equal(t, models.StatusCancelled, all[1].Status)

	// Freed slot is reusable.
	_, err = s.Insert(ctx, newBooking("c", 19, calendar.At(11, 0), "1"))
	require.NoError(t, err)
}
