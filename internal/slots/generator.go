package slots

import (
	"context"
	"fmt"
	"time"

	"dentalportal/internal/calendar"
)

// Slot is a bookable time on a given day.
type Slot struct {
	Date      time.Time
	Time      calendar.TimeOfDay
	Available bool
}

// SlotInfo is a simplified representation for the API.
type SlotInfo struct {
	Time      string `json:"time"` // "9:30"
	Available bool   `json:"available"`
}

// BookingChecker checks if a practitioner's slot already holds a booking.
type BookingChecker interface {
	IsSlotBooked(ctx context.Context, practitionerID string, date time.Time, at calendar.TimeOfDay) (bool, error)
}

// GenerateAvailableDates returns the next policy.HorizonDays working days strictly
// after today, in ascending order. The walk is bounded to HorizonDays*7 calendar
// days; a policy that rejects too many days yields a PolicyError.
func GenerateAvailableDates(policy calendar.Policy, today time.Time) ([]time.Time, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	limit := policy.HorizonDays * 7
	dates := make([]time.Time, 0, policy.HorizonDays)
	cursor := policy.DateOf(today)

	for i := 0; i < limit && len(dates) < policy.HorizonDays; i++ {
		cursor = cursor.AddDate(0, 0, 1)
		if policy.WorkingDay(cursor) {
			dates = append(dates, cursor)
		}
	}

	if len(dates) < policy.HorizonDays {
		return nil, &calendar.PolicyError{
			Reason: fmt.Sprintf("found %d of %d working days within %d days", len(dates), policy.HorizonDays, limit),
		}
	}
	return dates, nil
}

// GenerateTimeSlots returns the bookable times of a working day, from
// DayStartHour:00 in SlotIncrementMinutes steps up to but excluding DayEndHour:00.
func GenerateTimeSlots(policy calendar.Policy) []calendar.TimeOfDay {
	increment := policy.SlotIncrementMinutes
	if increment <= 0 {
		increment = 30
	}

	start := calendar.At(policy.DayStartHour, 0)
	end := calendar.At(policy.DayEndHour, 0)

	var times []calendar.TimeOfDay
	for cursor := start; cursor.Before(end); cursor = cursor.Add(increment) {
		times = append(times, cursor)
	}
	return times
}

// ContainsDate reports whether date is one of dates (compared by calendar day).
func ContainsDate(dates []time.Time, date time.Time) bool {
	day := date.Format(calendar.DateLayout)
	for _, d := range dates {
		if d.Format(calendar.DateLayout) == day {
			return true
		}
	}
	return false
}

// ContainsTime reports whether at is one of times.
func ContainsTime(times []calendar.TimeOfDay, at calendar.TimeOfDay) bool {
	for _, t := range times {
		if t == at {
			return true
		}
	}
	return false
}

// Generator annotates generated slots with their booking state.
type Generator struct {
	checker BookingChecker
}

// NewGenerator creates a new slot generator.
func NewGenerator(checker BookingChecker) *Generator {
	return &Generator{checker: checker}
}

// DaySlots returns every slot of the day for a practitioner. Booked slots are
// kept in the list and marked unavailable.
func (g *Generator) DaySlots(ctx context.Context, policy calendar.Policy, practitionerID string, date time.Time) ([]Slot, error) {
	if !policy.WorkingDay(date) {
		return nil, nil
	}

	times := GenerateTimeSlots(policy)
	slots := make([]Slot, 0, len(times))

	for _, at := range times {
		booked := false
		if g.checker != nil && practitionerID != "" {
			var err error
			booked, err = g.checker.IsSlotBooked(ctx, practitionerID, date, at)
			if err != nil {
				return nil, fmt.Errorf("check slot: %w", err)
			}
		}

		slots = append(slots, Slot{
			Date:      date,
			Time:      at,
			Available: !booked,
		})
	}

	return slots, nil
}

// ToSlotInfo converts slots to SlotInfo for the API.
func ToSlotInfo(slots []Slot) []SlotInfo {
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			Time:      s.Time.String(),
			Available: s.Available,
		}
	}
	return result
}

// GetAvailableSlots returns only available slots.
func GetAvailableSlots(slots []Slot) []Slot {
	var available []Slot
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// FormatDuration formats duration in minutes to a human-readable string.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
