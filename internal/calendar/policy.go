// Package calendar holds the clinic calendar policy: which days are working
// days and how a working day is divided into bookable times.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrPolicy is wrapped by every PolicyError.
var ErrPolicy = errors.New("calendar policy misconfigured")

// PolicyError reports a calendar policy that cannot produce valid dates or times.
// It is a system error, not a user input error.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("calendar policy: %s", e.Reason)
}

func (e *PolicyError) Unwrap() error { return ErrPolicy }

// WorkingDayFunc reports whether appointments may be booked on date.
type WorkingDayFunc func(date time.Time) bool

// Policy is immutable booking calendar configuration.
type Policy struct {
	WorkingDay           WorkingDayFunc
	DayStartHour         int
	DayEndHour           int
	SlotIncrementMinutes int
	HorizonDays          int
	// MinLeadTimeHours is carried for display but not enforced when booking.
	MinLeadTimeHours int
	Location         *time.Location
}

// DefaultPolicy returns the clinic's observed configuration:
// weekdays only, 9:00–17:00 in 30 minute steps, ten working days ahead.
func DefaultPolicy() Policy {
	return Policy{
		WorkingDay:           Weekdays,
		DayStartHour:         9,
		DayEndHour:           17,
		SlotIncrementMinutes: 30,
		HorizonDays:          10,
		MinLeadTimeHours:     24,
		Location:             time.Local,
	}
}

// Validate checks the policy for values that cannot produce a schedule.
func (p Policy) Validate() error {
	if p.WorkingDay == nil {
		return &PolicyError{Reason: "working day predicate is not set"}
	}
	if p.DayStartHour < 0 || p.DayStartHour > 23 {
		return &PolicyError{Reason: fmt.Sprintf("day start hour %d out of range", p.DayStartHour)}
	}
	if p.DayEndHour < 1 || p.DayEndHour > 24 {
		return &PolicyError{Reason: fmt.Sprintf("day end hour %d out of range", p.DayEndHour)}
	}
	if p.DayEndHour <= p.DayStartHour {
		return &PolicyError{Reason: "day end hour must be after day start hour"}
	}
	if p.SlotIncrementMinutes <= 0 {
		return &PolicyError{Reason: "slot increment must be positive"}
	}
	if p.HorizonDays <= 0 {
		return &PolicyError{Reason: "horizon days must be positive"}
	}
	return nil
}

// Loc returns the policy location, falling back to time.Local.
func (p Policy) Loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// DateOf truncates t to midnight in the policy location.
func (p Policy) DateOf(t time.Time) time.Time {
	loc := p.Loc()
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Weekdays is the reference working day predicate: Monday to Friday.
func Weekdays(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ExcludeDays builds a predicate that rejects the given weekdays and holiday dates.
// Holidays are compared by calendar date ("2006-01-02").
func ExcludeDays(daysOff []time.Weekday, holidays []time.Time) WorkingDayFunc {
	off := make(map[time.Weekday]bool, len(daysOff))
	for _, d := range daysOff {
		off[d] = true
	}
	closed := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		closed[h.Format(DateLayout)] = true
	}
	return func(date time.Time) bool {
		if off[date.Weekday()] {
			return false
		}
		return !closed[date.Format(DateLayout)]
	}
}

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// ParseDate parses a "2006-01-02" date in the policy location.
func (p Policy) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, p.Loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
