package slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"dentalportal/internal/calendar"
)

// mockChecker implements BookingChecker for testing
type mockChecker struct {
	bookedSlots map[string]bool // key: "H:MM"
	err         error
}

func (m *mockChecker) IsSlotBooked(ctx context.Context, practitionerID string, date time.Time, at calendar.TimeOfDay) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.bookedSlots == nil {
		return false, nil
	}
	return m.bookedSlots[at.String()], nil
}

func utcPolicy() calendar.Policy {
	p := calendar.DefaultPolicy()
	p.Location = time.UTC
	return p
}

func TestGenerateAvailableDates(t *testing.T) {
	// Sunday
	today := time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		today   time.Time
		horizon int
		pred    calendar.WorkingDayFunc
	}{
		{"weekdays from sunday", today, 10, calendar.Weekdays},
		{"weekdays from friday", time.Date(2026, 10, 23, 9, 0, 0, 0, time.UTC), 10, calendar.Weekdays},
		{"every day", today, 14, func(time.Time) bool { return true }},
		{"mondays only", today, 3, func(d time.Time) bool { return d.Weekday() == time.Monday }},
		{"single day", today, 1, calendar.Weekdays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := utcPolicy()
			p.HorizonDays = tt.horizon
			p.WorkingDay = tt.pred

			dates, err := GenerateAvailableDates(p, tt.today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(dates) != tt.horizon {
				t.Fatalf("expected %d dates, got %d", tt.horizon, len(dates))
			}

			todayDate := p.DateOf(tt.today)
			for i, d := range dates {
				if !tt.pred(d) {
					t.Errorf("date %s does not satisfy working day predicate", d.Format(calendar.DateLayout))
				}
				if !d.After(todayDate) {
					t.Errorf("date %s is not strictly after today", d.Format(calendar.DateLayout))
				}
				if i > 0 && !d.After(dates[i-1]) {
					t.Errorf("dates not strictly increasing at %d", i)
				}
			}
		})
	}
}

func TestGenerateAvailableDates_SkipsWeekend(t *testing.T) {
	p := utcPolicy()
	// Friday afternoon: next working day is Monday.
	dates, err := GenerateAvailableDates(p, time.Date(2026, 10, 23, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := dates[0].Format(calendar.DateLayout); got != "2026-10-26" {
		t.Errorf("expected first date 2026-10-26, got %s", got)
	}
	if got := dates[len(dates)-1].Format(calendar.DateLayout); got != "2026-11-06" {
		t.Errorf("expected last date 2026-11-06, got %s", got)
	}
}

func TestGenerateAvailableDates_PolicyError(t *testing.T) {
	tests := []struct {
		name string
		pred calendar.WorkingDayFunc
	}{
		{"rejects every day", func(time.Time) bool { return false }},
		{"too sparse", func(d time.Time) bool { return d.Day() == 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := utcPolicy()
			p.WorkingDay = tt.pred

			dates, err := GenerateAvailableDates(p, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
			if err == nil {
				t.Fatalf("expected policy error, got %d dates", len(dates))
			}
			if !errors.Is(err, calendar.ErrPolicy) {
				t.Errorf("expected ErrPolicy, got %v", err)
			}
		})
	}
}

func TestGenerateAvailableDates_InvalidPolicy(t *testing.T) {
	p := utcPolicy()
	p.HorizonDays = 0

	_, err := GenerateAvailableDates(p, time.Now())
	var pe *calendar.PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PolicyError, got %v", err)
	}
}

func TestGenerateTimeSlots(t *testing.T) {
	tests := []struct {
		name          string
		start, end    int
		increment     int
		expectedCount int
		first, last   string
	}{
		{"reference clinic day", 9, 17, 30, 16, "9:00", "16:30"},
		{"hourly", 9, 12, 60, 3, "9:00", "11:00"},
		{"quarter hours", 8, 10, 15, 8, "8:00", "9:45"},
		{"single hour", 13, 14, 30, 2, "13:00", "13:30"},
		{"default increment", 9, 11, 0, 4, "9:00", "10:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := utcPolicy()
			p.DayStartHour = tt.start
			p.DayEndHour = tt.end
			p.SlotIncrementMinutes = tt.increment

			times := GenerateTimeSlots(p)

			if len(times) != tt.expectedCount {
				t.Fatalf("expected %d slots, got %d", tt.expectedCount, len(times))
			}
			if times[0].String() != tt.first {
				t.Errorf("expected first %s, got %s", tt.first, times[0])
			}
			if times[len(times)-1].String() != tt.last {
				t.Errorf("expected last %s, got %s", tt.last, times[len(times)-1])
			}
			for i := 1; i < len(times); i++ {
				if !times[i-1].Before(times[i]) {
					t.Errorf("times not strictly increasing at %d", i)
				}
			}
		})
	}
}

func TestGenerateTimeSlots_ReferenceList(t *testing.T) {
	expected := []string{
		"9:00", "9:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
	}

	times := GenerateTimeSlots(utcPolicy())
	if len(times) != len(expected) {
		t.Fatalf("expected %d slots, got %d", len(expected), len(times))
	}
	for i, tm := range times {
		if tm.String() != expected[i] {
			t.Errorf("slot %d: expected %s, got %s", i, expected[i], tm)
		}
	}
}

func TestContains(t *testing.T) {
	p := utcPolicy()
	dates, err := GenerateAvailableDates(p, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ContainsDate(dates, time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)) {
		t.Error("expected monday to be available")
	}
	if ContainsDate(dates, time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)) {
		t.Error("saturday should not be available")
	}
	if ContainsDate(dates, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) {
		t.Error("today should not be available")
	}

	times := GenerateTimeSlots(p)
	if !ContainsTime(times, calendar.At(10, 0)) {
		t.Error("expected 10:00 to be a slot")
	}
	if ContainsTime(times, calendar.At(17, 0)) {
		t.Error("17:00 should not be a slot")
	}
	if ContainsTime(times, calendar.At(10, 15)) {
		t.Error("10:15 should not be a slot")
	}
}

func TestDaySlots(t *testing.T) {
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		date              time.Time
		practitionerID    string
		bookedSlots       map[string]bool
		expectedCount     int
		expectedAvailable int
	}{
		{
			name:              "no bookings",
			date:              monday,
			practitionerID:    "1",
			expectedCount:     16,
			expectedAvailable: 16,
		},
		{
			name:              "some bookings stay listed",
			date:              monday,
			practitionerID:    "1",
			bookedSlots:       map[string]bool{"9:00": true, "10:00": true, "16:30": true},
			expectedCount:     16,
			expectedAvailable: 13,
		},
		{
			name:              "no practitioner skips checker",
			date:              monday,
			bookedSlots:       map[string]bool{"9:00": true},
			expectedCount:     16,
			expectedAvailable: 16,
		},
		{
			name:           "weekend closed",
			date:           monday.AddDate(0, 0, 5),
			practitionerID: "1",
			expectedCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewGenerator(&mockChecker{bookedSlots: tt.bookedSlots})

			slots, err := generator.DaySlots(context.Background(), utcPolicy(), tt.practitionerID, tt.date)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(slots) != tt.expectedCount {
				t.Errorf("expected %d slots, got %d", tt.expectedCount, len(slots))
			}
			if got := len(GetAvailableSlots(slots)); got != tt.expectedAvailable {
				t.Errorf("expected %d available, got %d", tt.expectedAvailable, got)
			}
		})
	}
}

func TestDaySlots_CheckerError(t *testing.T) {
	generator := NewGenerator(&mockChecker{err: errors.New("db down")})

	_, err := generator.DaySlots(context.Background(), utcPolicy(), "1", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error from checker")
	}
}

func TestToSlotInfo(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	slots := []Slot{
		{Date: date, Time: calendar.At(9, 0), Available: true},
		{Date: date, Time: calendar.At(9, 30), Available: false},
	}

	infos := ToSlotInfo(slots)

	if len(infos) != 2 {
		t.Fatalf("expected 2 slot infos, got %d", len(infos))
	}

	if infos[0].Time != "9:00" || !infos[0].Available {
		t.Errorf("unexpected first slot: %v", infos[0])
	}

	if infos[1].Time != "9:30" || infos[1].Available {
		t.Errorf("unexpected second slot: %v", infos[1])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{30, "30 min"},
		{45, "45 min"},
		{60, "1 hour"},
		{90, "1 h 30 min"},
		{120, "2 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatDuration(tt.minutes)
			if result != tt.expected {
				t.Errorf("FormatDuration(%d): expected %q, got %q", tt.minutes, tt.expected, result)
			}
		})
	}
}
