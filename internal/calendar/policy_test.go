package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr bool
	}{
		{"default is valid", func(p *Policy) {}, false},
		{"missing predicate", func(p *Policy) { p.WorkingDay = nil }, true},
		{"end before start", func(p *Policy) { p.DayEndHour = 8 }, true},
		{"end equals start", func(p *Policy) { p.DayEndHour = 9 }, true},
		{"zero increment", func(p *Policy) { p.SlotIncrementMinutes = 0 }, true},
		{"zero horizon", func(p *Policy) { p.HorizonDays = 0 }, true},
		{"start out of range", func(p *Policy) { p.DayStartHour = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPolicy))
			var pe *PolicyError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestWeekdays(t *testing.T) {
	// 2026-10-19 is a Monday.
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.True(t, Weekdays(monday))
	assert.True(t, Weekdays(monday.AddDate(0, 0, 4)))
	assert.False(t, Weekdays(monday.AddDate(0, 0, 5)))
	assert.False(t, Weekdays(monday.AddDate(0, 0, 6)))
}

func TestExcludeDays(t *testing.T) {
	holiday := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	pred := ExcludeDays([]time.Weekday{time.Saturday, time.Sunday, time.Wednesday}, []time.Time{holiday})

	assert.True(t, pred(time.Date(2026, 12, 21, 0, 0, 0, 0, time.UTC)))  // Monday
	assert.False(t, pred(time.Date(2026, 12, 23, 0, 0, 0, 0, time.UTC))) // Wednesday
	assert.False(t, pred(holiday))                                       // Friday holiday
	assert.False(t, pred(time.Date(2026, 12, 26, 0, 0, 0, 0, time.UTC))) // Saturday
}

func TestDateOf(t *testing.T) {
	p := DefaultPolicy()
	p.Location = time.UTC
	d := p.DateOf(time.Date(2026, 10, 19, 15, 45, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), d)
}

func TestParseDate(t *testing.T) {
	p := DefaultPolicy()
	p.Location = time.UTC

	d, err := p.ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, 19, d.Day())

	_, err = p.ParseDate("19.10.2026")
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"9:00", At(9, 0), false},
		{"09:00", At(9, 0), false},
		{"16:30", At(16, 30), false},
		{" 10:00 ", At(10, 0), false},
		{"10", TimeOfDay{}, true},
		{"10:5", TimeOfDay{}, true},
		{"25:00", TimeOfDay{}, true},
		{"ab:00", TimeOfDay{}, true},
		{"+9:00", TimeOfDay{}, true},
		{"-0:00", TimeOfDay{}, true},
		{"10:+5", TimeOfDay{}, true},
		{"009:00", TimeOfDay{}, true},
		{":30", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	assert.Equal(t, "9:00", At(9, 0).String())
	assert.Equal(t, "16:30", At(16, 30).String())
	assert.Equal(t, At(10, 15), At(9, 45).Add(30))
	assert.True(t, At(9, 30).Before(At(10, 0)))

	data, err := json.Marshal(struct {
		Time TimeOfDay `json:"time"`
	}{At(9, 30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"9:30"}`, string(data))

	var decoded struct {
		Time TimeOfDay `json:"time"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"time":"14:00"}`), &decoded))
	assert.Equal(t, At(14, 0), decoded.Time)
}
