package config

import (
	"fmt"
	"os"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/models"

	"gopkg.in/yaml.v3"
)

// CalendarConfig is the YAML form of the booking calendar policy.
type CalendarConfig struct {
	Timezone             string `yaml:"timezone"`
	DayStartHour         int    `yaml:"day_start_hour"`
	DayEndHour           int    `yaml:"day_end_hour"`
	SlotIncrementMinutes int    `yaml:"slot_increment_minutes"`
	HorizonDays          int    `yaml:"horizon_days"`
	MinLeadTimeHours     int    `yaml:"min_lead_time_hours"`
	DaysOff              []int  `yaml:"days_off"` // 1=Mon, 7=Sun
}

// HolidayConfig represents a clinic closure date.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-12-25"
	Name string `yaml:"name"`
}

// ClinicConfig is the root configuration for clinic.yaml.
type ClinicConfig struct {
	Calendar         CalendarConfig           `yaml:"calendar"`
	Holidays         []HolidayConfig          `yaml:"holidays"`
	AppointmentTypes []models.AppointmentType `yaml:"appointment_types"`
	Practitioners    []models.Practitioner    `yaml:"practitioners"`
}

// LoadClinic loads and validates clinic configuration from a YAML file.
func LoadClinic(path string) (*ClinicConfig, error) {
	if path == "" {
		path = "configs/clinic.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clinic config: %w", err)
	}

	var cfg ClinicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse clinic config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate clinic config: %w", err)
	}

	return &cfg, nil
}

// DefaultClinic returns the built-in configuration used when no clinic file exists.
func DefaultClinic() *ClinicConfig {
	cfg := &ClinicConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *ClinicConfig) applyDefaults() {
	def := calendar.DefaultPolicy()
	cal := &c.Calendar
	if cal.DayStartHour == 0 && cal.DayEndHour == 0 {
		cal.DayStartHour = def.DayStartHour
		cal.DayEndHour = def.DayEndHour
	}
	if cal.SlotIncrementMinutes == 0 {
		cal.SlotIncrementMinutes = def.SlotIncrementMinutes
	}
	if cal.HorizonDays == 0 {
		cal.HorizonDays = def.HorizonDays
	}
	if cal.MinLeadTimeHours == 0 {
		cal.MinLeadTimeHours = def.MinLeadTimeHours
	}
	// An explicit empty list means open every day.
	if cal.DaysOff == nil {
		cal.DaysOff = []int{6, 7}
	}

	catalog := booking.DefaultCatalog()
	if len(c.AppointmentTypes) == 0 {
		c.AppointmentTypes = catalog.Types
	}
	if len(c.Practitioners) == 0 {
		c.Practitioners = catalog.Practitioners
	}
}

// Validate checks the configuration for errors.
func (c *ClinicConfig) Validate() error {
	if c.Calendar.Timezone != "" {
		if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
			return fmt.Errorf("calendar.timezone: %w", err)
		}
	}

	for i, d := range c.Calendar.DaysOff {
		if d < 1 || d > 7 {
			return fmt.Errorf("calendar.days_off[%d]: invalid day %d, must be 1-7 (1=Mon, 7=Sun)", i, d)
		}
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := time.Parse(calendar.DateLayout, h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: invalid date format '%s', expected YYYY-MM-DD", i, h.Date)
		}
	}

	typeIDs := make(map[string]bool)
	for i, t := range c.AppointmentTypes {
		if t.ID == "" {
			return fmt.Errorf("appointment_types[%d]: id is required", i)
		}
		if typeIDs[t.ID] {
			return fmt.Errorf("appointment_types[%d]: duplicate id '%s'", i, t.ID)
		}
		typeIDs[t.ID] = true
		if t.Name == "" {
			return fmt.Errorf("appointment_types[%d]: name is required", i)
		}
		if t.DurationMinutes <= 0 {
			return fmt.Errorf("appointment_types[%d]: duration_minutes must be positive", i)
		}
	}

	practitionerIDs := make(map[string]bool)
	for i, p := range c.Practitioners {
		if p.ID == "" {
			return fmt.Errorf("practitioners[%d]: id is required", i)
		}
		if practitionerIDs[p.ID] {
			return fmt.Errorf("practitioners[%d]: duplicate id '%s'", i, p.ID)
		}
		practitionerIDs[p.ID] = true
		if p.Name == "" {
			return fmt.Errorf("practitioners[%d]: name is required", i)
		}
	}

	policy, err := c.Policy()
	if err != nil {
		return err
	}
	return policy.Validate()
}

// Policy builds the calendar policy described by the configuration.
func (c *ClinicConfig) Policy() (calendar.Policy, error) {
	loc := time.Local
	if c.Calendar.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(c.Calendar.Timezone); err != nil {
			return calendar.Policy{}, fmt.Errorf("calendar.timezone: %w", err)
		}
	}

	daysOff := make([]time.Weekday, 0, len(c.Calendar.DaysOff))
	for _, d := range c.Calendar.DaysOff {
		// Convert our format (1=Mon, 7=Sun) to Go's weekday (0=Sun)
		daysOff = append(daysOff, time.Weekday(d%7))
	}

	holidays := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.ParseInLocation(calendar.DateLayout, h.Date, loc)
		if err != nil {
			return calendar.Policy{}, fmt.Errorf("holiday %q: %w", h.Date, err)
		}
		holidays = append(holidays, d)
	}

	return calendar.Policy{
		WorkingDay:           calendar.ExcludeDays(daysOff, holidays),
		DayStartHour:         c.Calendar.DayStartHour,
		DayEndHour:           c.Calendar.DayEndHour,
		SlotIncrementMinutes: c.Calendar.SlotIncrementMinutes,
		HorizonDays:          c.Calendar.HorizonDays,
		MinLeadTimeHours:     c.Calendar.MinLeadTimeHours,
		Location:             loc,
	}, nil
}

// Catalog returns the appointment catalog.
func (c *ClinicConfig) Catalog() booking.Catalog {
	return booking.Catalog{
		Types:         append([]models.AppointmentType(nil), c.AppointmentTypes...),
		Practitioners: append([]models.Practitioner(nil), c.Practitioners...),
	}
}

// IsHoliday checks if a date is a holiday.
func (c *ClinicConfig) IsHoliday(date time.Time) (bool, string) {
	dateStr := date.Format(calendar.DateLayout)
	for _, h := range c.Holidays {
		if h.Date == dateStr {
			return true, h.Name
		}
	}
	return false, ""
}

// String returns a summary of the configuration.
func (c *ClinicConfig) String() string {
	return fmt.Sprintf("ClinicConfig: %d appointment types, %d practitioners, %d holidays",
		len(c.AppointmentTypes), len(c.Practitioners), len(c.Holidays))
}
