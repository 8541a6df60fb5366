package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORTAL_TEST_TOKEN", "secret-token")

	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "db", "portal.db")+`
telegram:
  enabled: true
  bot_token: ${PORTAL_TEST_TOKEN}
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Telegram.BotToken)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, "configs/clinic.yaml", cfg.Clinic.Path)
	assert.Equal(t, 5*time.Second, cfg.LockTTL())
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
	assert.Equal(t, 18, cfg.Reminders.Hour)
	assert.Zero(t, cfg.UploadStepDelay())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "server: [unclosed")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLogLevel_Fallback(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "loud"
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

const clinicYAML = `
calendar:
  timezone: UTC
  day_start_hour: 8
  day_end_hour: 12
  slot_increment_minutes: 60
  horizon_days: 3
  days_off: [6, 7]
holidays:
  - date: "2026-10-20"
    name: "Staff training"
appointment_types:
  - id: "1"
    name: "Consultation"
    duration_minutes: 30
practitioners:
  - id: "a"
    name: "Dr. Ana Silva"
    specialty: "General Dentistry"
`

func TestLoadClinic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clinic.yaml", clinicYAML)

	cfg, err := LoadClinic(path)
	require.NoError(t, err)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 8, policy.DayStartHour)
	assert.Equal(t, 12, policy.DayEndHour)
	assert.Equal(t, 60, policy.SlotIncrementMinutes)
	assert.Equal(t, 3, policy.HorizonDays)
	assert.Equal(t, 24, policy.MinLeadTimeHours)
	assert.Equal(t, time.UTC, policy.Location)

	assert.True(t, policy.WorkingDay(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))  // Monday
	assert.False(t, policy.WorkingDay(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))) // holiday
	assert.False(t, policy.WorkingDay(time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC))) // Sunday

	holiday, name := cfg.IsHoliday(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	assert.True(t, holiday)
	assert.Equal(t, "Staff training", name)

	catalog := cfg.Catalog()
	require.Len(t, catalog.Types, 1)
	require.Len(t, catalog.Practitioners, 1)
	_, ok := catalog.PractitionerByID("a")
	assert.True(t, ok)
}

func TestLoadClinic_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clinic.yaml", "holidays: []\n")

	cfg, err := LoadClinic(path)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7}, cfg.Calendar.DaysOff)
	assert.Len(t, cfg.AppointmentTypes, 5)
	assert.Len(t, cfg.Practitioners, 4)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 9, policy.DayStartHour)
	assert.Equal(t, 17, policy.DayEndHour)
	assert.Equal(t, 10, policy.HorizonDays)

	assert.Equal(t, cfg.Calendar, DefaultClinic().Calendar)
}

func TestLoadClinic_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad timezone", "calendar:\n  timezone: Mars/Olympus\n"},
		{"bad day off", "calendar:\n  days_off: [0]\n"},
		{"bad holiday", "holidays:\n  - date: 25-12-2026\n"},
		{"missing holiday date", "holidays:\n  - name: x\n"},
		{"end before start", "calendar:\n  day_start_hour: 12\n  day_end_hour: 9\n"},
		{"duplicate type", "appointment_types:\n  - {id: '1', name: A, duration_minutes: 30}\n  - {id: '1', name: B, duration_minutes: 30}\n"},
		{"zero duration", "appointment_types:\n  - {id: '1', name: A, duration_minutes: 0}\n"},
		{"practitioner without name", "practitioners:\n  - {id: '1'}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "clinic.yaml", tt.body)
			_, err := LoadClinic(path)
			assert.Error(t, err)
		})
	}
}

func TestWatchClinic_Reload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clinic.yaml", clinicYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *ClinicConfig, 4)
	err := WatchClinic(ctx, path, 10*time.Millisecond, nil, func(c *ClinicConfig) { updates <- c })
	require.NoError(t, err)

	first := <-updates
	assert.Len(t, first.Practitioners, 1)

	// Invalid edit is ignored.
	require.NoError(t, os.WriteFile(path, []byte("calendar:\n  days_off: [9]\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-updates:
		t.Fatal("invalid config must not be applied")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte(clinicYAML+`  - id: "b"
    name: "Dr. Ben Okafor"
`), 0o600))
	later := future.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case c := <-updates:
		assert.Len(t, c.Practitioners, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("reload not observed")
	}
}

func TestWatchClinic_MissingFile(t *testing.T) {
	err := WatchClinic(context.Background(), filepath.Join(t.TempDir(), "none.yaml"), time.Second, nil, nil)
	assert.Error(t, err)
}
