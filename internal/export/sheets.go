package export

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/events"
	"dentalportal/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// BookingSource lists bookings to mirror.
type BookingSource interface {
	ListActive(ctx context.Context) ([]models.Booking, error)
}

// SheetsService mirrors active bookings into a Google spreadsheet tab.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	source        BookingSource
	catalog       func() booking.Catalog
	logger        zerolog.Logger

	mu       sync.Mutex
	lastSync time.Time
}

// NewSheetsServiceFromFile authenticates with a service account key file.
func NewSheetsServiceFromFile(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, source BookingSource, catalog func() booking.Catalog, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return NewSheetsService(ctx, spreadsheetID, sheetName, source, catalog, logger, option.WithHTTPClient(jwt.Client(ctx)))
}

// NewSheetsService creates the service with explicit client options.
func NewSheetsService(ctx context.Context, spreadsheetID, sheetName string, source BookingSource, catalog func() booking.Catalog, logger *zerolog.Logger, opts ...option.ClientOption) (*SheetsService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "sheets").Logger()
	}
	if sheetName == "" {
		sheetName = "Bookings"
	}
	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		source:        source,
		catalog:       catalog,
		logger:        l,
	}, nil
}

// Subscribe resyncs the sheet after every booking mutation. Syncs run on a
// queue worker until ctx is done.
func (s *SheetsService) Subscribe(ctx context.Context, bus *events.EventBus) *events.Queue {
	handler := func(events.Event) error {
		syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return s.Sync(syncCtx)
	}
	return bus.SubscribeQueued(ctx, "sheets", handler, 64,
		booking.EventBookingCreated,
		booking.EventBookingRescheduled,
		booking.EventBookingCancelled,
	)
}

// Sync rewrites the sheet with the current active bookings.
func (s *SheetsService) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.source.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	var c booking.Catalog
	if s.catalog != nil {
		c = s.catalog()
	}

	values := make([][]interface{}, 0, len(bookings)+1)
	header := make([]interface{}, len(BookingColumns))
	for i, col := range BookingColumns {
		header[i] = col
	}
	values = append(values, header)
	for _, b := range filterActiveBookings(bookings) {
		values = append(values, BookingRow(b, c))
	}

	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}

	s.lastSync = time.Now()
	s.logger.Debug().Int("rows", len(values)-1).Msg("sheet synced")
	return nil
}

// LastSync returns the time of the last successful sync.
func (s *SheetsService) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func filterActiveBookings(bookings []models.Booking) []models.Booking {
	var active []models.Booking
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}
