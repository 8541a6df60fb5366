package api

import (
	"bytes"
	"net/http"
	"strings"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/export"
	"dentalportal/internal/models"
	"dentalportal/internal/slots"

	"github.com/go-chi/chi/v5"
)

// CatalogResponse lists what can be booked.
type CatalogResponse struct {
	AppointmentTypes []models.AppointmentType `json:"appointment_types"`
	Practitioners    []models.Practitioner    `json:"practitioners"`
}

// AvailabilityResponse lists the bookable dates and the times of a working day.
type AvailabilityResponse struct {
	Dates []string `json:"dates"`
	Times []string `json:"times"`
}

// DaySlotsResponse lists a practitioner's slots on one date.
type DaySlotsResponse struct {
	Date           string           `json:"date"`
	PractitionerID string           `json:"practitioner_id,omitempty"`
	Slots          []slots.SlotInfo `json:"slots"`
}

// GET /api/v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	c := s.resolver.Catalog()
	writeJSON(w, http.StatusOK, CatalogResponse{
		AppointmentTypes: c.Types,
		Practitioners:    c.Practitioners,
	})
}

// GET /api/v1/availability
func (s *Server) handleAvailableDates(w http.ResponseWriter, _ *http.Request) {
	dates, err := s.resolver.AvailableDates()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := AvailabilityResponse{
		Dates: make([]string, 0, len(dates)),
		Times: make([]string, 0),
	}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(calendar.DateLayout))
	}
	for _, t := range s.resolver.TimeSlots() {
		resp.Times = append(resp.Times, t.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/v1/availability/{date}?practitioner_id=1&available_only=true
func (s *Server) handleDaySlots(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := s.resolver.Policy().ParseDate(dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date format; expected YYYY-MM-DD", Field: "date"})
		return
	}

	practitionerID := strings.TrimSpace(r.URL.Query().Get("practitioner_id"))
	if practitionerID != "" {
		if _, ok := s.resolver.Catalog().PractitionerByID(practitionerID); !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown practitioner", Field: "practitioner_id"})
			return
		}
	}

	daySlots, err := s.resolver.DaySlots(r.Context(), practitionerID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if r.URL.Query().Get("available_only") == "true" {
		daySlots = slots.GetAvailableSlots(daySlots)
	}

	writeJSON(w, http.StatusOK, DaySlotsResponse{
		Date:           dateStr,
		PractitionerID: practitionerID,
		Slots:          slots.ToSlotInfo(daySlots),
	})
}

// BookingListResponse is a page of active bookings.
type BookingListResponse struct {
	Bookings []models.Booking `json:"bookings"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

// GET /api/v1/bookings?page=0&per_page=20
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.resolver.ListActive(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	start, end, pages := p.bounds(len(bookings))
	resp := BookingListResponse{
		Bookings: append([]models.Booking{}, bookings[start:end]...),
		Total:    len(bookings),
		Page:     p.Number,
		Pages:    pages,
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/v1/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := s.resolver.Book(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/v1/bookings/{id}
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.resolver.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// PUT /api/v1/bookings/{id}
func (s *Server) handleRescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := s.resolver.Reschedule(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DELETE /api/v1/bookings/{id}
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/bookings/export.xlsx
func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	all, err := s.resolver.Store().ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, all, s.resolver.Catalog()); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
