package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"dentalportal/internal/content"
	"dentalportal/internal/documents"
	"dentalportal/internal/models"

	"github.com/go-chi/chi/v5"
)

// UploadStatus reports an upload task.
type UploadStatus struct {
	TaskID   string              `json:"task_id"`
	Name     string              `json:"name"`
	Status   string              `json:"status"`
	Progress int                 `json:"progress"`
	Document *documents.Document `json:"document,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func uploadStatus(t *documents.Task) UploadStatus {
	st := UploadStatus{
		TaskID:   t.ID,
		Name:     t.Name,
		Status:   t.Status(),
		Progress: t.Percent(),
	}
	switch st.Status {
	case documents.StatusCompleted:
		doc, _ := t.Wait()
		st.Document = &doc
	case documents.StatusFailed:
		st.Error = t.Err().Error()
	}
	return st
}

// GET /api/v1/documents
func (s *Server) handleListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents":     s.documents.List(),
		"types":         documents.Categories,
		"content_types": documents.AllowedContentTypes,
		"max_size":      documents.MaxSize,
	})
}

// POST /api/v1/documents (multipart: file, type)
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, documents.MaxSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file is required", Field: "file"})
		return
	}
	defer file.Close()

	// The task outlives the request, so the body is buffered first.
	data, err := io.ReadAll(io.LimitReader(file, documents.MaxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	task, err := s.uploader.Start(context.WithoutCancel(r.Context()), documents.Upload{
		Name:        header.Filename,
		Type:        r.FormValue("type"),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        bytes.NewReader(data),
	})
	if err != nil {
		field := "file"
		if errors.Is(err, documents.ErrTypeRequired) || errors.Is(err, documents.ErrUnknownType) {
			field = "type"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: field})
		return
	}

	writeJSON(w, http.StatusAccepted, uploadStatus(task))
}

// GET /api/v1/documents/uploads/{taskID}
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.uploader.Task(chi.URLParam(r, "taskID"))
	if !ok {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	writeJSON(w, http.StatusOK, uploadStatus(task))
}

// DELETE /api/v1/documents/uploads/{taskID}
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	task, ok := s.uploader.Task(chi.URLParam(r, "taskID"))
	if !ok {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	task.Cancel()
	<-task.Done()
	writeJSON(w, http.StatusOK, uploadStatus(task))
}

// GET /api/v1/education?category=children&q=brushing
func (s *Server) handleEducation(w http.ResponseWriter, r *http.Request) {
	resources, err := s.content.Resources(r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "category"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

// GET /api/v1/records
func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": s.content.Records()})
}

// GET /api/v1/treatments
func (s *Server) handleTreatments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"treatments": s.content.Treatments(),
		"summary":    s.content.Summary(),
	})
}

// NextAppointment is the dashboard view of the upcoming booking.
type NextAppointment struct {
	Booking         models.Booking `json:"booking"`
	AppointmentType string         `json:"appointment_type"`
	Practitioner    string         `json:"practitioner"`
}

// DashboardResponse summarises the patient's portal.
type DashboardResponse struct {
	NextAppointment *NextAppointment `json:"next_appointment,omitempty"`
	ActiveBookings  int              `json:"active_bookings"`
	LatestRecord    *content.Record  `json:"latest_record,omitempty"`
	Documents       int              `json:"documents"`
}

// GET /api/v1/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.resolver.ListActive(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := DashboardResponse{
		ActiveBookings: len(bookings),
		Documents:      s.documents.Count(),
	}

	now := s.now()
	var next *models.Booking
	for i := range bookings {
		b := bookings[i]
		if b.StartsAt().Before(now) {
			continue
		}
		if next == nil || b.StartsAt().Before(next.StartsAt()) {
			next = &b
		}
	}
	if next != nil {
		catalog := s.resolver.Catalog()
		na := &NextAppointment{Booking: *next, AppointmentType: next.AppointmentTypeID, Practitioner: next.PractitionerID}
		if t, ok := catalog.TypeByID(next.AppointmentTypeID); ok {
			na.AppointmentType = t.Name
		}
		if p, ok := catalog.PractitionerByID(next.PractitionerID); ok {
			na.Practitioner = p.Name
		}
		resp.NextAppointment = na
	}

	if rec, ok := s.content.LatestRecord(); ok {
		resp.LatestRecord = &rec
	}

	writeJSON(w, http.StatusOK, resp)
}
