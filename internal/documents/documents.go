// Package documents accepts patient document uploads and keeps the list of
// uploaded documents.
package documents

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MaxSize is the largest accepted upload.
const MaxSize = 5 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("only PDF, JPEG and PNG files are allowed")
	ErrTooLarge        = errors.New("file size must be less than 5MB")
	ErrEmpty           = errors.New("file is empty")
	ErrTypeRequired    = errors.New("document type is required")
	ErrUnknownType     = errors.New("unknown document type")
	ErrNameRequired    = errors.New("file name is required")
)

// AllowedContentTypes lists accepted MIME types.
var AllowedContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// Categories lists the document types a patient can choose.
var Categories = []string{"Insurance Card", "Medical History", "Referral", "X-Ray", "Other"}

// Document is an uploaded patient document.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	Size        string    `json:"size"`
	Checksum    string    `json:"checksum,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FormatSize renders a byte count the way the portal displays it.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

// Registry holds completed documents.
type Registry struct {
	mu   sync.RWMutex
	docs []Document
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SeededRegistry returns a registry holding the patient's existing documents.
func SeededRegistry() *Registry {
	r := NewRegistry()
	r.Add(Document{
		ID:          "1",
		Name:        "Insurance Card.pdf",
		Type:        "Insurance Card",
		ContentType: "application/pdf",
		SizeBytes:   1258291,
		UploadedAt:  time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
	})
	r.Add(Document{
		ID:          "2",
		Name:        "Medical History Form.pdf",
		Type:        "Medical History",
		ContentType: "application/pdf",
		SizeBytes:   838861,
		UploadedAt:  time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
	})
	return r
}

// Add stores a document.
func (r *Registry) Add(d Document) {
	if d.Size == "" {
		d.Size = FormatSize(d.SizeBytes)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, d)
}

// List returns documents newest first.
func (r *Registry) List() []Document {
	r.mu.RLock()
	out := append([]Document(nil), r.docs...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}

// Get returns a document by id.
func (r *Registry) Get(id string) (Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Count returns the number of documents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
