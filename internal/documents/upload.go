package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dentalportal/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventDocumentUploaded is published after an upload completes.
const EventDocumentUploaded = "document.uploaded"

// Task states.
const (
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

const (
	progressSteps = 10
	taskRetention = 10 * time.Minute
)

// Publisher receives completed uploads.
type Publisher interface {
	Publish(evType string, payload interface{})
}

// Upload describes a file to upload.
type Upload struct {
	Name        string
	Type        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Validate checks the upload against the accepted types and size.
func (u Upload) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(u.Type) == "" {
		return ErrTypeRequired
	}
	known := false
	for _, c := range Categories {
		if c == u.Type {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownType
	}
	allowed := false
	for _, ct := range AllowedContentTypes {
		if ct == u.ContentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrUnsupportedType
	}
	if u.Size <= 0 {
		return ErrEmpty
	}
	if u.Size > MaxSize {
		return ErrTooLarge
	}
	return nil
}

// Uploader runs uploads asynchronously.
type Uploader struct {
	registry  *Registry
	publisher Publisher
	stepDelay time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// NewUploader creates an uploader. stepDelay paces progress reports and may be zero.
func NewUploader(registry *Registry, publisher Publisher, stepDelay time.Duration, logger *zerolog.Logger) *Uploader {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "documents").Logger()
	}
	return &Uploader{
		registry:  registry,
		publisher: publisher,
		stepDelay: stepDelay,
		now:       time.Now,
		logger:    l,
		tasks:     make(map[string]*Task),
	}
}

// Task returns a running or recently finished upload.
func (up *Uploader) Task(id string) (*Task, bool) {
	up.mu.Lock()
	defer up.mu.Unlock()
	t, ok := up.tasks[id]
	return t, ok
}

func (up *Uploader) track(t *Task) {
	up.mu.Lock()
	defer up.mu.Unlock()
	cutoff := up.now().Add(-taskRetention)
	for id, old := range up.tasks {
		if old.Status() != StatusUploading && old.finishedAt.Before(cutoff) {
			delete(up.tasks, id)
		}
	}
	up.tasks[t.ID] = t
}

// Task is a running upload.
type Task struct {
	ID       string
	Name     string
	progress chan int
	percent  atomic.Int32
	done     chan struct{}
	cancel   context.CancelFunc

	// Set before done is closed.
	doc        Document
	err        error
	finishedAt time.Time
}

func (t *Task) report(p int) {
	t.percent.Store(int32(p))
	t.progress <- p
}

// Percent returns the last reported progress.
func (t *Task) Percent() int { return int(t.percent.Load()) }

// Status returns the task state.
func (t *Task) Status() string {
	select {
	case <-t.done:
	default:
		return StatusUploading
	}
	switch {
	case t.err == nil:
		return StatusCompleted
	case errors.Is(t.err, context.Canceled), errors.Is(t.err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Err returns the failure of a finished task.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Progress reports percentages from 0 to 100. It is closed when the task ends.
func (t *Task) Progress() <-chan int { return t.progress }

// Done is closed when the task ends.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel aborts the upload. A cancelled upload leaves no document behind.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task ends and returns the stored document.
func (t *Task) Wait() (Document, error) {
	<-t.done
	return t.doc, t.err
}

// Start validates u and begins the upload. Validation errors are returned
// immediately; transfer errors are reported by Wait.
func (up *Uploader) Start(ctx context.Context, u Upload) (*Task, error) {
	if err := u.Validate(); err != nil {
		metrics.IncDocumentUpload("rejected")
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:       uuid.NewString(),
		Name:     u.Name,
		progress: make(chan int, progressSteps+1),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	up.track(t)

	go func() {
		defer cancel()

		doc, err := up.run(ctx, t, u)
		t.doc, t.err, t.finishedAt = doc, err, up.now()
		close(t.progress)
		close(t.done)

		status := t.Status()
		metrics.IncDocumentUpload(status)
		switch status {
		case StatusCancelled:
			up.logger.Info().Str("task_id", t.ID).Str("name", u.Name).Msg("upload cancelled")
		case StatusFailed:
			up.logger.Warn().Err(err).Str("task_id", t.ID).Str("name", u.Name).Msg("upload failed")
		}
	}()

	return t, nil
}

func (up *Uploader) run(ctx context.Context, t *Task, u Upload) (Document, error) {
	t.report(0)

	hash := sha256.New()
	chunk := (u.Size + progressSteps - 1) / progressSteps
	var read int64

	for step := 1; step <= progressSteps; step++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}

		want := chunk
		if remaining := u.Size - read; remaining < want {
			want = remaining
		}
		if want > 0 {
			n, err := io.CopyN(hash, u.Data, want)
			read += n
			if err != nil {
				return Document{}, fmt.Errorf("read upload: %w", err)
			}
		}

		if up.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return Document{}, ctx.Err()
			case <-time.After(up.stepDelay):
			}
		}
		t.report(step * 100 / progressSteps)
	}

	// Reject data beyond the declared size.
	if n, _ := io.CopyN(io.Discard, u.Data, 1); n > 0 {
		return Document{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:          t.ID,
		Name:        u.Name,
		Type:        u.Type,
		ContentType: u.ContentType,
		SizeBytes:   read,
		Size:        FormatSize(read),
		Checksum:    hex.EncodeToString(hash.Sum(nil)),
		UploadedAt:  up.now(),
	}
	up.registry.Add(doc)
	up.logger.Info().Str("id", doc.ID).Str("name", doc.Name).Str("size", doc.Size).Msg("document uploaded")
	if up.publisher != nil {
		up.publisher.Publish(EventDocumentUploaded, doc)
	}
	return doc, nil
}
