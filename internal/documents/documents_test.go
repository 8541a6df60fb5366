package documents

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	types  []string
	events []interface{}
}

func (p *recordingPublisher) Publish(evType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, evType)
	p.events = append(p.events, payload)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.types)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1258291, "1.2 MB"},
		{838861, "0.8 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.bytes))
	}
}

func TestSeededRegistry(t *testing.T) {
	r := SeededRegistry()
	docs := r.List()
	require.Len(t, docs, 2)
	assert.Equal(t, "Insurance Card.pdf", docs[0].Name)
	assert.Equal(t, "1.2 MB", docs[0].Size)
	assert.Equal(t, "Medical History Form.pdf", docs[1].Name)
	assert.Equal(t, "0.8 MB", docs[1].Size)

	d, ok := r.Get("2")
	require.True(t, ok)
	assert.Equal(t, "Medical History", d.Type)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestUploadValidate(t *testing.T) {
	valid := Upload{Name: "xray.png", Type: "X-Ray", ContentType: "image/png", Size: 2048}

	tests := []struct {
		name   string
		modify func(u *Upload)
		want   error
	}{
		{"valid", func(*Upload) {}, nil},
		{"missing name", func(u *Upload) { u.Name = " " }, ErrNameRequired},
		{"missing type", func(u *Upload) { u.Type = "" }, ErrTypeRequired},
		{"unknown type", func(u *Upload) { u.Type = "Selfie" }, ErrUnknownType},
		{"unsupported content", func(u *Upload) { u.ContentType = "application/zip" }, ErrUnsupportedType},
		{"empty", func(u *Upload) { u.Size = 0 }, ErrEmpty},
		{"exactly max", func(u *Upload) { u.Size = MaxSize }, nil},
		{"too large", func(u *Upload) { u.Size = MaxSize + 1 }, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.modify(&u)
			err := u.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUploader_Complete(t *testing.T) {
	registry := SeededRegistry()
	pub := &recordingPublisher{}
	up := NewUploader(registry, pub, 0, nil)
	up.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	data := bytes.Repeat([]byte("a"), 3000)
	task, err := up.Start(context.Background(), Upload{
		Name: "referral.pdf", Type: "Referral", ContentType: "application/pdf",
		Size: int64(len(data)), Data: bytes.NewReader(data),
	})
	require.NoError(t, err)

	var progress []int
	for p := range task.Progress() {
		progress = append(progress, p)
	}
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, progress)

	doc, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, task.ID, doc.ID)
	assert.Equal(t, int64(3000), doc.SizeBytes)
	assert.Equal(t, "2.9 KB", doc.Size)
	assert.Len(t, doc.Checksum, 64)

	docs := registry.List()
	require.Len(t, docs, 3)
	assert.Equal(t, "referral.pdf", docs[0].Name)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, EventDocumentUploaded, pub.types[0])
	assert.Equal(t, doc, pub.events[0])
}

func TestUploader_Rejected(t *testing.T) {
	registry := NewRegistry()
	up := NewUploader(registry, nil, 0, nil)

	_, err := up.Start(context.Background(), Upload{Name: "a.gif", Type: "Other", ContentType: "image/gif", Size: 10})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, registry.Count())
}

func TestUploader_Cancel(t *testing.T) {
	registry := NewRegistry()
	pub := &recordingPublisher{}
	up := NewUploader(registry, pub, 50*time.Millisecond, nil)

	task, err := up.Start(context.Background(), Upload{
		Name: "card.jpg", Type: "Insurance Card", ContentType: "image/jpeg",
		Size: 100, Data: bytes.NewReader(make([]byte, 100)),
	})
	require.NoError(t, err)

	<-task.Progress()
	task.Cancel()

	_, err = task.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, task.Status())
	assert.Zero(t, registry.Count())
	assert.Zero(t, pub.count())
}

func TestUploader_ShortAndLongData(t *testing.T) {
	up := NewUploader(NewRegistry(), nil, 0, nil)

	short, err := up.Start(context.Background(), Upload{
		Name: "short.pdf", Type: "Other", ContentType: "application/pdf",
		Size: 100, Data: bytes.NewReader(make([]byte, 40)),
	})
	require.NoError(t, err)
	_, err = short.Wait()
	assert.ErrorIs(t, err, io.EOF)

	long, err := up.Start(context.Background(), Upload{
		Name: "long.pdf", Type: "Other", ContentType: "application/pdf",
		Size: 100, Data: bytes.NewReader(make([]byte, 101)),
	})
	require.NoError(t, err)
	_, err = long.Wait()
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploader_TaskStatus(t *testing.T) {
	up := NewUploader(NewRegistry(), nil, 0, nil)

	task, err := up.Start(context.Background(), Upload{
		Name: "plan.png", Type: "Other", ContentType: "image/png",
		Size: 10, Data: bytes.NewReader(make([]byte, 10)),
	})
	require.NoError(t, err)
	_, err = task.Wait()
	require.NoError(t, err)

	got, ok := up.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status())
	assert.Equal(t, 100, got.Percent())
	assert.NoError(t, got.Err())

	_, ok = up.Task("missing")
	assert.False(t, ok)
}
