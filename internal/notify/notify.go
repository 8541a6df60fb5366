// Package notify turns booking and document events into staff notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/documents"
	"dentalportal/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramSender is the part of the bot API used for sending.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts messages to a staff chat, paced by a token bucket.
type TelegramNotifier struct {
	sender  TelegramSender
	chatID  int64
	limiter *rate.Limiter
}

// NewTelegramNotifier creates a notifier sending at most perSecond messages per second.
func NewTelegramNotifier(sender TelegramSender, chatID int64, perSecond float64) *TelegramNotifier {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &TelegramNotifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the log. Used when Telegram is not configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "notify").Logger()
	}
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.logger.Info().Str("message", text).Msg("notification")
	return nil
}

// bookingPayload mirrors the JSON form of models.Booking.
type bookingPayload struct {
	ID                string             `json:"id"`
	Date              string             `json:"date"`
	Time              calendar.TimeOfDay `json:"time"`
	AppointmentTypeID string             `json:"appointment_type_id"`
	PractitionerID    string             `json:"practitioner_id"`
	Status            string             `json:"status"`
}

type documentPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

const queueSize = 256

// Dispatcher renders bus events into messages for a Notifier.
type Dispatcher struct {
	notifier Notifier
	catalog  func() booking.Catalog
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. catalog resolves names for ids.
func NewDispatcher(n Notifier, catalog func() booking.Catalog) *Dispatcher {
	return &Dispatcher{notifier: n, catalog: catalog, timeout: 10 * time.Second}
}

// Subscribe registers the dispatcher on the bus behind a queue drained until
// ctx is done, so sends happen outside the publishing request.
func (d *Dispatcher) Subscribe(ctx context.Context, bus *events.EventBus) *events.Queue {
	return bus.SubscribeQueued(ctx, "notify", d.Handle, queueSize,
		booking.EventBookingCreated,
		booking.EventBookingRescheduled,
		booking.EventBookingCancelled,
		documents.EventDocumentUploaded,
	)
}

// Handle renders and sends one event.
func (d *Dispatcher) Handle(e events.Event) error {
	text, err := d.Render(e)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.notifier.Notify(ctx, text)
}

// Render builds the message text for an event. Unknown types render empty.
func (d *Dispatcher) Render(e events.Event) (string, error) {
	if e.Type == documents.EventDocumentUploaded {
		var doc documentPayload
		if err := json.Unmarshal(e.Payload, &doc); err != nil {
			return "", fmt.Errorf("decode document event: %w", err)
		}
		return fmt.Sprintf("Document uploaded: %s (%s)", doc.Name, doc.Type), nil
	}

	var title string
	switch e.Type {
	case booking.EventBookingCreated:
		title = "New appointment"
	case booking.EventBookingRescheduled:
		title = "Appointment rescheduled"
	case booking.EventBookingCancelled:
		title = "Appointment cancelled"
	default:
		return "", nil
	}

	var b bookingPayload
	if err := json.Unmarshal(e.Payload, &b); err != nil {
		return "", fmt.Errorf("decode booking event: %w", err)
	}
	return title + ": " + d.describe(b), nil
}

func (d *Dispatcher) describe(b bookingPayload) string {
	typeName, practitionerName := b.AppointmentTypeID, b.PractitionerID
	if d.catalog != nil {
		c := d.catalog()
		if t, ok := c.TypeByID(b.AppointmentTypeID); ok {
			typeName = t.Name
		}
		if p, ok := c.PractitionerByID(b.PractitionerID); ok {
			practitionerName = p.Name
		}
	}

	var sb strings.Builder
	sb.WriteString(typeName)
	sb.WriteString(" with ")
	sb.WriteString(practitionerName)
	sb.WriteString(" on ")
	if day, err := time.Parse(calendar.DateLayout, b.Date); err == nil {
		sb.WriteString(day.Format("Mon 02 Jan 2006"))
	} else {
		sb.WriteString(b.Date)
	}
	sb.WriteString(" at ")
	sb.WriteString(b.Time.String())
	return sb.String()
}
