package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "booking_created_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingRescheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "booking_rescheduled_total",
			Help:      "Count of reschedule attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled by patients.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "slot_conflicts_total",
			Help:      "Count of requests rejected because the slot was taken.",
		},
	)

	documentUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "document_uploads_total",
			Help:      "Count of document uploads by status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dental_portal",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingRescheduled, bookingCancelled, slotConflicts, documentUploads, httpRequests)
	})
}

func IncBookingCreated(outcome string) {
	bookingCreated.WithLabelValues(outcome).Inc()
}

func IncBookingRescheduled(outcome string) {
	bookingRescheduled.WithLabelValues(outcome).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func IncDocumentUpload(status string) {
	documentUploads.WithLabelValues(status).Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
