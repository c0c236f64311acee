package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsCreated  *prometheus.CounterVec
	BookingConflicts prometheus.Counter
	BookingRejected  *prometheus.CounterVec

	// Slot query metrics
	SlotQueryLatency prometheus.Histogram
	SlotsReturned    prometheus.Histogram

	// Reminder metrics
	RemindersSent       *prometheus.CounterVec
	ReminderFailures    *prometheus.CounterVec
	ReminderScanLatency prometheus.Histogram
	ConsultationsMissed prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_created_total",
			Help:      "Total number of consultations booked",
		}, []string{"tier"}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected by the slot uniqueness constraint",
		}),
		BookingRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_rejected_total",
			Help:      "Total number of bookings rejected before the write",
		}, []string{"code"}),

		SlotQueryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_query_duration_seconds",
			Help:      "Time spent computing the public slot list",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SlotsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slots_returned",
			Help:      "Number of bookable slots returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		RemindersSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_sent_total",
			Help:      "Total number of reminder notifications emitted",
		}, []string{"kind"}),
		ReminderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminder_failures_total",
			Help:      "Total number of reminder notifications that failed to send",
		}, []string{"kind"}),
		ReminderScanLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminder_scan_duration_seconds",
			Help:      "Time spent in a reminder/housekeeping scan",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ConsultationsMissed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consultations_missed_total",
			Help:      "Total number of consultations closed as missed by housekeeping",
		}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
