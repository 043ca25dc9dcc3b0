package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"esports-platform/internal/status"
)

var (
	eventsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "events_by_status",
			Help: "Current number of events per lifecycle status",
		},
		[]string{"status"},
	)

	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_registrations_total",
			Help: "Total registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Total payment webhook calls by outcome",
		},
		[]string{"outcome"},
	)

	bracketGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bracket_generations_total",
			Help: "Total bracket generations by outcome",
		},
		[]string{"outcome"},
	)

	bracketSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bracket_participants",
			Help:    "Participants seeded per generated bracket",
			Buckets: prometheus.ExponentialBuckets(2, 2, 7),
		},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Duration of core operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	redisUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_up",
			Help: "Whether the last Redis ping succeeded",
		},
	)
)

// EventCounter reports how many events sit in each status.
type EventCounter interface {
	CountEventsByStatus(ctx context.Context) (map[string]int, error)
}

// Monitor records domain metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	redis  *redis.Client
	events EventCounter
}

func NewMonitor(redisClient *redis.Client, events EventCounter) *Monitor {
	return &Monitor{redis: redisClient, events: events}
}

// Run collects gauges every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.collect(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	if m.events != nil {
		counts, err := m.events.CountEventsByStatus(ctx)
		if err != nil {
			slog.Warn("Failed to collect event metrics", "error", err)
		} else {
			eventsByStatus.Reset()
			for st, n := range counts {
				eventsByStatus.WithLabelValues(st).Set(float64(n))
			}
		}
	}

	if m.redis != nil {
		if err := m.redis.Ping(ctx).Err(); err != nil {
			redisUp.Set(0)
		} else {
			redisUp.Set(1)
		}
	}
}

func (m *Monitor) TrackRegistration(err error) {
	if m == nil {
		return
	}
	registrations.WithLabelValues(Outcome(err)).Inc()
}

func (m *Monitor) TrackReconciliation(outcome string) {
	if m == nil {
		return
	}
	reconciliations.WithLabelValues(outcome).Inc()
}

func (m *Monitor) TrackBracket(err error, participants int) {
	if m == nil {
		return
	}
	bracketGenerations.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		bracketSize.Observe(float64(participants))
	}
}

// ObserveSince records the time elapsed since start for operation.
func (m *Monitor) ObserveSince(operation string, start time.Time) {
	if m == nil {
		return
	}
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Outcome maps an operation error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, status.ErrValidation):
		return "invalid"
	case errors.Is(err, status.ErrForbidden):
		return "forbidden"
	case errors.Is(err, status.ErrNotFound):
		return "not_found"
	case errors.Is(err, status.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, status.ErrEventFull):
		return "full"
	case errors.Is(err, status.ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, status.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, status.ErrBadRequest):
		return "bad_request"
	}
	return "error"
}
