package monitoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"esports-platform/internal/status"
)

type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f fakeCounter) CountEventsByStatus(context.Context) (map[string]int, error) {
	return f.counts, f.err
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{status.Invalid("title", "required"), "invalid"},
		{fmt.Errorf("wrap: %w", status.ErrEventFull), "full"},
		{status.ErrAlreadyRegistered, "duplicate"},
		{status.ErrNotFound, "not_found"},
		{status.ErrInvalidState, "invalid_state"},
		{status.ErrForbidden, "forbidden"},
		{status.ErrUnauthorized, "unauthorized"},
		{status.ErrBadRequest, "bad_request"},
		{status.Storage("insert", errors.New("disk")), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func TestMonitor_TracksOutcomes(t *testing.T) {
	m := NewMonitor(nil, nil)

	before := testutil.ToFloat64(registrations.WithLabelValues("full"))
	m.TrackRegistration(status.ErrEventFull)
	assert.Equal(t, before+1, testutil.ToFloat64(registrations.WithLabelValues("full")))

	before = testutil.ToFloat64(reconciliations.WithLabelValues("paid"))
	m.TrackReconciliation("paid")
	assert.Equal(t, before+1, testutil.ToFloat64(reconciliations.WithLabelValues("paid")))
}

func TestMonitor_NilIsNoop(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.TrackRegistration(nil)
		m.TrackReconciliation("ok")
		m.TrackBracket(nil, 4)
		m.ObserveSince("register", time.Now())
	})
}

func TestMonitor_Collect(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	m := NewMonitor(db, fakeCounter{counts: map[string]int{"published": 3, "live": 1}})
	m.collect(context.Background())

	assert.Equal(t, float64(3), testutil.ToFloat64(eventsByStatus.WithLabelValues("published")))
	assert.Equal(t, float64(1), testutil.ToFloat64(redisUp))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectPing().SetErr(errors.New("down"))
	m.collect(context.Background())
	assert.Equal(t, float64(0), testutil.ToFloat64(redisUp))
}
