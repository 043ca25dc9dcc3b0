package security

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestEvent(userAgent string) *core.RequestEvent {
	req := httptest.NewRequest("POST", "/api/v1/events/e1/join", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()
	return e
}

func expectHit(mock redismock.ClientMock, key string, count int64, window time.Duration) {
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(count)
	mock.ExpectExpireNX(key, window).SetVal(count == 1)
	mock.ExpectTxPipelineExec()
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)
	ctx := context.Background()
	key := "ratelimit:join:ip:1.2.3.4"

	expectHit(mock, key, 1, time.Minute)
	ok, err := limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	expectHit(mock, key, 2, time.Minute)
	ok, err = limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	expectHit(mock, key, 3, time.Minute)
	ok, err = limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Every hit refreshes the expiry with NX in the same transaction, so a
// counter left without a TTL by an earlier failure still gets one.
func TestRateLimiter_ExpirySentWithEveryHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)
	key := "ratelimit:join:user:u1"

	expectHit(mock, key, 7, time.Minute)
	ok, err := limiter.Allow(context.Background(), key, 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectTxPipeline()
	mock.ExpectIncr("k").SetErr(errors.New("connection refused"))
	ok, err := limiter.Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
	assert.True(t, ok)

	var nilLimiter *RateLimiter
	ok, err = nilLimiter.Allow(context.Background(), "k", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_MiddlewareRejectsOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	expectHit(mock, "ratelimit:join:ip:203.0.113.7", 11, time.Minute)

	err := limiter.Limit("join", 10, time.Minute)(newRequestEvent("Mozilla/5.0"))

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_MiddlewarePassesUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	expectHit(mock, "ratelimit:webhook:ip:203.0.113.7", 1, 30*time.Second)

	err := limiter.Limit("webhook", 5, 30*time.Second)(newRequestEvent("provider/1.0"))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockBots(t *testing.T) {
	limiter := NewRateLimiter(nil)

	err := limiter.BlockBots()(newRequestEvent("Googlebot/2.1"))
	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	assert.NoError(t, limiter.BlockBots()(newRequestEvent("Mozilla/5.0")))
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected bool
	}{
		{"Mozilla/5.0 (Windows NT 10.0)", false},
		{"Googlebot/2.1", true},
		{"SomeCrawler", true},
		{"python-scraper", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isSuspiciousUserAgent(tt.ua), tt.ua)
	}
}
