package services

import (
	"context"
	"testing"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"esports-platform/internal/auth"
	"esports-platform/internal/store"
	"esports-platform/models"
)

var (
	organizer  = auth.Identity{UserID: "org-1", Role: auth.RoleOrganizer}
	otherOrg   = auth.Identity{UserID: "org-2", Role: auth.RoleOrganizer}
	admin      = auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}
	player     = auth.Identity{UserID: "player-1", Role: auth.RolePlayer}
	anonymous  = auth.Identity{}
	defaultFee = decimal.RequireFromString("25.00")
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PaymentCompleted(ctx context.Context, msg models.PaymentNotification) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotifier) BracketGenerated(ctx context.Context, eventID string, rounds, matches int) error {
	return m.Called(ctx, eventID, rounds, matches).Error(0)
}

func (m *MockNotifier) MatchCompleted(ctx context.Context, match models.Match, final bool) error {
	return m.Called(ctx, match, final).Error(0)
}

type testEnv struct {
	store    *store.Store
	tickets  *TicketService
	events   *EventService
	brackets *BracketService
	notifier *MockNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dbx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.CreateSchema(db))

	st := store.NewFromDB(db)
	tickets := NewTicketService(st)
	notifier := new(MockNotifier)

	return &testEnv{
		store:    st,
		tickets:  tickets,
		events:   NewEventService(st, tickets, nil, defaultFee),
		brackets: NewBracketService(st, nil, notifier, nil),
		notifier: notifier,
	}
}

func intPtr(v int) *int { return &v }

func validInput() models.EventInput {
	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	return models.EventInput{
		Title:       "Summer Showdown",
		Description: "Open 1v1 bracket",
		Game:        "Street Fighter 6",
		StartTime:   start,
		EndTime:     start.Add(8 * time.Hour),
		MaxTeams:    intPtr(16),
	}
}

func (env *testEnv) createEvent(t *testing.T, mutate func(*models.EventInput)) *models.Event {
	t.Helper()
	in := validInput()
	if mutate != nil {
		mutate(&in)
	}
	e, err := env.events.Create(context.Background(), organizer, in)
	require.NoError(t, err)
	return e
}
