package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esports-platform/internal/bracket"
	"esports-platform/internal/status"
	"esports-platform/models"
)

func roster(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("player-%02d", i+1)
	}
	return ids
}

func inOrderPlanner() *bracket.Planner {
	p := bracket.NewPlanner()
	p.Shuffle = func(int, func(i, j int)) {}
	return p
}

func TestBracketService_GenerateRoundOneCount(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7, 8, 13, 16} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			env := newTestEnv(t)
			env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			event := env.createEvent(t, nil)

			b, err := env.brackets.Generate(context.Background(), event.ID, roster(n))
			require.NoError(t, err)

			roundOne := 0
			for _, m := range b.Matches {
				if m.Round == 1 {
					roundOne++
				}
			}
			assert.Equal(t, (n+1)/2, roundOne)
			assert.Equal(t, bracket.Rounds(n), b.Rounds)
		})
	}
}

func TestBracketService_GenerateRejectsSmallRoster(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, nil)

	_, err := env.brackets.Generate(context.Background(), event.ID, []string{"solo"})
	assert.ErrorIs(t, err, status.ErrValidation)

	matches, err := env.brackets.Matches(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
	env.notifier.AssertNotCalled(t, "BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBracketService_GenerateReplacesPreviousBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	event := env.createEvent(t, nil)

	first, err := env.brackets.Generate(ctx, event.ID, roster(8))
	require.NoError(t, err)
	second, err := env.brackets.Generate(ctx, event.ID, roster(4))
	require.NoError(t, err)

	stored, err := env.brackets.Matches(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, stored, len(second.Matches))

	firstIDs := map[string]bool{}
	for _, m := range first.Matches {
		firstIDs[m.ID] = true
	}
	for _, m := range stored {
		assert.False(t, firstIDs[m.ID], "match %s survived regeneration", m.ID)
	}

	got, _ := env.events.GetByID(ctx, event.ID)
	assert.Equal(t, models.EventLive, got.Status)
	env.notifier.AssertNumberOfCalls(t, "BracketGenerated", 2)
}

func TestBracketService_GenerateUnknownEventLeavesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.brackets.Generate(context.Background(), "missing", roster(4))
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestBracketService_NotificationFailureDoesNotFailGeneration(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("pubnub unavailable"))
	event := env.createEvent(t, nil)

	_, err := env.brackets.Generate(context.Background(), event.ID, roster(4))
	assert.NoError(t, err)
}

func TestBracketService_GenerateForEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	paidEvent := env.createEvent(t, func(in *models.EventInput) { in.CheckoutURL = "https://pay.example.com/c" })
	var tickets []*models.Ticket
	for _, p := range []string{"a", "b", "c"} {
		tk, err := env.events.RegisterParticipant(ctx, paidEvent.ID, p)
		require.NoError(t, err)
		tickets = append(tickets, tk)
	}
	now := time.Now()
	for _, tk := range tickets[:2] {
		_, err := env.tickets.UpdateStatus(ctx, tk.ID, models.TicketPaid, &now)
		require.NoError(t, err)
	}

	t.Run("Only paid tickets are seeded", func(t *testing.T) {
		b, err := env.brackets.GenerateForEvent(ctx, organizer, paidEvent.ID)
		require.NoError(t, err)
		require.Len(t, b.Matches, 1)
		assert.ElementsMatch(t, []string{"a", "b"}, []string{b.Matches[0].Player1ID, b.Matches[0].Player2ID})
	})

	t.Run("Free event seeds pending tickets", func(t *testing.T) {
		free := env.createEvent(t, nil)
		for _, p := range []string{"x", "y", "z"} {
			_, err := env.events.RegisterParticipant(ctx, free.ID, p)
			require.NoError(t, err)
		}
		b, err := env.brackets.GenerateForEvent(ctx, organizer, free.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, b.Rounds)
	})

	t.Run("Authorization", func(t *testing.T) {
		_, err := env.brackets.GenerateForEvent(ctx, player, paidEvent.ID)
		assert.ErrorIs(t, err, status.ErrForbidden)
		_, err = env.brackets.GenerateForEvent(ctx, otherOrg, paidEvent.ID)
		assert.ErrorIs(t, err, status.ErrForbidden)
		_, err = env.brackets.GenerateForEvent(ctx, admin, paidEvent.ID)
		assert.NoError(t, err)
	})

	t.Run("Unsupported format", func(t *testing.T) {
		swiss := env.createEvent(t, func(in *models.EventInput) { in.BracketType = models.Swiss })
		_, err := env.brackets.GenerateForEvent(ctx, organizer, swiss.ID)
		assert.ErrorIs(t, err, status.ErrInvalidState)
	})

	t.Run("Not enough confirmed players", func(t *testing.T) {
		empty := env.createEvent(t, nil)
		_, err := env.brackets.GenerateForEvent(ctx, organizer, empty.ID)
		assert.ErrorIs(t, err, status.ErrValidation)
	})
}

func TestBracketService_PlayThroughToChampion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.brackets.planner = inOrderPlanner()
	env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env.notifier.On("MatchCompleted", mock.Anything, mock.Anything, false).Return(nil)
	env.notifier.On("MatchCompleted", mock.Anything, mock.Anything, true).Return(nil).Once()
	event := env.createEvent(t, nil)

	// five players: p5 gets the round-one bye and waits in the final
	b, err := env.brackets.Generate(ctx, event.ID, []string{"p1", "p2", "p3", "p4", "p5"})
	require.NoError(t, err)
	require.Len(t, b.Matches, 5)

	m1, m2 := b.Matches[0], b.Matches[1]
	semi, final := b.Matches[3], b.Matches[4]

	_, err = env.brackets.StartMatch(ctx, organizer, event.ID, semi.ID)
	assert.ErrorIs(t, err, status.ErrInvalidState, "semi has no players yet")

	started, err := env.brackets.StartMatch(ctx, organizer, event.ID, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, started.Status)

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, m1.ID, models.MatchResult{Player1Score: 2, Player2Score: 0, WinnerID: "p1"})
	require.NoError(t, err)
	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, m2.ID, models.MatchResult{Player1Score: 1, Player2Score: 2, WinnerID: "p4"})
	require.NoError(t, err)

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, m1.ID, models.MatchResult{Player1Score: 2, Player2Score: 0, WinnerID: "p1"})
	assert.ErrorIs(t, err, status.ErrInvalidState, "already completed")

	storedSemi, err := env.store.FindMatch(ctx, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", storedSemi.Player1ID)
	assert.Equal(t, "p4", storedSemi.Player2ID)

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, semi.ID, models.MatchResult{Player1Score: 3, Player2Score: 1, WinnerID: "p1"})
	require.NoError(t, err)

	storedFinal, err := env.store.FindMatch(ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", storedFinal.Player1ID)
	assert.Equal(t, "p5", storedFinal.Player2ID)

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, final.ID, models.MatchResult{Player1Score: 0, Player2Score: 3, WinnerID: "p5"})
	require.NoError(t, err)

	got, _ := env.events.GetByID(ctx, event.ID)
	assert.Equal(t, models.EventCompleted, got.Status)
	env.notifier.AssertExpectations(t)

	full, err := env.brackets.Bracket(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, full.Rounds)
	assert.Equal(t, models.SingleElimination, full.BracketType)
}

func TestBracketService_ReportResultValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.brackets.planner = inOrderPlanner()
	env.notifier.On("BracketGenerated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	event := env.createEvent(t, nil)

	b, err := env.brackets.Generate(ctx, event.ID, roster(4))
	require.NoError(t, err)
	m1 := b.Matches[0]

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, m1.ID, models.MatchResult{WinnerID: "stranger"})
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = env.brackets.ReportResult(ctx, otherOrg, event.ID, m1.ID, models.MatchResult{WinnerID: m1.Player1ID})
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = env.brackets.ReportResult(ctx, organizer, event.ID, "missing", models.MatchResult{WinnerID: m1.Player1ID})
	assert.ErrorIs(t, err, status.ErrNotFound)

	other := env.createEvent(t, nil)
	_, err = env.brackets.ReportResult(ctx, organizer, other.ID, m1.ID, models.MatchResult{WinnerID: m1.Player1ID})
	assert.ErrorIs(t, err, status.ErrInvalidState, "other event is not live")

	stored, _ := env.store.FindMatch(ctx, m1.ID)
	assert.Equal(t, models.MatchPending, stored.Status)
}
