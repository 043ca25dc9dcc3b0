package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"esports-platform/internal/auth"
	"esports-platform/internal/bracket"
	"esports-platform/internal/status"
	"esports-platform/internal/store"
	"esports-platform/models"
	"esports-platform/monitoring"
)

// Notifier delivers best-effort realtime updates.
type Notifier interface {
	PaymentCompleted(ctx context.Context, msg models.PaymentNotification) error
	BracketGenerated(ctx context.Context, eventID string, rounds, matches int) error
	MatchCompleted(ctx context.Context, m models.Match, final bool) error
}

type BracketService struct {
	store    *store.Store
	planner  *bracket.Planner
	notifier Notifier
	monitor  *monitoring.Monitor
	now      func() time.Time
}

func NewBracketService(st *store.Store, planner *bracket.Planner, notifier Notifier, monitor *monitoring.Monitor) *BracketService {
	if planner == nil {
		planner = bracket.NewPlanner()
	}
	return &BracketService{
		store:    st,
		planner:  planner,
		notifier: notifier,
		monitor:  monitor,
		now:      time.Now,
	}
}

// Generate replaces the event's bracket with a freshly seeded one. Deleting
// the old matches, inserting the new ones and moving the event to live
// happen in one transaction.
func (s *BracketService) Generate(ctx context.Context, eventID string, participantIDs []string) (*models.Bracket, error) {
	plan, err := s.planner.Plan(eventID, participantIDs)
	if err != nil {
		s.monitor.TrackBracket(err, len(participantIDs))
		return nil, err
	}

	var event *models.Event
	err = s.store.RunInTx(func(tx *store.Store) error {
		event, err = tx.FindEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMatchesByEvent(ctx, eventID); err != nil {
			return err
		}
		for i := range plan.Matches {
			if err := tx.InsertMatch(ctx, &plan.Matches[i]); err != nil {
				return err
			}
		}
		return tx.SetEventStatus(ctx, eventID, models.EventLive)
	})
	s.monitor.TrackBracket(err, len(participantIDs))
	if err != nil {
		if errors.Is(err, status.ErrStorage) {
			slog.Error("Bracket generation failed", "error", err, "event_id", eventID)
		}
		return nil, err
	}

	slog.Info("Bracket generated", "event_id", eventID, "participants", len(participantIDs),
		"rounds", plan.Rounds, "matches", len(plan.Matches))

	s.notify(func() error {
		return s.notifier.BracketGenerated(ctx, eventID, plan.Rounds, len(plan.Matches))
	})

	return &models.Bracket{
		EventID:     eventID,
		BracketType: event.BracketType,
		Rounds:      plan.Rounds,
		Matches:     plan.Matches,
	}, nil
}

// GenerateForEvent seeds the bracket from the event's confirmed participants.
func (s *BracketService) GenerateForEvent(ctx context.Context, caller auth.Identity, eventID string) (*models.Bracket, error) {
	event, err := s.authorize(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if event.BracketType != models.SingleElimination {
		return nil, fmt.Errorf("%w: %s brackets are not supported", status.ErrInvalidState, event.BracketType)
	}
	if event.Status != models.EventPublished && event.Status != models.EventLive {
		return nil, fmt.Errorf("%w: cannot generate a bracket for a %s event", status.ErrInvalidState, event.Status)
	}

	roster, err := s.store.ConfirmedParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, eventID, roster)
}

// StartMatch moves a seated match to in_progress.
func (s *BracketService) StartMatch(ctx context.Context, caller auth.Identity, eventID, matchID string) (*models.Match, error) {
	var match *models.Match
	err := s.store.RunInTx(func(tx *store.Store) error {
		event, err := s.authorizeTx(ctx, tx, caller, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventLive {
			return fmt.Errorf("%w: event is %s", status.ErrInvalidState, event.Status)
		}

		match, err = findEventMatch(ctx, tx, eventID, matchID)
		if err != nil {
			return err
		}
		if err := bracket.Start(match); err != nil {
			return err
		}
		return tx.UpdateMatch(ctx, match)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ReportResult completes a match and seats the winner in its next match.
// Completing the final completes the event.
func (s *BracketService) ReportResult(ctx context.Context, caller auth.Identity, eventID, matchID string, result models.MatchResult) (*models.Match, error) {
	var (
		match *models.Match
		final bool
	)
	err := s.store.RunInTx(func(tx *store.Store) error {
		event, err := s.authorizeTx(ctx, tx, caller, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventLive {
			return fmt.Errorf("%w: event is %s", status.ErrInvalidState, event.Status)
		}

		match, err = findEventMatch(ctx, tx, eventID, matchID)
		if err != nil {
			return err
		}
		if err := bracket.Complete(match, result, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateMatch(ctx, match); err != nil {
			return err
		}

		if bracket.IsFinal(match) {
			final = true
			return tx.SetEventStatus(ctx, eventID, models.EventCompleted)
		}

		next, err := tx.FindMatch(ctx, match.NextMatchID)
		if err != nil {
			return err
		}
		if err := bracket.Advance(next, match.NextSlot, match.WinnerID); err != nil {
			return err
		}
		return tx.UpdateMatch(ctx, next)
	})
	if err != nil {
		if errors.Is(err, status.ErrStorage) {
			slog.Error("Failed to report match result", "error", err, "event_id", eventID, "match_id", matchID)
		}
		return nil, err
	}

	slog.Info("Match completed", "event_id", eventID, "match_id", matchID, "winner_id", match.WinnerID, "final", final)
	s.notify(func() error {
		return s.notifier.MatchCompleted(ctx, *match, final)
	})
	return match, nil
}

func (s *BracketService) Matches(ctx context.Context, eventID string) ([]models.Match, error) {
	if _, err := s.store.FindEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListMatchesByEvent(ctx, eventID)
}

func (s *BracketService) Bracket(ctx context.Context, eventID string) (*models.Bracket, error) {
	event, err := s.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.ListMatchesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rounds := 0
	for _, m := range matches {
		rounds = max(rounds, m.Round)
	}
	return &models.Bracket{
		EventID:     eventID,
		BracketType: event.BracketType,
		Rounds:      rounds,
		Matches:     matches,
	}, nil
}

func (s *BracketService) authorize(ctx context.Context, caller auth.Identity, eventID string) (*models.Event, error) {
	return s.authorizeTx(ctx, s.store, caller, eventID)
}

func (s *BracketService) authorizeTx(ctx context.Context, st *store.Store, caller auth.Identity, eventID string) (*models.Event, error) {
	if !caller.Can(auth.ManageBrackets) {
		return nil, fmt.Errorf("%w: organizer or admin role required", status.ErrForbidden)
	}
	event, err := st.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(event.OrganizerID) {
		return nil, fmt.Errorf("%w: only the organizer or an admin can manage this bracket", status.ErrForbidden)
	}
	return event, nil
}

func findEventMatch(ctx context.Context, st *store.Store, eventID, matchID string) (*models.Match, error) {
	match, err := st.FindMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.EventID != eventID {
		return nil, status.ErrNotFound
	}
	return match, nil
}

// notify runs a best-effort delivery; failures and panics are only logged.
func (s *BracketService) notify(fn func() error) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Notification panicked", "panic", r)
		}
	}()
	if err := fn(); err != nil {
		slog.Warn("Notification failed", "error", err)
	}
}
