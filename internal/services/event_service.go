package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"esports-platform/internal/auth"
	"esports-platform/internal/status"
	"esports-platform/internal/store"
	"esports-platform/models"
	"esports-platform/monitoring"
)

type EventService struct {
	store   *store.Store
	tickets *TicketService
	monitor *monitoring.Monitor
	fee     decimal.Decimal
	now     func() time.Time
}

// NewEventService charges fee on registrations for events that declare a
// checkout URL.
func NewEventService(st *store.Store, tickets *TicketService, monitor *monitoring.Monitor, fee decimal.Decimal) *EventService {
	return &EventService{
		store:   st,
		tickets: tickets,
		monitor: monitor,
		fee:     fee,
		now:     time.Now,
	}
}

// ListPublic returns every non-draft event, newest first.
func (s *EventService) ListPublic(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEventsByStatus(ctx,
		models.EventPublished, models.EventLive, models.EventCompleted, models.EventCancelled)
}

func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return s.store.FindEvent(ctx, id)
}

// GetVisible hides draft events from everyone but their owner and admins.
func (s *EventService) GetVisible(ctx context.Context, caller auth.Identity, id string) (*models.Event, error) {
	event, err := s.store.FindEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventDraft && !caller.CanManage(event.OrganizerID) {
		return nil, status.ErrNotFound
	}
	return event, nil
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	return s.store.ListEventsByOrganizer(ctx, organizerID)
}

func (s *EventService) Create(ctx context.Context, caller auth.Identity, in models.EventInput) (*models.Event, error) {
	if !caller.Can(auth.CreateEvent) {
		return nil, fmt.Errorf("%w: organizer or admin role required", status.ErrForbidden)
	}

	in = normalizeInput(in)
	event := models.Event{
		OrganizerID:  caller.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Game:         in.Game,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		BracketType:  in.BracketType,
		CheckoutURL:  in.CheckoutURL,
		MaxTeams:     in.MaxTeams,
		CurrentTeams: 0,
		Status:       models.EventPublished,
	}
	if err := validateEvent(event, s.now(), true); err != nil {
		return nil, err
	}

	if err := s.store.InsertEvent(ctx, &event); err != nil {
		slog.Error("Failed to create event", "error", err, "organizer_id", caller.UserID)
		return nil, err
	}

	slog.Info("Event created", "event_id", event.ID, "organizer_id", event.OrganizerID)
	return &event, nil
}

// Update merges patch onto the stored event and re-validates the result.
func (s *EventService) Update(ctx context.Context, caller auth.Identity, id string, patch models.EventPatch) (*models.Event, error) {
	if patch.Empty() {
		return nil, status.Invalid("body", "no fields to update")
	}

	var updated models.Event
	err := s.store.RunInTx(func(tx *store.Store) error {
		event, err := tx.FindEvent(ctx, id)
		if err != nil {
			return err
		}
		if !caller.CanManage(event.OrganizerID) {
			return fmt.Errorf("%w: only the organizer or an admin can update this event", status.ErrForbidden)
		}

		updated = patch.Apply(*event)
		if err := validateEvent(updated, s.now(), patch.StartTime != nil); err != nil {
			return err
		}
		return tx.SaveEvent(ctx, &updated)
	})
	if err != nil {
		if errors.Is(err, status.ErrStorage) {
			slog.Error("Failed to update event", "error", err, "event_id", id)
		}
		return nil, err
	}

	return &updated, nil
}

// Delete removes the event together with its tickets and matches.
func (s *EventService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	event, err := s.store.FindEvent(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManage(event.OrganizerID) {
		return fmt.Errorf("%w: only the organizer or an admin can delete this event", status.ErrForbidden)
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		slog.Error("Failed to delete event", "error", err, "event_id", id)
		return err
	}

	slog.Info("Event deleted", "event_id", id, "by", caller.UserID)
	return nil
}

// Participants lists the event's tickets as a public roster.
func (s *EventService) Participants(ctx context.Context, id string) ([]models.Participant, error) {
	if _, err := s.store.FindEvent(ctx, id); err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	participants := make([]models.Participant, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == models.TicketCancelled {
			continue
		}
		participants = append(participants, models.Participant{
			TicketID:    t.ID,
			UserID:      t.UserID,
			Status:      t.Status,
			PurchasedAt: t.PurchasedAt,
		})
	}
	return participants, nil
}

// RegisterParticipant reserves a slot and creates a pending ticket in one
// transaction. The capacity check is repeated by the conditional update, so
// concurrent callers cannot oversubscribe the event.
func (s *EventService) RegisterParticipant(ctx context.Context, eventID, participantID string) (*models.Ticket, error) {
	start := time.Now()
	defer s.monitor.ObserveSince("register", start)

	if participantID == "" {
		return nil, status.Invalid("participant_id", "participant id is required")
	}

	var ticket *models.Ticket
	err := s.store.RunInTx(func(tx *store.Store) error {
		event, err := tx.FindEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventPublished {
			return fmt.Errorf("%w: event is %s, registration requires published", status.ErrInvalidState, event.Status)
		}
		if event.IsFull() {
			return status.ErrEventFull
		}

		ledger := s.tickets.WithStore(tx)
		existing, err := ledger.FindByEventAndParticipant(ctx, eventID, participantID)
		if err != nil {
			return err
		}
		if existing != nil {
			return status.ErrAlreadyRegistered
		}

		reserved, err := tx.ReserveSlot(ctx, eventID)
		if err != nil {
			return err
		}
		if !reserved {
			return status.ErrEventFull
		}

		var amount *decimal.Decimal
		if event.CheckoutURL != "" {
			fee := s.fee
			amount = &fee
		}
		ticket, err = ledger.Create(ctx, eventID, participantID, amount)
		return err
	})
	s.monitor.TrackRegistration(err)

	if err != nil {
		if errors.Is(err, status.ErrStorage) {
			slog.Error("Registration failed", "error", err, "event_id", eventID, "participant_id", participantID)
		}
		return nil, err
	}

	slog.Info("Participant registered", "event_id", eventID, "participant_id", participantID, "ticket_id", ticket.ID)
	return ticket, nil
}
