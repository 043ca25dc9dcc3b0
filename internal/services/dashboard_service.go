package services

import (
	"context"
	"fmt"

	"esports-platform/internal/auth"
	"esports-platform/internal/status"
	"esports-platform/internal/store"
	"esports-platform/models"
)

type DashboardService struct {
	store   *store.Store
	tickets *TicketService
}

func NewDashboardService(st *store.Store, tickets *TicketService) *DashboardService {
	return &DashboardService{store: st, tickets: tickets}
}

// Organizer builds the caller's dashboard. Admins see every event.
func (s *DashboardService) Organizer(ctx context.Context, caller auth.Identity) (*models.Dashboard, error) {
	if !caller.Can(auth.ViewDashboard) {
		return nil, fmt.Errorf("%w: organizer role required", status.ErrForbidden)
	}

	var (
		events []models.Event
		err    error
	)
	if caller.Can(auth.ViewAllEvents) {
		events, err = s.store.ListAllEvents(ctx)
	} else {
		events, err = s.store.ListEventsByOrganizer(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	dash := &models.Dashboard{
		OrganizerID: caller.UserID,
		Role:        string(caller.Role),
		Events:      make([]models.DashboardEvent, 0, len(events)),
	}

	for _, e := range events {
		paid, err := s.tickets.CountPaid(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.tickets.Recent(ctx, e.ID, recentTicketLimit)
		if err != nil {
			return nil, err
		}

		dash.Events = append(dash.Events, models.DashboardEvent{
			ID:               e.ID,
			Title:            e.Title,
			Game:             e.Game,
			Status:           e.Status,
			StartTime:        e.StartTime,
			EndTime:          e.EndTime,
			CurrentTeams:     e.CurrentTeams,
			MaxTeams:         e.MaxTeams,
			ParticipantCount: paid,
			RecentTickets:    recent,
		})

		dash.Summary.TotalParticipants += paid
		switch e.Status {
		case models.EventPublished, models.EventLive:
			dash.Summary.ActiveEvents++
		case models.EventCompleted:
			dash.Summary.CompletedEvents++
		}
	}
	dash.Summary.TotalEvents = len(events)

	return dash, nil
}
