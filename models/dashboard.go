package models

import "time"

type DashboardEvent struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Game             string      `json:"game"`
	Status           EventStatus `json:"status"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          time.Time   `json:"end_time"`
	CurrentTeams     int         `json:"current_teams"`
	MaxTeams         *int        `json:"max_teams"`
	ParticipantCount int         `json:"participant_count"`
	RecentTickets    []Ticket    `json:"recent_tickets"`
}

type DashboardSummary struct {
	TotalEvents       int `json:"total_events"`
	TotalParticipants int `json:"total_participants"`
	ActiveEvents      int `json:"active_events"`
	CompletedEvents   int `json:"completed_events"`
}

type Dashboard struct {
	OrganizerID string           `json:"organizer_id"`
	Role        string           `json:"role"`
	Events      []DashboardEvent `json:"events"`
	Summary     DashboardSummary `json:"summary"`
}
