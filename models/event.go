package models

import (
	"time"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventLive      EventStatus = "live"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventLive, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type BracketType string

const (
	SingleElimination BracketType = "single_elimination"
	DoubleElimination BracketType = "double_elimination"
	RoundRobin        BracketType = "round_robin"
	Swiss             BracketType = "swiss"
)

func (b BracketType) Valid() bool {
	switch b {
	case SingleElimination, DoubleElimination, RoundRobin, Swiss:
		return true
	}
	return false
}

type Event struct {
	ID           string      `json:"id"`
	OrganizerID  string      `json:"organizer_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Game         string      `json:"game"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	BracketType  BracketType `json:"bracket_type"`
	CheckoutURL  string      `json:"organizer_checkout_url,omitempty"`
	MaxTeams     *int        `json:"max_teams"`
	CurrentTeams int         `json:"current_teams"`
	Status       EventStatus `json:"status"` // draft, published, live, completed, cancelled
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsFull reports whether the event has consumed every slot.
func (e *Event) IsFull() bool {
	return e.MaxTeams != nil && e.CurrentTeams >= *e.MaxTeams
}

// EventInput is the body accepted when an organizer creates an event.
type EventInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Game        string      `json:"game"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	BracketType BracketType `json:"bracket_type"`
	CheckoutURL string      `json:"organizer_checkout_url"`
	MaxTeams    *int        `json:"max_teams"`
}

// EventPatch is a partial update; nil fields are left untouched.
type EventPatch struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Game        *string      `json:"game"`
	StartTime   *time.Time   `json:"start_time"`
	EndTime     *time.Time   `json:"end_time"`
	BracketType *BracketType `json:"bracket_type"`
	CheckoutURL *string      `json:"organizer_checkout_url"`
	MaxTeams    *int         `json:"max_teams"`
	Status      *EventStatus `json:"status"`
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Game == nil &&
		p.StartTime == nil && p.EndTime == nil && p.BracketType == nil &&
		p.CheckoutURL == nil && p.MaxTeams == nil && p.Status == nil
}

// Apply returns a copy of e with the patch merged in.
func (p EventPatch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Game != nil {
		e.Game = *p.Game
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.BracketType != nil {
		e.BracketType = *p.BracketType
	}
	if p.CheckoutURL != nil {
		e.CheckoutURL = *p.CheckoutURL
	}
	if p.MaxTeams != nil {
		m := *p.MaxTeams
		e.MaxTeams = &m
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	return e
}

type Participant struct {
	TicketID    string       `json:"id"`
	UserID      string       `json:"user_id"`
	Status      TicketStatus `json:"status"`
	PurchasedAt time.Time    `json:"purchased_at"`
}
