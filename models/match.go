package models

import (
	"time"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

type Match struct {
	ID            string      `json:"id"`
	EventID       string      `json:"event_id"`
	Round         int         `json:"round"`
	MatchNumber   int         `json:"match_number"`
	Slot          int         `json:"slot"`
	Player1ID     string      `json:"player1_id,omitempty"`
	Player2ID     string      `json:"player2_id,omitempty"`
	Player1Score  *int        `json:"player1_score"`
	Player2Score  *int        `json:"player2_score"`
	WinnerID      string      `json:"winner_id,omitempty"`
	Status        MatchStatus `json:"status"`
	IsBye         bool        `json:"is_bye"`
	NextMatchID   string      `json:"next_match_id,omitempty"`
	NextSlot      int         `json:"next_slot,omitempty"`
	ScheduledTime *time.Time  `json:"scheduled_time"`
	CompletedAt   *time.Time  `json:"completed_at"`
}

// HasPlayer reports whether id occupies either side of the match.
func (m *Match) HasPlayer(id string) bool {
	return id != "" && (m.Player1ID == id || m.Player2ID == id)
}

type MatchResult struct {
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	WinnerID     string `json:"winner_id"`
}

type Bracket struct {
	EventID     string      `json:"event_id"`
	BracketType BracketType `json:"bracket_type"`
	Rounds      int         `json:"rounds"`
	Matches     []Match     `json:"matches"`
}
