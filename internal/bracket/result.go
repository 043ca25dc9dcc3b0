package bracket

import (
	"fmt"
	"time"

	"esports-platform/internal/status"
	"esports-platform/models"
)

// Start moves a ready match to in_progress.
func Start(m *models.Match) error {
	if m.Status != models.MatchPending {
		return fmt.Errorf("%w: match %d is %s", status.ErrInvalidState, m.MatchNumber, m.Status)
	}
	if m.Player1ID == "" || m.Player2ID == "" {
		return fmt.Errorf("%w: match %d is still waiting for players", status.ErrInvalidState, m.MatchNumber)
	}
	m.Status = models.MatchInProgress
	return nil
}

// Complete records the result on m. The winner has to be one of the two
// seated players and cannot have the lower score.
func Complete(m *models.Match, res models.MatchResult, now time.Time) error {
	if m.Status == models.MatchCompleted {
		return fmt.Errorf("%w: match %d is already completed", status.ErrInvalidState, m.MatchNumber)
	}
	if m.Player1ID == "" || m.Player2ID == "" {
		return fmt.Errorf("%w: match %d is still waiting for players", status.ErrInvalidState, m.MatchNumber)
	}

	v := status.NewValidationError()
	if res.Player1Score < 0 {
		v.Add("player1_score", "score cannot be negative")
	}
	if res.Player2Score < 0 {
		v.Add("player2_score", "score cannot be negative")
	}
	switch res.WinnerID {
	case m.Player1ID:
		if res.Player1Score < res.Player2Score {
			v.Add("winner_id", "winner cannot have the lower score")
		}
	case m.Player2ID:
		if res.Player2Score < res.Player1Score {
			v.Add("winner_id", "winner cannot have the lower score")
		}
	default:
		v.Add("winner_id", "winner must be one of the match players")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	p1, p2 := res.Player1Score, res.Player2Score
	m.Player1Score = &p1
	m.Player2Score = &p2
	m.WinnerID = res.WinnerID
	m.Status = models.MatchCompleted
	completed := now.UTC()
	m.CompletedAt = &completed
	return nil
}

// Advance seats winner on the side of next named by side (1 or 2).
func Advance(next *models.Match, side int, winner string) error {
	if next.Status == models.MatchCompleted {
		return fmt.Errorf("%w: match %d is already completed", status.ErrInvalidState, next.MatchNumber)
	}
	switch side {
	case 1, 2:
		placeWinner(next, side, winner)
		return nil
	}
	return fmt.Errorf("%w: invalid next slot %d", status.ErrInvalidState, side)
}

// IsFinal reports whether m is the last match of the bracket.
func IsFinal(m *models.Match) bool {
	return m.NextMatchID == "" && !m.IsBye
}
