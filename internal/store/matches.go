package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"

	"esports-platform/internal/status"
	"esports-platform/models"
)

const matchesTable = "matches"

type matchRow struct {
	ID            string         `db:"id"`
	EventID       string         `db:"event_id"`
	Round         int            `db:"round"`
	MatchNumber   int            `db:"match_number"`
	Slot          int            `db:"slot"`
	Player1ID     string         `db:"player1_id"`
	Player2ID     string         `db:"player2_id"`
	Player1Score  sql.NullInt64  `db:"player1_score"`
	Player2Score  sql.NullInt64  `db:"player2_score"`
	WinnerID      string         `db:"winner_id"`
	Status        string         `db:"status"`
	IsBye         bool           `db:"is_bye"`
	NextMatchID   string         `db:"next_match_id"`
	NextSlot      int            `db:"next_slot"`
	ScheduledTime types.DateTime `db:"scheduled_time"`
	CompletedAt   types.DateTime `db:"completed_at"`
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func (r matchRow) toModel() models.Match {
	return models.Match{
		ID:            r.ID,
		EventID:       r.EventID,
		Round:         r.Round,
		MatchNumber:   r.MatchNumber,
		Slot:          r.Slot,
		Player1ID:     r.Player1ID,
		Player2ID:     r.Player2ID,
		Player1Score:  intFromNull(r.Player1Score),
		Player2Score:  intFromNull(r.Player2Score),
		WinnerID:      r.WinnerID,
		Status:        models.MatchStatus(r.Status),
		IsBye:         r.IsBye,
		NextMatchID:   r.NextMatchID,
		NextSlot:      r.NextSlot,
		ScheduledTime: fromDateTime(r.ScheduledTime),
		CompletedAt:   fromDateTime(r.CompletedAt),
	}
}

func optionalDateTime(t *time.Time) types.DateTime {
	if t == nil {
		return types.DateTime{}
	}
	return toDateTime(*t)
}

func matchParams(m *models.Match) dbx.Params {
	return dbx.Params{
		"player1_id":     m.Player1ID,
		"player2_id":     m.Player2ID,
		"player1_score":  nullInt(m.Player1Score),
		"player2_score":  nullInt(m.Player2Score),
		"winner_id":      m.WinnerID,
		"status":         string(m.Status),
		"scheduled_time": optionalDateTime(m.ScheduledTime),
		"completed_at":   optionalDateTime(m.CompletedAt),
	}
}

// InsertMatch stores a new match record. The caller assigns the id so that
// next_match_id links can be resolved before anything is written.
func (s *Store) InsertMatch(ctx context.Context, m *models.Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	params := matchParams(m)
	params["id"] = m.ID
	params["event_id"] = m.EventID
	params["round"] = m.Round
	params["match_number"] = m.MatchNumber
	params["slot"] = m.Slot
	params["is_bye"] = m.IsBye
	params["next_match_id"] = m.NextMatchID
	params["next_slot"] = m.NextSlot
	params["created"] = types.NowDateTime()

	if _, err := s.db().Insert(matchesTable, params).WithContext(ctx).Execute(); err != nil {
		return status.Storage("insert match", err)
	}
	return nil
}

// UpdateMatch writes the players, scores, winner, status and timestamps.
func (s *Store) UpdateMatch(ctx context.Context, m *models.Match) error {
	res, err := s.db().Update(matchesTable, matchParams(m), dbx.HashExp{"id": m.ID}).WithContext(ctx).Execute()
	if err != nil {
		return status.Storage("update match", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.ErrNotFound
	}
	return nil
}

// FindMatch returns status.ErrNotFound when no match has the given id.
func (s *Store) FindMatch(ctx context.Context, id string) (*models.Match, error) {
	var row matchRow
	err := s.db().Select("*").
		From(matchesTable).
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&row)
	if isNoRows(err) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, status.Storage("find match", err)
	}
	m := row.toModel()
	return &m, nil
}

// ListMatchesByEvent returns the event's matches ordered by round then match number.
func (s *Store) ListMatchesByEvent(ctx context.Context, eventID string) ([]models.Match, error) {
	var rows []matchRow
	err := s.db().Select("*").
		From(matchesTable).
		Where(dbx.HashExp{"event_id": eventID}).
		OrderBy("round ASC", "match_number ASC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, status.Storage("list matches", err)
	}

	matches := make([]models.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, r.toModel())
	}
	return matches, nil
}

// DeleteMatchesByEvent removes every match of the event.
func (s *Store) DeleteMatchesByEvent(ctx context.Context, eventID string) error {
	if _, err := s.db().Delete(matchesTable, dbx.HashExp{"event_id": eventID}).WithContext(ctx).Execute(); err != nil {
		return status.Storage("delete matches", err)
	}
	return nil
}
