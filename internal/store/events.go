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

const eventsTable = "events"

type eventRow struct {
	ID           string         `db:"id"`
	OrganizerID  string         `db:"organizer_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Game         string         `db:"game"`
	StartTime    types.DateTime `db:"start_time"`
	EndTime      types.DateTime `db:"end_time"`
	BracketType  string         `db:"bracket_type"`
	CheckoutURL  string         `db:"organizer_checkout_url"`
	MaxTeams     sql.NullInt64  `db:"max_teams"`
	CurrentTeams int            `db:"current_teams"`
	Status       string         `db:"status"`
	Created      types.DateTime `db:"created"`
	Updated      types.DateTime `db:"updated"`
}

func (r eventRow) toModel() models.Event {
	e := models.Event{
		ID:           r.ID,
		OrganizerID:  r.OrganizerID,
		Title:        r.Title,
		Description:  r.Description,
		Game:         r.Game,
		StartTime:    r.StartTime.Time(),
		EndTime:      r.EndTime.Time(),
		BracketType:  models.BracketType(r.BracketType),
		CheckoutURL:  r.CheckoutURL,
		CurrentTeams: r.CurrentTeams,
		Status:       models.EventStatus(r.Status),
		CreatedAt:    r.Created.Time(),
		UpdatedAt:    r.Updated.Time(),
	}
	if r.MaxTeams.Valid {
		m := int(r.MaxTeams.Int64)
		e.MaxTeams = &m
	}
	return e
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func eventParams(e *models.Event) dbx.Params {
	return dbx.Params{
		"organizer_id":           e.OrganizerID,
		"title":                  e.Title,
		"description":            e.Description,
		"game":                   e.Game,
		"start_time":             toDateTime(e.StartTime),
		"end_time":               toDateTime(e.EndTime),
		"bracket_type":           string(e.BracketType),
		"organizer_checkout_url": e.CheckoutURL,
		"max_teams":              nullInt(e.MaxTeams),
		"status":                 string(e.Status),
		"updated":                toDateTime(e.UpdatedAt),
	}
}

// InsertEvent stores a new event. ID and timestamps are filled in when empty.
func (s *Store) InsertEvent(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	params := eventParams(e)
	params["id"] = e.ID
	params["current_teams"] = e.CurrentTeams
	params["created"] = toDateTime(e.CreatedAt)

	if _, err := s.db().Insert(eventsTable, params).WithContext(ctx).Execute(); err != nil {
		return status.Storage("insert event", err)
	}
	return nil
}

// FindEvent returns status.ErrNotFound when no event has the given id.
func (s *Store) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	var row eventRow
	err := s.db().Select("*").
		From(eventsTable).
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&row)
	if isNoRows(err) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, status.Storage("find event", err)
	}
	e := row.toModel()
	return &e, nil
}

func (s *Store) listEvents(ctx context.Context, where dbx.Expression) ([]models.Event, error) {
	var rows []eventRow
	err := s.db().Select("*").
		From(eventsTable).
		Where(where).
		OrderBy("created DESC", "rowid DESC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, status.Storage("list events", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toModel())
	}
	return events, nil
}

// ListEventsByStatus returns events in any of the given statuses, newest first.
func (s *Store) ListEventsByStatus(ctx context.Context, statuses ...models.EventStatus) ([]models.Event, error) {
	values := make([]any, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	return s.listEvents(ctx, dbx.In("status", values...))
}

// ListEventsByOrganizer returns every event owned by organizerID, newest first.
func (s *Store) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	return s.listEvents(ctx, dbx.HashExp{"organizer_id": organizerID})
}

// ListAllEvents returns every event, newest first.
func (s *Store) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	return s.listEvents(ctx, dbx.NewExp("1=1"))
}

// SaveEvent writes the mutable columns of an existing event.
// current_teams is owned by ReserveSlot and never written here.
func (s *Store) SaveEvent(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db().Update(eventsTable, eventParams(e), dbx.HashExp{"id": e.ID}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return status.Storage("update event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.ErrNotFound
	}
	return nil
}

// SetEventStatus moves an event to the given status.
func (s *Store) SetEventStatus(ctx context.Context, id string, st models.EventStatus) error {
	res, err := s.db().Update(eventsTable, dbx.Params{
		"status":  string(st),
		"updated": types.NowDateTime(),
	}, dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	if err != nil {
		return status.Storage("set event status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.ErrNotFound
	}
	return nil
}

// ReserveSlot increments current_teams if the event is published and has
// room left. The check and the increment are a single statement, so two
// concurrent callers can never both take the last slot.
func (s *Store) ReserveSlot(ctx context.Context, eventID string) (bool, error) {
	res, err := s.db().NewQuery(`
		UPDATE events
		SET current_teams = current_teams + 1, updated = {:updated}
		WHERE id = {:id}
		  AND status = {:published}
		  AND (max_teams IS NULL OR current_teams < max_teams)`).
		Bind(dbx.Params{
			"id":        eventID,
			"published": string(models.EventPublished),
			"updated":   types.NowDateTime(),
		}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return false, status.Storage("reserve slot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, status.Storage("reserve slot", err)
	}
	return n == 1, nil
}

// DeleteEvent removes the event with its tickets and matches.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.RunInTx(func(tx *Store) error {
		if _, err := tx.db().Delete(matchesTable, dbx.HashExp{"event_id": id}).WithContext(ctx).Execute(); err != nil {
			return status.Storage("delete event matches", err)
		}
		if _, err := tx.db().Delete(ticketsTable, dbx.HashExp{"event_id": id}).WithContext(ctx).Execute(); err != nil {
			return status.Storage("delete event tickets", err)
		}
		res, err := tx.db().Delete(eventsTable, dbx.HashExp{"id": id}).WithContext(ctx).Execute()
		if err != nil {
			return status.Storage("delete event", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrNotFound
		}
		return nil
	})
}

// CountEventsByStatus returns the number of events in each status.
func (s *Store) CountEventsByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"total"`
	}
	err := s.db().NewQuery("SELECT status, COUNT(*) AS total FROM events GROUP BY status").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, status.Storage("count events", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
