package store

import (
	"context"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"esports-platform/internal/status"
	"esports-platform/models"
)

const ticketsTable = "tickets"

type ticketRow struct {
	ID          string              `db:"id"`
	EventID     string              `db:"event_id"`
	UserID      string              `db:"user_id"`
	Status      string              `db:"status"`
	PaymentRef  string              `db:"external_payment_ref"`
	Amount      decimal.NullDecimal `db:"amount"`
	PurchasedAt types.DateTime      `db:"purchased_at"`
	PaidAt      types.DateTime      `db:"paid_at"`
}

func (r ticketRow) toModel() models.Ticket {
	t := models.Ticket{
		ID:          r.ID,
		EventID:     r.EventID,
		UserID:      r.UserID,
		Status:      models.TicketStatus(r.Status),
		PaymentRef:  r.PaymentRef,
		PurchasedAt: r.PurchasedAt.Time(),
		PaidAt:      fromDateTime(r.PaidAt),
	}
	if r.Amount.Valid {
		amount := r.Amount.Decimal
		t.Amount = &amount
	}
	return t
}

type userTicketRow struct {
	ID          string              `db:"id"`
	EventID     string              `db:"event_id"`
	UserID      string              `db:"user_id"`
	Status      string              `db:"status"`
	PaymentRef  string              `db:"external_payment_ref"`
	Amount      decimal.NullDecimal `db:"amount"`
	PurchasedAt types.DateTime      `db:"purchased_at"`
	PaidAt      types.DateTime      `db:"paid_at"`
	EventTitle  string              `db:"event_title"`
	Game        string              `db:"game"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// InsertTicket stores a new ticket. A second live ticket for the same
// (event, user) pair is rejected with status.ErrAlreadyRegistered.
func (s *Store) InsertTicket(ctx context.Context, t *models.Ticket) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.PurchasedAt.IsZero() {
		t.PurchasedAt = time.Now().UTC()
	}
	paidAt := types.DateTime{}
	if t.PaidAt != nil {
		paidAt = toDateTime(*t.PaidAt)
	}

	_, err := s.db().Insert(ticketsTable, dbx.Params{
		"id":                   t.ID,
		"event_id":             t.EventID,
		"user_id":              t.UserID,
		"status":               string(t.Status),
		"external_payment_ref": t.PaymentRef,
		"amount":               nullDecimal(t.Amount),
		"purchased_at":         toDateTime(t.PurchasedAt),
		"paid_at":              paidAt,
		"updated":              types.NowDateTime(),
	}).WithContext(ctx).Execute()
	if isUniqueViolation(err, "tickets.event_id") {
		return status.ErrAlreadyRegistered
	}
	if err != nil {
		return status.Storage("insert ticket", err)
	}
	return nil
}

func (s *Store) findTicket(ctx context.Context, where dbx.Expression) (*models.Ticket, error) {
	var row ticketRow
	err := s.db().Select("*").
		From(ticketsTable).
		Where(where).
		OrderBy("purchased_at DESC", "rowid DESC").
		Limit(1).
		WithContext(ctx).
		One(&row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, status.Storage("find ticket", err)
	}
	t := row.toModel()
	return &t, nil
}

// FindTicket returns nil when no ticket has the given id.
func (s *Store) FindTicket(ctx context.Context, id string) (*models.Ticket, error) {
	return s.findTicket(ctx, dbx.HashExp{"id": id})
}

// FindTicketByPaymentRef returns nil when the reference is unknown.
func (s *Store) FindTicketByPaymentRef(ctx context.Context, ref string) (*models.Ticket, error) {
	return s.findTicket(ctx, dbx.HashExp{"external_payment_ref": ref})
}

// FindActiveTicket returns the user's non-cancelled ticket for an event, or nil.
func (s *Store) FindActiveTicket(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	return s.findTicket(ctx, dbx.And(
		dbx.HashExp{"event_id": eventID, "user_id": userID},
		dbx.Not(dbx.HashExp{"status": string(models.TicketCancelled)}),
	))
}

// UpdateTicketStatus sets the ticket status and, when paidAt is non-nil, the
// payment time. It returns nil when the ticket does not exist.
func (s *Store) UpdateTicketStatus(ctx context.Context, id string, st models.TicketStatus, paidAt *time.Time) (*models.Ticket, error) {
	params := dbx.Params{
		"status":  string(st),
		"updated": types.NowDateTime(),
	}
	if paidAt != nil {
		params["paid_at"] = toDateTime(*paidAt)
	}

	res, err := s.db().Update(ticketsTable, params, dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	if err != nil {
		return nil, status.Storage("update ticket status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.FindTicket(ctx, id)
}

// ListTicketsByUser returns the user's tickets joined with their events,
// most recent purchase first.
func (s *Store) ListTicketsByUser(ctx context.Context, userID string) ([]models.UserTicket, error) {
	var rows []userTicketRow
	err := s.db().NewQuery(`
		SELECT t.id, t.event_id, t.user_id, t.status, t.external_payment_ref,
		       t.amount, t.purchased_at, t.paid_at,
		       e.title AS event_title, e.game AS game
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = {:userId}
		ORDER BY t.purchased_at DESC, t.rowid DESC`).
		Bind(dbx.Params{"userId": userID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, status.Storage("list user tickets", err)
	}

	tickets := make([]models.UserTicket, 0, len(rows))
	for _, r := range rows {
		base := ticketRow{
			ID:          r.ID,
			EventID:     r.EventID,
			UserID:      r.UserID,
			Status:      r.Status,
			PaymentRef:  r.PaymentRef,
			Amount:      r.Amount,
			PurchasedAt: r.PurchasedAt,
			PaidAt:      r.PaidAt,
		}
		tickets = append(tickets, models.UserTicket{
			Ticket:     base.toModel(),
			EventTitle: r.EventTitle,
			Game:       r.Game,
		})
	}
	return tickets, nil
}

// ListTicketsByEvent returns the event's tickets, most recent purchase first.
// A positive limit caps the result.
func (s *Store) ListTicketsByEvent(ctx context.Context, eventID string, limit int) ([]models.Ticket, error) {
	q := s.db().Select("*").
		From(ticketsTable).
		Where(dbx.HashExp{"event_id": eventID}).
		OrderBy("purchased_at DESC", "rowid DESC")
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	var rows []ticketRow
	if err := q.WithContext(ctx).All(&rows); err != nil {
		return nil, status.Storage("list event tickets", err)
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, r.toModel())
	}
	return tickets, nil
}

// CountTickets counts the event's tickets in any of the given statuses.
func (s *Store) CountTickets(ctx context.Context, eventID string, statuses ...models.TicketStatus) (int, error) {
	values := make([]any, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}

	var count int
	err := s.db().Select("COUNT(*)").
		From(ticketsTable).
		Where(dbx.HashExp{"event_id": eventID}).
		AndWhere(dbx.In("status", values...)).
		WithContext(ctx).
		Row(&count)
	if err != nil {
		return 0, status.Storage("count tickets", err)
	}
	return count, nil
}

// ConfirmedParticipants returns the user ids eligible for seeding: paid
// tickets, plus pending tickets of free events (no amount owed), in
// purchase order.
func (s *Store) ConfirmedParticipants(ctx context.Context, eventID string) ([]string, error) {
	var rows []struct {
		UserID string `db:"user_id"`
	}
	err := s.db().NewQuery(`
		SELECT user_id FROM tickets
		WHERE event_id = {:eventId}
		  AND (status = {:paid} OR (status = {:pending} AND amount IS NULL))
		ORDER BY purchased_at ASC, rowid ASC`).
		Bind(dbx.Params{
			"eventId": eventID,
			"paid":    string(models.TicketPaid),
			"pending": string(models.TicketPending),
		}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, status.Storage("list confirmed participants", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}
