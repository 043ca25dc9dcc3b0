package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"esports-platform/internal/auth"
	"esports-platform/internal/status"
	"esports-platform/internal/store"
	"esports-platform/models"
	"esports-platform/utils"
)

const recentTicketLimit = 5

// TicketService is the ticket ledger.
type TicketService struct {
	store *store.Store
	now   func() time.Time
}

func NewTicketService(st *store.Store) *TicketService {
	return &TicketService{store: st, now: time.Now}
}

// WithStore returns a ledger bound to st, typically a transaction.
func (s *TicketService) WithStore(st *store.Store) *TicketService {
	return &TicketService{store: st, now: s.now}
}

func (s *TicketService) FindByEventAndParticipant(ctx context.Context, eventID, participantID string) (*models.Ticket, error) {
	return s.store.FindActiveTicket(ctx, eventID, participantID)
}

// Create inserts a pending ticket with a placeholder payment reference.
func (s *TicketService) Create(ctx context.Context, eventID, participantID string, amount *decimal.Decimal) (*models.Ticket, error) {
	ref, err := s.placeholderRef(participantID)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		EventID:     eventID,
		UserID:      participantID,
		Status:      models.TicketPending,
		PaymentRef:  ref,
		Amount:      amount,
		PurchasedAt: s.now().UTC(),
	}
	if err := s.store.InsertTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// placeholderRef builds pending_<unix-ms>_<participant>_<hex>. The random
// suffix keeps references distinct within the same millisecond; the unique
// index on the column rejects anything that still collides.
func (s *TicketService) placeholderRef(participantID string) (string, error) {
	code, err := utils.GenerateCode(4)
	if err != nil {
		return "", fmt.Errorf("generate payment reference: %w", err)
	}
	return fmt.Sprintf("pending_%d_%s_%s", s.now().UnixMilli(), participantID, code), nil
}

// UpdateStatus overwrites the ticket status. It returns nil, nil when the
// ticket no longer exists.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, st models.TicketStatus, paidAt *time.Time) (*models.Ticket, error) {
	if !st.Valid() {
		return nil, status.Invalid("status", "unknown ticket status "+string(st))
	}
	return s.store.UpdateTicketStatus(ctx, ticketID, st, paidAt)
}

func (s *TicketService) FindByPaymentReference(ctx context.Context, ref string) (*models.Ticket, error) {
	return s.store.FindTicketByPaymentRef(ctx, ref)
}

func (s *TicketService) ListByParticipant(ctx context.Context, participantID string) ([]models.UserTicket, error) {
	return s.store.ListTicketsByUser(ctx, participantID)
}

func (s *TicketService) ListByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	return s.store.ListTicketsByEvent(ctx, eventID, 0)
}

// Recent returns the newest limit tickets of the event (5 when limit <= 0).
func (s *TicketService) Recent(ctx context.Context, eventID string, limit int) ([]models.Ticket, error) {
	if limit <= 0 {
		limit = recentTicketLimit
	}
	return s.store.ListTicketsByEvent(ctx, eventID, limit)
}

func (s *TicketService) CountPaid(ctx context.Context, eventID string) (int, error) {
	return s.store.CountTickets(ctx, eventID, models.TicketPaid)
}

// ListForUser lists userID's tickets. Callers may read their own tickets;
// anyone else's need admin. An empty userID means the caller.
func (s *TicketService) ListForUser(ctx context.Context, caller auth.Identity, userID string) ([]models.UserTicket, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: authentication required", status.ErrForbidden)
	}
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.Can(auth.ViewAnyTickets) {
		return nil, fmt.Errorf("%w: admin role required to view other users' tickets", status.ErrForbidden)
	}
	return s.ListByParticipant(ctx, userID)
}
