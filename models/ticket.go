package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketPaid      TicketStatus = "paid"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketPending, TicketPaid, TicketCancelled, TicketRefunded:
		return true
	}
	return false
}

type Ticket struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	UserID      string           `json:"user_id"`
	Status      TicketStatus     `json:"status"` // pending, paid, cancelled, refunded
	PaymentRef  string           `json:"external_payment_ref"`
	Amount      *decimal.Decimal `json:"amount"`
	PurchasedAt time.Time        `json:"purchased_at"`
	PaidAt      *time.Time       `json:"paid_at"`
}

// UserTicket is a ticket joined with the event it belongs to.
type UserTicket struct {
	Ticket
	EventTitle string `json:"event_title"`
	Game       string `json:"game"`
}
