package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// PaymentWebhook is the body posted by the external payment provider.
type PaymentWebhook struct {
	ExternalPaymentRef string           `json:"external_payment_ref"`
	Status             string           `json:"status"` // completed, failed, cancelled
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	Currency           string           `json:"currency,omitempty"`
	PaymentMethod      string           `json:"payment_method,omitempty"`
	Metadata           *PaymentMetadata `json:"metadata,omitempty"`
}

type PaymentMetadata struct {
	EventID string `json:"event_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

type PaymentReceipt struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	TicketID    string    `json:"ticket_id"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
}

type PaymentNotification struct {
	Type        string           `json:"type"`
	TicketID    string           `json:"ticket_id"`
	EventID     string           `json:"event_id"`
	UserID      string           `json:"user_id"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	PaymentRef  string           `json:"payment_ref"`
	ProcessedAt time.Time        `json:"processed_at"`
}
