package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"esports-platform/internal/status"
	"esports-platform/models"
	"esports-platform/monitoring"
)

// Ledger is the part of the ticket ledger the payment gateway touches.
type Ledger interface {
	FindByPaymentReference(ctx context.Context, ref string) (*models.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID string, st models.TicketStatus, paidAt *time.Time) (*models.Ticket, error)
}

// PaymentService reconciles provider webhooks against the ticket ledger.
type PaymentService struct {
	ledger   Ledger
	secret   string
	notifier Notifier
	monitor  *monitoring.Monitor
	now      func() time.Time
}

func NewPaymentService(ledger Ledger, webhookSecret string, notifier Notifier, monitor *monitoring.Monitor) *PaymentService {
	if webhookSecret == "" {
		slog.Warn("PAYMENT_WEBHOOK_SECRET is not set, every payment webhook will be rejected")
	}
	return &PaymentService{
		ledger:   ledger,
		secret:   webhookSecret,
		notifier: notifier,
		monitor:  monitor,
		now:      time.Now,
	}
}

func (s *PaymentService) authorized(secret string) bool {
	if s.secret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) == 1
}

// Reconcile applies a provider callback. Only a completed payment mutates
// the ledger; replaying it for a ticket that is already paid is acknowledged
// without a second write.
func (s *PaymentService) Reconcile(ctx context.Context, secret string, payload models.PaymentWebhook) (*models.PaymentReceipt, error) {
	receipt, outcome, err := s.reconcile(ctx, secret, payload)
	if err != nil {
		outcome = monitoring.Outcome(err)
	}
	s.monitor.TrackReconciliation(outcome)
	return receipt, err
}

func (s *PaymentService) reconcile(ctx context.Context, secret string, payload models.PaymentWebhook) (*models.PaymentReceipt, string, error) {
	if !s.authorized(secret) {
		slog.Warn("Rejected payment webhook with invalid secret", "payment_ref", payload.ExternalPaymentRef)
		return nil, "", status.ErrUnauthorized
	}
	if payload.ExternalPaymentRef == "" {
		return nil, "", fmt.Errorf("%w: external_payment_ref is required", status.ErrBadRequest)
	}
	if payload.Status == "" {
		return nil, "", fmt.Errorf("%w: status is required", status.ErrBadRequest)
	}

	ticket, err := s.ledger.FindByPaymentReference(ctx, payload.ExternalPaymentRef)
	if err != nil {
		slog.Error("Ticket lookup failed", "error", err, "payment_ref", payload.ExternalPaymentRef)
		return nil, "", err
	}
	if ticket == nil {
		return nil, "", fmt.Errorf("%w: no ticket for payment reference", status.ErrNotFound)
	}

	now := s.now().UTC()

	// Anything other than completed, including statuses the provider adds
	// later, is acknowledged without touching the ticket.
	if payload.Status != models.PaymentCompleted {
		slog.Info("Payment not completed, ticket unchanged",
			"ticket_id", ticket.ID, "payment_ref", payload.ExternalPaymentRef, "status", payload.Status)
		return &models.PaymentReceipt{
			Success:     true,
			Message:     "Payment status acknowledged",
			TicketID:    ticket.ID,
			Status:      payload.Status,
			ProcessedAt: now,
		}, ackOutcome(payload.Status), nil
	}

	if ticket.Status == models.TicketPaid {
		slog.Info("Payment already reconciled", "ticket_id", ticket.ID, "payment_ref", payload.ExternalPaymentRef)
		return &models.PaymentReceipt{
			Success:     true,
			Message:     "Payment already processed",
			TicketID:    ticket.ID,
			Status:      string(models.TicketPaid),
			ProcessedAt: now,
		}, "replayed", nil
	}

	updated, err := s.ledger.UpdateStatus(ctx, ticket.ID, models.TicketPaid, &now)
	if err != nil {
		slog.Error("Failed to mark ticket paid", "error", err, "ticket_id", ticket.ID)
		return nil, "", err
	}
	if updated == nil {
		return nil, "", fmt.Errorf("%w: ticket %s disappeared during reconciliation", status.ErrInternal, ticket.ID)
	}

	slog.Info("Payment reconciled", "ticket_id", updated.ID, "event_id", updated.EventID, "user_id", updated.UserID)

	s.notifyPaid(ctx, updated, payload, now)

	return &models.PaymentReceipt{
		Success:     true,
		Message:     "Payment processed successfully",
		TicketID:    updated.ID,
		Status:      string(models.TicketPaid),
		ProcessedAt: now,
	}, "paid", nil
}

// notifyPaid never fails the reconciliation; errors and panics are logged.
func (s *PaymentService) notifyPaid(ctx context.Context, t *models.Ticket, payload models.PaymentWebhook, now time.Time) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Payment notification panicked", "panic", r, "ticket_id", t.ID)
		}
	}()

	err := s.notifier.PaymentCompleted(ctx, models.PaymentNotification{
		TicketID:    t.ID,
		EventID:     t.EventID,
		UserID:      t.UserID,
		Amount:      payload.Amount,
		Currency:    payload.Currency,
		PaymentRef:  t.PaymentRef,
		ProcessedAt: now,
	})
	if err != nil {
		slog.Warn("Payment notification failed", "error", err, "ticket_id", t.ID)
	}
}

// ackOutcome keeps the metric label set closed.
func ackOutcome(providerStatus string) string {
	switch providerStatus {
	case models.PaymentFailed, models.PaymentCancelled:
		return providerStatus
	}
	return "acknowledged"
}
