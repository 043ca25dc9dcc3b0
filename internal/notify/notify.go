// Package notify pushes best-effort realtime messages to PubNub channels.
// Delivery failures are logged and never reach the caller's result.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go"

	"esports-platform/models"
	"esports-platform/utils"
)

const (
	TypePaymentCompleted = "payment_completed"
	TypeBracketGenerated = "bracket_generated"
	TypeMatchCompleted   = "match_completed"
)

// Publisher sends one message to one channel.
type Publisher interface {
	Publish(channel string, message any) error
}

type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(publishKey, subscribeKey, secretKey string) *PubNubPublisher {
	cfg := pubnub.NewConfig()
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey
	cfg.UUID = "esports-platform-server"

	return &PubNubPublisher{pn: pubnub.NewPubNub(cfg)}
}

func (p *PubNubPublisher) Publish(channel string, message any) error {
	_, status, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish to %s: %w", channel, err)
	}
	if status.Error != nil {
		return fmt.Errorf("pubnub publish to %s: %w", channel, status.Error)
	}
	return nil
}

// LogPublisher only logs; used when PubNub keys are not configured.
type LogPublisher struct{}

func (LogPublisher) Publish(channel string, message any) error {
	slog.Info("Notification (pubnub disabled)", "channel", channel, "message", message)
	return nil
}

func UserChannel(userID string) string   { return "user-" + userID }
func EventChannel(eventID string) string { return "event-" + eventID }

type BracketMessage struct {
	Type        string    `json:"type"`
	EventID     string    `json:"event_id"`
	Rounds      int       `json:"rounds"`
	Matches     int       `json:"matches"`
	GeneratedAt time.Time `json:"generated_at"`
}

type MatchMessage struct {
	Type     string `json:"type"`
	EventID  string `json:"event_id"`
	MatchID  string `json:"match_id"`
	Round    int    `json:"round"`
	WinnerID string `json:"winner_id"`
	Final    bool   `json:"final"`
}

// Notifier guards a Publisher with a circuit breaker.
type Notifier struct {
	publisher Publisher
	breaker   *utils.CircuitBreaker
}

func NewNotifier(publisher Publisher, breaker *utils.CircuitBreaker) *Notifier {
	if publisher == nil {
		publisher = LogPublisher{}
	}
	if breaker == nil {
		breaker = utils.NewCircuitBreaker("notify", 0, 0)
	}
	return &Notifier{publisher: publisher, breaker: breaker}
}

// send publishes through the breaker. Panics inside the publisher are
// turned into errors.
func (n *Notifier) send(ctx context.Context, channel string, message any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publish to %s panicked: %v", channel, r)
		}
	}()

	err = n.breaker.Execute(ctx, func() error {
		return n.publisher.Publish(channel, message)
	})
	if err != nil {
		slog.Warn("Failed to publish notification", "channel", channel, "error", err)
	}
	return err
}

func (n *Notifier) PaymentCompleted(ctx context.Context, msg models.PaymentNotification) error {
	msg.Type = TypePaymentCompleted
	return n.send(ctx, UserChannel(msg.UserID), msg)
}

func (n *Notifier) BracketGenerated(ctx context.Context, eventID string, rounds, matches int) error {
	return n.send(ctx, EventChannel(eventID), BracketMessage{
		Type:        TypeBracketGenerated,
		EventID:     eventID,
		Rounds:      rounds,
		Matches:     matches,
		GeneratedAt: time.Now().UTC(),
	})
}

func (n *Notifier) MatchCompleted(ctx context.Context, m models.Match, final bool) error {
	return n.send(ctx, EventChannel(m.EventID), MatchMessage{
		Type:     TypeMatchCompleted,
		EventID:  m.EventID,
		MatchID:  m.ID,
		Round:    m.Round,
		WinnerID: m.WinnerID,
		Final:    final,
	})
}
