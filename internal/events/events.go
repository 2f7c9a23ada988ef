// Package events describes the summaries published after a ledger change has
// been committed.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindMovementRecorded Kind = "movement.recorded"
	KindTransferExecuted Kind = "transfer.executed"
)

// Event is the post-commit summary of a movement or a transfer. For a
// transfer AccountID is the origin and CounterpartyID the destination.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	Kind           Kind            `json:"kind"`
	AccountID      uuid.UUID       `json:"accountID"`
	CounterpartyID uuid.NullUUID   `json:"counterpartyID"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	Direction      string          `json:"direction,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// Key is the partitioning key: every event of an account lands in order.
func (e Event) Key() []byte {
	return []byte(e.AccountID.String())
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers one event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	Logger logrus.FieldLogger
}

func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{Logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.Logger.WithFields(logrus.Fields{
		"eventID":   event.ID.String(),
		"eventKind": string(event.Kind),
		"accountID": event.AccountID.String(),
		"amount":    event.Amount.String(),
	}).Info("Events.Publish")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
