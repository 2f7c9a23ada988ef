package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Marshal(t *testing.T) {
	origin := uuid.Must(uuid.NewV4())
	destination := uuid.Must(uuid.NewV4())
	event := Event{
		ID:             uuid.Must(uuid.NewV4()),
		Kind:           KindTransferExecuted,
		AccountID:      origin,
		CounterpartyID: uuid.NullUUID{UUID: destination, Valid: true},
		Amount:         decimal.RequireFromString("20.00"),
		Fee:            decimal.RequireFromString("0.50"),
		IdempotencyKey: "rent",
		OccurredAt:     time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	payload, err := event.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "transfer.executed", decoded["kind"])
	assert.Equal(t, destination.String(), decoded["counterpartyID"])
	assert.Equal(t, "20", decoded["amount"])
	assert.NotContains(t, decoded, "direction")
	assert.Equal(t, []byte(origin.String()), event.Key())
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	publisher := NewLogPublisher(logger)

	event := Event{ID: uuid.Must(uuid.NewV4()), Kind: KindMovementRecorded, Amount: decimal.NewFromInt(3)}
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, publisher.Close())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Events.Publish", entry.Message)
	assert.Equal(t, event.ID.String(), entry.Data["eventID"])
	assert.Equal(t, "movement.recorded", entry.Data["eventKind"])
}
