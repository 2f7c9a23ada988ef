package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/carson-networks/ledger-server/internal/events"
)

// Topics maps each event kind onto the topic it is written to.
type Topics struct {
	Movement string
	Transfer string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ events.Publisher = (*Publisher)(nil)

type Publisher struct {
	writer messageWriter
	topics Topics
}

// NewPublisher writes to brokers with messages keyed by account, so the
// events of one account keep their order within a partition.
func NewPublisher(brokers []string, topics Topics) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		topics: topics,
	}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	topic, err := p.topicFor(event.Kind)
	if err != nil {
		return err
	}

	data, err := event.Marshal()
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   event.Key(),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) topicFor(kind events.Kind) (string, error) {
	switch kind {
	case events.KindMovementRecorded:
		return p.topics.Movement, nil
	case events.KindTransferExecuted:
		return p.topics.Transfer, nil
	default:
		return "", fmt.Errorf("kafka: no topic for event kind %q", kind)
	}
}
