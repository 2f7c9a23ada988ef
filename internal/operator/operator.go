package operator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/events"
)

// Operator is the worker that publishes items from the queue.
type Operator struct {
	publisher  events.Publisher
	queue      chan ActionItem
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     logrus.FieldLogger
}

func NewOperator(d *OperatorDelegator) *Operator {
	return &Operator{
		publisher:  d.publisher,
		queue:      d.queue,
		maxRetries: d.maxRetries,
		newBackOff: d.newBackOff,
		logger:     d.logger,
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		o.processItem(item)
	}
}

func (o *Operator) processItem(item ActionItem) {
	attempts := 0
	publish := func() error {
		attempts++
		return o.publisher.Publish(item.ctx, item.event)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(o.newBackOff(), o.maxRetries), item.ctx)
	if err := backoff.Retry(publish, policy); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"eventID":   item.event.ID.String(),
			"eventKind": string(item.event.Kind),
			"attempts":  attempts,
		}).Error("Operator.Publish.Failed")
		return
	}

	o.logger.WithFields(logrus.Fields{
		"eventID":   item.event.ID.String(),
		"eventKind": string(item.event.Kind),
		"queuedFor": time.Since(item.queuedAt).String(),
	}).Debug("Operator.Publish.Done")
}

type ActionItem struct {
	ctx      context.Context
	event    events.Event
	queuedAt time.Time
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}
