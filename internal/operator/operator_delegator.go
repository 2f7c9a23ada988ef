package operator

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/ledger"
)

var _ ledger.Notifier = (*OperatorDelegator)(nil)

// OperatorDelegator manages the queue, starts/stops Operators (workers), and
// enqueues committed ledger events for publishing.
type OperatorDelegator struct {
	publisher  events.Publisher
	queue      chan ActionItem
	numWorkers int
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     logrus.FieldLogger

	mu       sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	Logger     logrus.FieldLogger
}

func NewOperatorDelegator(publisher events.Publisher, opts Options) *OperatorDelegator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1000
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &OperatorDelegator{
		publisher:  publisher,
		queue:      make(chan ActionItem, opts.QueueSize),
		numWorkers: opts.Workers,
		maxRetries: uint64(opts.MaxRetries),
		newBackOff: defaultBackOff,
		logger:     opts.Logger,
	}
}

func (d *OperatorDelegator) Start() {
	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		op := NewOperator(d)
		go func() {
			defer d.wg.Done()
			op.Run()
		}()
	}
}

// Stop drains the queue, waits for the workers and closes the publisher.
func (d *OperatorDelegator) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()

		d.wg.Wait()
		if err := d.publisher.Close(); err != nil {
			d.logger.WithError(err).Warn("OperatorDelegator.Stop.Close")
		}
	})
}

// Notify never blocks the caller. When the queue is full or the delegator
// has been stopped the event is dropped.
func (d *OperatorDelegator) Notify(ctx context.Context, event events.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.logger.WithField("eventID", event.ID.String()).Warn("OperatorDelegator.Notify.Stopped")
		return
	}

	item := ActionItem{
		ctx:      ctx,
		event:    event,
		queuedAt: time.Now(),
	}

	select {
	case d.queue <- item:
	default:
		d.logger.WithFields(logrus.Fields{
			"eventID":   event.ID.String(),
			"eventKind": string(event.Kind),
		}).Warn("OperatorDelegator.Notify.QueueFull")
	}
}
