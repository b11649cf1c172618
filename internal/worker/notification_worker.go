package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/events"
)

// ErrQueueFull is returned when an event is dropped because the delivery
// queue is at capacity.
var ErrQueueFull = errors.New("notification queue full")

// Notifier delivers the notifications for one event.
type Notifier interface {
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves notification delivery off the request path.
// Events are queued by the dispatcher and handed to the notifier by Run.
type NotificationWorker struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan events.Event
}

// NewNotificationWorker constructs a worker with a queue of the given size.
func NewNotificationWorker(notifier Notifier, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, queueSize),
	}
}

// Attach subscribes the worker to every event the dispatcher publishes.
func (w *NotificationWorker) Attach(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(w.Enqueue)
}

// Enqueue queues an event without blocking.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("dropping notification", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already queued and returns.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *NotificationWorker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.notifier.Handle(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
