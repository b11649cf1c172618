package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/events"
)

type recordingNotifier struct {
	mu      sync.Mutex
	handled []events.EventType
}

func (r *recordingNotifier) Handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event.Type)
	return nil
}

func (r *recordingNotifier) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EventType(nil), r.handled...)
}

func TestNotificationWorkerDeliversPublishedEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewNotificationWorker(notifier, zap.NewNop(), 8)
	dispatcher := events.NewInMemoryDispatcher()
	w.Attach(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventEntryCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventVisitAssigned}))

	require.Eventually(t, func() bool { return len(notifier.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []events.EventType{events.EventEntryCreated, events.EventVisitAssigned}, notifier.types())

	cancel()
}

func TestNotificationWorkerDropsWhenFull(t *testing.T) {
	w := NewNotificationWorker(&recordingNotifier{}, nil, 1)

	require.NoError(t, w.Enqueue(context.Background(), events.Event{Type: events.EventEntryCreated}))
	assert.ErrorIs(t, w.Enqueue(context.Background(), events.Event{Type: events.EventEntryCreated}), ErrQueueFull)
}

func TestNotificationWorkerDrainsOnShutdown(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewNotificationWorker(notifier, zap.NewNop(), 4)
	for _, et := range []events.EventType{events.EventEntryCreated, events.EventTimelineNoteAdded} {
		require.NoError(t, w.Enqueue(context.Background(), events.Event{Type: et}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	assert.ElementsMatch(t, []events.EventType{events.EventEntryCreated, events.EventTimelineNoteAdded}, notifier.types())
}
