package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var created, noted int
	d.Subscribe(EventEntryCreated, func(context.Context, Event) error { created++; return nil })
	d.Subscribe(EventTimelineNoteAdded, func(context.Context, Event) error { noted++; return nil })

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventEntryCreated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventVisitAssigned}))

	assert.Equal(t, 1, created)
	assert.Equal(t, 0, noted)
}

func TestDispatcherRunsEveryHandlerAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	first := errors.New("first failed")
	var calls int
	d.Subscribe(EventEntryStatusChanged, func(context.Context, Event) error { calls++; return first })
	d.Subscribe(EventEntryStatusChanged, func(context.Context, Event) error { calls++; return nil })

	err := d.Publish(context.Background(), Event{Type: EventEntryStatusChanged})
	assert.ErrorIs(t, err, first)
	assert.Equal(t, 2, calls)
}

func TestDispatcherWildcardRunsAfterTypedHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error { order = append(order, "all:"+string(e.Type)); return nil })
	d.Subscribe(EventVisitAssigned, func(context.Context, Event) error { order = append(order, "typed"); return nil })

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventVisitAssigned}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventEntryCreated}))

	assert.Equal(t, []string{"typed", "all:visit_assigned", "all:entry_created"}, order)
}

func TestDispatcherStampsMissingIdentity(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []Event
	d.SubscribeAll(func(_ context.Context, e Event) error { seen = append(seen, e); return nil })

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventEntryCreated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventEntryCreated, ID: "fixed"}))

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0].ID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, "fixed", seen[1].ID)
}

func TestDispatcherIsolatesPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var reached bool
	d.Subscribe(EventVisitUnchanged, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventVisitUnchanged, func(context.Context, Event) error { reached = true; return nil })

	err := d.Publish(context.Background(), Event{Type: EventVisitUnchanged})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked: boom")
	assert.True(t, reached)
}
