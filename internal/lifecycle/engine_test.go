package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskworks/service-desk/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(Options{Now: fixedClock, Location: ist})
}

func TestReplyAssignsVisitAndAppendsNote(t *testing.T) {
	engine := newTestEngine()
	entry := domain.NewEntry(domain.KindServiceRequest, customer.ID, "Leaking tap", "", "plumbing")
	visit := time.Date(2030, 3, 11, 10, 0, 0, 0, ist)

	result, err := engine.Reply(entry, ReplyInput{
		NoteInput:        NoteInput{Note: "on our way", Author: admin},
		ScheduledVisitAt: &visit,
	})
	require.NoError(t, err)

	assert.True(t, result.VisitChanged)
	require.NotNil(t, result.Note)
	assert.Equal(t, "on our way", result.Note.Note)
	assert.True(t, visit.Equal(*entry.AssignedVisitAt))
	assert.Len(t, entry.Timeline, 1)
	assert.Equal(t, domain.StatusNew, entry.Status)
}

func TestReplyIsAllOrNothing(t *testing.T) {
	engine := newTestEngine()
	entry := domain.NewEntry(domain.KindTicket, customer.ID, "Router down", "", "network")
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(48 * time.Hour)

	t.Run("visit rejected keeps note out", func(t *testing.T) {
		_, err := engine.Reply(entry, ReplyInput{
			NoteInput:        NoteInput{Note: "valid note", Author: admin},
			ScheduledVisitAt: &past,
		})
		assert.ErrorIs(t, err, ErrVisitInPast)
		assert.Empty(t, entry.Timeline)
		assert.Nil(t, entry.AssignedVisitAt)
	})

	t.Run("note rejected keeps visit out", func(t *testing.T) {
		_, err := engine.Reply(entry, ReplyInput{
			NoteInput:        NoteInput{Note: "ok", Author: admin},
			ScheduledVisitAt: &future,
		})
		assert.ErrorIs(t, err, ErrNoteTooShort)
		assert.Empty(t, entry.Timeline)
		assert.Nil(t, entry.AssignedVisitAt)
	})

	t.Run("customer cannot schedule", func(t *testing.T) {
		_, err := engine.Reply(entry, ReplyInput{
			NoteInput:        NoteInput{Note: "come tomorrow", Author: customer},
			ScheduledVisitAt: &future,
		})
		assert.ErrorIs(t, err, ErrActorNotPermitted)
		assert.Empty(t, entry.Timeline)
	})
}

func TestReplySameVisitStillAppendsNote(t *testing.T) {
	engine := newTestEngine()
	entry := domain.NewEntry(domain.KindTicket, customer.ID, "Router down", "", "network")
	visit := fixedNow.Add(24 * time.Hour)
	require.NoError(t, engine.Visits.Assign(entry, visit, domain.RoleAdmin))

	result, err := engine.Reply(entry, ReplyInput{
		NoteInput:        NoteInput{Note: "see you then", Author: admin},
		ScheduledVisitAt: &visit,
	})
	require.NoError(t, err)
	assert.False(t, result.VisitChanged)
	assert.Len(t, entry.Timeline, 1)
}

func TestLifecycleScenario(t *testing.T) {
	engine := newTestEngine()
	entry := domain.NewEntry(domain.KindTicket, customer.ID, "No hot water", "", "plumbing")

	_, err := engine.Ledger.AppendNote(entry, NoteInput{Note: "need help", Author: customer})
	require.NoError(t, err)

	advanced, err := engine.Status.AutoAdvance(entry, domain.RoleAdmin)
	require.NoError(t, err)
	require.True(t, advanced)
	require.Equal(t, domain.StatusInProgress, entry.Status)

	tomorrow := time.Date(2030, 3, 11, 10, 0, 0, 0, ist)
	_, err = engine.Reply(entry, ReplyInput{
		NoteInput:        NoteInput{Note: "on our way", Author: admin},
		ScheduledVisitAt: &tomorrow,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, entry.Status)
	require.NotNil(t, entry.AssignedVisitAt)
	assert.True(t, tomorrow.Equal(*entry.AssignedVisitAt))
	require.Len(t, entry.Timeline, 2)
	assert.Empty(t, entry.Timeline[1].SeenBy)
	assert.Equal(t, domain.RoleAdmin, entry.Timeline[1].AuthorRole)

	label, ok := engine.Visits.SlotLabelOf(entry.AssignedVisitAt)
	assert.True(t, ok)
	assert.Equal(t, "Morning (9 AM – 12 PM)", label)
}
