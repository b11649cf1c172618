package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskworks/service-desk/internal/domain"
)

var fixedNow = time.Date(2030, 3, 10, 8, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestTransitionEdges(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.EntryKind
		from    domain.Status
		to      domain.Status
		wantErr error
		want    domain.Status
	}{
		{"ticket new to in progress", domain.KindTicket, domain.StatusNew, domain.StatusInProgress, nil, domain.StatusInProgress},
		{"ticket open to in progress", domain.KindTicket, domain.StatusOpen, domain.StatusInProgress, nil, domain.StatusInProgress},
		{"ticket in progress to closed", domain.KindTicket, domain.StatusInProgress, domain.StatusClosed, nil, domain.StatusClosed},
		{"ticket skip to closed", domain.KindTicket, domain.StatusNew, domain.StatusClosed, ErrInvalidTransition, domain.StatusNew},
		{"ticket closed is absorbing", domain.KindTicket, domain.StatusClosed, domain.StatusInProgress, ErrInvalidTransition, domain.StatusClosed},
		{"ticket backwards", domain.KindTicket, domain.StatusInProgress, domain.StatusNew, ErrInvalidTransition, domain.StatusInProgress},
		{"request to completed", domain.KindServiceRequest, domain.StatusInProgress, domain.StatusCompleted, nil, domain.StatusCompleted},
		{"request rejects closed", domain.KindServiceRequest, domain.StatusInProgress, domain.StatusClosed, ErrInvalidTransition, domain.StatusInProgress},
		{"unknown status", domain.KindTicket, domain.StatusNew, domain.Status("Waiting"), ErrInvalidTransition, domain.StatusNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStatusMachine(fixedClock)
			entry := &domain.Entry{Kind: tt.kind, Status: tt.from}

			err := m.Transition(entry, tt.to, domain.RoleAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, entry.Status)
		})
	}
}

func TestTransitionSameStatusIsNoEffect(t *testing.T) {
	m := NewStatusMachine(fixedClock)
	for _, status := range []domain.Status{domain.StatusInProgress, domain.StatusClosed} {
		entry := &domain.Entry{Kind: domain.KindTicket, Status: status}
		err := m.Transition(entry, status, domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrNoEffectiveChange)
		assert.Equal(t, status, entry.Status)
		assert.Nil(t, entry.CompletedAt)
	}

	// "Open" and "New" are the same stage.
	entry := &domain.Entry{Kind: domain.KindTicket, Status: domain.StatusOpen}
	assert.ErrorIs(t, m.Transition(entry, domain.StatusNew, domain.RoleAdmin), ErrNoEffectiveChange)
}

func TestTransitionToTerminalStampsCompletedAt(t *testing.T) {
	m := NewStatusMachine(fixedClock)
	entry := &domain.Entry{Kind: domain.KindServiceRequest, Status: domain.StatusInProgress}

	require.NoError(t, m.Transition(entry, domain.StatusCompleted, domain.RoleAdmin))
	require.NotNil(t, entry.CompletedAt)
	assert.Equal(t, fixedNow, *entry.CompletedAt)

	// Closed is absorbing: nothing afterwards moves it or restamps it.
	for _, target := range []domain.Status{domain.StatusNew, domain.StatusInProgress} {
		assert.ErrorIs(t, m.Transition(entry, target, domain.RoleAdmin), ErrInvalidTransition)
	}
	assert.Equal(t, domain.StatusCompleted, entry.Status)
	assert.Equal(t, fixedNow, *entry.CompletedAt)
}

func TestTransitionRequiresAdmin(t *testing.T) {
	m := NewStatusMachine(fixedClock)
	entry := &domain.Entry{Kind: domain.KindTicket, Status: domain.StatusNew}

	err := m.Transition(entry, domain.StatusInProgress, domain.RoleCustomer)
	assert.ErrorIs(t, err, ErrActorNotPermitted)
	assert.Equal(t, domain.StatusNew, entry.Status)
}

func TestAutoAdvance(t *testing.T) {
	m := NewStatusMachine(fixedClock)

	entry := &domain.Entry{Kind: domain.KindTicket, Status: domain.StatusOpen}
	changed, err := m.AutoAdvance(entry, domain.RoleCustomer)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusOpen, entry.Status)

	changed, err = m.AutoAdvance(entry, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusInProgress, entry.Status)

	changed, err = m.AutoAdvance(entry, domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusInProgress, entry.Status)

	closed := &domain.Entry{Kind: domain.KindTicket, Status: domain.StatusClosed}
	changed, err = m.AutoAdvance(closed, domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, changed)
}
