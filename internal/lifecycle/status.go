package lifecycle

import (
	"fmt"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
)

// StatusMachine validates and applies status transitions for any entry kind.
type StatusMachine struct {
	now Clock
}

// NewStatusMachine constructs a machine; a nil clock means time.Now.
func NewStatusMachine(now Clock) *StatusMachine {
	if now == nil {
		now = time.Now
	}
	return &StatusMachine{now: now}
}

var transitionTable = buildTransitionTable()

func buildTransitionTable() map[domain.EntryKind]map[domain.Status][]domain.Status {
	table := make(map[domain.EntryKind]map[domain.Status][]domain.Status)
	for _, kind := range []domain.EntryKind{domain.KindTicket, domain.KindServiceRequest} {
		v, _ := domain.VocabularyOf(kind)
		table[kind] = map[domain.Status][]domain.Status{
			v.Initial:      {v.Intermediate},
			v.Intermediate: {v.Terminal},
			v.Terminal:     {},
		}
	}
	return table
}

func isValidTransition(kind domain.EntryKind, current, next domain.Status) bool {
	for _, candidate := range transitionTable[kind][current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Transition moves e to the requested status. Only administrators may
// transition. Requesting the current status returns ErrNoEffectiveChange and
// leaves e untouched. Entering the terminal status stamps CompletedAt.
func (m *StatusMachine) Transition(e *domain.Entry, requested domain.Status, role domain.Role) error {
	if role != domain.RoleAdmin {
		return fmt.Errorf("%w: only administrators change status", ErrActorNotPermitted)
	}
	vocab, ok := domain.VocabularyOf(e.Kind)
	if !ok {
		return fmt.Errorf("%w: unknown entry kind %q", ErrInvalidTransition, e.Kind)
	}
	target, ok := vocab.Canonical(requested)
	if !ok {
		return fmt.Errorf("%w: %q is not a %s status", ErrInvalidTransition, requested, e.Kind)
	}
	current, ok := vocab.Canonical(e.Status)
	if !ok {
		return fmt.Errorf("%w: current status %q is unknown", ErrInvalidTransition, e.Status)
	}
	if current == target {
		return ErrNoEffectiveChange
	}
	if !isValidTransition(e.Kind, current, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	e.Status = target
	if target == vocab.Terminal {
		now := m.now()
		e.CompletedAt = &now
	}
	return nil
}

// AutoAdvance models an administrator opening an entry: an entry still in
// its initial status moves to the intermediate one. It reports whether the
// entry changed. Non-admin viewers and entries already past the initial
// status are left alone without error.
func (m *StatusMachine) AutoAdvance(e *domain.Entry, role domain.Role) (bool, error) {
	if role != domain.RoleAdmin {
		return false, nil
	}
	vocab, ok := domain.VocabularyOf(e.Kind)
	if !ok || !vocab.IsInitial(e.Status) {
		return false, nil
	}
	if err := m.Transition(e, vocab.Intermediate, role); err != nil {
		return false, err
	}
	return true, nil
}
