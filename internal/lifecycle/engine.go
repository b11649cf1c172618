package lifecycle

import (
	"errors"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
)

// Options configures an Engine.
type Options struct {
	Now      Clock
	Location *time.Location
}

// Engine bundles the three mutating components and the reply composite.
type Engine struct {
	Status *StatusMachine
	Ledger *TimelineLedger
	Visits *VisitScheduler
}

// NewEngine wires the components against one clock and zone.
func NewEngine(opts Options) *Engine {
	return &Engine{
		Status: NewStatusMachine(opts.Now),
		Ledger: NewTimelineLedger(opts.Now),
		Visits: NewVisitScheduler(opts.Now, opts.Location),
	}
}

// ReplyInput is a note plus an optional visit to schedule with it.
type ReplyInput struct {
	NoteInput
	ScheduledVisitAt *time.Time
}

// ReplyResult reports what a reply changed.
type ReplyResult struct {
	Note         *domain.TimelineEntry
	VisitChanged bool
}

// Reply assigns the visit (when requested) and appends the note as one
// unit: if either half fails, e is left exactly as it was. Re-assigning the
// visit already held does not block the note.
func (en *Engine) Reply(e *domain.Entry, in ReplyInput) (ReplyResult, error) {
	staged := e.Clone()
	var result ReplyResult

	if in.ScheduledVisitAt != nil {
		err := en.Visits.Assign(staged, *in.ScheduledVisitAt, in.Author.Role)
		switch {
		case err == nil:
			result.VisitChanged = true
		case errors.Is(err, ErrNoEffectiveChange):
		default:
			return ReplyResult{}, err
		}
	}
	if _, err := en.Ledger.AppendNote(staged, in.NoteInput); err != nil {
		return ReplyResult{}, err
	}

	*e = *staged
	result.Note = &e.Timeline[len(e.Timeline)-1]
	return result, nil
}
