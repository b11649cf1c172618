package lifecycle

import (
	"fmt"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
)

const dateLayout = "2006-01-02"

// VisitScheduler validates preferred and assigned visit times.
type VisitScheduler struct {
	now Clock
	loc *time.Location
}

// NewVisitScheduler constructs a scheduler. loc is the zone used for day
// comparisons and slot hours; nil means time.Local.
func NewVisitScheduler(now Clock, loc *time.Location) *VisitScheduler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &VisitScheduler{now: now, loc: loc}
}

// Location returns the zone the scheduler works in.
func (s *VisitScheduler) Location() *time.Location {
	return s.loc
}

// SetPreferred stores the customer's preferred visit as date + slot start.
// The date is a YYYY-MM-DD calendar day that must not be before today.
func (s *VisitScheduler) SetPreferred(e *domain.Entry, date string, slot domain.Slot) error {
	if e.PreferredVisitAt != nil {
		return ErrPreferredVisitSet
	}
	band, ok := domain.BandOf(slot)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if day.Before(startOfDay(s.now(), s.loc)) {
		return fmt.Errorf("%w: %s", ErrVisitInPast, date)
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), band.StartHour, 0, 0, 0, s.loc)
	e.PreferredVisitAt = &at
	return nil
}

// Assign sets the administrator-chosen visit instant. Re-assigning the
// instant already held returns ErrNoEffectiveChange. PreferredVisitAt is
// never touched.
func (s *VisitScheduler) Assign(e *domain.Entry, at time.Time, role domain.Role) error {
	if role != domain.RoleAdmin {
		return fmt.Errorf("%w: only administrators assign visits", ErrActorNotPermitted)
	}
	at = normalizeInstant(at)
	if at.Before(s.now()) {
		return fmt.Errorf("%w: %s", ErrVisitInPast, at.Format(time.RFC3339))
	}
	if e.AssignedVisitAt != nil && normalizeInstant(*e.AssignedVisitAt).Equal(at) {
		return ErrNoEffectiveChange
	}
	e.AssignedVisitAt = &at
	return nil
}

// SlotLabelOf renders the band label for t in the scheduler's zone.
func (s *VisitScheduler) SlotLabelOf(t *time.Time) (string, bool) {
	return SlotLabelOf(t, s.loc)
}

// SlotLabelOf maps the hour of t in loc onto a band label. It is a display
// helper: distinct instants in the same band share a label.
func SlotLabelOf(t *time.Time, loc *time.Location) (string, bool) {
	if t == nil || t.IsZero() {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}
	band, ok := domain.BandForHour(t.In(loc).Hour())
	if !ok {
		return "", false
	}
	return band.Label, true
}

// normalizeInstant reduces t to the millisecond UTC instant an ISO-8601
// string carries, so re-submitted forms compare equal.
func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
