package projection

import (
	"sort"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
)

// CalendarDay is a local calendar date formatted as YYYY-MM-DD.
type CalendarDay string

// DayOf truncates t to its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) CalendarDay {
	if loc == nil {
		loc = time.Local
	}
	return CalendarDay(t.In(loc).Format("2006-01-02"))
}

// Visit is one scheduled visit inside a day bucket.
type Visit struct {
	Kind     domain.EntryKind `json:"kind"`
	VisitAt  time.Time        `json:"visit_at"`
	EntryID  string           `json:"entry_id"`
	PublicID string           `json:"public_id"`
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Status   domain.Status    `json:"status"`
}

// DayBucket groups the visits falling on one calendar day.
type DayBucket struct {
	Day                CalendarDay
	Visits             []Visit
	HasTickets         bool
	HasServiceRequests bool
	// AllResolved is evaluated against the statuses in the snapshot passed
	// to BucketVisits; it is not recorded anywhere.
	AllResolved bool
}

// Mixed reports whether the day holds both tickets and service requests.
func (b *DayBucket) Mixed() bool {
	return b.HasTickets && b.HasServiceRequests
}

// Calendar indexes day buckets by date.
type Calendar map[CalendarDay]*DayBucket

// Days returns the bucketed dates in chronological order.
func (c Calendar) Days() []CalendarDay {
	days := make([]CalendarDay, 0, len(c))
	for day := range c {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// BucketVisits indexes every non-terminal entry with an assigned visit by
// the visit's calendar day in loc.
func BucketVisits(tickets, serviceRequests []domain.Entry, loc *time.Location) Calendar {
	cal := Calendar{}
	cal.add(domain.KindTicket, tickets, loc)
	cal.add(domain.KindServiceRequest, serviceRequests, loc)

	for _, bucket := range cal {
		bucket.AllResolved = allResolved(bucket.Visits)
	}
	return cal
}

func (c Calendar) add(kind domain.EntryKind, entries []domain.Entry, loc *time.Location) {
	vocab, _ := domain.VocabularyOf(kind)
	for i := range entries {
		entry := &entries[i]
		if entry.AssignedVisitAt == nil || vocab.IsTerminal(entry.Status) {
			continue
		}
		day := DayOf(*entry.AssignedVisitAt, loc)
		bucket, ok := c[day]
		if !ok {
			bucket = &DayBucket{Day: day}
			c[day] = bucket
		}
		bucket.Visits = append(bucket.Visits, Visit{
			Kind:     kind,
			VisitAt:  *entry.AssignedVisitAt,
			EntryID:  entry.ID,
			PublicID: entry.PublicID,
			Title:    entry.Title,
			Category: entry.Category,
			Status:   entry.Status,
		})
		switch kind {
		case domain.KindTicket:
			bucket.HasTickets = true
		case domain.KindServiceRequest:
			bucket.HasServiceRequests = true
		}
	}
}

func allResolved(visits []Visit) bool {
	if len(visits) == 0 {
		return false
	}
	for _, v := range visits {
		vocab, _ := domain.VocabularyOf(v.Kind)
		if !vocab.IsTerminal(v.Status) {
			return false
		}
	}
	return true
}
