package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is the aggregate shared by tickets and service requests.
type Entry struct {
	ID               string
	Kind             EntryKind
	PublicID         string
	OwnerID          string
	Title            string
	Description      string
	Category         string
	Status           Status
	PreferredVisitAt *time.Time
	AssignedVisitAt  *time.Time
	CompletedAt      *time.Time
	Timeline         []TimelineEntry
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TimelineEntry is one note in an entry's append-only thread.
type TimelineEntry struct {
	Note       string           `json:"note"`
	AddedBy    string           `json:"added_by"`
	AuthorID   string           `json:"author_id,omitempty"`
	AuthorRole Role             `json:"author_role,omitempty"`
	AddedAt    time.Time        `json:"added_at"`
	Images     []string         `json:"images,omitempty"`
	PriceList  []PriceLine      `json:"price_list,omitempty"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
	SeenBy     []string         `json:"seen_by"`
}

// PriceLine is one row of an admin price quotation.
type PriceLine struct {
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// NewEntry builds a record in the initial status with an empty timeline.
func NewEntry(kind EntryKind, ownerID, title, description, category string) *Entry {
	status := StatusNew
	if v, ok := VocabularyOf(kind); ok {
		status = v.Initial
	}
	return &Entry{
		Kind:        kind,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Status:      status,
		Timeline:    []TimelineEntry{},
	}
}

// Vocabulary returns the status vocabulary of the entry's kind.
func (e *Entry) Vocabulary() Vocabulary {
	v, _ := VocabularyOf(e.Kind)
	return v
}

// IsTerminal reports whether the entry is logically closed.
func (e *Entry) IsTerminal() bool {
	return e.Vocabulary().IsTerminal(e.Status)
}

// SeenByUser reports whether userID has acknowledged the timeline entry.
func (t TimelineEntry) SeenByUser(userID string) bool {
	for _, id := range t.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can stage mutations.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.PreferredVisitAt = cloneTime(e.PreferredVisitAt)
	out.AssignedVisitAt = cloneTime(e.AssignedVisitAt)
	out.CompletedAt = cloneTime(e.CompletedAt)
	out.Timeline = make([]TimelineEntry, len(e.Timeline))
	for i, item := range e.Timeline {
		out.Timeline[i] = item.clone()
	}
	return &out
}

func (t TimelineEntry) clone() TimelineEntry {
	out := t
	out.Images = cloneStrings(t.Images)
	out.SeenBy = cloneStrings(t.SeenBy)
	if t.PriceList != nil {
		out.PriceList = make([]PriceLine, len(t.PriceList))
		copy(out.PriceList, t.PriceList)
	}
	if t.TotalPrice != nil {
		total := *t.TotalPrice
		out.TotalPrice = &total
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
