package lifecycle

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/deskworks/service-desk/internal/domain"
)

const minNoteLength = 3

// PriceInput is one quotation line as submitted; Price is free text.
type PriceInput struct {
	Description string
	Price       string
}

// NoteInput carries everything needed to append a timeline note.
type NoteInput struct {
	Note      string
	Author    domain.Viewer
	Images    []string
	PriceList []PriceInput
}

// TimelineLedger appends notes and records per-user acknowledgements.
type TimelineLedger struct {
	now Clock
}

// NewTimelineLedger constructs a ledger; a nil clock means time.Now.
func NewTimelineLedger(now Clock) *TimelineLedger {
	if now == nil {
		now = time.Now
	}
	return &TimelineLedger{now: now}
}

// AppendNote validates the input and appends a new, unseen timeline entry.
// Existing entries are never touched.
func (l *TimelineLedger) AppendNote(e *domain.Entry, in NoteInput) (*domain.TimelineEntry, error) {
	item, err := l.BuildNote(in)
	if err != nil {
		return nil, err
	}
	e.Timeline = append(e.Timeline, item)
	return &e.Timeline[len(e.Timeline)-1], nil
}

// BuildNote validates the input and returns the entry AppendNote would add.
func (l *TimelineLedger) BuildNote(in NoteInput) (domain.TimelineEntry, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" {
		return domain.TimelineEntry{}, ErrEmptyNote
	}
	if utf8.RuneCountInString(note) < minNoteLength {
		return domain.TimelineEntry{}, ErrNoteTooShort
	}
	if len(in.PriceList) > 0 && in.Author.Role != domain.RoleAdmin {
		return domain.TimelineEntry{}, fmt.Errorf("%w: only administrators attach price quotations", ErrActorNotPermitted)
	}

	item := domain.TimelineEntry{
		Note:       note,
		AddedBy:    in.Author.DisplayName,
		AuthorID:   in.Author.ID,
		AuthorRole: in.Author.Role,
		AddedAt:    l.now(),
		Images:     append([]string{}, in.Images...),
		SeenBy:     []string{},
	}
	if len(in.PriceList) > 0 {
		lines, total := quote(in.PriceList)
		item.PriceList = lines
		item.TotalPrice = &total
	}
	return item, nil
}

// MarkSeen adds viewerID to the seen set of the addressed entry. It reports
// whether the set grew; repeating the call is a no-op.
func (l *TimelineLedger) MarkSeen(e *domain.Entry, index int, viewerID string) (bool, error) {
	if index < 0 || index >= len(e.Timeline) {
		return false, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(e.Timeline))
	}
	item := &e.Timeline[index]
	if item.SeenByUser(viewerID) {
		return false, nil
	}
	item.SeenBy = append(item.SeenBy, viewerID)
	return true, nil
}

func quote(inputs []PriceInput) ([]domain.PriceLine, decimal.Decimal) {
	lines := make([]domain.PriceLine, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		price := ParsePrice(in.Price)
		lines = append(lines, domain.PriceLine{
			LineNumber:  i + 1,
			Description: strings.TrimSpace(in.Description),
			Price:       price,
		})
		total = total.Add(price)
	}
	return lines, total
}

// ParsePrice reads a quotation price leniently: malformed or negative
// values count as zero.
func ParsePrice(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}
