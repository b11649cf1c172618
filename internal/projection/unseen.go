// Package projection computes read-only views over a snapshot of entries.
// Nothing here mutates its input or keeps state between calls.
package projection

import (
	"sort"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/lifecycle"
)

// UnseenItem is a timeline note the viewer has not acknowledged, annotated
// with the parent entry fields needed to render it.
type UnseenItem struct {
	EntryID          string               `json:"entry_id"`
	Kind             domain.EntryKind     `json:"kind"`
	PublicID         string               `json:"public_id"`
	Title            string               `json:"title"`
	Category         string               `json:"category"`
	Status           domain.Status        `json:"status"`
	AssignedVisitAt  *time.Time           `json:"assigned_visit_at,omitempty"`
	PreferredVisitAt *time.Time           `json:"preferred_visit_at,omitempty"`
	VisitSlotLabel   string               `json:"visit_slot_label,omitempty"`
	TimelineIndex    int                  `json:"timeline_index"`
	Note             domain.TimelineEntry `json:"note"`
}

// UnseenSummary is the badge count plus the newest-first list.
type UnseenSummary struct {
	Count int          `json:"count"`
	Items []UnseenItem `json:"items"`
}

// FromOtherSide reports whether item was written by the opposite side of
// the conversation. Entries carrying an author role are classified by role;
// older entries without one fall back to comparing display names.
func FromOtherSide(item domain.TimelineEntry, viewer domain.Viewer) bool {
	if item.AuthorRole != "" && viewer.Role != "" {
		return item.AuthorRole != viewer.Role
	}
	return item.AddedBy != viewer.DisplayName
}

// UnseenFor collects every other-side note across entries that viewer has
// not marked seen. loc is used for the slot label annotation.
func UnseenFor(viewer domain.Viewer, entries []domain.Entry, loc *time.Location) UnseenSummary {
	items := make([]UnseenItem, 0)
	for i := range entries {
		entry := &entries[i]
		for idx, note := range entry.Timeline {
			if !FromOtherSide(note, viewer) || note.SeenByUser(viewer.ID) {
				continue
			}
			item := UnseenItem{
				EntryID:          entry.ID,
				Kind:             entry.Kind,
				PublicID:         entry.PublicID,
				Title:            entry.Title,
				Category:         entry.Category,
				Status:           entry.Status,
				AssignedVisitAt:  entry.AssignedVisitAt,
				PreferredVisitAt: entry.PreferredVisitAt,
				TimelineIndex:    idx,
				Note:             note,
			}
			visit := entry.AssignedVisitAt
			if visit == nil {
				visit = entry.PreferredVisitAt
			}
			if label, ok := lifecycle.SlotLabelOf(visit, loc); ok {
				item.VisitSlotLabel = label
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Note.AddedAt.After(items[b].Note.AddedAt)
	})
	return UnseenSummary{Count: len(items), Items: items}
}
