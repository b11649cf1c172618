package projection

import "github.com/deskworks/service-desk/internal/domain"

// Stats counts entries of one kind per lifecycle stage.
type Stats struct {
	Kind       domain.EntryKind `json:"kind"`
	Total      int              `json:"total"`
	New        int              `json:"new"`
	InProgress int              `json:"in_progress"`
	Resolved   int              `json:"resolved"`
}

// StatsOf tallies entries of the given kind; "Open" tickets count as new.
// Entries of another kind are ignored.
func StatsOf(kind domain.EntryKind, entries []domain.Entry) Stats {
	stats := Stats{Kind: kind}
	vocab, ok := domain.VocabularyOf(kind)
	if !ok {
		return stats
	}
	for i := range entries {
		if entries[i].Kind != kind {
			continue
		}
		stats.Total++
		status, _ := vocab.Canonical(entries[i].Status)
		switch status {
		case vocab.Initial:
			stats.New++
		case vocab.Intermediate:
			stats.InProgress++
		case vocab.Terminal:
			stats.Resolved++
		}
	}
	return stats
}
