package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deskworks/service-desk/internal/domain"
)

// memoryRepository keeps entries in process memory. It backs local runs
// without Postgres and handler tests; nothing survives a restart.
type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	now     func() time.Time
}

// NewMemoryEntryRepository returns an in-process EntryRepository.
func NewMemoryEntryRepository() EntryRepository {
	return &memoryRepository{entries: make(map[string]*domain.Entry), now: time.Now}
}

func (m *memoryRepository) Create(_ context.Context, entry *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Timeline == nil {
		entry.Timeline = []domain.TimelineEntry{}
	}
	m.entries[entry.ID] = entry.Clone()
	return nil
}

func (m *memoryRepository) Update(_ context.Context, entry *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(entry)
}

func (m *memoryRepository) updateLocked(entry *domain.Entry) error {
	stored, ok := m.entries[entry.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = entry.Status
	stored.AssignedVisitAt = cloneTime(entry.AssignedVisitAt)
	stored.CompletedAt = cloneTime(entry.CompletedAt)
	stored.UpdatedAt = m.now().UTC()
	entry.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.entries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return stored.Clone(), nil
}

func (m *memoryRepository) ListWithFilter(_ context.Context, filter EntryFilter) ([]domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[domain.Status]struct{}, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = struct{}{}
	}

	var result []domain.Entry
	for _, stored := range m.entries {
		if filter.OwnerID != nil && stored.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Kind != nil && stored.Kind != *filter.Kind {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[stored.Status]; !ok {
				continue
			}
		}
		if filter.VisitFrom != nil && (stored.AssignedVisitAt == nil || stored.AssignedVisitAt.Before(*filter.VisitFrom)) {
			continue
		}
		if filter.VisitTo != nil && (stored.AssignedVisitAt == nil || stored.AssignedVisitAt.After(*filter.VisitTo)) {
			continue
		}
		result = append(result, *stored.Clone())
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (m *memoryRepository) AppendNote(_ context.Context, entryID string, note *domain.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(entryID, note)
}

func (m *memoryRepository) appendLocked(entryID string, note *domain.TimelineEntry) error {
	stored, ok := m.entries[entryID]
	if !ok {
		return pgx.ErrNoRows
	}
	copied := (&domain.Entry{Timeline: []domain.TimelineEntry{*note}}).Clone().Timeline[0]
	stored.Timeline = append(stored.Timeline, copied)
	stored.UpdatedAt = m.now().UTC()
	return nil
}

func (m *memoryRepository) UpdateWithNote(_ context.Context, entry *domain.Entry, note *domain.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return pgx.ErrNoRows
	}
	if err := m.updateLocked(entry); err != nil {
		return err
	}
	return m.appendLocked(entry.ID, note)
}

func (m *memoryRepository) MarkSeen(_ context.Context, entryID string, index int, viewerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[entryID]
	if !ok || index < 0 || index >= len(stored.Timeline) {
		return pgx.ErrNoRows
	}
	item := &stored.Timeline[index]
	if !item.SeenByUser(viewerID) {
		item.SeenBy = append(item.SeenBy, viewerID)
	}
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.entries, id)
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
