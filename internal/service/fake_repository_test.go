package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/repository"
)

// recordingRepository wraps the in-memory repository, counting successful
// writes and optionally failing the next one.
type recordingRepository struct {
	repository.EntryRepository

	mu            sync.Mutex
	writes        int
	failNextWrite error
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{EntryRepository: repository.NewMemoryEntryRepository()}
}

func (r *recordingRepository) write(fn func() error) error {
	r.mu.Lock()
	if err := r.failNextWrite; err != nil {
		r.failNextWrite = nil
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return nil
}

func (r *recordingRepository) Create(ctx context.Context, entry *domain.Entry) error {
	return r.write(func() error { return r.EntryRepository.Create(ctx, entry) })
}

func (r *recordingRepository) Update(ctx context.Context, entry *domain.Entry) error {
	return r.write(func() error { return r.EntryRepository.Update(ctx, entry) })
}

func (r *recordingRepository) AppendNote(ctx context.Context, entryID string, note *domain.TimelineEntry) error {
	return r.write(func() error { return r.EntryRepository.AppendNote(ctx, entryID, note) })
}

func (r *recordingRepository) UpdateWithNote(ctx context.Context, entry *domain.Entry, note *domain.TimelineEntry) error {
	return r.write(func() error { return r.EntryRepository.UpdateWithNote(ctx, entry, note) })
}

func (r *recordingRepository) MarkSeen(ctx context.Context, entryID string, index int, viewerID string) error {
	return r.write(func() error { return r.EntryRepository.MarkSeen(ctx, entryID, index, viewerID) })
}

func (r *recordingRepository) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// sequentialIDs issues TCK-0001 style codes without Redis.
type sequentialIDs struct {
	mu   sync.Mutex
	next map[domain.EntryKind]int
}

func (s *sequentialIDs) Next(_ context.Context, kind domain.EntryKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = map[domain.EntryKind]int{}
	}
	s.next[kind]++
	prefix := "TCK"
	if kind == domain.KindServiceRequest {
		prefix = "SRQ"
	}
	return fmt.Sprintf("%s-%04d", prefix, s.next[kind]), nil
}
