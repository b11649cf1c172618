package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskworks/service-desk/internal/domain"
)

func TestMemoryRepositoryIsolatesCallers(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()

	entry := domain.NewEntry(domain.KindTicket, "cust-1", "Door lock", "", "")
	require.NoError(t, repo.Create(ctx, entry))
	require.NotEmpty(t, entry.ID)

	entry.Status = domain.StatusClosed
	loaded, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, loaded.Status)

	loaded.Title = "changed"
	again, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Door lock", again.Title)
}

func TestMemoryRepositoryTimeline(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()
	entry := domain.NewEntry(domain.KindServiceRequest, "cust-1", "Paint wall", "", "")
	require.NoError(t, repo.Create(ctx, entry))

	note := &domain.TimelineEntry{Note: "quote soon", AddedBy: "Admin", AuthorRole: domain.RoleAdmin, SeenBy: []string{}}
	require.NoError(t, repo.AppendNote(ctx, entry.ID, note))

	visit := time.Date(2030, 2, 1, 9, 0, 0, 0, time.UTC)
	entry.AssignedVisitAt = &visit
	require.NoError(t, repo.UpdateWithNote(ctx, entry, &domain.TimelineEntry{Note: "visit booked", SeenBy: []string{}}))

	require.NoError(t, repo.MarkSeen(ctx, entry.ID, 0, "cust-1"))
	require.NoError(t, repo.MarkSeen(ctx, entry.ID, 0, "cust-1"))
	assert.ErrorIs(t, repo.MarkSeen(ctx, entry.ID, 9, "cust-1"), pgx.ErrNoRows)

	loaded, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Timeline, 2)
	assert.Equal(t, []string{"cust-1"}, loaded.Timeline[0].SeenBy)
	assert.True(t, visit.Equal(*loaded.AssignedVisitAt))

	assert.ErrorIs(t, repo.AppendNote(ctx, "missing", note), pgx.ErrNoRows)
}

func TestMemoryRepositoryFilters(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()
	for _, e := range []*domain.Entry{
		domain.NewEntry(domain.KindTicket, "a", "t1", "", ""),
		domain.NewEntry(domain.KindTicket, "b", "t2", "", ""),
		domain.NewEntry(domain.KindServiceRequest, "a", "s1", "", ""),
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	owner := "a"
	kind := domain.KindTicket
	got, err := repo.ListWithFilter(ctx, EntryFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListWithFilter(ctx, EntryFilter{OwnerID: &owner, Kind: &kind})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].Title)

	got, err = repo.ListWithFilter(ctx, EntryFilter{Statuses: []domain.Status{domain.StatusClosed}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.ListWithFilter(ctx, EntryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, repo.Delete(ctx, got[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, got[0].ID), pgx.ErrNoRows)
}
