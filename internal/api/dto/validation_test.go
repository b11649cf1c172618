package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/projection"
	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(CreateEntryRequest{PreferredDate: "2030-01-01"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	fields, ok := de.Details["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "preferred_slot")
	assert.NotContains(t, fields, "preferred_date")
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate(CreateEntryRequest{Title: "Broken heater"}))
	assert.NoError(t, Validate(CreateEntryRequest{Title: "Broken heater", PreferredDate: "2030-01-01", PreferredSlot: "09:00"}))
	// Note length is the lifecycle's call, not the payload validator's.
	assert.NoError(t, Validate(AddNoteRequest{Note: ""}))
	assert.Error(t, Validate(AddNoteRequest{Note: "hello", Images: []string{""}}))
	assert.Error(t, Validate(AssignVisitRequest{}))
}

func TestNewEntryDetail(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	visit := time.Date(2030, 1, 2, 15, 30, 0, 0, ist)
	entry := &domain.Entry{
		ID:              "e1",
		PublicID:        "SRQ-0007",
		Kind:            domain.KindServiceRequest,
		Status:          domain.StatusInProgress,
		AssignedVisitAt: &visit,
		Timeline:        []domain.TimelineEntry{{Note: "hello", AddedBy: "Admin"}},
	}

	detail := NewEntryDetail(entry, ist)
	assert.Equal(t, "Evening (3 PM – 6 PM)", detail.VisitSlotLabel)
	require.Len(t, detail.Timeline, 1)
	assert.Equal(t, 0, detail.Timeline[0].Index)
	assert.NotNil(t, detail.Timeline[0].Images)
	assert.NotNil(t, detail.Timeline[0].SeenBy)
}

func TestNewCalendarResponseIsChronological(t *testing.T) {
	cal := projection.Calendar{
		"2030-01-07": {Day: "2030-01-07", HasTickets: true},
		"2030-01-05": {Day: "2030-01-05", HasTickets: true, HasServiceRequests: true},
	}
	days := NewCalendarResponse(cal)
	require.Len(t, days, 2)
	assert.Equal(t, "2030-01-05", days[0].Day)
	assert.True(t, days[0].Mixed)
	assert.False(t, days[1].Mixed)
}
