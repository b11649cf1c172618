package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskworks/service-desk/internal/domain"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		query, args := buildListQuery(EntryFilter{})
		assert.Contains(t, query, "WHERE 1=1 ORDER BY created_at DESC")
		assert.NotContains(t, query, "LIMIT")
		assert.Empty(t, args)
	})

	t.Run("all filters", func(t *testing.T) {
		owner := "cust-1"
		kind := domain.KindServiceRequest
		from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)

		query, args := buildListQuery(EntryFilter{
			OwnerID:   &owner,
			Kind:      &kind,
			Statuses:  []domain.Status{domain.StatusNew, domain.StatusInProgress},
			VisitFrom: &from,
			VisitTo:   &to,
			Limit:     20,
			Offset:    -5,
		})

		assert.Contains(t, query, "owner_id=$1 AND kind=$2 AND status IN ($3,$4) AND assigned_visit_at >= $5 AND assigned_visit_at <= $6")
		assert.Contains(t, query, "LIMIT 20 OFFSET 0")
		assert.Equal(t, []any{owner, kind, domain.StatusNew, domain.StatusInProgress, from, to}, args)
	})
}

func TestQuoteDocument(t *testing.T) {
	plain := &domain.TimelineEntry{Note: "no quote"}
	raw, err := encodeQuote(plain)
	require.NoError(t, err)
	assert.Nil(t, raw)

	total := decimal.RequireFromString("150.25")
	quoted := &domain.TimelineEntry{
		PriceList: []domain.PriceLine{
			{LineNumber: 1, Description: "Labour", Price: decimal.RequireFromString("100")},
			{LineNumber: 2, Description: "Parts", Price: decimal.RequireFromString("50.25")},
		},
		TotalPrice: &total,
	}
	raw, err = encodeQuote(quoted)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"line_number":1,"description":"Labour","price":"100"},{"line_number":2,"description":"Parts","price":"50.25"}],"total":"150.25"}`, string(raw))

	var decoded domain.TimelineEntry
	require.NoError(t, decodeQuote(raw, &decoded))
	require.Len(t, decoded.PriceList, 2)
	require.NotNil(t, decoded.TotalPrice)
	assert.True(t, total.Equal(*decoded.TotalPrice))

	var untouched domain.TimelineEntry
	require.NoError(t, decodeQuote(nil, &untouched))
	assert.Nil(t, untouched.TotalPrice)

	assert.Error(t, decodeQuote([]byte("{broken"), &untouched))
}
