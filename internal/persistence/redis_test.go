package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/domain"
)

func TestPublicIDsFromSequence(t *testing.T) {
	client, mock := redismock.NewClientMock()
	ids := NewPublicIDs(&Redis{Client: client}, zap.NewNop())

	mock.ExpectIncr("seq:public_id:ticket").SetVal(42)
	mock.ExpectIncr("seq:public_id:service-request").SetVal(7)

	id, err := ids.Next(context.Background(), domain.KindTicket)
	require.NoError(t, err)
	assert.Equal(t, "TCK-0042", id)

	id, err = ids.Next(context.Background(), domain.KindServiceRequest)
	require.NoError(t, err)
	assert.Equal(t, "SRQ-0007", id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicIDsFallBackWhenRedisFails(t *testing.T) {
	client, mock := redismock.NewClientMock()
	ids := NewPublicIDs(&Redis{Client: client}, zap.NewNop())
	mock.ExpectIncr("seq:public_id:ticket").SetErr(errors.New("connection refused"))

	id, err := ids.Next(context.Background(), domain.KindTicket)
	require.NoError(t, err)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, id)

	_, err = ids.Next(context.Background(), domain.EntryKind("invoice"))
	assert.Error(t, err)
}

func TestDigestCacheRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewDigestCache(&Redis{Client: client}, time.Hour)
	payload := []byte(`{"days":[]}`)

	mock.ExpectSet("digest:visit_calendar", payload, time.Hour).SetVal("OK")
	mock.ExpectGet("digest:visit_calendar").SetVal(string(payload))
	mock.ExpectGet("digest:other").RedisNil()

	require.NoError(t, cache.Store(context.Background(), "visit_calendar", payload))

	got, err := cache.Load(context.Background(), "visit_calendar")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = cache.Load(context.Background(), "other")
	assert.ErrorIs(t, err, ErrDigestMissing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDigestCacheWithoutClient(t *testing.T) {
	cache := NewDigestCache(nil, time.Hour)
	assert.Error(t, cache.Store(context.Background(), "k", nil))
	_, err := cache.Load(context.Background(), "k")
	assert.Error(t, err)
}
