package ledgerrepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

func NewMock(t *testing.T, limit int64) *Repository {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(kv.NewRedisStore(client), limit)
}

func TestRepository_EntriesFIFO(t *testing.T) {
	repo := NewMock(t, 3)
	ctx := context.Background()

	var before int64
	for i := int64(1); i <= 5; i++ {
		after := before + i
		require.NoError(t, repo.AppendEntry(ctx, 1, domain.LedgerEntry{
			At: time.Now(), Delta: i, Before: before, After: after, Reason: domain.ReasonAdminAdjust,
		}))
		before = after
	}

	entries, err := repo.Entries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{entries[0].Delta, entries[1].Delta, entries[2].Delta})

	other, err := repo.Entries(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_TopicsAreSeparate(t *testing.T) {
	repo := NewMock(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.AppendTopupEvent(ctx, 1, domain.TopupEvent{RequestID: "r1", Amount: 100, Outcome: domain.TopupApproved}))
	require.NoError(t, repo.AppendDownloadEvent(ctx, 1, domain.DownloadEvent{LinkID: "l1", DownloadsUsed: 1}))

	topups, err := repo.TopupEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, topups, 1)
	assert.Equal(t, "r1", topups[0].RequestID)
	assert.Equal(t, domain.TopupApproved, topups[0].Outcome)

	downloads, err := repo.DownloadEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	assert.Equal(t, "l1", downloads[0].LinkID)

	entries, err := repo.Entries(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
