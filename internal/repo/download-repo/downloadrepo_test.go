package downloadrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

func NewMock(t *testing.T) (*Repository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(kv.NewRedisStore(client)), mr
}

func record(id string) *domain.DownloadRecord {
	now := time.Now().UTC()
	return &domain.DownloadRecord{
		ID:             id,
		OwnerAccountID: 5,
		Payload:        []byte("<plist/>"),
		FileName:       "config.mobileconfig",
		PinHash:        "hash",
		MaxDownloads:   3,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
}

func TestRepository_CreateWithTTL(t *testing.T) {
	repo, mr := NewMock(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, record("a"), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("download:a"))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("<plist/>"), got.Payload)

	mr.FastForward(time.Hour + time.Second)
	got, err = repo.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_CreateNonPositiveTTL(t *testing.T) {
	repo, mr := NewMock(t)

	require.NoError(t, repo.Create(context.Background(), record("a"), -time.Minute))
	assert.Equal(t, time.Second, mr.TTL("download:a"))
}

func TestRepository_Update(t *testing.T) {
	repo, _ := NewMock(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, record("a"), time.Hour))

	updated, err := repo.Update(ctx, "a", func(r *domain.DownloadRecord) (bool, error) {
		r.DownloadsUsed++
		r.Sessions = append(r.Sessions, "s1")
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.DownloadsUsed)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DownloadsUsed)
	assert.Equal(t, []string{"s1"}, got.Sessions)

	unchanged, err := repo.Update(ctx, "a", func(r *domain.DownloadRecord) (bool, error) {
		r.DownloadsUsed = 99
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, unchanged.DownloadsUsed)
	got, _ = repo.Get(ctx, "a")
	assert.Equal(t, 1, got.DownloadsUsed)

	boom := errors.New("boom")
	_, err = repo.Update(ctx, "a", func(*domain.DownloadRecord) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)

	missing, err := repo.Update(ctx, "nope", func(*domain.DownloadRecord) (bool, error) { return true, nil })
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
