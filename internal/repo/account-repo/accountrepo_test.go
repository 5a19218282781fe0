package accountrepo

import (
	"context"
	"errors"
	"strconv"
	"sync"
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

func TestRepository_GetMissing(t *testing.T) {
	repo, _ := NewMock(t)

	account, err := repo.Get(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, account)
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo, mr := NewMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	account := domain.NewAccount(42, now)
	account.Balance = 250000
	account.Flow = domain.AwaitingReceiptFlow(250000)
	account.ProfileCounters["mcinet"] = 2

	require.NoError(t, repo.Save(context.Background(), account))
	assert.True(t, mr.Exists("user:42"))
	assert.Equal(t, time.Duration(0), mr.TTL("user:42"))

	got, err := repo.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), got.Balance)
	assert.True(t, now.Equal(got.FirstSeenAt))
	amount, ok := got.Flow.AwaitingReceipt()
	assert.True(t, ok)
	assert.Equal(t, int64(250000), amount)
	assert.Equal(t, int64(2), got.ProfileCounters["mcinet"])
}

func TestRepository_LegacyDocument(t *testing.T) {
	repo, mr := NewMock(t)
	require.NoError(t, mr.Set("user:7", `{"id":7,"balance":10}`))

	got, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, got.Flow.IsIdle())
	assert.NotNil(t, got.ProfileCounters)
}

func TestRepository_Errors(t *testing.T) {
	repo, mr := NewMock(t)
	require.NoError(t, mr.Set("user:9", `not-json`))

	_, err := repo.Get(context.Background(), 9)
	assert.Error(t, err)

	mr.Close()
	_, err = repo.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), domain.NewAccount(1, time.Now())))
}

func TestRepository_UpdateCreatesAccount(t *testing.T) {
	repo, _ := NewMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return now }

	account, err := repo.Update(context.Background(), 3, func(a *domain.Account) error {
		a.Balance += 100
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)
	assert.True(t, now.Equal(account.FirstSeenAt))

	stored, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Balance)
}

func TestRepository_UpdateKeepsFirstSeen(t *testing.T) {
	repo, _ := NewMock(t)
	first := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(context.Background(), domain.NewAccount(3, first)))

	account, err := repo.Update(context.Background(), 3, func(a *domain.Account) error {
		a.Lang = "en"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, first.Equal(account.FirstSeenAt))
	assert.Equal(t, "en", account.Lang)
}

func TestRepository_UpdateAbort(t *testing.T) {
	repo, _ := NewMock(t)
	boom := errors.New("boom")

	_, err := repo.Update(context.Background(), 3, func(*domain.Account) error { return boom })
	assert.ErrorIs(t, err, boom)

	account, err := repo.Get(context.Background(), 3)
	assert.NoError(t, err)
	assert.Nil(t, account)
}

func TestRepository_UpdateConcurrent(t *testing.T) {
	repo, _ := NewMock(t)
	require.NoError(t, repo.Save(context.Background(), domain.NewAccount(3, time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(context.Background(), 3, func(a *domain.Account) error {
				a.Balance += 10
				a.LastAction = strconv.Itoa(i)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	account, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(80), account.Balance)
}
