package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/kv"
	"github.com/GlebRadaev/profilebot/internal/repo"
	"github.com/GlebRadaev/profilebot/internal/service/topupservice"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		PublicURL:    "https://bot.example.com",
		DefaultLang:  "fa",
		AdminID:      777,
		ArtifactTTL:  time.Hour,
		MaxDownloads: 3,
		PinLength:    6,
		ProfileCost:  50000,
	}
	services := New(repo.New(kv.NewRedisStore(client), 50), cfg, topupservice.NewMockNotifier(ctrl))

	assert.NotNil(t, services.AccountService)
	assert.NotNil(t, services.BalanceService)
	assert.NotNil(t, services.TopupService)
	assert.NotNil(t, services.AdminService)
	assert.NotNil(t, services.DownloadService)
	assert.NotNil(t, services.ProfileService)
	assert.True(t, services.AdminService.IsAdmin(777))
	assert.Equal(t, int64(50000), services.ProfileService.Cost())

	account, err := services.AccountService.Touch(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "fa", account.Lang)
}
