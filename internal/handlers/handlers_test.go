package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/handlers/webhook"
	"github.com/GlebRadaev/profilebot/internal/kv"
	"github.com/GlebRadaev/profilebot/internal/repo"
	"github.com/GlebRadaev/profilebot/internal/service"
	"github.com/GlebRadaev/profilebot/internal/service/topupservice"
	"github.com/GlebRadaev/profilebot/pkg/auth"
)

const adminID int64 = 777

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		StoreBackend: config.StoreRedis,
		BotMode:      config.BotModeWebhook,
		AdminID:      adminID,
		ArtifactTTL:  time.Hour,
		MaxDownloads: 3,
		PinLength:    6,
	}
	services := service.New(repo.New(kv.NewRedisStore(client), 50), cfg, topupservice.NewMockNotifier(ctrl))
	jwtService := auth.NewJWTService("secret")

	h := New(services, cfg, jwtService, webhook.NewMockUpdater(ctrl))
	assert.NotNil(t, h.DownloadHandler)
	assert.NotNil(t, h.AdminHandler)
	assert.NotNil(t, h.HealthHandler)
	assert.NotNil(t, h.WebhookHandler)

	cfg.BotMode = config.BotModePolling
	h = New(services, cfg, jwtService, webhook.NewMockUpdater(ctrl))
	assert.Nil(t, h.WebhookHandler)
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockDownloadHandler := NewMockDownloadHandler(ctrl)
	mockAdminHandler := NewMockAdminHandler(ctrl)
	mockWebhookHandler := NewMockWebhookHandler(ctrl)
	mockHealthHandler := NewMockHealthHandler(ctrl)

	mockDownloadHandler.EXPECT().Landing(gomock.Any(), gomock.Any()).AnyTimes()
	mockDownloadHandler.EXPECT().File(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetPending(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().Approve(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().Reject(gomock.Any(), gomock.Any()).AnyTimes()
	mockWebhookHandler.EXPECT().Receive(gomock.Any(), gomock.Any()).AnyTimes()
	mockHealthHandler.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()

	jwtService := auth.NewJWTService("secret")
	h := &Handlers{
		DownloadHandler: mockDownloadHandler,
		AdminHandler:    mockAdminHandler,
		WebhookHandler:  mockWebhookHandler,
		HealthHandler:   mockHealthHandler,
		jwtService:      jwtService,
		adminID:         adminID,
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	adminToken, err := jwtService.GenerateJWT(adminID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	strangerToken, err := jwtService.GenerateJWT(1, time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"GET", "/", "", http.StatusOK},
		{"GET", "/metrics", "", http.StatusOK},
		{"GET", "/dl/abc", "", http.StatusOK},
		{"GET", "/dl/abc/file", "", http.StatusOK},
		{"POST", "/telegram/webhook", "", http.StatusOK},
		{"GET", "/api/admin/topups", "", http.StatusUnauthorized},
		{"POST", "/api/admin/topups/r1/approve", "", http.StatusUnauthorized},
		{"POST", "/api/admin/topups/r1/reject", strangerToken, http.StatusUnauthorized},
		{"GET", "/api/admin/topups", adminToken, http.StatusOK},
		{"POST", "/api/admin/topups/r1/approve", adminToken, http.StatusOK},
		{"POST", "/api/admin/topups/r1/reject", adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestInitRoutes_PollingHasNoWebhook(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := &Handlers{
		DownloadHandler: NewMockDownloadHandler(ctrl),
		AdminHandler:    NewMockAdminHandler(ctrl),
		HealthHandler:   NewMockHealthHandler(ctrl),
		jwtService:      auth.NewJWTService("secret"),
		adminID:         adminID,
	}
	router := chi.NewRouter()
	h.InitRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
