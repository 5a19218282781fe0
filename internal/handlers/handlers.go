package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/profilebot/docs"
	"github.com/GlebRadaev/profilebot/internal/config"
	adminhandlers "github.com/GlebRadaev/profilebot/internal/handlers/admin"
	downloadhandlers "github.com/GlebRadaev/profilebot/internal/handlers/download"
	healthhandlers "github.com/GlebRadaev/profilebot/internal/handlers/health"
	webhookhandlers "github.com/GlebRadaev/profilebot/internal/handlers/webhook"
	"github.com/GlebRadaev/profilebot/internal/service"
	"github.com/GlebRadaev/profilebot/pkg/auth"
)

type DownloadHandler interface {
	Landing(w http.ResponseWriter, r *http.Request)
	File(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	GetPending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type WebhookHandler interface {
	Receive(w http.ResponseWriter, r *http.Request)
}

type HealthHandler interface {
	Info(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	DownloadHandler DownloadHandler
	AdminHandler    AdminHandler
	HealthHandler   HealthHandler
	// WebhookHandler is nil when updates are polled.
	WebhookHandler WebhookHandler

	jwtService auth.JWTServiceInterface
	adminID    int64
}

func New(s *service.Services, cfg *config.Config, jwtService auth.JWTServiceInterface, updater webhookhandlers.Updater) *Handlers {
	h := &Handlers{
		DownloadHandler: downloadhandlers.New(s.DownloadService),
		AdminHandler:    adminhandlers.New(s.TopupService),
		HealthHandler:   healthhandlers.New(cfg.StoreBackend, cfg.BotToken != ""),
		jwtService:      jwtService,
		adminID:         cfg.AdminID,
	}
	if cfg.BotMode == config.BotModeWebhook && updater != nil {
		h.WebhookHandler = webhookhandlers.New(updater, cfg.WebhookSecret)
	}
	return h
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/", h.HealthHandler.Info)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	r.Route("/dl/{id}", func(r chi.Router) {
		r.Get("/", h.DownloadHandler.Landing)
		r.Get("/file", h.DownloadHandler.File)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.jwtService, h.adminID))
		r.Get("/topups", h.AdminHandler.GetPending)
		r.Post("/topups/{id}/approve", h.AdminHandler.Approve)
		r.Post("/topups/{id}/reject", h.AdminHandler.Reject)
	})

	if h.WebhookHandler != nil {
		r.Post("/telegram/webhook", h.WebhookHandler.Receive)
	}

	return r
}
