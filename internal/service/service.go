package service

import (
	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/repo"
	"github.com/GlebRadaev/profilebot/internal/service/accountservice"
	"github.com/GlebRadaev/profilebot/internal/service/adminservice"
	"github.com/GlebRadaev/profilebot/internal/service/balanceservice"
	"github.com/GlebRadaev/profilebot/internal/service/downloadservice"
	"github.com/GlebRadaev/profilebot/internal/service/profileservice"
	"github.com/GlebRadaev/profilebot/internal/service/topupservice"
	pkgauth "github.com/GlebRadaev/profilebot/pkg/auth"
	"github.com/GlebRadaev/profilebot/pkg/mobileconfig"
)

type Services struct {
	AccountService  *accountservice.Service
	BalanceService  *balanceservice.Service
	TopupService    *topupservice.Service
	AdminService    *adminservice.Service
	DownloadService *downloadservice.Service
	ProfileService  *profileservice.Service
}

// New wires the services. notifier delivers messages produced by top-up
// resolution and admin adjustments.
func New(repos *repo.Repositories, cfg *config.Config, notifier topupservice.Notifier) *Services {
	balanceService := balanceservice.New(repos.Account, repos.Ledger)
	downloadService := downloadservice.New(repos.Download, repos.Ledger, &pkgauth.HashService{}, downloadservice.Options{
		PinLength:    cfg.PinLength,
		TTL:          cfg.ArtifactTTL,
		MaxDownloads: cfg.MaxDownloads,
	})

	return &Services{
		AccountService:  accountservice.New(repos.Account, cfg.DefaultLang),
		BalanceService:  balanceService,
		TopupService:    topupservice.New(repos.Account, repos.Topup, repos.Ledger, balanceService, notifier, cfg.AdminID),
		AdminService:    adminservice.New(repos.Account, balanceService, notifier, cfg.AdminID, cfg.MaxAdjustAmount),
		DownloadService: downloadService,
		ProfileService: profileservice.New(repos.Account, balanceService, downloadService, mobileconfig.Builder{},
			cfg.ProfileCost, cfg.PublicURL),
	}
}
