package profileservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
	"github.com/GlebRadaev/profilebot/internal/service/downloadservice"
	"github.com/GlebRadaev/profilebot/pkg/mobileconfig"
)

type AccountRepo interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error)
}

type BalanceService interface {
	Spend(ctx context.Context, accountID, amount int64, reason string, meta map[string]string) (domain.Adjustment, error)
	AdjustBalance(ctx context.Context, accountID, delta int64, reason string, meta map[string]string) (domain.Adjustment, error)
}

type Issuer interface {
	Issue(ctx context.Context, p downloadservice.IssueParams) (*domain.IssuedLink, error)
}

type ArtifactBuilder interface {
	Build(p mobileconfig.Params) ([]byte, error)
}

type BuildResult struct {
	LinkID    string
	URL       string
	PIN       string
	ExpiresAt time.Time
	Charged   int64
	Balance   int64
}

type Service struct {
	accountRepo    AccountRepo
	balanceService BalanceService
	issuer         Issuer
	builder        ArtifactBuilder
	cost           int64
	publicURL      string
}

func New(accountRepo AccountRepo, balanceService BalanceService, issuer Issuer, builder ArtifactBuilder, cost int64, publicURL string) *Service {
	return &Service{
		accountRepo:    accountRepo,
		balanceService: balanceService,
		issuer:         issuer,
		builder:        builder,
		cost:           cost,
		publicURL:      publicURL,
	}
}

func (s *Service) Cost() int64 {
	return s.cost
}

func (s *Service) update(ctx context.Context, accountID int64, fn func(a *domain.Account) error) (*domain.Account, error) {
	account, err := s.accountRepo.Update(ctx, accountID, fn)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrNoActiveFlow) {
			zap.L().Error("can't update profile settings", zap.Int64("account_id", accountID), zap.Error(err))
		}
		return nil, err
	}
	return account, nil
}

// Settings also leaves a pending manual UUID entry.
func (s *Service) Settings(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.update(ctx, accountID, func(a *domain.Account) error {
		if a.Flow.Kind == domain.FlowAwaitingUUID {
			a.Flow = domain.IdleFlow()
		}
		return nil
	})
}

func (s *Service) SetAPN(ctx context.Context, accountID int64, apn string) (*domain.Account, error) {
	if !mobileconfig.KnownAPN(apn) {
		return nil, domain.ErrInvalidInput
	}
	return s.update(ctx, accountID, func(a *domain.Account) error {
		a.Profile.APN = apn
		if a.Profile.SelectedCIDR == "" {
			a.Profile.SelectedCIDR = mobileconfig.DefaultCIDR
		}
		return nil
	})
}

func (s *Service) GenerateUUID(ctx context.Context, accountID int64) (*domain.Account, error) {
	id := uuid.NewString()
	return s.update(ctx, accountID, func(a *domain.Account) error {
		a.Profile.RootUUID = id
		if a.Flow.Kind == domain.FlowAwaitingUUID {
			a.Flow = domain.IdleFlow()
		}
		return nil
	})
}

func (s *Service) AskUUID(ctx context.Context, accountID int64) error {
	_, err := s.update(ctx, accountID, func(a *domain.Account) error {
		a.Flow = domain.AwaitingUUIDFlow()
		return nil
	})
	return err
}

// ProvideUUID takes a manually typed root UUID. Invalid input keeps the
// account waiting for another try.
func (s *Service) ProvideUUID(ctx context.Context, accountID int64, raw string) (*domain.Account, error) {
	return s.update(ctx, accountID, func(a *domain.Account) error {
		if a.Flow.Kind != domain.FlowAwaitingUUID {
			return domain.ErrNoActiveFlow
		}
		if !mobileconfig.ValidRootUUID(raw) {
			return domain.ErrInvalidInput
		}
		a.Profile.RootUUID = raw
		a.Flow = domain.IdleFlow()
		return nil
	})
}

func (s *Service) ToggleGodMode(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.update(ctx, accountID, func(a *domain.Account) error {
		a.Profile.GodMode = !a.Profile.GodMode
		return nil
	})
}

func (s *Service) SetCIDR(ctx context.Context, accountID int64, cidr string) (*domain.Account, error) {
	if !mobileconfig.KnownCIDR(cidr) {
		return nil, domain.ErrInvalidInput
	}
	return s.update(ctx, accountID, func(a *domain.Account) error {
		a.Profile.SelectedCIDR = cidr
		return nil
	})
}

// Build charges the profile cost and issues a download link for the
// rendered profile. The charge is refunded when the link cannot be issued.
func (s *Service) Build(ctx context.Context, accountID int64) (*BuildResult, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		zap.L().Error("can't load account for build", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if account == nil || account.Profile.APN == "" || !mobileconfig.ValidRootUUID(account.Profile.RootUUID) {
		return nil, domain.ErrProfileIncomplete
	}
	p := account.Profile

	payload, err := s.builder.Build(mobileconfig.Params{
		RootUUID: p.RootUUID,
		APN:      p.APN,
		GodMode:  p.GodMode,
		CIDR:     p.SelectedCIDR,
	})
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}

	meta := map[string]string{"apn": p.APN}
	result := &BuildResult{Balance: account.Balance}
	if s.cost > 0 {
		adj, err := s.balanceService.Spend(ctx, accountID, s.cost, domain.ReasonProfileBuild, meta)
		if err != nil && !errors.Is(err, domain.ErrLedgerNotRecorded) {
			return nil, err
		}
		result.Charged = s.cost
		result.Balance = adj.After
	}

	link, err := s.issuer.Issue(ctx, downloadservice.IssueParams{
		OwnerID:  accountID,
		Payload:  payload,
		FileName: mobileconfig.FileName,
	})
	if err != nil {
		zap.L().Error("can't issue profile link", zap.Int64("account_id", accountID), zap.Error(err))
		s.refund(ctx, accountID, result.Charged, meta)
		return nil, err
	}

	if _, err := s.accountRepo.Update(ctx, accountID, func(a *domain.Account) error {
		if a.ProfileCounters == nil {
			a.ProfileCounters = make(map[string]int64)
		}
		a.ProfileCounters[p.APN]++
		return nil
	}); err != nil {
		zap.L().Warn("can't bump profile counter", zap.Int64("account_id", accountID), zap.Error(err))
	}
	metrics.ProfilesBuilt.WithLabelValues(p.APN).Inc()

	result.LinkID = link.ID
	result.URL = s.publicURL + "/dl/" + link.ID
	result.PIN = link.PIN
	result.ExpiresAt = link.ExpiresAt
	zap.L().Info("profile built", zap.Int64("account_id", accountID), zap.String("apn", p.APN), zap.String("link_id", link.ID))
	return result, nil
}

func (s *Service) refund(ctx context.Context, accountID, amount int64, meta map[string]string) {
	if amount <= 0 {
		return
	}
	refundMeta := map[string]string{"apn": meta["apn"], "amount": strconv.FormatInt(amount, 10)}
	if _, err := s.balanceService.AdjustBalance(ctx, accountID, amount, domain.ReasonProfileBuildRefund, refundMeta); err != nil &&
		!errors.Is(err, domain.ErrLedgerNotRecorded) {
		zap.L().Error("profile build refund failed", zap.Int64("account_id", accountID), zap.Int64("amount", amount), zap.Error(err))
	}
}
