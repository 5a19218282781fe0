package adminservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/pkg/numeral"
)

type AccountRepo interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error)
}

type BalanceService interface {
	AdjustBalance(ctx context.Context, accountID, delta int64, reason string, meta map[string]string) (domain.Adjustment, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Service drives the admin's two-step manual balance adjustment. The step is
// kept on the admin's own account so it survives restarts.
type Service struct {
	accountRepo    AccountRepo
	balanceService BalanceService
	notifier       Notifier
	adminID        int64
	maxAmount      int64
}

// New builds the service. Amounts above maxAmount are rejected as input
// errors; maxAmount <= 0 disables the cap.
func New(accountRepo AccountRepo, balanceService BalanceService, notifier Notifier, adminID, maxAmount int64) *Service {
	return &Service{
		accountRepo:    accountRepo,
		balanceService: balanceService,
		notifier:       notifier,
		adminID:        adminID,
		maxAmount:      maxAmount,
	}
}

func (s *Service) IsAdmin(accountID int64) bool {
	return accountID == s.adminID
}

func (s *Service) StartAdjust(ctx context.Context, adminID int64, mode domain.AdjustMode) error {
	if !s.IsAdmin(adminID) {
		return domain.ErrUnauthorized
	}
	if !mode.Valid() {
		return domain.ErrInvalidInput
	}
	return s.update(ctx, adminID, func(a *domain.Account) error {
		a.Flow = domain.AdminTargetFlow(mode)
		return nil
	})
}

// ProvideTargetID accepts the target account id typed in any digit script.
func (s *Service) ProvideTargetID(ctx context.Context, adminID int64, raw string) (int64, error) {
	if !s.IsAdmin(adminID) {
		return 0, domain.ErrUnauthorized
	}
	target, err := numeral.ParseInt(raw)
	if err != nil || target <= 0 {
		if err := s.requireStep(ctx, adminID, domain.AdjustStepTarget); err != nil {
			return 0, err
		}
		return 0, domain.ErrInvalidInput
	}

	err = s.update(ctx, adminID, func(a *domain.Account) error {
		step, ok := a.Flow.AdminStep()
		if !ok || step != domain.AdjustStepTarget {
			return domain.ErrNoActiveFlow
		}
		a.Flow = domain.AdminAmountFlow(a.Flow.Mode, target)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return target, nil
}

// ProvideAmount applies the adjustment. The flow is closed before the balance
// changes so a repeated message cannot apply it twice.
func (s *Service) ProvideAmount(ctx context.Context, adminID int64, raw string) (*domain.AdminAdjustResult, error) {
	if !s.IsAdmin(adminID) {
		return nil, domain.ErrUnauthorized
	}
	amount, err := numeral.ParseInt(raw)
	if err != nil || amount <= 0 || (s.maxAmount > 0 && amount > s.maxAmount) {
		if err := s.requireStep(ctx, adminID, domain.AdjustStepAmount); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidInput
	}

	var flow domain.FlowState
	err = s.update(ctx, adminID, func(a *domain.Account) error {
		step, ok := a.Flow.AdminStep()
		if !ok || step != domain.AdjustStepAmount {
			return domain.ErrNoActiveFlow
		}
		flow = a.Flow
		a.Flow = domain.IdleFlow()
		return nil
	})
	if err != nil {
		return nil, err
	}

	delta := amount
	if flow.Mode == domain.AdjustDecrease {
		delta = -amount
	}
	adj, err := s.balanceService.AdjustBalance(ctx, flow.TargetID, delta, domain.ReasonAdminAdjust,
		map[string]string{"admin_id": strconv.FormatInt(adminID, 10)})
	if err != nil && !errors.Is(err, domain.ErrLedgerNotRecorded) {
		if restoreErr := s.update(ctx, adminID, func(a *domain.Account) error {
			a.Flow = flow
			return nil
		}); restoreErr != nil {
			zap.L().Warn("can't restore adjustment flow", zap.Error(restoreErr))
		}
		return nil, err
	}

	result := &domain.AdminAdjustResult{TargetID: flow.TargetID, Delta: delta, Balance: adj}
	zap.L().Info("manual balance adjustment",
		zap.Int64("target_id", result.TargetID), zap.Int64("delta", delta),
		zap.Int64("before", adj.Before), zap.Int64("after", adj.After))
	s.notifyParties(ctx, result)
	return result, nil
}

// Cancel leaves whatever input flow the account is in.
func (s *Service) Cancel(ctx context.Context, accountID int64) error {
	return s.update(ctx, accountID, func(a *domain.Account) error {
		a.Flow = domain.IdleFlow()
		return nil
	})
}

func (s *Service) requireStep(ctx context.Context, adminID int64, want domain.AdjustStep) error {
	account, err := s.accountRepo.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNoActiveFlow
	}
	if step, ok := account.Flow.AdminStep(); !ok || step != want {
		return domain.ErrNoActiveFlow
	}
	return nil
}

func (s *Service) update(ctx context.Context, accountID int64, fn func(a *domain.Account) error) error {
	_, err := s.accountRepo.Update(ctx, accountID, fn)
	if err != nil && !errors.Is(err, domain.ErrNoActiveFlow) {
		zap.L().Error("can't update admin flow", zap.Int64("account_id", accountID), zap.Error(err))
	}
	return err
}

func (s *Service) notifyParties(ctx context.Context, r *domain.AdminAdjustResult) {
	admin := domain.Notification{
		ChatID: s.adminID,
		Text: fmt.Sprintf("موجودی کاربر %d تغییر کرد.\nقبل: %s\nبعد: %s",
			r.TargetID, numeral.Format("fa", r.Balance.Before), numeral.Format("fa", r.Balance.After)),
	}
	if err := s.notifier.Notify(ctx, admin); err != nil {
		zap.L().Warn("admin not notified", zap.Error(err))
	}

	target, err := s.accountRepo.Get(ctx, r.TargetID)
	if err != nil || (target != nil && !target.Notify) {
		return
	}
	lang := "fa"
	if target != nil && target.Lang != "" {
		lang = target.Lang
	}
	user := domain.Notification{
		ChatID: r.TargetID,
		Text:   fmt.Sprintf("موجودی شما توسط مدیر به‌روزرسانی شد.\nموجودی فعلی: %s", numeral.Format(lang, r.Balance.After)),
	}
	if err := s.notifier.Notify(ctx, user); err != nil {
		zap.L().Warn("target not notified", zap.Int64("account_id", r.TargetID), zap.Error(err))
	}
}
