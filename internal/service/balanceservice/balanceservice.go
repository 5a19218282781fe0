package balanceservice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
)

type AccountRepo interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error)
}

type LedgerRepo interface {
	AppendEntry(ctx context.Context, accountID int64, entry domain.LedgerEntry) error
	Entries(ctx context.Context, accountID int64) ([]domain.LedgerEntry, error)
}

// Service is the only code path that changes an account balance.
type Service struct {
	accountRepo AccountRepo
	ledgerRepo  LedgerRepo
	now         func() time.Time
}

func New(accountRepo AccountRepo, ledgerRepo LedgerRepo) *Service {
	return &Service{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		now:         time.Now,
	}
}

func (s *Service) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Int64("account_id", accountID), zap.Error(err))
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

// AdjustBalance adds delta, clamping the result at zero, and records one
// ledger entry. An overdraft is not an error. When only the ledger write
// fails the applied adjustment is returned with ErrLedgerNotRecorded.
func (s *Service) AdjustBalance(ctx context.Context, accountID, delta int64, reason string, meta map[string]string) (domain.Adjustment, error) {
	var adj domain.Adjustment
	_, err := s.accountRepo.Update(ctx, accountID, func(account *domain.Account) error {
		adj.Before = account.Balance
		adj.After = domain.ClampedSum(account.Balance, delta)
		account.Balance = adj.After
		return nil
	})
	if err != nil {
		zap.L().Error("failed to update balance", zap.Int64("account_id", accountID), zap.Error(err))
		return domain.Adjustment{}, fmt.Errorf("adjust balance of %d: %w", accountID, err)
	}

	entry := domain.LedgerEntry{
		At:     s.now(),
		Delta:  delta,
		Before: adj.Before,
		After:  adj.After,
		Reason: reason,
		Meta:   meta,
	}
	if err := s.ledgerRepo.AppendEntry(ctx, accountID, entry); err != nil {
		zap.L().Error("balance changed but ledger append failed",
			zap.Int64("account_id", accountID), zap.String("reason", reason), zap.Error(err))
		return adj, fmt.Errorf("%w: %w", domain.ErrLedgerNotRecorded, err)
	}
	metrics.BalanceAdjustments.WithLabelValues(reason).Inc()

	zap.L().Info("balance adjusted",
		zap.Int64("account_id", accountID),
		zap.Int64("delta", delta),
		zap.Int64("before", adj.Before),
		zap.Int64("after", adj.After),
		zap.String("reason", reason))
	return adj, nil
}

// Spend charges amount only when the balance covers it.
func (s *Service) Spend(ctx context.Context, accountID, amount int64, reason string, meta map[string]string) (domain.Adjustment, error) {
	if amount <= 0 {
		return domain.Adjustment{}, domain.ErrInvalidInput
	}
	balance, err := s.GetBalance(ctx, accountID)
	if err != nil {
		return domain.Adjustment{}, err
	}
	if balance < amount {
		return domain.Adjustment{}, domain.ErrInsufficientFunds
	}
	return s.AdjustBalance(ctx, accountID, -amount, reason, meta)
}

func (s *Service) History(ctx context.Context, accountID int64) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.Entries(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to fetch ledger", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}
