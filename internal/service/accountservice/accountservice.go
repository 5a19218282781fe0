package accountservice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
)

type Repo interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error)
}

var supportedLangs = map[string]bool{
	"fa": true,
	"en": true,
}

type Service struct {
	repo        Repo
	defaultLang string
	now         func() time.Time
}

func New(repo Repo, defaultLang string) *Service {
	return &Service{
		repo:        repo,
		defaultLang: defaultLang,
		now:         time.Now,
	}
}

// Touch returns the account, creating it on first contact.
func (s *Service) Touch(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.repo.Get(ctx, accountID)
	if err != nil {
		zap.L().Error("can't load account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	account, err = s.repo.Update(ctx, accountID, func(a *domain.Account) error {
		if a.Lang == "" {
			a.Lang = s.defaultLang
		}
		return nil
	})
	if err != nil {
		zap.L().Error("can't create account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	zap.L().Info("new account", zap.Int64("account_id", accountID))
	return account, nil
}

// RecordAction stores the last pressed control.
func (s *Service) RecordAction(ctx context.Context, accountID int64, action string) (*domain.Account, error) {
	account, err := s.repo.Update(ctx, accountID, func(a *domain.Account) error {
		a.LastAction = action
		a.LastActionAt = s.now()
		return nil
	})
	if err != nil {
		zap.L().Error("can't record last action", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *Service) ToggleNotify(ctx context.Context, accountID int64) (bool, error) {
	account, err := s.repo.Update(ctx, accountID, func(a *domain.Account) error {
		a.Notify = !a.Notify
		return nil
	})
	if err != nil {
		zap.L().Error("can't toggle notifications", zap.Int64("account_id", accountID), zap.Error(err))
		return false, err
	}
	return account.Notify, nil
}

func (s *Service) SetLang(ctx context.Context, accountID int64, lang string) error {
	if !supportedLangs[lang] {
		return domain.ErrInvalidInput
	}
	_, err := s.repo.Update(ctx, accountID, func(a *domain.Account) error {
		a.Lang = lang
		return nil
	})
	if err != nil {
		zap.L().Error("can't set language", zap.Int64("account_id", accountID), zap.Error(err))
		return err
	}
	return nil
}
