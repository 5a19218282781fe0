package accountrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

const keyPrefix = "user:"

type Repository struct {
	store kv.Store
	now   func() time.Time
}

func New(store kv.Store) *Repository {
	return &Repository{
		store: store,
		now:   time.Now,
	}
}

func key(accountID int64) string {
	return keyPrefix + strconv.FormatInt(accountID, 10)
}

// Get returns nil, nil for accounts that were never saved.
func (r *Repository) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	raw, err := r.store.Get(ctx, key(accountID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		zap.L().Error("failed to get account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return decode(raw, accountID)
}

func (r *Repository) Save(ctx context.Context, account *domain.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %d: %w", account.ID, err)
	}
	if err := r.store.Set(ctx, key(account.ID), raw, 0); err != nil {
		zap.L().Error("failed to save account", zap.Int64("account_id", account.ID), zap.Error(err))
		return err
	}
	return nil
}

// Update applies fn to the stored account as one read-modify-write step and
// returns the written state. Unknown accounts are created first. fn may run
// more than once when concurrent writers collide.
func (r *Repository) Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error) {
	var result *domain.Account
	err := r.store.Update(ctx, key(accountID), func(current []byte) ([]byte, error) {
		account, err := decode(current, accountID)
		if err != nil {
			return nil, err
		}
		if err := fn(account); err != nil {
			return nil, err
		}
		result = account
		return json.Marshal(account)
	})
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}

	account := domain.NewAccount(accountID, r.now())
	if err := fn(account); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func decode(raw []byte, accountID int64) (*domain.Account, error) {
	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account %d: %w", accountID, err)
	}
	if account.ProfileCounters == nil {
		account.ProfileCounters = make(map[string]int64)
	}
	return &account, nil
}
