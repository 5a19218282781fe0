package ledgerrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

const (
	topicBalance   = "balance"
	topicTopups    = "topups"
	topicDownloads = "downloads"
)

// Repository keeps capped, append-only histories per account and topic.
type Repository struct {
	store kv.Store
	limit int64
}

func New(store kv.Store, limit int64) *Repository {
	return &Repository{
		store: store,
		limit: limit,
	}
}

func key(topic string, accountID int64) string {
	return fmt.Sprintf("ledger:%s:%d", topic, accountID)
}

func push[T any](ctx context.Context, r *Repository, topic string, accountID int64, entry T) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", topic, err)
	}
	if err := r.store.Push(ctx, key(topic, accountID), raw, r.limit); err != nil {
		zap.L().Error("failed to append ledger entry",
			zap.String("topic", topic), zap.Int64("account_id", accountID), zap.Error(err))
		return err
	}
	return nil
}

func list[T any](ctx context.Context, r *Repository, topic string, accountID int64) ([]T, error) {
	items, err := r.store.List(ctx, key(topic, accountID))
	if err != nil {
		zap.L().Error("failed to read ledger",
			zap.String("topic", topic), zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	entries := make([]T, 0, len(items))
	for _, raw := range items {
		var entry T
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", topic, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *Repository) AppendEntry(ctx context.Context, accountID int64, entry domain.LedgerEntry) error {
	return push(ctx, r, topicBalance, accountID, entry)
}

func (r *Repository) Entries(ctx context.Context, accountID int64) ([]domain.LedgerEntry, error) {
	return list[domain.LedgerEntry](ctx, r, topicBalance, accountID)
}

func (r *Repository) AppendTopupEvent(ctx context.Context, accountID int64, event domain.TopupEvent) error {
	return push(ctx, r, topicTopups, accountID, event)
}

func (r *Repository) TopupEvents(ctx context.Context, accountID int64) ([]domain.TopupEvent, error) {
	return list[domain.TopupEvent](ctx, r, topicTopups, accountID)
}

func (r *Repository) AppendDownloadEvent(ctx context.Context, accountID int64, event domain.DownloadEvent) error {
	return push(ctx, r, topicDownloads, accountID, event)
}

func (r *Repository) DownloadEvents(ctx context.Context, accountID int64) ([]domain.DownloadEvent, error) {
	return list[domain.DownloadEvent](ctx, r, topicDownloads, accountID)
}
