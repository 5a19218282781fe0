package downloadrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

const (
	keyPrefix = "download:"
	// Records whose expiry already passed still get a short store TTL so
	// the key never becomes persistent.
	minTTL = time.Second
)

type Repository struct {
	store kv.Store
}

func New(store kv.Store) *Repository {
	return &Repository{
		store: store,
	}
}

func (r *Repository) Create(ctx context.Context, record *domain.DownloadRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode download record: %w", err)
	}
	if ttl < minTTL {
		ttl = minTTL
	}
	if err := r.store.Set(ctx, keyPrefix+record.ID, raw, ttl); err != nil {
		zap.L().Error("can't save download record", zap.String("link_id", record.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.DownloadRecord, error) {
	raw, err := r.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		zap.L().Error("can't get download record", zap.String("link_id", id), zap.Error(err))
		return nil, err
	}
	return decode(raw)
}

// Update runs fn against the stored record as one read-check-write step.
// fn reports whether it changed the record; unchanged records are not written.
// A missing record yields nil, nil.
func (r *Repository) Update(ctx context.Context, id string, fn func(record *domain.DownloadRecord) (bool, error)) (*domain.DownloadRecord, error) {
	var result *domain.DownloadRecord
	err := r.store.Update(ctx, keyPrefix+id, func(current []byte) ([]byte, error) {
		record, err := decode(current)
		if err != nil {
			return nil, err
		}
		changed, err := fn(record)
		if err != nil {
			return nil, err
		}
		result = record
		if !changed {
			return nil, nil
		}
		return json.Marshal(record)
	})
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func decode(raw []byte) (*domain.DownloadRecord, error) {
	var record domain.DownloadRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode download record: %w", err)
	}
	return &record, nil
}
