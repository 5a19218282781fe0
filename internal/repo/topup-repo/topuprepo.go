package topuprepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
)

const (
	recordPrefix = "topup:"
	pendingKey   = "topups:pending"
)

type Repository struct {
	store kv.Store
}

func New(store kv.Store) *Repository {
	return &Repository{
		store: store,
	}
}

func (r *Repository) Create(ctx context.Context, request *domain.TopupRequest) error {
	raw, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode top-up request: %w", err)
	}
	if err := r.store.Set(ctx, recordPrefix+request.ID, raw, 0); err != nil {
		zap.L().Error("can't save top-up request", zap.String("request_id", request.ID), zap.Error(err))
		return err
	}
	if err := r.store.Push(ctx, pendingKey, []byte(request.ID), 0); err != nil {
		zap.L().Error("can't index top-up request", zap.String("request_id", request.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, requestID string) (*domain.TopupRequest, error) {
	raw, err := r.store.Get(ctx, recordPrefix+requestID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		zap.L().Error("can't get top-up request", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	return decode(raw)
}

// Take deletes the request and returns it. Of several concurrent callers
// exactly one gets the request; the others get nil, nil.
func (r *Repository) Take(ctx context.Context, requestID string) (*domain.TopupRequest, error) {
	raw, err := r.store.Take(ctx, recordPrefix+requestID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		zap.L().Error("can't take top-up request", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	request, err := decode(raw)
	if err != nil {
		return nil, err
	}
	// The record is gone at this point; a leftover index entry is dropped by PendingIDs readers.
	if err := r.DropPending(ctx, requestID); err != nil {
		zap.L().Warn("top-up taken but still indexed", zap.String("request_id", requestID), zap.Error(err))
	}
	return request, nil
}

func (r *Repository) PendingIDs(ctx context.Context) ([]string, error) {
	items, err := r.store.List(ctx, pendingKey)
	if err != nil {
		zap.L().Error("can't list pending top-ups", zap.Error(err))
		return nil, err
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = string(item)
	}
	return ids, nil
}

func (r *Repository) DropPending(ctx context.Context, requestID string) error {
	return r.store.Remove(ctx, pendingKey, []byte(requestID))
}

func decode(raw []byte) (*domain.TopupRequest, error) {
	var request domain.TopupRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decode top-up request: %w", err)
	}
	return &request, nil
}
