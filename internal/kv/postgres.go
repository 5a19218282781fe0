package kv

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/pg"
)

const janitorInterval = time.Minute

// PostgresStore keeps documents in kv_entries and lists in kv_list_items.
// Expired rows are invisible to reads and removed by RunJanitor.
type PostgresStore struct {
	db        pg.Database
	txManager pg.TXManager
}

func NewPostgresStore(db pg.Database, txManager pg.TXManager) *PostgresStore {
	return &PostgresStore{
		db:        db,
		txManager: txManager,
	}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`
	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to get kv entry", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`
	var expiresAt *time.Time
	if ttl > 0 {
		at := time.Now().Add(ttl)
		expiresAt = &at
	}
	if _, err := s.db.Exec(ctx, query, key, value, expiresAt); err != nil {
		zap.L().Error("failed to set kv entry", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStore) Take(ctx context.Context, key string) ([]byte, error) {
	query := `
		DELETE FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
		RETURNING value
	`
	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to take kv entry", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	selectQuery := `
		SELECT value
		FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
		FOR UPDATE
	`
	updateQuery := `
		UPDATE kv_entries
		SET value = $2
		WHERE key = $1
	`
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		var current []byte
		if err := s.db.QueryRow(ctx, selectQuery, key).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			zap.L().Error("failed to lock kv entry", zap.String("key", key), zap.Error(err))
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if _, err := s.db.Exec(ctx, updateQuery, key, next); err != nil {
			zap.L().Error("failed to update kv entry", zap.String("key", key), zap.Error(err))
			return err
		}
		return nil
	})
}

func (s *PostgresStore) Push(ctx context.Context, key string, value []byte, max int64) error {
	insertQuery := `
		INSERT INTO kv_list_items (key, value)
		VALUES ($1, $2)
	`
	trimQuery := `
		DELETE FROM kv_list_items
		WHERE key = $1 AND id NOT IN (
			SELECT id FROM kv_list_items WHERE key = $1 ORDER BY id DESC LIMIT $2
		)
	`
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.db.Exec(ctx, insertQuery, key, value); err != nil {
			zap.L().Error("failed to push list item", zap.String("key", key), zap.Error(err))
			return err
		}
		if max <= 0 {
			return nil
		}
		if _, err := s.db.Exec(ctx, trimQuery, key, max); err != nil {
			zap.L().Error("failed to trim list", zap.String("key", key), zap.Error(err))
			return err
		}
		return nil
	})
}

func (s *PostgresStore) List(ctx context.Context, key string) ([][]byte, error) {
	query := `
		SELECT value
		FROM kv_list_items
		WHERE key = $1
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query, key)
	if err != nil {
		zap.L().Error("failed to list items", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			zap.L().Error("failed to scan list item", zap.Error(err))
			return nil, err
		}
		items = append(items, value)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Remove(ctx context.Context, key string, value []byte) error {
	query := `
		DELETE FROM kv_list_items
		WHERE key = $1 AND value = $2
	`
	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		zap.L().Error("failed to remove list item", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// PurgeExpired deletes entries whose expiry has passed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM kv_entries
		WHERE expires_at IS NOT NULL AND expires_at <= now()
	`
	tag, err := s.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping kv janitor")
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				zap.L().Error("failed to purge expired entries", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Debug("purged expired entries", zap.Int64("count", n))
			}
		}
	}
}
