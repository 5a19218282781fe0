package downloadservice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
	"github.com/GlebRadaev/profilebot/pkg/auth"
)

// maxSessions bounds the browser sessions bound to one link; the oldest is
// dropped first.
const maxSessions = 16

type Repo interface {
	Create(ctx context.Context, record *domain.DownloadRecord, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.DownloadRecord, error)
	Update(ctx context.Context, id string, fn func(record *domain.DownloadRecord) (bool, error)) (*domain.DownloadRecord, error)
}

type LedgerRepo interface {
	AppendDownloadEvent(ctx context.Context, accountID int64, event domain.DownloadEvent) error
}

type Options struct {
	PinLength    int
	TTL          time.Duration
	MaxDownloads int
}

type IssueParams struct {
	OwnerID  int64
	Payload  []byte
	FileName string
	// PIN is generated when empty.
	PIN string
	// Zero values fall back to the service options.
	TTL          time.Duration
	MaxDownloads int
}

type Service struct {
	repo        Repo
	ledgerRepo  LedgerRepo
	hashService auth.HashServiceInterface
	opts        Options
	now         func() time.Time
}

func New(repo Repo, ledgerRepo LedgerRepo, hashService auth.HashServiceInterface, opts Options) *Service {
	return &Service{
		repo:        repo,
		ledgerRepo:  ledgerRepo,
		hashService: hashService,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *Service) Issue(ctx context.Context, p IssueParams) (*domain.IssuedLink, error) {
	if len(p.Payload) == 0 || p.FileName == "" {
		return nil, domain.ErrInvalidInput
	}
	ttl := p.TTL
	if ttl == 0 {
		ttl = s.opts.TTL
	}
	maxDownloads := p.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = s.opts.MaxDownloads
	}

	pin := p.PIN
	if pin == "" {
		generated, err := generatePIN(s.opts.PinLength)
		if err != nil {
			return nil, fmt.Errorf("generate pin: %w", err)
		}
		pin = generated
	}
	pinHash, err := s.hashService.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	now := s.now()
	record := &domain.DownloadRecord{
		ID:             uuid.NewString(),
		OwnerAccountID: p.OwnerID,
		Payload:        p.Payload,
		FileName:       p.FileName,
		PinHash:        pinHash,
		Sessions:       []string{},
		MaxDownloads:   maxDownloads,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
	if err := s.repo.Create(ctx, record, ttl); err != nil {
		zap.L().Error("can't issue download link", zap.Int64("owner_id", p.OwnerID), zap.Error(err))
		return nil, err
	}

	zap.L().Info("download link issued",
		zap.String("link_id", record.ID), zap.Int64("owner_id", p.OwnerID), zap.Time("expires_at", record.ExpiresAt))
	return &domain.IssuedLink{ID: record.ID, PIN: pin, ExpiresAt: record.ExpiresAt}, nil
}

// BindSession returns token when it is already bound to the link, otherwise
// mints and binds a new one.
func (s *Service) BindSession(ctx context.Context, id, token string) (string, error) {
	bound := token
	record, err := s.repo.Update(ctx, id, func(r *domain.DownloadRecord) (bool, error) {
		if r.Expired(s.now()) {
			return false, domain.ErrNotFound
		}
		if r.HasSession(token) {
			bound = token
			return false, nil
		}
		bound = uuid.NewString()
		r.Sessions = append(r.Sessions, bound)
		if n := len(r.Sessions); n > maxSessions {
			r.Sessions = slices.Clone(r.Sessions[n-maxSessions:])
		}
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			zap.L().Error("can't bind download session", zap.String("link_id", id), zap.Error(err))
		}
		return "", err
	}
	if record == nil {
		return "", domain.ErrNotFound
	}
	return bound, nil
}

// FetchPayload releases the artifact once per call while downloads remain.
// Failures are reported in the order not found, limit reached, unauthorized.
func (s *Service) FetchPayload(ctx context.Context, id, pin, token string) (*domain.DownloadRecord, error) {
	record, err := s.fetch(ctx, id, pin, token)
	metrics.Downloads.WithLabelValues(resultLabel(err)).Inc()
	return record, err
}

func (s *Service) fetch(ctx context.Context, id, pin, token string) (*domain.DownloadRecord, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	if current.Exhausted() {
		return nil, domain.ErrLimitReached
	}
	// The hash never changes, so the slow comparison stays outside the
	// optimistic update below.
	if !current.HasSession(token) || !s.hashService.Compare(current.PinHash, pin) {
		return nil, domain.ErrUnauthorized
	}

	record, err := s.repo.Update(ctx, id, func(r *domain.DownloadRecord) (bool, error) {
		if r.Expired(s.now()) {
			return false, domain.ErrNotFound
		}
		if r.Exhausted() {
			return false, domain.ErrLimitReached
		}
		if !slices.Contains(r.Sessions, token) {
			return false, domain.ErrUnauthorized
		}
		r.DownloadsUsed++
		if r.DownloadsUsed >= r.MaxDownloads {
			r.UsedUp = true
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	event := domain.DownloadEvent{At: s.now(), LinkID: record.ID, DownloadsUsed: record.DownloadsUsed}
	if err := s.ledgerRepo.AppendDownloadEvent(ctx, record.OwnerAccountID, event); err != nil {
		zap.L().Warn("can't append download event", zap.String("link_id", id), zap.Error(err))
	}
	zap.L().Info("artifact downloaded",
		zap.String("link_id", id), zap.Int("used", record.DownloadsUsed), zap.Int("max", record.MaxDownloads))
	return record, nil
}

func (s *Service) Status(ctx context.Context, id string) (*domain.DownloadStatus, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	remaining := record.MaxDownloads - record.DownloadsUsed
	if record.UsedUp || remaining < 0 {
		remaining = 0
	}
	return &domain.DownloadStatus{
		ID:                 record.ID,
		FileName:           record.FileName,
		DownloadsRemaining: remaining,
		ExpiresAt:          record.ExpiresAt,
	}, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLimitReached):
		return "limit_reached"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

func generatePIN(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("pin length must be positive")
	}
	digits := make([]byte, length)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
