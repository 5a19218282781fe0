package topupservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
	"github.com/GlebRadaev/profilebot/pkg/numeral"
)

const pendingLoadLimit = 8

type AccountRepo interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	Update(ctx context.Context, accountID int64, fn func(account *domain.Account) error) (*domain.Account, error)
}

type Repo interface {
	Create(ctx context.Context, request *domain.TopupRequest) error
	Get(ctx context.Context, requestID string) (*domain.TopupRequest, error)
	Take(ctx context.Context, requestID string) (*domain.TopupRequest, error)
	PendingIDs(ctx context.Context) ([]string, error)
	DropPending(ctx context.Context, requestID string) error
}

type LedgerRepo interface {
	AppendTopupEvent(ctx context.Context, accountID int64, event domain.TopupEvent) error
}

type BalanceService interface {
	AdjustBalance(ctx context.Context, accountID, delta int64, reason string, meta map[string]string) (domain.Adjustment, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type Service struct {
	accountRepo    AccountRepo
	repo           Repo
	ledgerRepo     LedgerRepo
	balanceService BalanceService
	notifier       Notifier
	adminID        int64
	now            func() time.Time
}

func New(accountRepo AccountRepo, repo Repo, ledgerRepo LedgerRepo, balanceService BalanceService, notifier Notifier, adminID int64) *Service {
	return &Service{
		accountRepo:    accountRepo,
		repo:           repo,
		ledgerRepo:     ledgerRepo,
		balanceService: balanceService,
		notifier:       notifier,
		adminID:        adminID,
		now:            time.Now,
	}
}

func (s *Service) ChooseAmount(ctx context.Context, accountID, amount int64) error {
	return s.setFlow(ctx, accountID, amount, domain.AmountChosenFlow)
}

func (s *Service) BeginAwaitingReceipt(ctx context.Context, accountID, amount int64) error {
	return s.setFlow(ctx, accountID, amount, domain.AwaitingReceiptFlow)
}

func (s *Service) setFlow(ctx context.Context, accountID, amount int64, flow func(int64) domain.FlowState) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	_, err := s.accountRepo.Update(ctx, accountID, func(a *domain.Account) error {
		a.Flow = flow(amount)
		return nil
	})
	if err != nil {
		zap.L().Error("can't update top-up flow", zap.Int64("account_id", accountID), zap.Error(err))
		return err
	}
	return nil
}

// SubmitReceipt turns an awaited receipt into a pending request and hands it
// to the admin. The flow is consumed before the request is stored so a
// receipt sent twice creates one request.
func (s *Service) SubmitReceipt(ctx context.Context, accountID, chatID int64, evidence domain.Attachment) (*domain.TopupRequest, error) {
	if evidence.Ref == "" {
		return nil, domain.ErrInvalidInput
	}

	var amount int64
	account, err := s.accountRepo.Update(ctx, accountID, func(a *domain.Account) error {
		expected, ok := a.Flow.AwaitingReceipt()
		if !ok {
			return domain.ErrNotAwaitingReceipt
		}
		amount = expected
		a.Flow = domain.IdleFlow()
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotAwaitingReceipt) {
			zap.L().Error("can't consume receipt flow", zap.Int64("account_id", accountID), zap.Error(err))
		}
		return nil, err
	}

	request := &domain.TopupRequest{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		ChatID:       chatID,
		Amount:       amount,
		EvidenceRef:  evidence.Ref,
		EvidenceKind: evidence.Kind,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		zap.L().Error("can't store top-up request", zap.Int64("account_id", accountID), zap.Error(err))
		s.restoreReceiptFlow(ctx, accountID, amount)
		return nil, err
	}
	metrics.TopupsSubmitted.Inc()
	zap.L().Info("top-up submitted",
		zap.String("request_id", request.ID), zap.Int64("account_id", accountID), zap.Int64("amount", amount))

	s.notify(ctx, domain.Notification{
		ChatID: s.adminID,
		Text: fmt.Sprintf("درخواست شارژ جدید\nکاربر: %d\nمبلغ: %s\nشناسه: %s",
			accountID, numeral.Format(account.Lang, amount), request.ID),
		Attachment: &domain.Attachment{Kind: evidence.Kind, Ref: evidence.Ref},
		Actions: []domain.Action{
			{Label: "تأیید", Data: domain.TopupActionData(domain.DecisionApprove, request.ID)},
			{Label: "رد", Data: domain.TopupActionData(domain.DecisionReject, request.ID)},
		},
	})
	return request, nil
}

func (s *Service) restoreReceiptFlow(ctx context.Context, accountID, amount int64) {
	_, err := s.accountRepo.Update(ctx, accountID, func(a *domain.Account) error {
		if a.Flow.IsIdle() {
			a.Flow = domain.AwaitingReceiptFlow(amount)
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("can't restore receipt flow", zap.Int64("account_id", accountID), zap.Error(err))
	}
}

// Resolve applies the admin decision. Taking the record is the commit point:
// of several concurrent calls only one gets past it.
func (s *Service) Resolve(ctx context.Context, requestID string, decision domain.Decision, actingAdminID int64) (*domain.TopupResolution, error) {
	if actingAdminID != s.adminID {
		return nil, domain.ErrUnauthorized
	}
	if !decision.Valid() {
		return nil, domain.ErrInvalidInput
	}

	request, err := s.repo.Take(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrAlreadyResolved
	}

	resolution := &domain.TopupResolution{Request: *request, Decision: decision}
	outcome := domain.TopupRejected
	if decision == domain.DecisionApprove {
		outcome = domain.TopupApproved
		adj, err := s.balanceService.AdjustBalance(ctx, request.AccountID, request.Amount,
			domain.ReasonTopupApproved, map[string]string{"request_id": request.ID})
		switch {
		case errors.Is(err, domain.ErrLedgerNotRecorded):
			zap.L().Warn("top-up credited without ledger entry", zap.String("request_id", request.ID))
		case err != nil:
			// Nothing was credited; put the request back so it can be retried.
			if restoreErr := s.repo.Create(ctx, request); restoreErr != nil {
				zap.L().Error("top-up lost after failed credit",
					zap.String("request_id", request.ID), zap.Error(restoreErr))
			}
			return nil, err
		}
		resolution.Balance = adj
	} else {
		balance, err := s.currentBalance(ctx, request.AccountID)
		if err == nil {
			resolution.Balance = domain.Adjustment{Before: balance, After: balance}
		}
	}

	event := domain.TopupEvent{
		At:        s.now(),
		RequestID: request.ID,
		Amount:    request.Amount,
		Outcome:   outcome,
		AdminID:   actingAdminID,
	}
	if err := s.ledgerRepo.AppendTopupEvent(ctx, request.AccountID, event); err != nil {
		zap.L().Warn("can't append top-up event", zap.String("request_id", request.ID), zap.Error(err))
	}
	metrics.TopupsResolved.WithLabelValues(string(decision)).Inc()
	zap.L().Info("top-up resolved",
		zap.String("request_id", request.ID), zap.String("decision", string(decision)), zap.Int64("admin_id", actingAdminID))

	s.notifyRequester(ctx, resolution)
	return resolution, nil
}

func (s *Service) currentBalance(ctx context.Context, accountID int64) (int64, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil || account == nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *Service) notifyRequester(ctx context.Context, r *domain.TopupResolution) {
	account, err := s.accountRepo.Get(ctx, r.Request.AccountID)
	if err != nil {
		zap.L().Warn("can't load requester", zap.Int64("account_id", r.Request.AccountID), zap.Error(err))
		return
	}
	lang := ""
	if account != nil {
		if !account.Notify {
			return
		}
		lang = account.Lang
	}

	var text string
	if r.Decision == domain.DecisionApprove {
		text = fmt.Sprintf("شارژ شما به مبلغ %s تأیید شد.\nموجودی فعلی: %s",
			numeral.Format(lang, r.Request.Amount), numeral.Format(lang, r.Balance.After))
	} else {
		text = fmt.Sprintf("درخواست شارژ شما به مبلغ %s رد شد.", numeral.Format(lang, r.Request.Amount))
	}
	s.notify(ctx, domain.Notification{ChatID: r.Request.ChatID, Text: text})
}

func (s *Service) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		zap.L().Warn("notification not delivered", zap.Int64("chat_id", n.ChatID), zap.Error(err))
	}
}

// Pending lists unresolved requests in submission order. Index entries whose
// record is gone are dropped on the way.
func (s *Service) Pending(ctx context.Context, actingAdminID int64) ([]domain.TopupRequest, error) {
	if actingAdminID != s.adminID {
		return nil, domain.ErrUnauthorized
	}

	ids, err := s.repo.PendingIDs(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]*domain.TopupRequest, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(pendingLoadLimit)
	for i, id := range ids {
		g.Go(func() error {
			request, err := s.repo.Get(gCtx, id)
			if err != nil {
				return fmt.Errorf("load top-up %s: %w", id, err)
			}
			loaded[i] = request
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("can't load pending top-ups", zap.Error(err))
		return nil, err
	}

	pending := make([]domain.TopupRequest, 0, len(ids))
	for i, request := range loaded {
		if request == nil {
			if err := s.repo.DropPending(ctx, ids[i]); err != nil {
				zap.L().Warn("can't drop stale pending id", zap.String("request_id", ids[i]), zap.Error(err))
			}
			continue
		}
		pending = append(pending, *request)
	}
	return pending, nil
}
