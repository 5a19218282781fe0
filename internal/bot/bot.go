// Package bot turns chat updates into workflow calls and renders the
// resulting screens as inline-keyboard messages.
package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
	"github.com/GlebRadaev/profilebot/internal/service/profileservice"
)

type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type AccountService interface {
	Touch(ctx context.Context, accountID int64) (*domain.Account, error)
	RecordAction(ctx context.Context, accountID int64, action string) (*domain.Account, error)
	ToggleNotify(ctx context.Context, accountID int64) (bool, error)
	SetLang(ctx context.Context, accountID int64, lang string) error
}

type BalanceService interface {
	History(ctx context.Context, accountID int64) ([]domain.LedgerEntry, error)
}

type TopupService interface {
	ChooseAmount(ctx context.Context, accountID, amount int64) error
	BeginAwaitingReceipt(ctx context.Context, accountID, amount int64) error
	SubmitReceipt(ctx context.Context, accountID, chatID int64, evidence domain.Attachment) (*domain.TopupRequest, error)
	Resolve(ctx context.Context, requestID string, decision domain.Decision, actingAdminID int64) (*domain.TopupResolution, error)
	Pending(ctx context.Context, actingAdminID int64) ([]domain.TopupRequest, error)
}

type AdminService interface {
	IsAdmin(accountID int64) bool
	StartAdjust(ctx context.Context, adminID int64, mode domain.AdjustMode) error
	ProvideTargetID(ctx context.Context, adminID int64, raw string) (int64, error)
	ProvideAmount(ctx context.Context, adminID int64, raw string) (*domain.AdminAdjustResult, error)
	Cancel(ctx context.Context, accountID int64) error
}

type ProfileService interface {
	Cost() int64
	Settings(ctx context.Context, accountID int64) (*domain.Account, error)
	SetAPN(ctx context.Context, accountID int64, apn string) (*domain.Account, error)
	GenerateUUID(ctx context.Context, accountID int64) (*domain.Account, error)
	AskUUID(ctx context.Context, accountID int64) error
	ProvideUUID(ctx context.Context, accountID int64, raw string) (*domain.Account, error)
	ToggleGodMode(ctx context.Context, accountID int64) (*domain.Account, error)
	SetCIDR(ctx context.Context, accountID int64, cidr string) (*domain.Account, error)
	Build(ctx context.Context, accountID int64) (*profileservice.BuildResult, error)
}

type TokenIssuer interface {
	GenerateJWT(adminID int64, expirationTime time.Time) (string, error)
}

type Services struct {
	Accounts AccountService
	Balance  BalanceService
	Topups   TopupService
	Admin    AdminService
	Profiles ProfileService
	Tokens   TokenIssuer
}

type Options struct {
	Plans       []config.Plan
	CardNumber  string
	CardHolder  string
	TokenTTL    time.Duration
	PollTimeout time.Duration
}

type Bot struct {
	api  API
	svc  Services
	opts Options
	now  func() time.Time
}

func New(api API, svc Services, opts Options) *Bot {
	return &Bot{
		api:  api,
		svc:  svc,
		opts: opts,
		now:  time.Now,
	}
}

// Run long-polls for updates until ctx is done. Updates are handled one at a
// time so a user's presses apply in order.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.opts.PollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)
	zap.L().Info("bot polling started", zap.Int("timeout", u.Timeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			zap.L().Info("context canceled, stopping bot polling")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := Classify(update)
	if !ok {
		return
	}
	metrics.BotUpdates.WithLabelValues(string(ev.Kind)).Inc()

	if ev.Kind == EventMenuAction {
		if _, err := b.api.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
			zap.L().Debug("can't answer callback", zap.String("callback_id", ev.CallbackID), zap.Error(err))
		}
	}

	screen := b.Dispatch(ctx, ev)
	if screen.Kind == ScreenError {
		zap.L().Debug("workflow error", zap.Int64("account_id", ev.AccountID), zap.String("data", ev.Data), zap.Error(screen.Err))
	}
	if err := b.deliver(ev, Render(screen)); err != nil {
		zap.L().Warn("can't deliver screen", zap.Int64("chat_id", ev.ChatID), zap.String("screen", string(screen.Kind)), zap.Error(err))
	}
}

// deliver edits the message holding the pressed button when possible and
// sends a new message otherwise.
func (b *Bot) deliver(ev Event, v View) error {
	if ev.Kind == EventMenuAction && ev.Editable {
		edit := tgbotapi.NewEditMessageTextAndMarkup(ev.ChatID, ev.MessageID, v.Text, v.Markup)
		edit.ParseMode = tgbotapi.ModeHTML
		_, err := b.api.Send(edit)
		if err == nil || strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		zap.L().Debug("edit failed, sending a new message", zap.Error(err))
	}

	msg := tgbotapi.NewMessage(ev.ChatID, v.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = v.Markup
	_, err := b.api.Send(msg)
	return err
}
