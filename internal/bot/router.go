package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/domain"
)

type EventKind string

const (
	EventMenuAction EventKind = "menu_action"
	EventFreeText   EventKind = "free_text"
	EventFileUpload EventKind = "file_upload"
)

// Event is an inbound update reduced to what the workflows need.
type Event struct {
	Kind       EventKind
	AccountID  int64
	ChatID     int64
	MessageID  int
	CallbackID string
	// Editable is set when the pressed button belongs to a text message that
	// can be replaced in place.
	Editable bool
	Data     string
	Text     string
	File     *domain.Attachment
}

// Classify maps an update to an event. Updates without a sender are ignored.
func Classify(update tgbotapi.Update) (Event, bool) {
	if cq := update.CallbackQuery; cq != nil && cq.From != nil {
		ev := Event{
			Kind:       EventMenuAction,
			AccountID:  cq.From.ID,
			ChatID:     cq.From.ID,
			CallbackID: cq.ID,
			Data:       cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
			ev.Editable = cq.Message.Text != ""
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return Event{}, false
	}
	ev := Event{
		AccountID: msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	switch {
	case len(msg.Photo) > 0:
		ev.Kind = EventFileUpload
		ev.File = &domain.Attachment{Kind: domain.AttachmentPhoto, Ref: msg.Photo[len(msg.Photo)-1].FileID}
	case msg.Document != nil:
		ev.Kind = EventFileUpload
		ev.File = &domain.Attachment{Kind: domain.AttachmentDocument, Ref: msg.Document.FileID}
	default:
		ev.Kind = EventFreeText
		ev.Text = strings.TrimSpace(msg.Text)
	}
	return ev, true
}

// Dispatch runs the workflow step for ev and describes the resulting screen.
func (b *Bot) Dispatch(ctx context.Context, ev Event) Screen {
	var screen Screen
	switch ev.Kind {
	case EventMenuAction:
		screen = b.onMenuAction(ctx, ev)
	case EventFileUpload:
		screen = b.onFileUpload(ctx, ev)
	default:
		screen = b.onFreeText(ctx, ev)
	}
	screen.Admin = b.svc.Admin.IsAdmin(ev.AccountID)
	return screen
}

func (b *Bot) onMenuAction(ctx context.Context, ev Event) Screen {
	account, err := b.svc.Accounts.RecordAction(ctx, ev.AccountID, ev.Data)
	if err != nil {
		return errorScreen(err, cbMain)
	}

	scope, rest, _ := strings.Cut(ev.Data, ":")
	switch scope {
	case "menu":
		return b.onMenu(account, rest)
	case "action":
		return b.onAction(ctx, account, rest)
	case "profile":
		return b.onProfile(ctx, account, rest)
	case "topup":
		return b.onTopupDecision(ctx, account, rest)
	case "admin":
		return b.onAdmin(ctx, account, rest)
	}
	return Screen{Kind: ScreenMain, Account: account}
}

func (b *Bot) onMenu(account *domain.Account, rest string) Screen {
	switch rest {
	case "help":
		return Screen{Kind: ScreenHelp, Account: account, Cost: b.svc.Profiles.Cost()}
	case "status":
		return Screen{Kind: ScreenStatus, Account: account}
	case "settings":
		return Screen{Kind: ScreenSettings, Account: account}
	}
	return Screen{Kind: ScreenMain, Account: account}
}

func (b *Bot) onAction(ctx context.Context, account *domain.Account, rest string) Screen {
	switch {
	case rest == "buy":
		return Screen{Kind: ScreenPlans, Account: account, Plans: b.opts.Plans}

	case strings.HasPrefix(rest, "plan:"):
		plan, ok := config.FindPlan(b.opts.Plans, strings.TrimPrefix(rest, "plan:"))
		if !ok {
			return Screen{Kind: ScreenPlans, Account: account, Plans: b.opts.Plans}
		}
		if err := b.svc.Topups.ChooseAmount(ctx, account.ID, plan.Amount); err != nil {
			return errorScreen(err, cbBuy)
		}
		return Screen{Kind: ScreenPlanChosen, Account: account, Plan: plan, Card: b.card()}

	case rest == "paid":
		if account.Flow.Kind != domain.FlowAmountChosen {
			return errorScreen(domain.ErrNoActiveFlow, cbBuy)
		}
		amount := account.Flow.Amount
		if err := b.svc.Topups.BeginAwaitingReceipt(ctx, account.ID, amount); err != nil {
			return errorScreen(err, cbBuy)
		}
		return Screen{Kind: ScreenAwaitingReceipt, Account: account, Amount: amount}

	case rest == "cancel":
		if err := b.svc.Admin.Cancel(ctx, account.ID); err != nil {
			return errorScreen(err, cbMain)
		}
		return Screen{Kind: ScreenMain, Account: account, Notice: textCanceled}

	case rest == "history":
		entries, err := b.svc.Balance.History(ctx, account.ID)
		if err != nil {
			return errorScreen(err, cbStatus)
		}
		return Screen{Kind: ScreenHistory, Account: account, History: entries}

	case rest == "toggle:notify":
		enabled, err := b.svc.Accounts.ToggleNotify(ctx, account.ID)
		if err != nil {
			return errorScreen(err, cbSettings)
		}
		return Screen{Kind: ScreenNotifyToggled, Account: account, Enabled: enabled}

	case strings.HasPrefix(rest, "set:lang:"):
		lang := strings.TrimPrefix(rest, "set:lang:")
		if err := b.svc.Accounts.SetLang(ctx, account.ID, lang); err != nil {
			return errorScreen(err, cbSettings)
		}
		account.Lang = lang
		return Screen{Kind: ScreenLangSet, Account: account, Lang: lang}
	}
	return Screen{Kind: ScreenMain, Account: account}
}

func (b *Bot) onProfile(ctx context.Context, account *domain.Account, rest string) Screen {
	var (
		updated *domain.Account
		err     error
	)
	switch {
	case rest == "start" || rest == "apn":
		return Screen{Kind: ScreenAPN, Account: account}
	case rest == "cidr":
		return Screen{Kind: ScreenCIDR, Account: account}
	case rest == "uuid:ask":
		if err := b.svc.Profiles.AskUUID(ctx, account.ID); err != nil {
			return errorScreen(err, cbProfileMenu)
		}
		return Screen{Kind: ScreenAskUUID, Account: account}
	case rest == "build":
		return b.build(ctx, account)
	case strings.HasPrefix(rest, "apn:"):
		updated, err = b.svc.Profiles.SetAPN(ctx, account.ID, strings.TrimPrefix(rest, "apn:"))
	case strings.HasPrefix(rest, "cidr:set:"):
		updated, err = b.svc.Profiles.SetCIDR(ctx, account.ID, strings.TrimPrefix(rest, "cidr:set:"))
	case rest == "uuid:auto":
		updated, err = b.svc.Profiles.GenerateUUID(ctx, account.ID)
	case rest == "god:toggle":
		updated, err = b.svc.Profiles.ToggleGodMode(ctx, account.ID)
	default:
		updated, err = b.svc.Profiles.Settings(ctx, account.ID)
	}
	if err != nil {
		return errorScreen(err, cbProfileMenu)
	}
	return Screen{Kind: ScreenProfile, Account: updated}
}

func (b *Bot) build(ctx context.Context, account *domain.Account) Screen {
	result, err := b.svc.Profiles.Build(ctx, account.ID)
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return errorScreen(err, cbBuy)
	case err != nil:
		return errorScreen(err, cbProfileMenu)
	}
	return Screen{Kind: ScreenProfileBuilt, Account: account, Build: result}
}

func (b *Bot) onTopupDecision(ctx context.Context, account *domain.Account, rest string) Screen {
	decision, requestID, ok := strings.Cut(rest, ":")
	if !ok || requestID == "" {
		return Screen{Kind: ScreenMain, Account: account}
	}
	resolution, err := b.svc.Topups.Resolve(ctx, requestID, domain.Decision(decision), account.ID)
	if err != nil {
		return errorScreen(err, cbAdminPending)
	}
	return Screen{Kind: ScreenTopupResolved, Account: account, Resolution: resolution}
}

func (b *Bot) onAdmin(ctx context.Context, account *domain.Account, rest string) Screen {
	if !b.svc.Admin.IsAdmin(account.ID) {
		return errorScreen(domain.ErrUnauthorized, cbMain)
	}
	switch rest {
	case string(domain.AdjustIncrease), string(domain.AdjustDecrease):
		mode := domain.AdjustMode(rest)
		if err := b.svc.Admin.StartAdjust(ctx, account.ID, mode); err != nil {
			return errorScreen(err, cbAdmin)
		}
		return Screen{Kind: ScreenAdminTarget, Account: account, Mode: mode}
	case "pending":
		pending, err := b.svc.Topups.Pending(ctx, account.ID)
		if err != nil {
			return errorScreen(err, cbAdmin)
		}
		return Screen{Kind: ScreenPending, Account: account, Pending: pending}
	case "token":
		expiresAt := b.now().Add(b.opts.TokenTTL)
		token, err := b.svc.Tokens.GenerateJWT(account.ID, expiresAt)
		if err != nil {
			return errorScreen(err, cbAdmin)
		}
		return Screen{Kind: ScreenAdminToken, Account: account, Token: token, ExpiresAt: expiresAt}
	case "cancel":
		if err := b.svc.Admin.Cancel(ctx, account.ID); err != nil {
			return errorScreen(err, cbAdmin)
		}
	}
	return Screen{Kind: ScreenAdmin, Account: account}
}

// onFreeText feeds typed text into the active input flow. Outside a flow
// text is not accepted and the main menu is shown again.
func (b *Bot) onFreeText(ctx context.Context, ev Event) Screen {
	account, err := b.svc.Accounts.Touch(ctx, ev.AccountID)
	if err != nil {
		return errorScreen(err, cbMain)
	}

	switch account.Flow.Kind {
	case domain.FlowAwaitingUUID:
		updated, err := b.svc.Profiles.ProvideUUID(ctx, account.ID, ev.Text)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return Screen{Kind: ScreenAskUUID, Account: account, Notice: textInvalidUUID}
		case err != nil:
			return errorScreen(err, cbProfileMenu)
		}
		return Screen{Kind: ScreenProfile, Account: updated, Notice: textUUIDAccepted}

	case domain.FlowAdminAdjust:
		return b.onAdjustInput(ctx, account, ev.Text)

	case domain.FlowAwaitingReceipt:
		return Screen{Kind: ScreenAwaitingReceipt, Account: account, Amount: account.Flow.Amount, Notice: textReceiptExpected}
	}
	if ev.Text == "" || strings.HasPrefix(ev.Text, "/start") {
		return Screen{Kind: ScreenWelcome, Account: account}
	}
	return Screen{Kind: ScreenMain, Account: account, Notice: textButtonsOnly}
}

func (b *Bot) onAdjustInput(ctx context.Context, account *domain.Account, text string) Screen {
	mode := account.Flow.Mode
	if account.Flow.Step == domain.AdjustStepTarget {
		target, err := b.svc.Admin.ProvideTargetID(ctx, account.ID, text)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return Screen{Kind: ScreenAdminTarget, Account: account, Mode: mode, Notice: textInvalidNumber}
		case err != nil:
			return errorScreen(err, cbAdmin)
		}
		return Screen{Kind: ScreenAdminAmount, Account: account, Mode: mode, TargetID: target}
	}

	result, err := b.svc.Admin.ProvideAmount(ctx, account.ID, text)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return Screen{Kind: ScreenAdminAmount, Account: account, Mode: mode, TargetID: account.Flow.TargetID, Notice: textInvalidNumber}
	case err != nil:
		return errorScreen(err, cbAdmin)
	}
	return Screen{Kind: ScreenAdminDone, Account: account, Adjust: result}
}

func (b *Bot) onFileUpload(ctx context.Context, ev Event) Screen {
	account, err := b.svc.Accounts.Touch(ctx, ev.AccountID)
	if err != nil {
		return errorScreen(err, cbMain)
	}
	if _, awaiting := account.Flow.AwaitingReceipt(); !awaiting {
		return Screen{Kind: ScreenMain, Account: account, Notice: textButtonsOnly}
	}

	request, err := b.svc.Topups.SubmitReceipt(ctx, account.ID, ev.ChatID, *ev.File)
	switch {
	case errors.Is(err, domain.ErrNotAwaitingReceipt):
		return Screen{Kind: ScreenMain, Account: account, Notice: textButtonsOnly}
	case err != nil:
		return errorScreen(err, cbMain)
	}
	return Screen{Kind: ScreenReceiptSubmitted, Account: account, Request: request}
}

func (b *Bot) card() Card {
	return Card{Number: b.opts.CardNumber, Holder: b.opts.CardHolder}
}
