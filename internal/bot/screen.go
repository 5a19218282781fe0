package bot

import (
	"time"

	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/service/profileservice"
)

// ScreenKind selects the view. Each kind reads only its own fields of Screen.
type ScreenKind string

const (
	ScreenWelcome          ScreenKind = "welcome"
	ScreenMain             ScreenKind = "main"
	ScreenHelp             ScreenKind = "help"
	ScreenStatus           ScreenKind = "status"
	ScreenHistory          ScreenKind = "history"
	ScreenSettings         ScreenKind = "settings"
	ScreenNotifyToggled    ScreenKind = "notify_toggled"
	ScreenLangSet          ScreenKind = "lang_set"
	ScreenPlans            ScreenKind = "plans"
	ScreenPlanChosen       ScreenKind = "plan_chosen"
	ScreenAwaitingReceipt  ScreenKind = "awaiting_receipt"
	ScreenReceiptSubmitted ScreenKind = "receipt_submitted"
	ScreenProfile          ScreenKind = "profile"
	ScreenAPN              ScreenKind = "apn"
	ScreenCIDR             ScreenKind = "cidr"
	ScreenAskUUID          ScreenKind = "ask_uuid"
	ScreenProfileBuilt     ScreenKind = "profile_built"
	ScreenAdmin            ScreenKind = "admin"
	ScreenAdminTarget      ScreenKind = "admin_target"
	ScreenAdminAmount      ScreenKind = "admin_amount"
	ScreenAdminDone        ScreenKind = "admin_done"
	ScreenPending          ScreenKind = "pending"
	ScreenTopupResolved    ScreenKind = "topup_resolved"
	ScreenAdminToken       ScreenKind = "admin_token"
	ScreenError            ScreenKind = "error"
)

type Card struct {
	Number string
	Holder string
}

type Screen struct {
	Kind    ScreenKind
	Account *domain.Account
	Admin   bool
	Notice  string

	Err  error
	Back string

	Plans   []config.Plan
	Plan    config.Plan
	Card    Card
	Amount  int64
	Request *domain.TopupRequest

	Enabled bool
	Lang    string
	History []domain.LedgerEntry

	Cost  int64
	Build *profileservice.BuildResult

	Mode       domain.AdjustMode
	TargetID   int64
	Adjust     *domain.AdminAdjustResult
	Pending    []domain.TopupRequest
	Resolution *domain.TopupResolution
	Token      string
	ExpiresAt  time.Time
}

func errorScreen(err error, back string) Screen {
	return Screen{Kind: ScreenError, Err: err, Back: back}
}

func (s Screen) lang() string {
	if s.Account != nil && s.Account.Lang != "" {
		return s.Account.Lang
	}
	return "fa"
}
