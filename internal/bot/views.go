package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/pkg/mobileconfig"
	"github.com/GlebRadaev/profilebot/pkg/numeral"
)

const (
	cbMain         = "menu:main"
	cbHelp         = "menu:help"
	cbStatus       = "menu:status"
	cbSettings     = "menu:settings"
	cbBuy          = "action:buy"
	cbPaid         = "action:paid"
	cbCancel       = "action:cancel"
	cbHistory      = "action:history"
	cbToggleNotify = "action:toggle:notify"
	cbSetLang      = "action:set:lang:"
	cbPlan         = "action:plan:"
	cbProfileStart = "profile:start"
	cbProfileMenu  = "profile:menu"
	cbAPN          = "profile:apn"
	cbUUIDAuto     = "profile:uuid:auto"
	cbUUIDAsk      = "profile:uuid:ask"
	cbGodToggle    = "profile:god:toggle"
	cbCIDR         = "profile:cidr"
	cbCIDRSet      = "profile:cidr:set:"
	cbBuild        = "profile:build"
	cbAdmin        = "admin:menu"
	cbAdminPending = "admin:pending"
	cbAdminToken   = "admin:token"
	cbAdminCancel  = "admin:cancel"
)

const (
	textWelcome         = "سلام! لطفاً از دکمه‌های زیر استفاده کنید. پیام تایپی پذیرفته نمی‌شود."
	textMain            = "به منوی اصلی خوش آمدید. یکی از گزینه‌ها را انتخاب کنید:"
	textButtonsOnly     = "این ربات فقط با دکمه‌های شیشه‌ای کار می‌کند. لطفاً از دکمه‌های زیر استفاده کنید."
	textStatus          = "وضعیت اکانت شما:"
	textSettings        = "تنظیمات ربات:"
	textBuy             = "برای خرید/ارتقا اکانت از گزینه‌های زیر استفاده کنید."
	textCanceled        = "عملیات لغو شد."
	textInvalidUUID     = "UUID نامعتبر است. یک UUID نسخه ۴ معتبر ارسال کنید یا لغو کنید."
	textUUIDAccepted    = "UUID معتبر ثبت شد."
	textInvalidNumber   = "عدد نامعتبر است. دوباره ارسال کنید."
	textReceiptExpected = "لطفاً تصویر رسید را به صورت عکس یا فایل ارسال کنید."
	textNotSet          = "انتخاب نشده"
	textUnknown         = "نامشخص"
)

type View struct {
	Text   string
	Markup tgbotapi.InlineKeyboardMarkup
}

func Render(s Screen) View {
	v := render(s)
	if s.Notice != "" {
		v.Text = s.Notice + "\n\n" + v.Text
	}
	return v
}

func render(s Screen) View {
	lang := s.lang()
	money := func(n int64) string { return numeral.Format(lang, n) }

	switch s.Kind {
	case ScreenWelcome:
		return View{Text: textWelcome + "\n\n" + textMain, Markup: mainMenu(s.Admin)}

	case ScreenHelp:
		text := "راهنما:\n- فقط با دکمه‌ها کار کنید.\n" +
			"- برای افزایش موجودی یک پلن را انتخاب، مبلغ را واریز و تصویر رسید را ارسال کنید.\n" +
			fmt.Sprintf("- هزینه ساخت هر پروفایل: %s\n", money(s.Cost)) +
			"- لینک دانلود پروفایل زمان‌دار است و با رمز (PIN) باز می‌شود."
		return View{Text: text, Markup: backTo(cbMain)}

	case ScreenStatus:
		return View{Text: statusText(s, money), Markup: keyboard(
			row(button("تاریخچه تراکنش‌ها", cbHistory)),
			row(button("بازگشت به منوی اصلی", cbMain)),
		)}

	case ScreenHistory:
		return View{Text: historyText(s.History, money), Markup: backTo(cbStatus)}

	case ScreenSettings:
		return View{Text: textSettings, Markup: keyboard(
			row(button("اعلان‌ها: روشن/خاموش", cbToggleNotify)),
			row(button("زبان: فارسی", cbSetLang+"fa"), button("Language: English", cbSetLang+"en")),
			row(button("بازگشت", cbMain)),
		)}

	case ScreenNotifyToggled:
		state := "خاموش"
		if s.Enabled {
			state = "روشن"
		}
		return View{Text: "اعلان‌ها: " + state, Markup: backTo(cbMain)}

	case ScreenLangSet:
		return View{Text: fmt.Sprintf("زبان تنظیم شد: <b>%s</b>", html.EscapeString(s.Lang)), Markup: backTo(cbMain)}

	case ScreenPlans:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(s.Plans)+1)
		for _, p := range s.Plans {
			rows = append(rows, row(button(fmt.Sprintf("%s - %s", p.Name, money(p.Amount)), cbPlan+p.Name)))
		}
		rows = append(rows, row(button("بازگشت", cbMain)))
		return View{Text: textBuy, Markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}

	case ScreenPlanChosen:
		var b strings.Builder
		fmt.Fprintf(&b, "پلن انتخابی: <b>%s</b>\nمبلغ: <b>%s</b>\n\n", html.EscapeString(s.Plan.Name), money(s.Plan.Amount))
		if s.Card.Number != "" {
			fmt.Fprintf(&b, "مبلغ را به کارت زیر واریز کنید:\n<code>%s</code>\n", s.Card.Number)
			if s.Card.Holder != "" {
				fmt.Fprintf(&b, "به نام: %s\n", html.EscapeString(s.Card.Holder))
			}
			b.WriteString("\n")
		}
		b.WriteString("پس از واریز، دکمه «پرداخت کردم» را بزنید و تصویر رسید را ارسال کنید.")
		return View{Text: b.String(), Markup: keyboard(
			row(button("پرداخت کردم", cbPaid)),
			row(button("لغو", cbCancel)),
		)}

	case ScreenAwaitingReceipt:
		return View{
			Text:   fmt.Sprintf("لطفاً تصویر رسید واریز مبلغ <b>%s</b> را ارسال کنید.", money(s.Amount)),
			Markup: backToLabeled("لغو", cbCancel),
		}

	case ScreenReceiptSubmitted:
		return View{
			Text: fmt.Sprintf("رسید شما دریافت شد و پس از بررسی مدیر نتیجه اعلام می‌شود.\nشناسه درخواست: <code>%s</code>",
				s.Request.ID),
			Markup: backTo(cbMain),
		}

	case ScreenProfile:
		return profileView(s.Account)

	case ScreenAPN:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(mobileconfig.APNs)+1)
		for _, apn := range mobileconfig.APNs {
			rows = append(rows, row(button(apn.Label, cbAPN+":"+apn.Value)))
		}
		rows = append(rows, row(button("بازگشت", cbMain)))
		return View{Text: "اپراتور (APN) خود را انتخاب کنید:", Markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}

	case ScreenCIDR:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(mobileconfig.GodModeCIDRs)+1)
		for _, cidr := range mobileconfig.GodModeCIDRs {
			rows = append(rows, row(button(cidr, cbCIDRSet+cidr)))
		}
		rows = append(rows, row(button("بازگشت", cbProfileMenu)))
		return View{Text: "یک CIDR انتخاب کنید:", Markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}

	case ScreenAskUUID:
		return View{
			Text:   "لطفاً یک UUID نسخه ۴ معتبر ارسال کنید. برای لغو، از دکمه زیر استفاده کنید.",
			Markup: backToLabeled("لغو", cbProfileMenu),
		}

	case ScreenProfileBuilt:
		r := s.Build
		text := fmt.Sprintf("پروفایل ساخته شد.\n\nلینک دانلود:\n%s\nرمز (PIN): <code>%s</code>\nاعتبار تا: %s\n",
			html.EscapeString(r.URL), r.PIN, formatTime(r.ExpiresAt))
		if r.Charged > 0 {
			text += fmt.Sprintf("هزینه: %s\nموجودی فعلی: %s\n", money(r.Charged), money(r.Balance))
		}
		text += "\nلینک را در Safari باز کنید، رمز را وارد کنید و پروفایل را در iOS نصب کنید."
		return View{Text: text, Markup: backTo(cbMain)}

	case ScreenAdmin:
		return View{Text: "پنل مدیریت:", Markup: keyboard(
			row(button("افزایش موجودی", "admin:"+string(domain.AdjustIncrease)),
				button("کاهش موجودی", "admin:"+string(domain.AdjustDecrease))),
			row(button("درخواست‌های در انتظار", cbAdminPending)),
			row(button("توکن API", cbAdminToken)),
			row(button("بازگشت", cbMain)),
		)}

	case ScreenAdminTarget:
		return View{
			Text:   fmt.Sprintf("%s\nشناسه عددی کاربر را ارسال کنید:", modeTitle(s.Mode)),
			Markup: backToLabeled("لغو", cbAdminCancel),
		}

	case ScreenAdminAmount:
		return View{
			Text:   fmt.Sprintf("%s\nکاربر: <code>%d</code>\nمبلغ را ارسال کنید:", modeTitle(s.Mode), s.TargetID),
			Markup: backToLabeled("لغو", cbAdminCancel),
		}

	case ScreenAdminDone:
		r := s.Adjust
		return View{
			Text: fmt.Sprintf("موجودی کاربر <code>%d</code> به‌روزرسانی شد.\nقبل: %s\nبعد: %s",
				r.TargetID, money(r.Balance.Before), money(r.Balance.After)),
			Markup: backTo(cbAdmin),
		}

	case ScreenPending:
		return pendingView(s.Pending, money)

	case ScreenTopupResolved:
		r := s.Resolution
		verdict := "رد شد"
		if r.Decision == domain.DecisionApprove {
			verdict = "تأیید شد"
		}
		return View{
			Text: fmt.Sprintf("درخواست <code>%s</code> %s.\nکاربر: <code>%d</code>\nمبلغ: %s\nموجودی کاربر: %s",
				r.Request.ID, verdict, r.Request.AccountID, money(r.Request.Amount), money(r.Balance.After)),
			Markup: backToLabeled("درخواست‌های در انتظار", cbAdminPending),
		}

	case ScreenAdminToken:
		return View{
			Text:   fmt.Sprintf("توکن API مدیر (اعتبار تا %s):\n<code>%s</code>", formatTime(s.ExpiresAt), s.Token),
			Markup: backTo(cbAdmin),
		}

	case ScreenError:
		back := s.Back
		if back == "" {
			back = cbMain
		}
		return View{Text: errorText(s.Err), Markup: backTo(back)}
	}
	return View{Text: textMain, Markup: mainMenu(s.Admin)}
}

func statusText(s Screen, money func(int64) string) string {
	a := s.Account
	since := textUnknown
	if !a.FirstSeenAt.IsZero() {
		since = formatTime(a.FirstSeenAt)
	}
	var built int64
	for _, n := range a.ProfileCounters {
		built += n
	}
	return fmt.Sprintf("%s\n\nشناسه: <code>%d</code>\nاولین ورود: <b>%s</b>\nموجودی: <b>%s</b>\nپروفایل‌های ساخته شده: %s",
		textStatus, a.ID, since, money(a.Balance), money(built))
}

const historyLimit = 10

var reasonLabels = map[string]string{
	domain.ReasonTopupApproved:      "شارژ",
	domain.ReasonAdminAdjust:        "تنظیم مدیر",
	domain.ReasonProfileBuild:       "ساخت پروفایل",
	domain.ReasonProfileBuildRefund: "بازگشت هزینه",
}

func historyText(entries []domain.LedgerEntry, money func(int64) string) string {
	if len(entries) == 0 {
		return "تراکنشی ثبت نشده است."
	}
	var b strings.Builder
	b.WriteString("آخرین تراکنش‌ها:\n")
	for i := len(entries) - 1; i >= 0 && i >= len(entries)-historyLimit; i-- {
		e := entries[i]
		label, ok := reasonLabels[e.Reason]
		if !ok {
			label = e.Reason
		}
		sign := "+"
		if e.Delta < 0 {
			sign = "-"
		}
		delta := e.Delta
		if delta < 0 {
			delta = -delta
		}
		fmt.Fprintf(&b, "\n%s  %s%s  ← %s (%s)", formatTime(e.At), sign, money(delta), money(e.After), label)
	}
	return b.String()
}

func profileView(a *domain.Account) View {
	p := a.Profile
	apn := p.APN
	if apn == "" {
		apn = textNotSet
	}
	rootUUID := p.RootUUID
	if rootUUID == "" {
		rootUUID = textNotSet
	}
	god, godButton := "غیرفعال", "روشن"
	if p.GodMode {
		god, godButton = "فعال", "خاموش"
	}
	cidr := p.SelectedCIDR
	if cidr == "" {
		cidr = mobileconfig.DefaultCIDR
	}
	text := fmt.Sprintf("تنظیم پروفایل iOS\n\nاپراتور (APN): %s\nUUID ریشه: %s\nGod Mode: %s\nCIDR: %s\n\nمراحل را تکمیل و سپس ساخت پروفایل را بزنید.",
		html.EscapeString(apn), html.EscapeString(rootUUID), god, cidr)
	return View{Text: text, Markup: keyboard(
		row(button("انتخاب اپراتور", cbAPN)),
		row(button("ساخت UUID", cbUUIDAuto), button("ثبت UUID دستی", cbUUIDAsk)),
		row(button("God Mode: "+godButton, cbGodToggle), button("انتخاب CIDR", cbCIDR)),
		row(button("ساخت و ارسال پروفایل", cbBuild)),
		row(button("بازگشت به منو", cbMain)),
	)}
}

const pendingButtonsLimit = 10

func pendingView(pending []domain.TopupRequest, money func(int64) string) View {
	if len(pending) == 0 {
		return View{Text: "درخواستی در انتظار بررسی نیست.", Markup: backTo(cbAdmin)}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "درخواست‌های در انتظار: %s\n", money(int64(len(pending))))
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, pendingButtonsLimit+1)
	for i, r := range pending {
		short := shortID(r.ID)
		fmt.Fprintf(&b, "\n%s | کاربر <code>%d</code> | %s | %s", short, r.AccountID, money(r.Amount), formatTime(r.CreatedAt))
		if i < pendingButtonsLimit {
			rows = append(rows, row(
				button("تأیید "+short, domain.TopupActionData(domain.DecisionApprove, r.ID)),
				button("رد "+short, domain.TopupActionData(domain.DecisionReject, r.ID)),
			))
		}
	}
	rows = append(rows, row(button("بازگشت", cbAdmin)))
	return View{Text: b.String(), Markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func modeTitle(mode domain.AdjustMode) string {
	if mode == domain.AdjustDecrease {
		return "کاهش موجودی"
	}
	return "افزایش موجودی"
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "شما به این بخش دسترسی ندارید."
	case errors.Is(err, domain.ErrInvalidInput):
		return "ورودی نامعتبر است."
	case errors.Is(err, domain.ErrNotAwaitingReceipt):
		return "در حال حاضر منتظر رسید نیستیم."
	case errors.Is(err, domain.ErrAlreadyResolved):
		return "این درخواست قبلاً بررسی شده است."
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "موجودی شما کافی نیست. ابتدا حساب خود را شارژ کنید."
	case errors.Is(err, domain.ErrNoActiveFlow):
		return "عملیات فعالی وجود ندارد. از ابتدا شروع کنید."
	case errors.Is(err, domain.ErrProfileIncomplete):
		return "ابتدا اپراتور و UUID معتبر را تنظیم کنید."
	case errors.Is(err, domain.ErrNotFound):
		return "لینک یافت نشد یا منقضی شده است."
	case errors.Is(err, domain.ErrLimitReached):
		return "سقف دانلود این لینک پر شده است."
	}
	return "خطایی رخ داد. لطفاً دوباره تلاش کنید."
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func mainMenu(admin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button("خرید / ارتقا اکانت", cbBuy)),
		row(button("دریافت پروفایل", cbProfileStart)),
		row(button("وضعیت اکانت", cbStatus), button("تنظیمات", cbSettings)),
		row(button("راهنما", cbHelp)),
	}
	if admin {
		rows = append(rows, row(button("پنل مدیریت", cbAdmin)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backTo(data string) tgbotapi.InlineKeyboardMarkup {
	label := "بازگشت"
	if data == cbMain {
		label = "بازگشت به منوی اصلی"
	}
	return backToLabeled(label, data)
}

func backToLabeled(label, data string) tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(button(label, data)))
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func button(label, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}
