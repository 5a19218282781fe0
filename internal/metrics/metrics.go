package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BotUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_bot_updates_total",
		Help: "Inbound chat updates by event kind",
	}, []string{"kind"})

	BalanceAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_balance_adjustments_total",
		Help: "Balance mutations by ledger reason",
	}, []string{"reason"})

	TopupsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profilebot_topups_submitted_total",
		Help: "Top-up receipts submitted for review",
	})

	TopupsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_topups_resolved_total",
		Help: "Top-up requests resolved by decision",
	}, []string{"decision"})

	ProfilesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_profiles_built_total",
		Help: "Configuration profiles built by APN",
	}, []string{"apn"})

	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_downloads_total",
		Help: "Artifact fetch attempts by result",
	}, []string{"result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebot_notifications_total",
		Help: "Outbound notifications by result",
	}, []string{"result"})
)
