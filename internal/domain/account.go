package domain

import (
	"math"
	"time"
)

type Account struct {
	ID              int64            `json:"id"`
	Balance         int64            `json:"balance"`
	FirstSeenAt     time.Time        `json:"first_seen_at"`
	ProfileCounters map[string]int64 `json:"profile_counters,omitempty"`
	Flow            FlowState        `json:"flow"`
	Profile         ProfileSettings  `json:"profile"`
	Notify          bool             `json:"notify"`
	Lang            string           `json:"lang,omitempty"`
	LastAction      string           `json:"last_action,omitempty"`
	LastActionAt    time.Time        `json:"last_action_at,omitempty"`
}

func NewAccount(id int64, now time.Time) *Account {
	return &Account{
		ID:              id,
		FirstSeenAt:     now,
		ProfileCounters: make(map[string]int64),
		Flow:            IdleFlow(),
		Notify:          true,
	}
}

type ProfileSettings struct {
	APN          string `json:"apn,omitempty"`
	RootUUID     string `json:"root_uuid,omitempty"`
	GodMode      bool   `json:"god_mode"`
	SelectedCIDR string `json:"selected_cidr,omitempty"`
}

// Adjustment is the outcome of a single balance mutation.
type Adjustment struct {
	Before int64
	After  int64
}

// ClampedSum never lets a balance drop below zero and saturates at
// math.MaxInt64 instead of wrapping.
func ClampedSum(before, delta int64) int64 {
	if delta > 0 && before > math.MaxInt64-delta {
		return math.MaxInt64
	}
	if delta < 0 && before < math.MinInt64-delta {
		return 0
	}
	after := before + delta
	if after < 0 {
		return 0
	}
	return after
}

type AdminAdjustResult struct {
	TargetID int64
	Delta    int64
	Balance  Adjustment
}
