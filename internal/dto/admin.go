package dto

import "time"

type TopupDTO struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	Amount    int64     `json:"amount"`
	Evidence  string    `json:"evidence_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ResolutionDTO struct {
	ID            string `json:"id"`
	AccountID     int64  `json:"account_id"`
	Decision      string `json:"decision"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
}
