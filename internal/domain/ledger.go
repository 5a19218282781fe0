package domain

import "time"

const (
	ReasonTopupApproved      = "topup-approved"
	ReasonAdminAdjust        = "admin-adjust"
	ReasonProfileBuild       = "profile-build"
	ReasonProfileBuildRefund = "profile-build-refund"
)

type LedgerEntry struct {
	At     time.Time         `json:"at"`
	Delta  int64             `json:"delta"`
	Before int64             `json:"before"`
	After  int64             `json:"after"`
	Reason string            `json:"reason"`
	Meta   map[string]string `json:"meta,omitempty"`
}

type TopupOutcome string

const (
	TopupApproved TopupOutcome = "approved"
	TopupRejected TopupOutcome = "rejected"
)

type TopupEvent struct {
	At        time.Time    `json:"at"`
	RequestID string       `json:"request_id"`
	Amount    int64        `json:"amount"`
	Outcome   TopupOutcome `json:"outcome"`
	AdminID   int64        `json:"admin_id"`
}

type DownloadEvent struct {
	At            time.Time `json:"at"`
	LinkID        string    `json:"link_id"`
	DownloadsUsed int       `json:"downloads_used"`
}
