package domain

import "time"

type TopupRequest struct {
	ID           string         `json:"id"`
	AccountID    int64          `json:"account_id"`
	ChatID       int64          `json:"chat_id"`
	Amount       int64          `json:"amount"`
	EvidenceRef  string         `json:"evidence_ref"`
	EvidenceKind AttachmentKind `json:"evidence_kind,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// TopupActionData is the callback payload of the admin's approve/reject buttons.
func TopupActionData(d Decision, requestID string) string {
	return "topup:" + string(d) + ":" + requestID
}

type TopupResolution struct {
	Request  TopupRequest
	Decision Decision
	Balance  Adjustment
}
