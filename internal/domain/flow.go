package domain

// FlowKind tags the multi-step input an account is currently in.
type FlowKind string

const (
	FlowIdle            FlowKind = "idle"
	FlowAmountChosen    FlowKind = "amount_chosen"
	FlowAwaitingReceipt FlowKind = "awaiting_receipt"
	FlowAdminAdjust     FlowKind = "admin_adjust"
	FlowAwaitingUUID    FlowKind = "awaiting_uuid"
)

type AdjustStep string

const (
	AdjustStepTarget AdjustStep = "target"
	AdjustStepAmount AdjustStep = "amount"
)

type AdjustMode string

const (
	AdjustIncrease AdjustMode = "increase"
	AdjustDecrease AdjustMode = "decrease"
)

func (m AdjustMode) Valid() bool {
	return m == AdjustIncrease || m == AdjustDecrease
}

// FlowState is a tagged union. Only the fields belonging to Kind are set;
// build values with the constructors below.
type FlowState struct {
	Kind     FlowKind   `json:"kind"`
	Amount   int64      `json:"amount,omitempty"`
	Step     AdjustStep `json:"step,omitempty"`
	Mode     AdjustMode `json:"mode,omitempty"`
	TargetID int64      `json:"target_id,omitempty"`
}

func IdleFlow() FlowState {
	return FlowState{Kind: FlowIdle}
}

func AmountChosenFlow(amount int64) FlowState {
	return FlowState{Kind: FlowAmountChosen, Amount: amount}
}

func AwaitingReceiptFlow(expectedAmount int64) FlowState {
	return FlowState{Kind: FlowAwaitingReceipt, Amount: expectedAmount}
}

func AdminTargetFlow(mode AdjustMode) FlowState {
	return FlowState{Kind: FlowAdminAdjust, Step: AdjustStepTarget, Mode: mode}
}

func AdminAmountFlow(mode AdjustMode, targetID int64) FlowState {
	return FlowState{Kind: FlowAdminAdjust, Step: AdjustStepAmount, Mode: mode, TargetID: targetID}
}

func AwaitingUUIDFlow() FlowState {
	return FlowState{Kind: FlowAwaitingUUID}
}

// IsIdle also covers documents written before the flow field existed.
func (f FlowState) IsIdle() bool {
	return f.Kind == FlowIdle || f.Kind == ""
}

func (f FlowState) AwaitingReceipt() (int64, bool) {
	if f.Kind != FlowAwaitingReceipt {
		return 0, false
	}
	return f.Amount, true
}

func (f FlowState) AdminStep() (AdjustStep, bool) {
	if f.Kind != FlowAdminAdjust {
		return "", false
	}
	return f.Step, true
}
