package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotAwaitingReceipt = errors.New("not awaiting receipt")
	ErrAlreadyResolved    = errors.New("top-up request already resolved")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotFound           = errors.New("not found or expired")
	ErrLimitReached       = errors.New("download limit reached")
	ErrNoActiveFlow       = errors.New("no active input flow")
	ErrProfileIncomplete  = errors.New("profile settings incomplete")

	// ErrLedgerNotRecorded means the balance change was stored but its
	// ledger entry was not.
	ErrLedgerNotRecorded = errors.New("ledger entry not recorded")
)
