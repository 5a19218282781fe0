package domain

import (
	"slices"
	"time"
)

type DownloadRecord struct {
	ID             string    `json:"id"`
	OwnerAccountID int64     `json:"owner_account_id"`
	Payload        []byte    `json:"payload"`
	FileName       string    `json:"file_name"`
	PinHash        string    `json:"pin_hash"`
	Sessions       []string  `json:"sessions"`
	DownloadsUsed  int       `json:"downloads_used"`
	MaxDownloads   int       `json:"max_downloads"`
	UsedUp         bool      `json:"used_up"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (r *DownloadRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *DownloadRecord) Exhausted() bool {
	return r.UsedUp || r.DownloadsUsed >= r.MaxDownloads
}

func (r *DownloadRecord) HasSession(token string) bool {
	return token != "" && slices.Contains(r.Sessions, token)
}

type IssuedLink struct {
	ID        string
	PIN       string
	ExpiresAt time.Time
}

type DownloadStatus struct {
	ID                 string
	FileName           string
	DownloadsRemaining int
	ExpiresAt          time.Time
}
