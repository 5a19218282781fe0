package dto

import "time"

// DownloadPageDTO feeds the landing page template.
type DownloadPageDTO struct {
	ID                 string
	FileName           string
	DownloadsRemaining int
	ExpiresAt          time.Time
}
