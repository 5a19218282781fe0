package dto

import "time"

type HealthResponseDTO struct {
	OK       bool      `json:"ok"`
	Name     string    `json:"name"`
	Time     time.Time `json:"time"`
	Path     string    `json:"path"`
	Store    string    `json:"store"`
	BotToken string    `json:"bot_token"`
}
