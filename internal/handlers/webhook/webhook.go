package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GlebRadaev/profilebot/pkg/utils"
)

const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Updater interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type WebhookHandler struct {
	updater Updater
	secret  string
}

func New(updater Updater, secret string) *WebhookHandler {
	return &WebhookHandler{
		updater: updater,
		secret:  secret,
	}
}

// Receive godoc
//
//	@Summary		Telegram webhook
//	@Description	Accepts one update from Telegram and processes it before replying.
//	@Tags			Telegram
//	@Accept			json
//	@Produce		json
//	@Param			X-Telegram-Bot-Api-Secret-Token	header		string			false	"Webhook secret"
//	@Success		200								{string}	string			"OK"
//	@Failure		400								{object}	utils.Response	"Bad JSON"
//	@Failure		401								{object}	utils.Response	"Wrong secret"
//	@Router			/telegram/webhook [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Bad JSON")
		return
	}

	// Telegram drops the connection on its own timeout; the update is
	// finished regardless.
	h.updater.HandleUpdate(context.WithoutCancel(r.Context()), update)
	utils.RespondWithJSON(w, http.StatusOK, "OK")
}
