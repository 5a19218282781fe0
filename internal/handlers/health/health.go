package health

import (
	"net/http"
	"time"

	"github.com/GlebRadaev/profilebot/internal/dto"
	"github.com/GlebRadaev/profilebot/pkg/utils"
)

const Name = "profilebot"

type HealthHandler struct {
	store    string
	tokenSet bool
	now      func() time.Time
}

func New(store string, tokenSet bool) *HealthHandler {
	return &HealthHandler{
		store:    store,
		tokenSet: tokenSet,
		now:      time.Now,
	}
}

// Info godoc
//
//	@Summary		Service info
//	@Description	Liveness probe with the configured store backend and whether a bot token is present.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	dto.HealthResponseDTO	"Info"
//	@Router			/ [get]
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	token := "missing"
	if h.tokenSet {
		token = "set"
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.HealthResponseDTO{
		OK:       true,
		Name:     Name,
		Time:     h.now().UTC(),
		Path:     r.URL.Path,
		Store:    h.store,
		BotToken: token,
	})
}
