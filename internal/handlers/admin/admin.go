package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/dto"
	"github.com/GlebRadaev/profilebot/pkg/auth"
	"github.com/GlebRadaev/profilebot/pkg/utils"
)

type Service interface {
	Pending(ctx context.Context, actingAdminID int64) ([]domain.TopupRequest, error)
	Resolve(ctx context.Context, requestID string, decision domain.Decision, actingAdminID int64) (*domain.TopupResolution, error)
}

type AdminHandler struct {
	topupService Service
}

func New(topupService Service) *AdminHandler {
	return &AdminHandler{
		topupService: topupService,
	}
}

// GetPending godoc
//
//	@Summary		List pending top-ups
//	@Description	Unresolved top-up requests in submission order.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TopupDTO	"Pending requests"
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Failure		403	{object}	utils.Response	"Not the admin"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/topups [get]
func (h *AdminHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	pending, err := h.topupService.Pending(r.Context(), adminID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	response := make([]dto.TopupDTO, len(pending))
	for i, p := range pending {
		response[i] = dto.TopupDTO{
			ID:        p.ID,
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Evidence:  string(p.EvidenceKind),
			CreatedAt: p.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Approve godoc
//
//	@Summary		Approve a top-up
//	@Description	Credits the requested amount to the requester.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string				true	"Request id"
//	@Success		200	{object}	dto.ResolutionDTO	"Resolution"
//	@Failure		401	{object}	utils.Response		"Not authorized"
//	@Failure		403	{object}	utils.Response		"Not the admin"
//	@Failure		409	{object}	utils.Response		"Already resolved"
//	@Failure		500	{object}	utils.Response		"Internal server error"
//	@Router			/api/admin/topups/{id}/approve [post]
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.DecisionApprove)
}

// Reject godoc
//
//	@Summary		Reject a top-up
//	@Description	Closes the request without changing the balance.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string				true	"Request id"
//	@Success		200	{object}	dto.ResolutionDTO	"Resolution"
//	@Failure		401	{object}	utils.Response		"Not authorized"
//	@Failure		403	{object}	utils.Response		"Not the admin"
//	@Failure		409	{object}	utils.Response		"Already resolved"
//	@Failure		500	{object}	utils.Response		"Internal server error"
//	@Router			/api/admin/topups/{id}/reject [post]
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.DecisionReject)
}

func (h *AdminHandler) resolve(w http.ResponseWriter, r *http.Request, decision domain.Decision) {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resolution, err := h.topupService.Resolve(r.Context(), chi.URLParam(r, "id"), decision, adminID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ResolutionDTO{
		ID:            resolution.Request.ID,
		AccountID:     resolution.Request.AccountID,
		Decision:      string(resolution.Decision),
		Amount:        resolution.Request.Amount,
		BalanceBefore: resolution.Balance.Before,
		BalanceAfter:  resolution.Balance.After,
	})
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyResolved):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
