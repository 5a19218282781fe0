package download

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/dto"
	"github.com/GlebRadaev/profilebot/pkg/mobileconfig"
	"github.com/GlebRadaev/profilebot/pkg/numeral"
	"github.com/GlebRadaev/profilebot/pkg/utils"
)

const SessionCookie = "dl_session"

type Service interface {
	Status(ctx context.Context, id string) (*domain.DownloadStatus, error)
	BindSession(ctx context.Context, id, token string) (string, error)
	FetchPayload(ctx context.Context, id, pin, token string) (*domain.DownloadRecord, error)
}

var landing = template.Must(template.New("landing").Parse(`<!doctype html>
<html lang="fa" dir="rtl">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FileName}}</title>
</head>
<body>
<h1>دریافت پروفایل</h1>
<p>دفعات باقی‌مانده: {{.DownloadsRemaining}}</p>
<p>اعتبار تا: {{.ExpiresAt.UTC.Format "2006-01-02 15:04"}} UTC</p>
<form method="get" action="/dl/{{.ID}}/file">
<label for="pin">کد PIN</label>
<input id="pin" name="pin" inputmode="numeric" autocomplete="one-time-code" required>
<button type="submit">دانلود</button>
</form>
</body>
</html>
`))

type DownloadHandler struct {
	downloadService Service
}

func New(downloadService Service) *DownloadHandler {
	return &DownloadHandler{
		downloadService: downloadService,
	}
}

// Landing godoc
//
//	@Summary		Download landing page
//	@Description	Binds the browser session to the link and shows the PIN form.
//	@Tags			Download
//	@Produce		html
//	@Param			id	path		string			true	"Link id"
//	@Success		200	{string}	string			"Landing page"
//	@Failure		404	{object}	utils.Response	"Link missing or expired"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/dl/{id} [get]
func (h *DownloadHandler) Landing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.downloadService.Status(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	session, err := h.downloadService.BindSession(r.Context(), id, sessionToken(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session,
		Path:     "/dl/" + id,
		Expires:  status.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	page := dto.DownloadPageDTO{
		ID:                 status.ID,
		FileName:           status.FileName,
		DownloadsRemaining: status.DownloadsRemaining,
		ExpiresAt:          status.ExpiresAt,
	}
	if err := landing.Execute(w, page); err != nil {
		zap.L().Error("failed to render landing page", zap.String("link_id", id), zap.Error(err))
	}
}

// File godoc
//
//	@Summary		Download the artifact
//	@Description	Releases the artifact to a bound session holding the right PIN while downloads remain.
//	@Tags			Download
//	@Produce		application/x-apple-aspen-config
//	@Param			id	path		string			true	"Link id"
//	@Param			pin	query		string			true	"PIN sent with the link"
//	@Success		200	{file}		file			"Artifact"
//	@Failure		401	{object}	utils.Response	"Wrong PIN or unbound session"
//	@Failure		404	{object}	utils.Response	"Link missing or expired"
//	@Failure		410	{object}	utils.Response	"Download limit reached"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/dl/{id}/file [get]
func (h *DownloadHandler) File(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pin := numeral.Normalize(r.URL.Query().Get("pin"))

	record, err := h.downloadService.FetchPayload(r.Context(), id, pin, sessionToken(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	name := record.FileName
	if name == "" {
		name = mobileconfig.FileName
	}
	w.Header().Set("Content-Type", mobileconfig.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(record.Payload)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", record.CreatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(record.Payload); err != nil {
		zap.L().Warn("failed to write artifact", zap.String("link_id", id), zap.Error(err))
	}
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Link not found or expired")
	case errors.Is(err, domain.ErrLimitReached):
		utils.RespondWithError(w, http.StatusGone, "Download limit reached")
	case errors.Is(err, domain.ErrUnauthorized):
		utils.RespondWithError(w, http.StatusUnauthorized, "Wrong PIN or session")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
