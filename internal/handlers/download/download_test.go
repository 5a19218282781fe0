package download

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/pkg/mobileconfig"
)

func NewMock(t *testing.T) (http.Handler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	r := chi.NewRouter()
	r.Get("/dl/{id}", handler.Landing)
	r.Get("/dl/{id}/file", handler.File)
	return r, service
}

func TestLanding(t *testing.T) {
	router, service := NewMock(t)
	expires := time.Date(2030, 1, 2, 3, 4, 0, 0, time.UTC)

	tests := []struct {
		name         string
		cookie       string
		prepareMock  func()
		expectedCode int
		expectedSet  string
	}{
		{
			name: "New session",
			prepareMock: func() {
				service.EXPECT().Status(gomock.Any(), "abc").
					Return(&domain.DownloadStatus{ID: "abc", FileName: "x.mobileconfig", DownloadsRemaining: 3, ExpiresAt: expires}, nil)
				service.EXPECT().BindSession(gomock.Any(), "abc", "").Return("tok-1", nil)
			},
			expectedCode: http.StatusOK,
			expectedSet:  "tok-1",
		},
		{
			name:   "Existing session reused",
			cookie: "tok-1",
			prepareMock: func() {
				service.EXPECT().Status(gomock.Any(), "abc").
					Return(&domain.DownloadStatus{ID: "abc", DownloadsRemaining: 2, ExpiresAt: expires}, nil)
				service.EXPECT().BindSession(gomock.Any(), "abc", "tok-1").Return("tok-1", nil)
			},
			expectedCode: http.StatusOK,
			expectedSet:  "tok-1",
		},
		{
			name: "Missing link",
			prepareMock: func() {
				service.EXPECT().Status(gomock.Any(), "abc").Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Expired between status and bind",
			prepareMock: func() {
				service.EXPECT().Status(gomock.Any(), "abc").
					Return(&domain.DownloadStatus{ID: "abc", ExpiresAt: expires}, nil)
				service.EXPECT().BindSession(gomock.Any(), "abc", "").Return("", domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Store failure",
			prepareMock: func() {
				service.EXPECT().Status(gomock.Any(), "abc").Return(nil, errors.New("boom"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, "/dl/abc", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedSet == "" {
				assert.Empty(t, w.Result().Cookies())
				return
			}
			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, SessionCookie, cookies[0].Name)
			assert.Equal(t, tt.expectedSet, cookies[0].Value)
			assert.Equal(t, "/dl/abc", cookies[0].Path)
			assert.True(t, cookies[0].HttpOnly)
			assert.Contains(t, w.Body.String(), `action="/dl/abc/file"`)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		})
	}
}

func TestFile(t *testing.T) {
	router, service := NewMock(t)
	payload := []byte("<plist/>")

	tests := []struct {
		name         string
		query        string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Successful download",
			query: "?pin=123456",
			prepareMock: func() {
				service.EXPECT().FetchPayload(gomock.Any(), "abc", "123456", "tok").
					Return(&domain.DownloadRecord{ID: "abc", FileName: mobileconfig.FileName, Payload: payload}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Localized PIN digits",
			query: "?pin=%DB%B1%DB%B2%DB%B3%DB%B4%DB%B5%DB%B6",
			prepareMock: func() {
				service.EXPECT().FetchPayload(gomock.Any(), "abc", "123456", "tok").
					Return(&domain.DownloadRecord{ID: "abc", Payload: payload}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Wrong PIN",
			query: "?pin=000000",
			prepareMock: func() {
				service.EXPECT().FetchPayload(gomock.Any(), "abc", "000000", "tok").
					Return(nil, domain.ErrUnauthorized)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:  "Limit reached",
			query: "?pin=123456",
			prepareMock: func() {
				service.EXPECT().FetchPayload(gomock.Any(), "abc", "123456", "tok").
					Return(nil, domain.ErrLimitReached)
			},
			expectedCode: http.StatusGone,
		},
		{
			name:  "Expired",
			query: "?pin=123456",
			prepareMock: func() {
				service.EXPECT().FetchPayload(gomock.Any(), "abc", "123456", "tok").
					Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, "/dl/abc/file"+tt.query, nil)
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				assert.Equal(t, payload, w.Body.Bytes())
				assert.Equal(t, mobileconfig.ContentType, w.Header().Get("Content-Type"))
				assert.Equal(t, `attachment; filename="`+mobileconfig.FileName+`"`, w.Header().Get("Content-Disposition"))
			}
		})
	}
}
