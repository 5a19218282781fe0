package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T, secret string) (*WebhookHandler, *MockUpdater) {
	ctrl := gomock.NewController(t)
	updater := NewMockUpdater(ctrl)
	return New(updater, secret), updater
}

func TestReceive(t *testing.T) {
	tests := []struct {
		name         string
		secret       string
		header       string
		body         string
		prepareMock  func(u *MockUpdater)
		expectedCode int
	}{
		{
			name:   "Update handled",
			secret: "s3cret",
			header: "s3cret",
			body:   `{"update_id":10,"message":{"message_id":1,"text":"/start","chat":{"id":5},"from":{"id":5}}}`,
			prepareMock: func(u *MockUpdater) {
				u.EXPECT().HandleUpdate(gomock.Any(), gomock.Any()).
					Do(func(_ any, update tgbotapi.Update) {
						assert.Equal(t, 10, update.UpdateID)
						assert.Equal(t, "/start", update.Message.Text)
					})
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Wrong secret",
			secret:       "s3cret",
			header:       "guess",
			body:         `{"update_id":10}`,
			prepareMock:  func(u *MockUpdater) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Missing secret",
			secret:       "s3cret",
			body:         `{"update_id":10}`,
			prepareMock:  func(u *MockUpdater) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Bad JSON",
			secret:       "s3cret",
			header:       "s3cret",
			body:         `{`,
			prepareMock:  func(u *MockUpdater) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "No secret configured",
			body: `{"update_id":11}`,
			prepareMock: func(u *MockUpdater) {
				u.EXPECT().HandleUpdate(gomock.Any(), gomock.Any())
			},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, updater := NewMock(t, tt.secret)
			tt.prepareMock(updater)
			r := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(tt.body))
			if tt.header != "" {
				r.Header.Set(SecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.Receive(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
