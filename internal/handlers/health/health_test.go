package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/profilebot/internal/dto"
)

func TestInfo(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name     string
		store    string
		tokenSet bool
		expected dto.HealthResponseDTO
	}{
		{
			name:     "Token set",
			store:    "redis",
			tokenSet: true,
			expected: dto.HealthResponseDTO{OK: true, Name: Name, Time: now, Path: "/", Store: "redis", BotToken: "set"},
		},
		{
			name:     "Token missing",
			store:    "postgres",
			expected: dto.HealthResponseDTO{OK: true, Name: Name, Time: now, Path: "/", Store: "postgres", BotToken: "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.store, tt.tokenSet)
			h.now = func() time.Time { return now }
			w := httptest.NewRecorder()
			h.Info(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			var body dto.HealthResponseDTO
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expected, body)
		})
	}
}
