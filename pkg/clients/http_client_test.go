package clients

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	err error
}

func (s *stubClient) Do(*http.Request) (*http.Response, error) {
	return nil, s.err
}

func TestHTTPClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestHTTPClient_SetClient(t *testing.T) {
	client := NewHTTPClient(0)
	boom := errors.New("boom")
	client.SetClient(&stubClient{err: boom})

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", http.NoBody)
	_, err := client.Do(req)
	assert.ErrorIs(t, err, boom)
}
