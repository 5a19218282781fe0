package clients

import (
	"net/http"
	"time"
)

const defaultTimeout = time.Second * 15

// HTTPClientI is the subset of *http.Client used by the chat API client.
type HTTPClientI interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPClient struct {
	client HTTPClientI
}

// NewHTTPClient builds a client for the chat API. Long polling holds a
// request open for pollTimeout, so the client timeout is extended by it.
func NewHTTPClient(pollTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: defaultTimeout + pollTimeout},
	}
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClient) SetClient(mock HTTPClientI) {
	h.client = mock
}
