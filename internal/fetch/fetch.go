// Package fetch implements the blocking HTTP GET collaborator the
// Download and DownloadImpure operations depend on.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dirtabase/dirtabase/internal/errs"
)

// Fetcher streams a URL's response body. Callers must close the returned
// ReadCloser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPClient fetches over the network with a bounded timeout, mirroring
// the request construction the teacher's GitHub API client uses.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a Fetcher with a sane default timeout.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: 2 * time.Minute}}
}

// Fetch performs a GET and returns the response body unread, for the
// caller to stream into the CAS. A non-2xx status is an error.
func (h *HTTPClient) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.E("fetch.Fetch", errs.InvalidArgument, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errs.E("fetch.Fetch", errs.IO, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.E("fetch.Fetch", errs.IO,
			fmt.Errorf("GET %s: unexpected status %s", url, resp.Status))
	}
	return resp.Body, nil
}
