package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultFetchTimeout is the default HTTP request timeout for blob fetches.
const DefaultFetchTimeout = 30 * time.Second

// maxBlobSize caps how much of a blob is read into memory (50 MiB).
const maxBlobSize = 50 << 20

// Fetcher retrieves the bytes behind a blob URL.
type Fetcher interface {
	Fetch(ctx context.Context, blobURL string) ([]byte, error)
}

// FetchError represents an error during blob fetching.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// HTTPFetcher fetches blob content over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the default timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: DefaultFetchTimeout},
	}
}

// Fetch retrieves the bytes at blobURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, blobURL string) ([]byte, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{URL: blobURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return nil, &FetchError{URL: blobURL, Message: "failed to create request", Cause: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: blobURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: blobURL, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return nil, &FetchError{URL: blobURL, Message: "failed to read body", Cause: err}
	}
	return data, nil
}
