package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GCSPublicHost serves publicly readable Cloud Storage objects over https.
const GCSPublicHost = "https://storage.googleapis.com/"

// ErrTooLarge is returned when a response body exceeds MaxSize.
var ErrTooLarge = errors.New("response exceeds size limit")

// StatusError is a fetch that reached the server but did not succeed.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string { return fmt.Sprintf("GET %s: %s", e.URL, e.Status) }

// HTTPFetcher downloads job output from a public bucket.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
	MaxSize int64 // 0 means unlimited
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}, Timeout: timeout, MaxSize: 256 << 20}
}

// ResolveURL maps gs://bucket/object to its public https form.
func ResolveURL(raw string) string {
	if rest, ok := strings.CutPrefix(raw, "gs://"); ok {
		return GCSPublicHost + rest
	}
	return raw
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	u := ResolveURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, &StatusError{URL: u, Status: res.Status, Code: res.StatusCode}
	}
	if f.MaxSize <= 0 {
		return io.ReadAll(res.Body)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, f.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.MaxSize {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", u, ErrTooLarge, f.MaxSize)
	}
	return body, nil
}
