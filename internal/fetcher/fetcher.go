// Package fetcher performs the relay's single outbound GET.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"fetchrelay/internal/core"
)

// DefaultMaxBytes caps a fetched body when Config.MaxBytes is unset (50MB).
const DefaultMaxBytes int64 = 50 << 20

// Config holds fetcher options.
type Config struct {
	// Timeout bounds the whole GET, including the body read.
	Timeout time.Duration
	// MaxBytes caps the decoded body size.
	MaxBytes int64
	// UserAgent is sent on every fetch.
	UserAgent string
}

// Fetcher retrieves remote resources. It keeps no per-request state and is
// safe for concurrent use.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher on top of client.
func New(client *http.Client, cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fetchrelay"
	}
	return &Fetcher{client: client, config: cfg}
}

// Fetch GETs rawURL once. Non-2xx statuses and transport failures are
// returned as fetch errors; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchedResource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewBadRequestError("invalid url: "+rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, core.NewBadRequestError("unsupported url scheme: "+rawURL, nil)
	}
	if u.Host == "" {
		return nil, core.NewBadRequestError("url has no host: "+rawURL, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, core.NewBadRequestError("failed to create request for url: "+rawURL, err)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, core.NewUpstreamFetchError(resp.StatusCode,
			fmt.Sprintf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), rawURL), nil)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, core.NewUpstreamFetchError(0, "failed to decode response body for url: "+rawURL, err)
	}

	raw, err := io.ReadAll(io.LimitReader(body, f.config.MaxBytes+1))
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	if int64(len(raw)) > f.config.MaxBytes {
		return nil, core.NewUpstreamFetchError(0,
			fmt.Sprintf("remote resource exceeds %d bytes: %s", f.config.MaxBytes, rawURL), nil)
	}

	return &core.FetchedResource{
		Bytes:       raw,
		Filename:    FilenameFromURL(rawURL, ""),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// transportError classifies network failures; timeouts map to 504.
func transportError(rawURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewUpstreamFetchError(http.StatusGatewayTimeout, "timed out fetching url: "+rawURL, err)
	}
	return core.NewUpstreamFetchError(0, "failed to fetch url: "+rawURL+": "+err.Error(), err)
}

// decodeBody undoes the Content-Encoding the server applied.
// Unknown encodings are passed through untouched.
func decodeBody(r io.Reader, contentEncoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "br":
		return brotli.NewReader(r), nil
	case "deflate":
		return flate.NewReader(r), nil
	default:
		return r, nil
	}
}

// FilenameFromURL returns the final segment of rawURL's path as written in
// the URL (percent-escapes are kept), or fallback when the path is empty or
// ends in a slash.
func FilenameFromURL(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	p := u.RawPath
	if p == "" {
		p = u.EscapedPath()
	}
	seg := p[strings.LastIndex(p, "/")+1:]
	if seg == "" {
		return fallback
	}
	return seg
}
