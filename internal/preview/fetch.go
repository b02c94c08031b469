package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Fetcher retrieves a page body for proxying. Implementations return the
// body decoded to UTF-8 where possible, plus the response content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, contentType string, err error)
}

// HTTPFetcher fetches with a plain HTTP client: user agent, bounded retry on
// transient errors, and charset-aware decoding of textual bodies.
type HTTPFetcher struct {
	Client      *http.Client
	UserAgent   string
	MaxAttempts int
	// MaxBodyBytes caps how much of a response is read. Zero means 10 MiB.
	MaxBodyBytes int64
}

const defaultMaxBody = 10 << 20

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: 20 * time.Second}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	attempts := f.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, ct, err := f.tryOnce(ctx, url)
		if err == nil {
			return body, ct, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, "", lastErr
}

func (f *HTTPFetcher) tryOnce(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	if !strings.HasPrefix(req.URL.Scheme, "http") {
		return nil, "", fmt.Errorf("unsupported URL scheme %q", req.URL.Scheme)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", &statusError{code: resp.StatusCode, url: url}
	}

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	ct := resp.Header.Get("Content-Type")
	var reader io.Reader = io.LimitReader(resp.Body, limit)
	if isTextual(ct) {
		reader, err = charset.NewReader(reader, ct)
		if err != nil {
			return nil, "", fmt.Errorf("charset: %w", err)
		}
		// The reader above transcodes to UTF-8, so the origin's charset
		// label no longer describes the bytes we return.
		ct = utf8ContentType(ct)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, ct, nil
}

// utf8ContentType replaces the charset parameter with utf-8, keeping the
// media type and any other parameters.
func utf8ContentType(ct string) string {
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		base, _, _ := strings.Cut(ct, ";")
		return strings.TrimSpace(base) + "; charset=utf-8"
	}
	params["charset"] = "utf-8"
	return mime.FormatMediaType(mediaType, params)
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.url, e.code)
}

// isTransient reports whether a retry could plausibly succeed: timeouts,
// temporary network errors, 5xx, and 429.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
