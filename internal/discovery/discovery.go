// Package discovery finds candidate news article URLs for a company name.
// It defines a common Source interface and implements concrete sources for
// Bing News search, Google News RSS, and user-configured RSS feed lists.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// Source defines the common interface that all discovery sources implement.
// A query that matches nothing yields an empty slice and a nil error; only an
// unreachable or misbehaving upstream produces a *discovery.Error.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Discover returns up to limit candidate links for the query, ranked by
	// the upstream source.
	Discover(ctx context.Context, query string, limit int) ([]models.CandidateLink, error)
}

// Error reports an unreachable or invalid upstream source.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discovery %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultUserAgent is the browser-like user agent string used for requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with a reasonable timeout.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with browser-like headers, returning the
// response body. The caller is responsible for closing the ReadCloser.
func doGet(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", rawURL, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, resp.Status, string(body))
		// Retrying cannot fix a 4xx, except when the upstream is throttling.
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return resp.Body, nil
}

// withRetry runs op with bounded exponential backoff on transient failures.
func withRetry[T any](ctx context.Context, op func() (T, error), tries int, initialDelay time.Duration) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialDelay

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(tries)),
	)
}

// Publisher derives the publisher identifier from an article URL:
// the lowercased host with any "www." prefix stripped.
func Publisher(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// isArticleURL accepts absolute http(s) URLs only.
func isArticleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// dedupe keeps the first occurrence of each canonical URL, preserving order.
// Canonicalization drops the fragment and trailing slash.
func dedupe(links []models.CandidateLink) []models.CandidateLink {
	seen := make(map[string]struct{}, len(links))
	out := make([]models.CandidateLink, 0, len(links))
	for _, l := range links {
		key := canonicalURL(l.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return strings.ToLower(u.String())
}

// capLinks truncates links to limit; limit <= 0 means no cap.
func capLinks(links []models.CandidateLink, limit int) []models.CandidateLink {
	if limit > 0 && len(links) > limit {
		return links[:limit]
	}
	return links
}
