// Package extract fetches article pages and pulls out their readable content.
// Every invocation is independent: one bad URL fails on its own, with a typed
// Failure the orchestrator can count and skip.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/Nikita-NA/News-sentiment-analysis/internal/textproc"
	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// Reason classifies why an extraction failed.
type Reason string

const (
	ReasonNetwork Reason = "network"
	ReasonParse   Reason = "parse"
	ReasonTimeout Reason = "timeout"
)

// Failure is a per-candidate extraction failure.
type Failure struct {
	URL    string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", f.URL, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// DefaultUserAgent is the browser-like user agent string used for requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// titleSelectors are tried in order until one yields a title.
var titleSelectors = []string{
	"h1.article-title",
	"h1.entry-title",
	"h1.headline",
	"h1[itemprop=headline]",
	"h1",
}

// bodySelectors are tried in order until one yields enough paragraph text.
var bodySelectors = []string{
	"article p",
	"[role=main] p",
	"div.article-body p",
	"div.article-content p",
	"div.story-body p",
	"div.entry-content p",
	"div.post-content p",
	"main p",
	"p",
}

// dateFormats are candidate layouts for published-date metadata.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Extractor fetches and parses article pages.
type Extractor struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	retries int
	minBody int
	maxBody int
}

// Option configures the extractor.
type Option func(*Extractor)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) { e.client = client }
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRateLimit sets the shared politeness limit across all fetches.
func WithRateLimit(perSec float64, burst int) Option {
	return func(e *Extractor) {
		if perSec > 0 && burst > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// WithRetries sets the attempt budget for transient network failures.
func WithRetries(tries int) Option {
	return func(e *Extractor) {
		if tries > 0 {
			e.retries = tries
		}
	}
}

// WithBodyBounds sets the minimum body length that counts as extractable
// content and the cap applied to very long articles, both in characters.
func WithBodyBounds(min, max int) Option {
	return func(e *Extractor) {
		if min > 0 {
			e.minBody = min
		}
		if max > 0 {
			e.maxBody = max
		}
	}
}

// New creates an article extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		timeout: 15 * time.Second,
		retries: 2,
		minBody: 200,
		maxBody: 15000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the candidate's page and returns the readable article.
// On failure the returned error is always a *Failure carrying the reason.
func (e *Extractor) Extract(ctx context.Context, link models.CandidateLink) (*models.ExtractedArticle, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, e.fail(link.URL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := e.fetch(ctx, link.URL)
	if err != nil {
		return nil, e.fail(link.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Failure{URL: link.URL, Reason: ReasonParse, Err: err}
	}

	// Strip chrome before reading any text.
	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	body := e.extractBody(doc)
	if n := utf8.RuneCountInString(body); n < e.minBody {
		return nil, &Failure{
			URL:    link.URL,
			Reason: ReasonParse,
			Err:    fmt.Errorf("no main content found (%d chars, need %d)", n, e.minBody),
		}
	}
	body = truncateChars(body, e.maxBody)

	title := e.extractTitle(doc)
	if title == "" {
		title = link.Title
	}
	if title == "" {
		return nil, &Failure{
			URL:    link.URL,
			Reason: ReasonParse,
			Err:    errors.New("no title found"),
		}
	}

	article := &models.ExtractedArticle{
		URL:         link.URL,
		Publisher:   link.Publisher,
		Title:       title,
		Body:        body,
		PublishedAt: extractPublishedAt(doc),
	}
	return article, nil
}

// fetch retrieves the raw page, retrying transient failures. HTTP 4xx is
// permanent; a retry cannot fix a dead link.
func (e *Extractor) fetch(ctx context.Context, rawURL string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond

	return backoff.Retry(ctx, func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", DefaultUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := e.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("HTTP GET %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return "", backoff.Permanent(err)
			}
			return "", err
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(e.retries)),
	)
}

// extractTitle tries heading selectors, then og:title, then <title>.
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if t := textproc.NormalizeWhitespace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := textproc.NormalizeWhitespace(og); t != "" {
			return t
		}
	}
	return textproc.NormalizeWhitespace(doc.Find("title").First().Text())
}

// extractBody tries each body selector in turn and keeps the first one that
// yields enough cleaned text.
func (e *Extractor) extractBody(doc *goquery.Document) string {
	for _, sel := range bodySelectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		body := textproc.CleanBody(strings.Join(parts, "\n"))
		if len(body) >= e.minBody {
			return body
		}
	}
	return ""
}

// extractPublishedAt reads published-date metadata when present.
// A missing or unparseable date is fine; zero time means unknown.
func extractPublishedAt(doc *goquery.Document) time.Time {
	candidates := []string{
		`meta[property="article:published_time"]`,
		`meta[name="pubdate"]`,
		`meta[name="publish-date"]`,
		`meta[name="date"]`,
		`meta[itemprop="datePublished"]`,
	}
	for _, sel := range candidates {
		if raw, ok := doc.Find(sel).Attr("content"); ok {
			if ts, err := parseDate(raw); err == nil {
				return ts
			}
		}
	}
	if raw, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if ts, err := parseDate(raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// fail wraps a transport-level error as a Failure, distinguishing timeouts.
func (e *Extractor) fail(url string, err error) *Failure {
	reason := ReasonNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		reason = ReasonTimeout
	}
	return &Failure{URL: url, Reason: reason, Err: err}
}

// truncateChars cuts s to at most max runes, preferring a nearby word
// boundary.
func truncateChars(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := s
	n := 0
	for i := range s {
		if n == max {
			cut = s[:i]
			break
		}
		n++
	}
	if idx := strings.LastIndex(cut, " "); idx > len(cut)-40 && idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
