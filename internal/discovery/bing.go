package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

const defaultBingEndpoint = "https://www.bing.com/news/search"

// candidateSelectors are tried in order until one yields links; Bing ships
// several card layouts depending on region and experiment bucket.
var candidateSelectors = []string{
	"a.title",
	"div.news-card a.title, div.news-card a[href]",
	"div.news-item a[href]",
}

// Bing discovers article links by scraping Bing News search results.
type Bing struct {
	client    *http.Client
	endpoint  string
	overfetch int
	retries   int
	delay     time.Duration
	dateFrom  string // MM/DD/YYYY, empty = no date filter
	dateTo    string
}

// BingOption configures the Bing source.
type BingOption func(*Bing)

// WithBingEndpoint sets a custom search endpoint (used by tests).
func WithBingEndpoint(endpoint string) BingOption {
	return func(b *Bing) { b.endpoint = endpoint }
}

// WithBingHTTPClient sets a custom HTTP client.
func WithBingHTTPClient(client *http.Client) BingOption {
	return func(b *Bing) { b.client = client }
}

// WithBingOverfetch sets the over-fetch multiplier applied before dedup.
func WithBingOverfetch(factor int) BingOption {
	return func(b *Bing) {
		if factor > 0 {
			b.overfetch = factor
		}
	}
}

// WithBingRetry sets the retry budget for transient upstream failures.
func WithBingRetry(tries int, initialDelay time.Duration) BingOption {
	return func(b *Bing) {
		if tries > 0 {
			b.retries = tries
		}
		if initialDelay > 0 {
			b.delay = initialDelay
		}
	}
}

// WithBingDateWindow restricts results to a publication date window.
// Dates are MM/DD/YYYY; either bound may be empty.
func WithBingDateWindow(from, to string) BingOption {
	return func(b *Bing) {
		b.dateFrom = from
		b.dateTo = to
	}
}

// NewBing creates a Bing News discovery source.
func NewBing(opts ...BingOption) *Bing {
	b := &Bing{
		client:    HTTPClient,
		endpoint:  defaultBingEndpoint,
		overfetch: 3,
		retries:   3,
		delay:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the source name.
func (b *Bing) Name() string { return "Bing News" }

// Discover scrapes the search result page and returns up to limit candidates
// in page order. An empty result set is not an error.
func (b *Bing) Discover(ctx context.Context, query string, limit int) ([]models.CandidateLink, error) {
	searchURL := b.searchURL(query)

	doc, err := withRetry(ctx, func() (*goquery.Document, error) {
		body, err := doGet(ctx, b.client, searchURL)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return nil, fmt.Errorf("parse result page: %w", err)
		}
		return doc, nil
	}, b.retries, b.delay)
	if err != nil {
		return nil, &Error{Source: b.Name(), Err: err}
	}

	raw := limit
	if limit > 0 {
		raw = limit * b.overfetch
	}

	var links []models.CandidateLink
	for _, sel := range candidateSelectors {
		links = b.collect(doc, sel, raw)
		if len(links) > 0 {
			break
		}
	}

	return capLinks(dedupe(links), limit), nil
}

// collect pulls candidate links matching the selector, at most max of them.
func (b *Bing) collect(doc *goquery.Document, selector string, max int) []models.CandidateLink {
	var links []models.CandidateLink
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || !isArticleURL(href) {
			return true
		}
		links = append(links, models.CandidateLink{
			URL:       href,
			Publisher: Publisher(href),
			Title:     strings.TrimSpace(s.Text()),
		})
		return max <= 0 || len(links) < max
	})
	return links
}

func (b *Bing) searchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("FORM", "HDRSC6")
	if b.dateFrom != "" || b.dateTo != "" {
		q.Set("qft", fmt.Sprintf("interval=%q", b.dateFrom+".."+b.dateTo))
	}
	return b.endpoint + "?" + q.Encode()
}
