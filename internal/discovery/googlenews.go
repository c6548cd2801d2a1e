package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

const defaultGoogleNewsEndpoint = "https://news.google.com/rss/search"

// GoogleNews discovers article links from the Google News RSS search feed.
type GoogleNews struct {
	parser    *gofeed.Parser
	endpoint  string
	overfetch int
	retries   int
	delay     time.Duration
}

// GoogleNewsOption configures the Google News source.
type GoogleNewsOption func(*GoogleNews)

// WithGoogleNewsEndpoint sets a custom feed endpoint (used by tests).
func WithGoogleNewsEndpoint(endpoint string) GoogleNewsOption {
	return func(g *GoogleNews) { g.endpoint = endpoint }
}

// WithGoogleNewsOverfetch sets the over-fetch multiplier applied before dedup.
func WithGoogleNewsOverfetch(factor int) GoogleNewsOption {
	return func(g *GoogleNews) {
		if factor > 0 {
			g.overfetch = factor
		}
	}
}

// WithGoogleNewsRetry sets the retry budget for transient upstream failures.
func WithGoogleNewsRetry(tries int, initialDelay time.Duration) GoogleNewsOption {
	return func(g *GoogleNews) {
		if tries > 0 {
			g.retries = tries
		}
		if initialDelay > 0 {
			g.delay = initialDelay
		}
	}
}

// NewGoogleNews creates a Google News RSS discovery source.
func NewGoogleNews(opts ...GoogleNewsOption) *GoogleNews {
	g := &GoogleNews{
		parser:    gofeed.NewParser(),
		endpoint:  defaultGoogleNewsEndpoint,
		overfetch: 3,
		retries:   3,
		delay:     2 * time.Second,
	}
	g.parser.UserAgent = DefaultUserAgent
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the source name.
func (g *GoogleNews) Name() string { return "Google News" }

// Discover parses the search feed and returns up to limit candidates in feed
// order. An empty feed is not an error.
func (g *GoogleNews) Discover(ctx context.Context, query string, limit int) ([]models.CandidateLink, error) {
	feedURL := g.feedURL(query)

	feed, err := withRetry(ctx, func() (*gofeed.Feed, error) {
		return g.parser.ParseURLWithContext(feedURL, ctx)
	}, g.retries, g.delay)
	if err != nil {
		return nil, &Error{Source: g.Name(), Err: err}
	}

	raw := limit
	if limit > 0 {
		raw = limit * g.overfetch
	}

	links := make([]models.CandidateLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		if !isArticleURL(item.Link) {
			continue
		}
		title, publisher := splitGoogleTitle(item.Title)
		if publisher == "" {
			publisher = Publisher(item.Link)
		}
		links = append(links, models.CandidateLink{
			URL:       item.Link,
			Publisher: publisher,
			Title:     title,
		})
		if raw > 0 && len(links) >= raw {
			break
		}
	}

	return capLinks(dedupe(links), limit), nil
}

// splitGoogleTitle separates a Google News item title of the form
// "Headline - Publisher" into its parts. Titles without the suffix come
// back with an empty publisher.
func splitGoogleTitle(title string) (headline, publisher string) {
	idx := strings.LastIndex(title, " - ")
	if idx < 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.ToLower(strings.TrimSpace(title[idx+3:]))
}

func (g *GoogleNews) feedURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	return g.endpoint + "?" + q.Encode()
}
