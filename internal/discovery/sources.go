package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// FeedSource is one user-configured RSS feed.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// feedFile is the on-disk layout of a custom source list.
type feedFile struct {
	Sources []FeedSource `yaml:"sources"`
}

// LoadFeedSources reads a YAML source list:
//
//	sources:
//	  - name: Reuters Business
//	    url: https://example.com/business.rss
func LoadFeedSources(path string) ([]FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f feedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	sources := make([]FeedSource, 0, len(f.Sources))
	for _, s := range f.Sources {
		if s.URL == "" {
			continue
		}
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("sources file %s: no usable sources", path)
	}
	return sources, nil
}

// FeedList discovers articles by scanning configured RSS feeds for items
// mentioning the query. Slower than a search source but works against any
// outlet that publishes a feed.
type FeedList struct {
	sources []FeedSource
	parser  *gofeed.Parser
	retries int
	delay   time.Duration
}

// NewFeedList creates a discovery source over the given feeds.
func NewFeedList(sources []FeedSource) *FeedList {
	p := gofeed.NewParser()
	p.UserAgent = DefaultUserAgent
	return &FeedList{
		sources: sources,
		parser:  p,
		retries: 2,
		delay:   time.Second,
	}
}

// Name returns the source name.
func (f *FeedList) Name() string { return "RSS Feeds" }

// Discover scans every configured feed and returns items whose title or
// description mentions the query. A feed that fails to parse is skipped;
// only all feeds failing is an *Error.
func (f *FeedList) Discover(ctx context.Context, query string, limit int) ([]models.CandidateLink, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	var links []models.CandidateLink
	var lastErr error
	failed := 0

	for _, src := range f.sources {
		feed, err := withRetry(ctx, func() (*gofeed.Feed, error) {
			return f.parser.ParseURLWithContext(src.URL, ctx)
		}, f.retries, f.delay)
		if err != nil {
			failed++
			lastErr = err
			continue
		}

		for _, item := range feed.Items {
			if !isArticleURL(item.Link) {
				continue
			}
			haystack := strings.ToLower(item.Title + " " + item.Description)
			if !strings.Contains(haystack, needle) {
				continue
			}
			publisher := src.Name
			if publisher == "" {
				publisher = Publisher(item.Link)
			}
			links = append(links, models.CandidateLink{
				URL:       item.Link,
				Publisher: strings.ToLower(publisher),
				Title:     item.Title,
			})
		}
	}

	if failed == len(f.sources) && lastErr != nil {
		return nil, &Error{Source: f.Name(), Err: lastErr}
	}

	return capLinks(dedupe(links), limit), nil
}
