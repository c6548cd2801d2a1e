package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// ── Helpers ──

func TestPublisher(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reuters.com/business/article-1", "reuters.com"},
		{"https://edition.cnn.com/2026/news", "edition.cnn.com"},
		{"http://BLOOMBERG.com/x", "bloomberg.com"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Publisher(tt.url); got != tt.want {
			t.Errorf("Publisher(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a", true},
		{"http://example.com/a", true},
		{"/news/relative", false},
		{"javascript:void(0)", false},
		{"ftp://example.com/a", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isArticleURL(tt.url); got != tt.want {
			t.Errorf("isArticleURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	links := []models.CandidateLink{
		{URL: "https://example.com/a", Publisher: "example.com"},
		{URL: "https://example.com/a/", Publisher: "example.com"},
		{URL: "https://Example.com/a#section", Publisher: "example.com"},
		{URL: "https://example.com/b", Publisher: "example.com"},
	}

	got := dedupe(links)
	if len(got) != 2 {
		t.Fatalf("dedupe returned %d links, want 2: %+v", len(got), got)
	}
	if got[0].URL != "https://example.com/a" {
		t.Errorf("first kept URL: got %q", got[0].URL)
	}
	if got[1].URL != "https://example.com/b" {
		t.Errorf("second kept URL: got %q", got[1].URL)
	}
}

func TestSplitGoogleTitle(t *testing.T) {
	tests := []struct {
		in            string
		wantHeadline  string
		wantPublisher string
	}{
		{"Acme posts record profit - Reuters", "Acme posts record profit", "reuters"},
		{"Results due - what to expect - CNBC", "Results due - what to expect", "cnbc"},
		{"No publisher suffix", "No publisher suffix", ""},
	}

	for _, tt := range tests {
		headline, publisher := splitGoogleTitle(tt.in)
		if headline != tt.wantHeadline || publisher != tt.wantPublisher {
			t.Errorf("splitGoogleTitle(%q) = (%q, %q), want (%q, %q)",
				tt.in, headline, publisher, tt.wantHeadline, tt.wantPublisher)
		}
	}
}

// ── Bing ──

const bingFixture = `<!DOCTYPE html><html><body>
<div class="news-card">
  <a class="title" href="https://www.reuters.com/business/acme-earnings">Acme beats estimates</a>
</div>
<div class="news-card">
  <a class="title" href="https://www.bloomberg.com/news/acme-outlook">Acme raises outlook</a>
</div>
<div class="news-card">
  <a class="title" href="https://www.reuters.com/business/acme-earnings">Acme beats estimates</a>
</div>
<div class="news-card">
  <a class="title" href="/relative/ignored">Ignored relative link</a>
</div>
</body></html>`

func TestBingDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Acme Corp" {
			t.Errorf("query param q: got %q", got)
		}
		fmt.Fprint(w, bingFixture)
	}))
	defer srv.Close()

	b := NewBing(WithBingEndpoint(srv.URL), WithBingHTTPClient(srv.Client()))

	links, err := b.Discover(context.Background(), "Acme Corp", 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2 (deduped, relative dropped): %+v", len(links), links)
	}
	if links[0].URL != "https://www.reuters.com/business/acme-earnings" {
		t.Errorf("first URL: got %q", links[0].URL)
	}
	if links[0].Publisher != "reuters.com" {
		t.Errorf("first publisher: got %q, want reuters.com", links[0].Publisher)
	}
	if links[0].Title != "Acme beats estimates" {
		t.Errorf("first title: got %q", links[0].Title)
	}
}

func TestBingDiscoverRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, `<a class="title" href="https://example.com/a%d">Article %d</a>`, i, i)
		}
	}))
	defer srv.Close()

	b := NewBing(WithBingEndpoint(srv.URL), WithBingHTTPClient(srv.Client()))

	links, err := b.Discover(context.Background(), "acme", 3)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(links) != 3 {
		t.Errorf("got %d links, want 3", len(links))
	}
}

func TestBingDiscoverEmptyResultsIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>No results for your search.</p></body></html>`)
	}))
	defer srv.Close()

	b := NewBing(WithBingEndpoint(srv.URL), WithBingHTTPClient(srv.Client()))

	links, err := b.Discover(context.Background(), "Unknown Obscure Co", 5)
	if err != nil {
		t.Fatalf("empty results must not be an error, got: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("got %d links, want 0", len(links))
	}
}

func TestBingDiscoverUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBing(
		WithBingEndpoint(srv.URL),
		WithBingHTTPClient(srv.Client()),
		WithBingRetry(2, time.Millisecond),
	)

	_, err := b.Discover(context.Background(), "acme", 5)
	if err == nil {
		t.Fatal("expected error from failing upstream")
	}
	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *discovery.Error, got %T: %v", err, err)
	}
	if dErr.Source != "Bing News" {
		t.Errorf("error source: got %q", dErr.Source)
	}
}

func TestBingDiscoverNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	b := NewBing(
		WithBingEndpoint(srv.URL),
		WithBingHTTPClient(srv.Client()),
		WithBingRetry(3, time.Millisecond),
	)

	_, err := b.Discover(context.Background(), "acme", 5)
	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *discovery.Error, got %T: %v", err, err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("made %d requests to a dead endpoint, want 1", n)
	}
}

func TestBingDiscoverRetriesOnThrottle(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, bingFixture)
	}))
	defer srv.Close()

	b := NewBing(
		WithBingEndpoint(srv.URL),
		WithBingHTTPClient(srv.Client()),
		WithBingRetry(3, time.Millisecond),
	)

	links, err := b.Discover(context.Background(), "acme", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) == 0 {
		t.Error("no links after retry")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}
}

func TestBingDateWindow(t *testing.T) {
	b := NewBing(WithBingDateWindow("01/01/2026", "02/01/2026"))
	u := b.searchURL("acme")
	if want := `interval%3D%2201%2F01%2F2026..02%2F01%2F2026%22`; !strings.Contains(u, want) {
		t.Errorf("search URL missing date filter: %s", u)
	}
}

// ── Google News ──

const googleFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>"Acme Corp" - Google News</title>
<item>
  <title>Acme shares surge after earnings - Reuters</title>
  <link>https://news.example.com/articles/acme-1</link>
</item>
<item>
  <title>Acme faces regulator probe - Bloomberg</title>
  <link>https://news.example.com/articles/acme-2</link>
</item>
</channel></rss>`

func TestGoogleNewsDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, googleFixture)
	}))
	defer srv.Close()

	g := NewGoogleNews(WithGoogleNewsEndpoint(srv.URL))

	links, err := g.Discover(context.Background(), "Acme Corp", 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Title != "Acme shares surge after earnings" {
		t.Errorf("first title: got %q", links[0].Title)
	}
	if links[0].Publisher != "reuters" {
		t.Errorf("first publisher: got %q, want reuters", links[0].Publisher)
	}
}

func TestGoogleNewsDiscoverUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogleNews(
		WithGoogleNewsEndpoint(srv.URL),
		WithGoogleNewsRetry(2, time.Millisecond),
	)

	_, err := g.Discover(context.Background(), "acme", 5)
	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *discovery.Error, got %T: %v", err, err)
	}
}

// ── Feed list ──

func TestLoadFeedSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := []byte(`
sources:
  - name: Example Business
    url: https://example.com/business.rss
  - name: Broken entry without url
  - name: Example Tech
    url: https://example.com/tech.rss
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadFeedSources(path)
	if err != nil {
		t.Fatalf("LoadFeedSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Name != "Example Business" {
		t.Errorf("first source name: got %q", sources[0].Name)
	}
}

func TestLoadFeedSourcesErrors(t *testing.T) {
	if _, err := LoadFeedSources("/nonexistent/sources.yaml"); err == nil {
		t.Error("missing file should be an error")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("sources: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFeedSources(empty); err == nil {
		t.Error("empty source list should be an error")
	}
}

func TestFeedListDiscoverFiltersByQuery(t *testing.T) {
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>Biz</title>
<item><title>Acme Corp wins contract</title><link>https://example.com/acme-contract</link></item>
<item><title>Unrelated market wrap</title><link>https://example.com/wrap</link></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	f := NewFeedList([]FeedSource{{Name: "Example Biz", URL: srv.URL}})

	links, err := f.Discover(context.Background(), "Acme Corp", 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1: %+v", len(links), links)
	}
	if links[0].Publisher != "example biz" {
		t.Errorf("publisher: got %q", links[0].Publisher)
	}
}
