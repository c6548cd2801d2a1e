package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

var longParagraph = strings.Repeat("Acme Corp reported strong quarterly results and raised its full-year outlook. ", 6)

func articlePage(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head>
<title>Fallback title | Example</title>
<meta property="og:title" content="Acme beats expectations">
<meta property="article:published_time" content="2026-08-20T09:30:00Z">
</head><body>
<nav><a href="/">home</a></nav>
<article>
<h1 class="headline">Acme posts record quarter</h1>
<p>%s</p>
<p>Management credited demand in the industrial segment.</p>
</article>
<footer>All rights reserved</footer>
</body></html>`, body)
}

func testExtractor(srv *httptest.Server, opts ...Option) *Extractor {
	base := []Option{
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000, 1000), // no politeness delay in tests
	}
	return New(append(base, opts...)...)
}

func TestExtractSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer srv.Close()

	e := testExtractor(srv)
	link := models.CandidateLink{URL: srv.URL + "/acme", Publisher: "example.com"}

	article, err := e.Extract(context.Background(), link)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.Title != "Acme posts record quarter" {
		t.Errorf("title: got %q", article.Title)
	}
	if !strings.Contains(article.Body, "raised its full-year outlook") {
		t.Errorf("body missing article text: %q", article.Body)
	}
	if strings.Contains(article.Body, "All rights reserved") {
		t.Error("body contains boilerplate footer text")
	}
	if article.Publisher != "example.com" {
		t.Errorf("publisher: got %q", article.Publisher)
	}
	want := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	if !article.PublishedAt.Equal(want) {
		t.Errorf("published at: got %v, want %v", article.PublishedAt, want)
	}
}

func TestExtractTitleFallsBackToOGTitle(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Acme beats expectations">
</head><body><article><p>` + longParagraph + `</p></article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	e := testExtractor(srv)
	article, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.Title != "Acme beats expectations" {
		t.Errorf("title: got %q", article.Title)
	}
}

func TestExtractParseFailureWhenNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Paywall</h1><p>Subscribe.</p></body></html>`)
	}))
	defer srv.Close()

	e := testExtractor(srv)
	_, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})

	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T: %v", err, err)
	}
	if f.Reason != ReasonParse {
		t.Errorf("reason: got %q, want %q", f.Reason, ReasonParse)
	}
	if f.URL != srv.URL {
		t.Errorf("failure URL: got %q", f.URL)
	}
}

func TestExtractNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := testExtractor(srv, WithRetries(1))
	_, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})

	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T: %v", err, err)
	}
	if f.Reason != ReasonNetwork {
		t.Errorf("reason: got %q, want %q", f.Reason, ReasonNetwork)
	}
}

func TestExtractTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer srv.Close()

	e := testExtractor(srv, WithTimeout(20*time.Millisecond), WithRetries(1))
	_, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})

	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T: %v", err, err)
	}
	if f.Reason != ReasonTimeout {
		t.Errorf("reason: got %q, want %q", f.Reason, ReasonTimeout)
	}
}

func TestExtractRetriesTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer srv.Close()

	e := testExtractor(srv, WithRetries(2))
	article, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("server calls: got %d, want 2", calls)
	}
	if article.Body == "" {
		t.Error("body empty after successful retry")
	}
}

func TestExtractDoesNotRetryPermanentFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	e := testExtractor(srv, WithRetries(3))
	if _, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL}); err == nil {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("server calls: got %d, want 1 (4xx must not be retried)", calls)
	}
}

func TestExtractCapsBodyLength(t *testing.T) {
	huge := strings.Repeat("Sentence about the Acme Corp results and guidance. ", 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage(huge))
	}))
	defer srv.Close()

	e := testExtractor(srv, WithBodyBounds(200, 1000))
	article, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if n := utf8.RuneCountInString(article.Body); n > 1000 {
		t.Errorf("body length %d chars exceeds cap 1000", n)
	}
}

func TestBodyBoundsCountCharacters(t *testing.T) {
	// Each accented word is longer in bytes than in characters, so a
	// byte-counting bound would miscount both limits.
	body := strings.TrimSpace(strings.Repeat("résumé ", 50))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage(body))
	}))
	defer srv.Close()

	chars := utf8.RuneCountInString(body)
	// In bytes the page is well past the cap, so a byte-counting cap
	// would truncate below chars.
	e := testExtractor(srv, WithBodyBounds(chars/2, chars))
	article, err := e.Extract(context.Background(), models.CandidateLink{URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := utf8.RuneCountInString(article.Body)
	if got > chars {
		t.Errorf("body length = %d chars, want <= %d", got, chars)
	}
	if got < chars-40 {
		t.Errorf("body length = %d chars, truncated too aggressively (cap %d)", got, chars)
	}
	if !utf8.ValidString(article.Body) {
		t.Errorf("body is not valid UTF-8")
	}
}

func TestTruncateChars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
	}{
		{"short input untouched", "hello world", 100},
		{"cut at word boundary", strings.Repeat("word ", 50), 103},
		{"multibyte runes survive", strings.Repeat("résumé ", 40), 97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateChars(tt.in, tt.max)
			if n := utf8.RuneCountInString(got); n > tt.max {
				t.Errorf("length = %d chars, want <= %d", n, tt.max)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result %q is not valid UTF-8", got)
			}
			if !strings.HasPrefix(tt.in, got) && utf8.RuneCountInString(tt.in) > tt.max {
				t.Errorf("result %q is not a prefix of input", got)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2026-08-20T09:30:00Z", false},
		{"2026-08-20", false},
		{"Mon, 02 Jan 2006 15:04:05 -0700", false},
		{"yesterday", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := parseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
