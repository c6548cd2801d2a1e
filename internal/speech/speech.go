// Package speech renders summary text as spoken MP3 audio through the
// Google Translate TTS endpoint. A circuit breaker keeps a flapping backend
// from stalling whole batches: once it opens, calls fail fast and the
// orchestrator simply omits audio.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// SynthesisError is a per-candidate synthesis failure. The orchestrator
// recovers by keeping the article result and dropping only the audio.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer produces an audio rendering of text.
type Synthesizer interface {
	// Synthesize returns MP3 bytes for the text. Every failure, including
	// empty input, is a *SynthesisError.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

const defaultEndpoint = "https://translate.google.com/translate_tts"

// maxChunkRunes is the longest text the endpoint accepts per request.
const maxChunkRunes = 200

// browser-like user agent; the endpoint rejects obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// GoogleTTS synthesizes speech via the translate_tts endpoint, one request
// per text chunk, concatenating the returned MP3 payloads.
type GoogleTTS struct {
	endpoint string
	language string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// Option configures the GoogleTTS client.
type Option func(*GoogleTTS)

// WithEndpoint sets a custom endpoint (used by tests and proxies).
func WithEndpoint(endpoint string) Option {
	return func(g *GoogleTTS) { g.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithLanguage sets the speech language code (default "en").
func WithLanguage(lang string) Option {
	return func(g *GoogleTTS) {
		if lang != "" {
			g.language = lang
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GoogleTTS) { g.client = client }
}

// WithBreaker tunes the circuit breaker: it opens after failures consecutive
// errors and probes again after cooldown.
func WithBreaker(failures int, cooldown time.Duration) Option {
	return func(g *GoogleTTS) {
		g.breaker = newBreaker(failures, cooldown)
	}
}

func newBreaker(failures int, cooldown time.Duration) *gobreaker.CircuitBreaker {
	if failures <= 0 {
		failures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-tts",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
	})
}

// NewGoogleTTS creates a Google Translate TTS client.
func NewGoogleTTS(opts ...Option) *GoogleTTS {
	g := &GoogleTTS{
		endpoint: defaultEndpoint,
		language: "en",
		client:   &http.Client{Timeout: 15 * time.Second},
		breaker:  newBreaker(5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Synthesize splits the text into chunks the endpoint accepts and returns
// the concatenated MP3 payload.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("empty input")}
	}

	chunks := splitChunks(text, maxChunkRunes)

	var audio bytes.Buffer
	for i, chunk := range chunks {
		payload, err := g.breaker.Execute(func() (interface{}, error) {
			return g.fetchChunk(ctx, chunk, i, len(chunks))
		})
		if err != nil {
			return nil, &SynthesisError{Err: err}
		}
		audio.Write(payload.([]byte))
	}

	return audio.Bytes(), nil
}

// fetchChunk requests the MP3 rendering of one chunk.
func (g *GoogleTTS) fetchChunk(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.language)
	q.Set("q", chunk)
	q.Set("idx", strconv.Itoa(idx))
	q.Set("total", strconv.Itoa(total))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts HTTP %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	return data, nil
}

// splitChunks breaks text into pieces of at most max runes, preferring
// sentence boundaries, then spaces, before cutting mid-word.
func splitChunks(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := max
		window := runes[:max]

		if idx := lastBoundary(window, []rune{'.', '!', '?'}); idx > 0 {
			cut = idx + 1
		} else if idx := lastBoundary(window, []rune{' '}); idx > 0 {
			cut = idx + 1
		}

		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
	}
	return chunks
}

// lastBoundary returns the index of the last occurrence of any marker rune.
func lastBoundary(window, markers []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		for _, m := range markers {
			if window[i] == m {
				return i
			}
		}
	}
	return -1
}
