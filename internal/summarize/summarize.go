// Package summarize condenses article bodies into short summaries.
// The default backend is a deterministic extractive summarizer; an
// OpenAI-compatible LLM backend can be configured instead.
package summarize

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Nikita-NA/News-sentiment-analysis/internal/textproc"
)

// ErrModelUnavailable is returned when the summarization backend cannot be
// reached or is not configured. It is fatal for a whole pipeline run.
var ErrModelUnavailable = errors.New("summarize: model unavailable")

// Summarizer produces a bounded-length summary of article text.
type Summarizer interface {
	// Name returns the backend identifier.
	Name() string

	// Summarize condenses body into a short summary. Input too short to
	// summarize is returned (possibly truncated) verbatim, never an error.
	Summarize(ctx context.Context, body string) (string, error)
}

// Extractive is a deterministic frequency-based extractive summarizer:
// sentences are scored by the frequency of their content words and the
// top-scoring ones are kept in original order.
type Extractive struct {
	maxSentences int
	maxWords     int
}

// ExtractiveOption configures the extractive summarizer.
type ExtractiveOption func(*Extractive)

// WithMaxSentences caps how many sentences a summary keeps.
func WithMaxSentences(n int) ExtractiveOption {
	return func(e *Extractive) {
		if n > 0 {
			e.maxSentences = n
		}
	}
}

// WithMaxWords caps the summary word count.
func WithMaxWords(n int) ExtractiveOption {
	return func(e *Extractive) {
		if n > 0 {
			e.maxWords = n
		}
	}
}

// NewExtractive creates the default extractive summarizer.
func NewExtractive(opts ...ExtractiveOption) *Extractive {
	e := &Extractive{
		maxSentences: 3,
		maxWords:     120,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the backend identifier.
func (e *Extractive) Name() string { return "extractive" }

// Summarize picks the highest-scoring sentences. Identical input always
// yields an identical summary.
func (e *Extractive) Summarize(_ context.Context, body string) (string, error) {
	sentences := textproc.SplitSentences(body)
	if len(sentences) <= e.maxSentences {
		// Too short to condense; hand it back bounded.
		return textproc.TruncateWords(textproc.NormalizeWhitespace(body), e.maxWords), nil
	}

	freq := textproc.WordFrequencies(body, 3)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ranked[i] = scored{index: i, score: sentenceScore(s, freq)}
	}

	// Highest score first; earlier sentence wins ties so the ranking is
	// stable for identical input.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].index < ranked[j].index
		}
		return ranked[i].score > ranked[j].score
	})

	keep := ranked[:e.maxSentences]
	sort.Slice(keep, func(i, j int) bool { return keep[i].index < keep[j].index })

	parts := make([]string, len(keep))
	for i, k := range keep {
		parts[i] = sentences[k.index]
	}

	return textproc.TruncateWords(strings.Join(parts, " "), e.maxWords), nil
}

// sentenceScore sums content-word frequencies, normalized by sentence length
// so long sentences don't win by volume alone.
func sentenceScore(sentence string, freq map[string]int) float64 {
	tokens := strings.Fields(textproc.StripTokens(sentence))
	if len(tokens) == 0 {
		return 0
	}

	total := 0
	for _, tok := range tokens {
		total += freq[tok]
	}
	return float64(total) / float64(len(tokens))
}
