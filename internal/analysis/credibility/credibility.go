// Package credibility assigns a trust score to a publisher. Scores depend on
// publisher identity only, never on article content, so scoring stays cheap
// and decoupled from the rest of the pipeline.
package credibility

import "strings"

// Scorer maps a publisher identifier to a trust score in [0,1].
type Scorer interface {
	// Score returns the publisher's trust score. Unknown publishers get a
	// defined default; scoring never fails.
	Score(publisher string) float64
}

// Default score for publishers not in the table.
const DefaultScore = 0.70

// genericNewsScore applies to hosts that look like news outlets without
// being individually rated.
const genericNewsScore = 0.75

// domainScores rates well-known outlets by domain keyword. Matching is by
// substring so subdomains and country variants resolve to the parent outlet.
var domainScores = map[string]float64{
	"reuters":         0.95,
	"apnews":          0.94,
	"bloomberg":       0.93,
	"wsj":             0.92,
	"nytimes":         0.92,
	"ft.com":          0.91,
	"washingtonpost":  0.91,
	"bbc":             0.90,
	"cnbc":            0.89,
	"theguardian":     0.88,
	"forbes":          0.87,
	"fortune":         0.87,
	"marketwatch":     0.86,
	"wired":           0.86,
	"businessinsider": 0.85,
	"techcrunch":      0.84,
	"theverge":        0.83,
	"zdnet":           0.82,
	"venturebeat":     0.81,
	"engadget":        0.80,
}

// Table is the default publisher-keyed credibility scorer.
type Table struct {
	scores       map[string]float64
	defaultScore float64
}

// Option configures the table scorer.
type Option func(*Table)

// WithDefaultScore overrides the score for unknown publishers.
func WithDefaultScore(s float64) Option {
	return func(t *Table) { t.defaultScore = s }
}

// WithScore adds or overrides one publisher's score.
func WithScore(publisher string, score float64) Option {
	return func(t *Table) { t.scores[strings.ToLower(publisher)] = score }
}

// NewTable creates the default credibility scorer.
func NewTable(opts ...Option) *Table {
	t := &Table{
		scores:       make(map[string]float64, len(domainScores)),
		defaultScore: DefaultScore,
	}
	for k, v := range domainScores {
		t.scores[k] = v
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Score looks up the publisher's trust score. Rated outlets match by
// substring; otherwise hosts that look like news sites get a generic news
// score, and everything else the default.
func (t *Table) Score(publisher string) float64 {
	p := strings.ToLower(strings.TrimSpace(publisher))
	if p == "" {
		return t.defaultScore
	}

	for key, score := range t.scores {
		if strings.Contains(p, key) {
			return score
		}
	}

	for _, marker := range []string{"news", "press", "media"} {
		if strings.Contains(p, marker) {
			return genericNewsScore
		}
	}

	return t.defaultScore
}
