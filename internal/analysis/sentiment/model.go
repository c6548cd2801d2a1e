// Package sentiment classifies text into a three-way sentiment label with a
// confidence score, using a weighted keyword lexicon loaded once at startup.
package sentiment

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// ErrModelUnavailable is returned when the model cannot be loaded. It is
// fatal for a whole pipeline run; no classification can be trusted without
// the model.
var ErrModelUnavailable = errors.New("sentiment: model unavailable")

// builtinVersion identifies the built-in lexicon artifact.
const builtinVersion = "lexicon-v1"

// positive / negative keyword dictionaries (lowercase). Multi-word entries
// are matched as substrings of the lowercased input.
var positiveWords = map[string]float64{
	"surge": 0.7, "soar": 0.7, "rally": 0.6, "record high": 0.7,
	"all-time high": 0.7, "beat": 0.5, "beats estimate": 0.6, "exceeds": 0.5,
	"upbeat": 0.5, "positive": 0.4, "growth": 0.4, "upgrade": 0.6,
	"outperform": 0.6, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"profit": 0.3, "dividend": 0.4, "expansion": 0.4, "wins": 0.5,
	"breakthrough": 0.6, "success": 0.5, "gain": 0.4, "climb": 0.4,
	"optimistic": 0.5, "milestone": 0.4, "raises guidance": 0.7,
	"raised its": 0.4, "partnership": 0.3, "innovative": 0.3,
}

var negativeWords = map[string]float64{
	"crash": 0.8, "plunge": 0.7, "slump": 0.6, "selloff": 0.7,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6, "weak": 0.4,
	"decline": 0.5, "loss": 0.4, "fall": 0.4, "drop": 0.4,
	"fraud": 0.8, "scandal": 0.8, "scam": 0.8, "lawsuit": 0.6,
	"investigation": 0.5, "probe": 0.5, "layoff": 0.6, "cuts jobs": 0.7,
	"miss": 0.5, "missed estimates": 0.6, "warning": 0.5, "concern": 0.3,
	"bankruptcy": 0.9, "default": 0.7, "recall": 0.5, "fine": 0.4,
	"lowers guidance": 0.7, "disappointing": 0.6, "struggles": 0.5,
}

// Model is the loaded sentiment classifier. It is read-only after Load and
// safe for concurrent use.
type Model struct {
	version     string
	positive    map[string]float64
	negative    map[string]float64
	threshold   float64
	lexiconPath string
}

// Option configures model loading.
type Option func(*Model)

// WithNeutralThreshold sets the |net score| below which the label defaults
// to Neutral. Model recalibration may shift this, so it is configurable.
func WithNeutralThreshold(t float64) Option {
	return func(m *Model) {
		if t > 0 {
			m.threshold = t
		}
	}
}

// WithLexiconFile overlays word weights from a YAML lexicon file on top of
// the built-in dictionaries.
func WithLexiconFile(path string) Option {
	return func(m *Model) { m.lexiconPath = path }
}

// lexiconFile is the on-disk layout of a lexicon overlay:
//
//	version: custom-v2
//	positive:
//	  stellar: 0.6
//	negative:
//	  dismal: 0.6
type lexiconFile struct {
	Version  string             `yaml:"version"`
	Positive map[string]float64 `yaml:"positive"`
	Negative map[string]float64 `yaml:"negative"`
}

// Load builds the model from the built-in lexicon plus any configured
// overlay. Called once at process start; the model never updates afterwards.
func Load(opts ...Option) (*Model, error) {
	m := &Model{
		version:   builtinVersion,
		positive:  make(map[string]float64, len(positiveWords)),
		negative:  make(map[string]float64, len(negativeWords)),
		threshold: 0.1,
	}
	for word, w := range positiveWords {
		m.positive[word] = w
	}
	for word, w := range negativeWords {
		m.negative[word] = w
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.lexiconPath != "" {
		if err := m.applyLexiconFile(m.lexiconPath); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Model) applyLexiconFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read lexicon %s: %v", ErrModelUnavailable, path, err)
	}

	var lex lexiconFile
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return fmt.Errorf("%w: parse lexicon %s: %v", ErrModelUnavailable, path, err)
	}
	if len(lex.Positive) == 0 && len(lex.Negative) == 0 {
		return fmt.Errorf("%w: lexicon %s has no entries", ErrModelUnavailable, path)
	}

	for word, w := range lex.Positive {
		m.positive[strings.ToLower(word)] = w
	}
	for word, w := range lex.Negative {
		m.negative[strings.ToLower(word)] = w
	}
	if lex.Version != "" {
		m.version = lex.Version
	} else {
		m.version = builtinVersion + "+custom"
	}
	return nil
}

// Version returns the loaded lexicon artifact version.
func (m *Model) Version() string { return m.version }

// NeutralThreshold returns the configured neutral cutoff.
func (m *Model) NeutralThreshold() float64 { return m.threshold }

// Classify labels the text as Positive, Negative, or Neutral with a
// confidence in [0,1]. Low-signal and near-tie inputs resolve to Neutral,
// never to an error. Pure function of the input and the loaded lexicon.
func (m *Model) Classify(text string) (models.Sentiment, models.Confidence) {
	lower := strings.ToLower(text)

	posScore := 0.0
	negScore := 0.0
	matches := 0

	for word, weight := range m.positive {
		if strings.Contains(lower, word) {
			posScore += weight
			matches++
		}
	}
	for word, weight := range m.negative {
		if strings.Contains(lower, word) {
			negScore += weight
			matches++
		}
	}

	if matches == 0 || posScore+negScore == 0 {
		return models.SentimentNeutral, 0.1 // no signal
	}

	// Net score normalized to -1..+1.
	net := (posScore - negScore) / (posScore + negScore)

	// Confidence grows with the number of keyword matches.
	confidence := models.Confidence(math.Min(float64(matches)*0.15+0.2, 0.85))

	if math.Abs(net) < m.threshold {
		return models.SentimentNeutral, confidence
	}
	if net > 0 {
		return models.SentimentPositive, confidence
	}
	return models.SentimentNegative, confidence
}
