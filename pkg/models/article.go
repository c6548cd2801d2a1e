package models

import "time"

// Sentiment is the three-way sentiment label attached to an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Valid reports whether s is one of the three defined labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Confidence represents the strength of a classification (0.0 to 1.0).
type Confidence float64

// CandidateLink is a discovered article URL that has not been fetched yet.
type CandidateLink struct {
	URL       string `json:"url"`
	Publisher string `json:"publisher"`
	Title     string `json:"title,omitempty"` // headline when the source provides one
}

// ExtractedArticle is the readable content pulled out of a fetched page.
// It is either fully populated or the candidate is reported as failed;
// no partially extracted article flows downstream.
type ExtractedArticle struct {
	URL         string    `json:"url"`
	Publisher   string    `json:"publisher"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// ArticleResult is one fully processed article.
// Audio is empty when synthesis failed or was disabled; every other field
// is populated, otherwise the record is dropped from the batch.
type ArticleResult struct {
	Title               string     `json:"title"`
	Summary             string     `json:"summary"`
	Sentiment           Sentiment  `json:"sentiment"`
	SentimentConfidence Confidence `json:"sentiment_confidence"`
	CredibilityScore    float64    `json:"credibility_score"`
	Audio               []byte     `json:"audio,omitempty"` // MP3 bytes, base64 in JSON
	SourceURL           string     `json:"source_url"`
	Publisher           string     `json:"publisher"`
	Topics              []string   `json:"topics,omitempty"`
	PublishedAt         time.Time  `json:"published_at,omitempty"`
}

// HasAudio reports whether a spoken rendering was produced for this article.
func (a *ArticleResult) HasAudio() bool { return len(a.Audio) > 0 }

// ResultBatch is the ordered output of one pipeline run.
// Articles keep the discovery ranking and the batch is never mutated
// after construction.
type ResultBatch struct {
	Query     string          `json:"query"`
	Articles  []ArticleResult `json:"articles"`
	CreatedAt time.Time       `json:"created_at"`
}

// Len returns the number of articles in the batch.
func (b *ResultBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Articles)
}
