// Package pipeline orchestrates a full analysis run: discover candidate
// article links for a query, fetch and extract each one, summarize, classify
// sentiment, score publisher credibility, synthesize speech, and record the
// finished batch in session history.
//
// Per-candidate failures are soft: an article that cannot be extracted is
// skipped and counted, an article whose audio cannot be synthesized keeps its
// record without audio. Model unavailability is fatal for the whole run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Nikita-NA/News-sentiment-analysis/internal/analysis/credibility"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/analysis/sentiment"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/discovery"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/extract"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/history"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/speech"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/summarize"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/textproc"
	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// ErrEmptyQuery is returned when Run is called with a blank query.
var ErrEmptyQuery = errors.New("pipeline: empty query")

const (
	defaultLimit     = 5
	defaultWorkers   = 5
	defaultTopicsPer = 5
	topicMinLen      = 4
)

// Stage names reported through the progress callback.
const (
	StageDiscovering  = "discovering"
	StageExtracting   = "extracting"
	StageSummarizing  = "summarizing"
	StageSynthesizing = "synthesizing"
	StageDone         = "done"
	StageSkipped      = "skipped"
)

// Progress is one per-candidate event emitted while a run executes.
type Progress struct {
	Stage string `json:"stage"`
	Query string `json:"query"`
	URL   string `json:"url,omitempty"`
	Index int    `json:"index"` // position in discovery order, -1 for run-level events
	Total int    `json:"total"`
	Err   string `json:"error,omitempty"`
}

// ProgressFunc receives progress events. It is called from worker goroutines
// and must be safe for concurrent use.
type ProgressFunc func(Progress)

// Pipeline wires the analysis stages together. Construct with New; the zero
// value is not usable.
type Pipeline struct {
	source      discovery.Source
	extractor   *extract.Extractor
	summarizer  summarize.Summarizer
	model       *sentiment.Model
	scorer      credibility.Scorer
	synthesizer speech.Synthesizer // nil disables audio
	store       history.Store
	logger      *slog.Logger

	workers   int
	limit     int
	maxLimit  int
	topicsPer int
	cache     *runCache
	progress  ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSynthesizer enables speech synthesis for each summary.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(p *Pipeline) { p.synthesizer = s }
}

// WithWorkers bounds the number of candidates processed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLimits sets the default and maximum number of articles per run.
func WithLimits(def, max int) Option {
	return func(p *Pipeline) {
		if def > 0 {
			p.limit = def
		}
		if max > 0 {
			p.maxLimit = max
		}
	}
}

// WithTopicsPerArticle sets how many keywords are attached to each article.
func WithTopicsPerArticle(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.topicsPer = n
		}
	}
}

// WithCacheTTL enables the session run cache: repeating the same query and
// limit within the TTL returns the recorded result instead of recomputing.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Pipeline) {
		if ttl > 0 {
			p.cache = newRunCache(ttl)
		}
	}
}

// WithProgress registers a callback for per-candidate progress events.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New builds a Pipeline from its required stages.
func New(source discovery.Source, extractor *extract.Extractor, summarizer summarize.Summarizer,
	model *sentiment.Model, scorer credibility.Scorer, store history.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		extractor:  extractor,
		summarizer: summarizer,
		model:      model,
		scorer:     scorer,
		store:      store,
		logger:     slog.Default(),
		workers:    defaultWorkers,
		limit:      defaultLimit,
		topicsPer:  defaultTopicsPer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one analysis for the query. limit <= 0 uses the configured
// default; limits above the configured maximum are clamped. A query that
// matches no articles yields a RunResult with status no_results and a nil
// error; only transport and model failures are errors.
func (p *Pipeline) Run(ctx context.Context, query string, limit int) (*models.RunResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = p.limit
	}
	if p.maxLimit > 0 && limit > p.maxLimit {
		limit = p.maxLimit
	}

	started := time.Now()
	key := cacheKey(query, limit)
	if cached, ok := p.cache.get(key); ok {
		p.logger.Info("serving cached run", "query", query, "limit", limit)
		out := *cached
		out.FromCache = true
		out.Duration = time.Since(started)
		out.StartedAt = started
		return &out, nil
	}

	p.emit(Progress{Stage: StageDiscovering, Query: query, Index: -1})
	links, err := p.source.Discover(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("discover %q: %w", query, err)
	}
	if len(links) == 0 {
		p.logger.Info("no articles found", "query", query, "source", p.source.Name())
		return &models.RunResult{
			BatchID:   uuid.NewString(),
			Query:     query,
			Status:    models.RunNoResults,
			Batch:     &models.ResultBatch{Query: query, CreatedAt: time.Now()},
			Requested: limit,
			Duration:  time.Since(started),
			StartedAt: started,
		}, nil
	}
	p.logger.Info("discovered candidates", "query", query, "count", len(links))

	// Results land in index-addressed slots so the batch keeps discovery
	// order no matter which worker finishes first.
	slots := make([]*models.ArticleResult, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, link := range links {
		g.Go(func() error {
			res, err := p.process(gctx, query, link, i, len(links))
			if err != nil {
				var f *extract.Failure
				if errors.As(err, &f) {
					p.logger.Warn("skipping article", "url", f.URL, "reason", f.Reason)
					p.emit(Progress{Stage: StageSkipped, Query: query, URL: link.URL, Index: i, Total: len(links), Err: string(f.Reason)})
					return nil
				}
				return err
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	articles := make([]models.ArticleResult, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			articles = append(articles, *s)
		}
	}
	batch := &models.ResultBatch{Query: query, Articles: articles, CreatedAt: time.Now()}

	result := &models.RunResult{
		BatchID:    uuid.NewString(),
		Query:      query,
		Status:     models.RunOK,
		Batch:      batch,
		Requested:  limit,
		Skipped:    len(links) - len(articles),
		Aggregates: aggregate(batch),
		Duration:   time.Since(started),
		StartedAt:  started,
	}

	if err := p.store.Add(ctx, query, batch); err != nil {
		p.logger.Warn("recording batch in history failed", "query", query, "error", err)
	}
	p.cache.set(key, result)
	p.logger.Info("run complete", "query", query, "articles", batch.Len(), "skipped", result.Skipped, "duration", result.Duration)
	return result, nil
}

// Reset clears session history and the run cache together.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	p.cache.flush()
	return nil
}

// History exposes the session store to presentation adapters.
func (p *Pipeline) History() history.Store { return p.store }

func (p *Pipeline) emit(ev Progress) {
	if p.progress != nil {
		p.progress(ev)
	}
}

// process runs the per-candidate stages in sequence. An *extract.Failure is
// the only recoverable error; anything else aborts the run.
func (p *Pipeline) process(ctx context.Context, query string, link models.CandidateLink, idx, total int) (*models.ArticleResult, error) {
	p.emit(Progress{Stage: StageExtracting, Query: query, URL: link.URL, Index: idx, Total: total})
	article, err := p.extractor.Extract(ctx, link)
	if err != nil {
		return nil, err
	}

	p.emit(Progress{Stage: StageSummarizing, Query: query, URL: link.URL, Index: idx, Total: total})
	summary, err := p.summarizer.Summarize(ctx, article.Body)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", article.URL, err)
	}

	label, confidence := p.model.Classify(summary)
	res := &models.ArticleResult{
		Title:               article.Title,
		Summary:             summary,
		Sentiment:           label,
		SentimentConfidence: confidence,
		CredibilityScore:    p.scorer.Score(article.Publisher),
		SourceURL:           article.URL,
		Publisher:           article.Publisher,
		Topics:              textproc.ExtractKeywords(article.Body, p.topicsPer, topicMinLen),
		PublishedAt:         article.PublishedAt,
	}

	if p.synthesizer != nil {
		p.emit(Progress{Stage: StageSynthesizing, Query: query, URL: link.URL, Index: idx, Total: total})
		audio, err := p.synthesizer.Synthesize(ctx, summary)
		if err != nil {
			p.logger.Warn("speech synthesis failed, keeping record without audio", "url", article.URL, "error", err)
		} else {
			res.Audio = audio
		}
	}

	p.emit(Progress{Stage: StageDone, Query: query, URL: link.URL, Index: idx, Total: total})
	return res, nil
}

// aggregate derives batch-level figures for comparative display.
func aggregate(batch *models.ResultBatch) *models.BatchAggregates {
	if batch.Len() == 0 {
		return nil
	}

	agg := &models.BatchAggregates{
		Distribution: make(map[models.Sentiment]int),
		SourceCounts: make(map[string]int),
	}
	topicCounts := make(map[string]int)
	var credSum float64
	for _, a := range batch.Articles {
		agg.Distribution[a.Sentiment]++
		agg.SourceCounts[a.Publisher]++
		credSum += a.CredibilityScore
		for _, t := range a.Topics {
			topicCounts[t]++
		}
	}
	agg.MeanCredibility = credSum / float64(batch.Len())
	agg.Overall = overallSentiment(agg.Distribution)
	agg.CommonTopics = commonTopics(topicCounts)
	return agg
}

// overallSentiment picks the majority label; any tie between positive and
// negative reads as neutral.
func overallSentiment(dist map[models.Sentiment]int) models.Sentiment {
	pos, neg := dist[models.SentimentPositive], dist[models.SentimentNegative]
	switch {
	case pos > neg && pos >= dist[models.SentimentNeutral]:
		return models.SentimentPositive
	case neg > pos && neg >= dist[models.SentimentNeutral]:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// commonTopics keeps topics shared by at least two articles, most frequent
// first, capped at five.
func commonTopics(counts map[string]int) []string {
	var topics []string
	for t, n := range counts {
		if n >= 2 {
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics
}
