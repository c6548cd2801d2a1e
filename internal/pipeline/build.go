package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/internal/analysis/credibility"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/analysis/sentiment"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/config"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/discovery"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/extract"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/history"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/speech"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/summarize"
)

// FromConfig assembles a fully wired Pipeline from configuration. Extra
// options are applied last and win over config-derived ones.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...Option) (*Pipeline, error) {
	source, err := sourceFromConfig(cfg.Discovery)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(
		extract.WithTimeout(time.Duration(cfg.Fetch.TimeoutSec)*time.Second),
		extract.WithRetries(cfg.Fetch.Retries),
		extract.WithRateLimit(cfg.Fetch.RatePerSec, cfg.Fetch.RateBurst),
		extract.WithBodyBounds(cfg.Fetch.MinBodyChars, cfg.Fetch.MaxBodyChars),
	)

	summarizer, err := summarizerFromConfig(cfg.Summarize)
	if err != nil {
		return nil, err
	}

	modelOpts := []sentiment.Option{sentiment.WithNeutralThreshold(cfg.Analysis.NeutralThreshold)}
	if cfg.Analysis.LexiconFile != "" {
		modelOpts = append(modelOpts, sentiment.WithLexiconFile(cfg.Analysis.LexiconFile))
	}
	model, err := sentiment.Load(modelOpts...)
	if err != nil {
		return nil, fmt.Errorf("load sentiment model: %w", err)
	}

	store, err := storeFromConfig(ctx, cfg.History)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(logger.With("component", "pipeline")),
		WithWorkers(cfg.Pipeline.Workers),
		WithLimits(cfg.Discovery.Limit, cfg.Discovery.MaxLimit),
		WithTopicsPerArticle(cfg.Analysis.TopicsPerArticle),
		WithCacheTTL(time.Duration(cfg.Pipeline.CacheTTLSec) * time.Second),
	}
	if cfg.Speech.Enabled {
		opts = append(opts, WithSynthesizer(synthesizerFromConfig(cfg.Speech)))
	}
	opts = append(opts, extra...)

	return New(source, extractor, summarizer, model, credibility.NewTable(), store, opts...), nil
}

func sourceFromConfig(cfg config.DiscoveryConfig) (discovery.Source, error) {
	retryDelay := time.Duration(cfg.RetryDelaySec) * time.Second
	switch cfg.Source {
	case "", "bing":
		opts := []discovery.BingOption{
			discovery.WithBingOverfetch(cfg.OverfetchFactor),
			discovery.WithBingRetry(cfg.Retries, retryDelay),
		}
		if cfg.DateFrom != "" || cfg.DateTo != "" {
			opts = append(opts, discovery.WithBingDateWindow(cfg.DateFrom, cfg.DateTo))
		}
		return discovery.NewBing(opts...), nil
	case "google":
		return discovery.NewGoogleNews(
			discovery.WithGoogleNewsOverfetch(cfg.OverfetchFactor),
			discovery.WithGoogleNewsRetry(cfg.Retries, retryDelay),
		), nil
	case "feeds":
		sources, err := discovery.LoadFeedSources(cfg.SourcesFile)
		if err != nil {
			return nil, fmt.Errorf("load feed sources: %w", err)
		}
		return discovery.NewFeedList(sources), nil
	default:
		return nil, fmt.Errorf("unknown discovery source %q", cfg.Source)
	}
}

func summarizerFromConfig(cfg config.SummarizeConfig) (summarize.Summarizer, error) {
	switch cfg.Backend {
	case "", "extractive":
		return summarize.NewExtractive(
			summarize.WithMaxSentences(cfg.MaxSentences),
			summarize.WithMaxWords(cfg.MaxWords),
		), nil
	case "llm":
		opts := []summarize.LLMOption{
			summarize.WithLLMTemperature(cfg.Temperature),
			summarize.WithLLMBounds(cfg.MaxSentences, cfg.MaxWords),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, summarize.WithLLMBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, summarize.WithLLMModel(cfg.Model))
		}
		return summarize.NewLLM(cfg.OpenAIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown summarize backend %q", cfg.Backend)
	}
}

func synthesizerFromConfig(cfg config.SpeechConfig) speech.Synthesizer {
	opts := []speech.Option{
		speech.WithBreaker(cfg.BreakerFailures, time.Duration(cfg.BreakerCooldownSec)*time.Second),
	}
	if cfg.Language != "" {
		opts = append(opts, speech.WithLanguage(cfg.Language))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, speech.WithEndpoint(cfg.Endpoint))
	}
	if cfg.TimeoutSec > 0 {
		opts = append(opts, speech.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		}))
	}
	return speech.NewGoogleTTS(opts...)
}

func storeFromConfig(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return history.NewMemory(), nil
	case "redis":
		store, err := history.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis history: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
