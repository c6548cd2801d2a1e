package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

func sentimentMarker(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return "🟢"
	case models.SentimentNegative:
		return "🔴"
	default:
		return "⚪"
	}
}

// printResult renders a run as readable text.
func printResult(w io.Writer, res *models.RunResult) {
	if res.Status == models.RunNoResults {
		fmt.Fprintf(w, "No articles found for %q.\n", res.Query)
		return
	}

	cached := ""
	if res.FromCache {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "📰 %s — %d article(s)%s\n\n", res.Query, res.Batch.Len(), cached)

	for i, a := range res.Batch.Articles {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, sentimentMarker(a.Sentiment), a.Title)
		fmt.Fprintf(w, "   %s  |  sentiment: %s (%.2f)  |  credibility: %.2f\n",
			a.Publisher, a.Sentiment, float64(a.SentimentConfidence), a.CredibilityScore)
		if len(a.Topics) > 0 {
			fmt.Fprintf(w, "   topics: %s\n", strings.Join(a.Topics, ", "))
		}
		fmt.Fprintf(w, "   %s\n", a.Summary)
		fmt.Fprintf(w, "   %s\n\n", a.SourceURL)
	}

	if agg := res.Aggregates; agg != nil {
		fmt.Fprintf(w, "Overall: %s %s", sentimentMarker(agg.Overall), agg.Overall)
		fmt.Fprintf(w, "  (%d positive / %d negative / %d neutral)",
			agg.Distribution[models.SentimentPositive],
			agg.Distribution[models.SentimentNegative],
			agg.Distribution[models.SentimentNeutral])
		fmt.Fprintf(w, "  mean credibility %.2f\n", agg.MeanCredibility)
		if len(agg.CommonTopics) > 0 {
			fmt.Fprintf(w, "Common topics: %s\n", strings.Join(agg.CommonTopics, ", "))
		}
	}
	fmt.Fprintf(w, "Completed in %s.\n", res.Duration.Round(time.Millisecond))
}

var csvHeader = []string{
	"title", "summary", "sentiment", "sentiment_confidence", "credibility_score",
	"publisher", "source_url", "topics", "published_at", "has_audio",
}

// writeCSV exports the batch to path, one row per article.
func writeCSV(path string, res *models.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range res.Batch.Articles {
		published := ""
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.Format("2006-01-02")
		}
		row := []string{
			a.Title,
			a.Summary,
			string(a.Sentiment),
			strconv.FormatFloat(float64(a.SentimentConfidence), 'f', 2, 64),
			strconv.FormatFloat(a.CredibilityScore, 'f', 2, 64),
			a.Publisher,
			a.SourceURL,
			strings.Join(a.Topics, "|"),
			published,
			strconv.FormatBool(a.HasAudio()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// saveAudio writes each article's MP3 to dir and reports how many were saved.
func saveAudio(dir string, res *models.RunResult) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	saved := 0
	for i, a := range res.Batch.Articles {
		if !a.HasAudio() {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("article_%02d.mp3", i+1))
		if err := os.WriteFile(name, a.Audio, 0o644); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
