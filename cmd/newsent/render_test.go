package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

func sampleResult() *models.RunResult {
	return &models.RunResult{
		BatchID: "test-batch",
		Query:   "Acme Corp",
		Status:  models.RunOK,
		Batch: &models.ResultBatch{
			Query: "Acme Corp",
			Articles: []models.ArticleResult{
				{
					Title:               "Acme posts record profit",
					Summary:             "Acme reported record quarterly profit.",
					Sentiment:           models.SentimentPositive,
					SentimentConfidence: 0.65,
					CredibilityScore:    0.95,
					Audio:               []byte("mp3"),
					SourceURL:           "https://reuters.com/a",
					Publisher:           "reuters.com",
					Topics:              []string{"profit", "earnings"},
					PublishedAt:         time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
				},
				{
					Title:               "Acme faces lawsuit",
					Summary:             "A supplier filed a lawsuit against Acme.",
					Sentiment:           models.SentimentNegative,
					SentimentConfidence: 0.35,
					CredibilityScore:    0.80,
					SourceURL:           "https://example.com/b",
					Publisher:           "example.com",
				},
			},
			CreatedAt: time.Now(),
		},
		Requested: 2,
		Aggregates: &models.BatchAggregates{
			Distribution: map[models.Sentiment]int{
				models.SentimentPositive: 1,
				models.SentimentNegative: 1,
			},
			Overall:         models.SentimentNeutral,
			MeanCredibility: 0.875,
		},
		Duration: 1200 * time.Millisecond,
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"Acme Corp",
		"Acme posts record profit",
		"🟢",
		"🔴",
		"reuters.com",
		"credibility: 0.95",
		"topics: profit, earnings",
		"Overall:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestPrintResultNoResults(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &models.RunResult{
		Query:  "Nothing Inc",
		Status: models.RunNoResults,
		Batch:  &models.ResultBatch{Query: "Nothing Inc"},
	})
	if !strings.Contains(buf.String(), "No articles found") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := writeCSV(path, sampleResult()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if len(rows[0]) != len(csvHeader) {
		t.Fatalf("header has %d columns, want %d", len(rows[0]), len(csvHeader))
	}
	if rows[1][0] != "Acme posts record profit" {
		t.Errorf("row 1 title %q", rows[1][0])
	}
	if rows[1][2] != "Positive" || rows[2][2] != "Negative" {
		t.Errorf("sentiment columns %q, %q", rows[1][2], rows[2][2])
	}
	if rows[1][9] != "true" || rows[2][9] != "false" {
		t.Errorf("has_audio columns %q, %q", rows[1][9], rows[2][9])
	}
	if rows[1][8] != "2026-08-20" {
		t.Errorf("published_at column %q", rows[1][8])
	}
}

func TestSaveAudio(t *testing.T) {
	dir := t.TempDir()
	saved, err := saveAudio(dir, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if saved != 1 {
		t.Fatalf("saved %d files, want 1", saved)
	}
	data, err := os.ReadFile(filepath.Join(dir, "article_01.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3" {
		t.Errorf("audio payload %q", data)
	}
}
