package credibility

import "testing"

func TestTableScore(t *testing.T) {
	table := NewTable()

	tests := []struct {
		publisher string
		want      float64
	}{
		{"reuters.com", 0.95},
		{"www.reuters.com", 0.95},
		{"uk.reuters.com", 0.95}, // subdomain resolves to the parent outlet
		{"bloomberg.com", 0.93},
		{"apnews.com", 0.94},
		{"techcrunch.com", 0.84},
		{"engadget.com", 0.80},
		{"citynews24.example", 0.75},  // generic news host
		{"pressherald.example", 0.75}, // generic press host
		{"randomblog.example", DefaultScore},
		{"", DefaultScore},
	}

	for _, tt := range tests {
		if got := table.Score(tt.publisher); got != tt.want {
			t.Errorf("Score(%q) = %.2f, want %.2f", tt.publisher, got, tt.want)
		}
	}
}

func TestTableScoreNeverFails(t *testing.T) {
	table := NewTable()

	// Any input, however odd, must yield a score in range.
	inputs := []string{"", "   ", "UPPER.CASE.HOST", "host.with.many.parts.example", "::::"}
	for _, in := range inputs {
		got := table.Score(in)
		if got < 0 || got > 1 {
			t.Errorf("Score(%q) = %f out of [0,1]", in, got)
		}
	}
}

func TestTableOptions(t *testing.T) {
	table := NewTable(
		WithDefaultScore(0.5),
		WithScore("trustedlocal.example", 0.9),
	)

	if got := table.Score("trustedlocal.example"); got != 0.9 {
		t.Errorf("custom publisher: got %.2f, want 0.9", got)
	}
	if got := table.Score("unknown.example"); got != 0.5 {
		t.Errorf("custom default: got %.2f, want 0.5", got)
	}
}

func TestScoreIsContentIndependent(t *testing.T) {
	table := NewTable()
	// Identical publisher always scores identically; only identity matters.
	first := table.Score("reuters.com")
	for i := 0; i < 5; i++ {
		if got := table.Score("reuters.com"); got != first {
			t.Fatalf("score changed between calls: %f vs %f", first, got)
		}
	}
}
