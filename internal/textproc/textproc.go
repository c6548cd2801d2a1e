// Package textproc holds the shared text cleaning and keyword helpers used
// by extraction, summarization, and topic tagging.
package textproc

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)

	// sentenceEnd matches a terminator followed by whitespace; abbreviations
	// like "U.S." survive because the next rune is not a space+uppercase run
	// often enough for news prose.
	sentenceEnd = regexp.MustCompile(`([.!?])\s+`)
)

// Boilerplate phrases that frequently survive article extraction.
var boilerplate = []string{
	"subscribe to our newsletter",
	"sign up for our newsletter",
	"click here to subscribe",
	"all rights reserved",
	"terms of service",
	"privacy policy",
	"advertisement",
	"read more:",
	"related articles",
	"follow us on",
	"share this article",
	"cookie policy",
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "at": {},
	"by": {}, "with": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "has": {},
	"have": {}, "had": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "it": {}, "its": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "he": {}, "she": {}, "they": {}, "we": {},
	"his": {}, "her": {}, "their": {}, "our": {}, "you": {}, "your": {},
	"not": {}, "no": {}, "more": {}, "most": {}, "other": {}, "some": {},
	"such": {}, "than": {}, "also": {}, "can": {}, "may": {}, "after": {},
	"before": {}, "over": {}, "under": {}, "about": {}, "into": {},
	"said": {}, "says": {}, "new": {}, "one": {}, "two": {}, "year": {},
	"years": {}, "which": {}, "who": {}, "when": {}, "where": {},
	"what": {}, "there": {}, "out": {}, "up": {}, "down": {}, "all": {},
	"if": {}, "so": {}, "do": {}, "does": {}, "did": {}, "just": {},
	"now": {}, "per": {}, "cent": {}, "percent": {}, "company": {},
}

// NormalizeWhitespace squeezes runs of whitespace into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CleanBody prepares extracted article text for downstream stages:
// HTML entities decoded, boilerplate lines dropped, whitespace squeezed.
// Punctuation is kept; the summarizer needs sentence structure.
func CleanBody(s string) string {
	if s == "" {
		return ""
	}
	decoded := html.UnescapeString(s)

	var kept []string
	for _, line := range strings.Split(decoded, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, phrase := range boilerplate {
			if strings.Contains(lower, phrase) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}

	return NormalizeWhitespace(strings.Join(kept, " "))
}

// StripTokens removes URLs and punctuation, lowercases, and squeezes
// whitespace, leaving bare word tokens.
func StripTokens(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(s)
	out = urlPattern.ReplaceAllString(out, " ")
	out = punctuation.ReplaceAllString(out, " ")
	return strings.ToLower(NormalizeWhitespace(out))
}

// SplitSentences splits prose into sentences.
// Good enough for news copy; not a linguistic segmenter.
func SplitSentences(text string) []string {
	text = NormalizeWhitespace(text)
	if text == "" {
		return nil
	}

	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// TruncateWords cuts text to at most max words, appending an ellipsis
// when anything was dropped.
func TruncateWords(text string, max int) string {
	if max <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "…"
}

// ExtractKeywords returns the most frequent non-stopword tokens of at least
// minLen runes, ordered by frequency with an alphabetical tie-break.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := StripTokens(text)
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}
	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	n := limit
	if n <= 0 || n > len(pairs) {
		n = len(pairs)
	}
	keywords := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keywords = append(keywords, pairs[i].word)
	}
	return keywords
}

// WordFrequencies counts non-stopword token frequencies; used by the
// extractive summarizer for sentence scoring.
func WordFrequencies(text string, minLen int) map[string]int {
	clean := StripTokens(text)
	if clean == "" {
		return nil
	}
	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	return freq
}

// IsStopword reports whether the (lowercase) token is in the stopword set.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
