package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const summaryPrompt = "You are a news summarizer. Summarize the article in at most %d sentences of plain prose. Keep only facts stated in the article."

// LLM summarizes through an OpenAI-compatible chat-completions endpoint.
// Temperature 0 keeps the output deterministic for identical input and
// model version.
type LLM struct {
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	maxSentences int
	maxWords     int
	client       *http.Client
}

// LLMOption configures the LLM summarizer.
type LLMOption func(*LLM)

// WithLLMBaseURL sets a custom base URL (e.g., for proxies or local models).
func WithLLMBaseURL(url string) LLMOption {
	return func(l *LLM) { l.baseURL = strings.TrimRight(url, "/") }
}

// WithLLMModel sets the model name.
func WithLLMModel(model string) LLMOption {
	return func(l *LLM) { l.model = model }
}

// WithLLMTemperature sets the sampling temperature.
func WithLLMTemperature(t float64) LLMOption {
	return func(l *LLM) { l.temperature = t }
}

// WithLLMHTTPClient sets a custom HTTP client.
func WithLLMHTTPClient(client *http.Client) LLMOption {
	return func(l *LLM) { l.client = client }
}

// WithLLMBounds caps the requested summary length.
func WithLLMBounds(maxSentences, maxWords int) LLMOption {
	return func(l *LLM) {
		if maxSentences > 0 {
			l.maxSentences = maxSentences
		}
		if maxWords > 0 {
			l.maxWords = maxWords
		}
	}
}

// NewLLM creates an LLM summarizer. The API key is required; without one
// every call reports ErrModelUnavailable.
func NewLLM(apiKey string, opts ...LLMOption) *LLM {
	l := &LLM{
		apiKey:       apiKey,
		baseURL:      "https://api.openai.com/v1",
		model:        "gpt-4o-mini",
		temperature:  0,
		maxSentences: 3,
		maxWords:     120,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the backend identifier.
func (l *LLM) Name() string { return "llm" }

// chatRequest is the OpenAI chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize sends the body to the chat endpoint. Very short input is
// returned verbatim without a model call.
func (l *LLM) Summarize(ctx context.Context, body string) (string, error) {
	body = strings.TrimSpace(body)
	if wordCount(body) <= l.maxWords {
		return body, nil
	}
	if l.apiKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrModelUnavailable)
	}

	reqBody := chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(summaryPrompt, l.maxSentences)},
			{Role: "user", Content: body},
		},
		Temperature: l.temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if err := l.checkError(resp); err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (l *LLM) checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr chatResponse
	msg := string(data)
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden,
		http.StatusServiceUnavailable, http.StatusBadGateway:
		return fmt.Errorf("%w: HTTP %d: %s", ErrModelUnavailable, resp.StatusCode, msg)
	}
	return fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, msg)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
