package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stock-signal-lab/internal/domain"
)

// Default configuration values for the model backend.
const (
	DefaultAITimeout          = 10 * time.Second
	DefaultRequestsPerMinute  = 30
	DefaultMaxPromptHeadlines = 10
	DefaultMaxHeadlineLen     = 100
)

var (
	// ErrBackendUnavailable reports transport or server failures. The
	// Analyzer treats it as a signal to fall back to the keyword backend.
	ErrBackendUnavailable = errors.New("sentiment backend unavailable")

	// ErrBadResponse reports a reply the score parser cannot use.
	ErrBadResponse = errors.New("unusable sentiment response")
)

// numberPattern extracts the first decimal from a free-text model reply.
var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// AIBackend scores headline batches through an external completion
// endpoint. The model replies with a single decimal which is parsed and
// clamped to [-1,1].
type AIBackend struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	limiter  *rate.Limiter

	maxHeadlines   int
	maxHeadlineLen int
}

// AIOption configures AIBackend.
type AIOption func(*AIBackend)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) AIOption {
	return func(b *AIBackend) {
		b.client = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) AIOption {
	return func(b *AIBackend) {
		b.client.Timeout = d
	}
}

// WithRequestsPerMinute caps the request rate to the endpoint.
func WithRequestsPerMinute(n int) AIOption {
	return func(b *AIBackend) {
		b.limiter = rate.NewLimiter(rate.Limit(float64(n)/60), 1)
	}
}

// WithMaxPromptHeadlines caps how many headlines enter one prompt.
func WithMaxPromptHeadlines(n int) AIOption {
	return func(b *AIBackend) {
		b.maxHeadlines = n
	}
}

// NewAIBackend builds a model backend for the given endpoint.
func NewAIBackend(endpoint, apiKey, model string, opts ...AIOption) *AIBackend {
	b := &AIBackend{
		endpoint:       endpoint,
		apiKey:         apiKey,
		model:          model,
		client:         &http.Client{Timeout: DefaultAITimeout},
		limiter:        rate.NewLimiter(rate.Limit(float64(DefaultRequestsPerMinute)/60), 1),
		maxHeadlines:   DefaultMaxPromptHeadlines,
		maxHeadlineLen: DefaultMaxHeadlineLen,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name identifies the backend in result tags and logs.
func (b *AIBackend) Name() string { return "ai" }

// completionRequest is the wire request for the scoring endpoint.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// completionResponse is the wire response. Only the text is used; the
// score is parsed out of it.
type completionResponse struct {
	Text string `json:"text"`
}

// Score sends one prompt per batch and parses the replied decimal. An
// empty batch is neutral without a network call. The rate limiter blocks
// until a slot frees or the context expires.
func (b *AIBackend) Score(ctx context.Context, instrument string, headlines []domain.Headline) (float64, error) {
	if len(headlines) == 0 {
		return 0, nil
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: rate limit wait: %v", ErrBackendUnavailable, err)
	}

	body, err := json.Marshal(completionRequest{
		Model:       b.model,
		Prompt:      b.buildPrompt(instrument, headlines),
		Temperature: 0.2,
		MaxTokens:   100,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, resp.StatusCode, string(respBody))
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrBadResponse, err)
	}

	return parseScore(completion.Text)
}

// buildPrompt renders the numbered headline list the model scores.
// Headlines are truncated so one prompt stays small.
func (b *AIBackend) buildPrompt(instrument string, headlines []domain.Headline) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the sentiment of these %s news headlines. Reply with only a decimal number between -1.0 and 1.0:\n\n", instrument)

	limit := len(headlines)
	if limit > b.maxHeadlines {
		limit = b.maxHeadlines
	}
	for i := 0; i < limit; i++ {
		text := headlines[i].Text
		if len(text) > b.maxHeadlineLen {
			text = text[:b.maxHeadlineLen]
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}

	sb.WriteString("\nScore:")
	return sb.String()
}

// parseScore extracts the first decimal from the reply and clamps it.
func parseScore(text string) (float64, error) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("%w: no number in %q", ErrBadResponse, text)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %q: %v", ErrBadResponse, match, err)
	}
	return clamp(score, -1, 1), nil
}
