package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// TextGenClient talks to an OpenAI-compatible chat-completions endpoint
// (DeepSeek by default). Calls go through a circuit breaker so a dead
// upstream fails fast instead of tying up analyze workers.
type TextGenClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
}

func NewTextGenClient(apiURL, apiKey, model string, timeout time.Duration) *TextGenClient {
	settings := gobreaker.Settings{
		Name:    "textgen",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &TextGenClient{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// modeDirective appends a tone instruction to the user's prompt template.
func modeDirective(mode domain.AIMode) string {
	switch mode {
	case domain.AIModeProfessional:
		return "请用专业严谨的语气回复。"
	case domain.AIModeFriendly:
		return "请用亲切友好的语气回复。"
	default:
		return ""
	}
}

func (c *TextGenClient) Complete(ctx context.Context, commentText string, settings domain.Settings) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	systemPrompt := settings.Prompt
	if directive := modeDirective(settings.Mode); directive != "" {
		systemPrompt += "\n" + directive
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: commentText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit breaker open", ErrUpstream)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *TextGenClient) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status 429", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode body: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return parsed.Choices[0].Message.Content, nil
}
