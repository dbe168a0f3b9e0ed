package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SpeechClient posts reply text to a TTS endpoint and wraps the returned
// audio bytes in a data: URL the browser can play directly.
type SpeechClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	timeout    time.Duration
}

func NewSpeechClient(apiURL, apiKey string, timeout time.Duration) *SpeechClient {
	return &SpeechClient{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

type speechRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Speed  int    `json:"speed"`
	Volume int    `json:"volume"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text, voiceStyle string, speed, volume int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(speechRequest{Text: text, Voice: voiceStyle, Speed: speed, Volume: volume})
	if err != nil {
		return "", fmt.Errorf("marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read audio: %v", ErrUpstream, err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrUpstream)
	}

	return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio), nil
}
