package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spektr-org/charta/errs"
)

// OpenAITranslator implements Translator against an OpenAI-compatible
// /chat/completions endpoint.
type OpenAITranslator struct {
	config Config
	client *http.Client
}

// NewOpenAI creates a new chat completions translator.
func NewOpenAI(cfg Config) *OpenAITranslator {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOpenAIEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return &OpenAITranslator{
		config: cfg,
		client: &http.Client{Timeout: cfg.timeout()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete posts a system + user conversation and returns the first choice.
func (o *OpenAITranslator) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	text, err := o.call(ctx, system, user)
	if err != nil {
		o.config.logger().Warn("charta: chat completion failed", "model", o.config.Model, "error", err)
		return "", errs.Upstream("openai", err)
	}
	o.config.logger().Debug("charta: chat completion",
		"model", o.config.Model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

func (o *OpenAITranslator) call(ctx context.Context, system, user string) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: user})

	jsonBody, err := json.Marshal(chatRequest{Model: o.config.Model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.Endpoint+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("empty response")
	}
	return out.Choices[0].Message.Content, nil
}
