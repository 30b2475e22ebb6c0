package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// GEMINI TRANSLATOR — Calls Google Gemini generateContent
// ============================================================================
// No retries and no rate limiting: a failed or timed-out call is returned
// as an UpstreamError and the caller decides what to do with it.
// ============================================================================

// GeminiTranslator implements Translator using Google Gemini API.
type GeminiTranslator struct {
	config Config
	client *http.Client
}

// NewGemini creates a new Gemini translator.
func NewGemini(cfg Config) *GeminiTranslator {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}

	return &GeminiTranslator{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.timeout(),
		},
	}
}

// Complete sends the system instruction and user prompt and returns the
// first candidate's text.
func (g *GeminiTranslator) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	text, err := g.callGemini(ctx, system, user)
	if err != nil {
		g.config.logger().Warn("charta: gemini call failed", "model", g.config.Model, "error", err)
		return "", errs.Upstream("gemini", err)
	}
	g.config.logger().Debug("charta: gemini call",
		"model", g.config.Model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// ============================================================================
// GEMINI API CALL
// ============================================================================

// geminiRequest is the Gemini API request body.
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the Gemini API response body.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// callGemini sends a prompt to the Gemini API and returns the text response.
func (g *GeminiTranslator) callGemini(ctx context.Context, system, user string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		g.config.Endpoint, g.config.Model, url.QueryEscape(g.config.APIKey))

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: user}},
		}},
	}
	if system != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
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

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("error %d: %s", geminiResp.Error.Code, geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
