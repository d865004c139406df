package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SocialListener/internal/config"
	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
)

// GeminiClient implements ports.Model backed by the Gemini generateContent API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Model = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxOutputTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// Complete sends a single-turn prompt. A JSON schema switches the response to application/json.
func (c *GeminiClient) Complete(ctx context.Context, prompt, responseSchema string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("gemini client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	reqBody := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: c.maxTokens},
	}
	if strings.HasPrefix(strings.TrimSpace(responseSchema), "{") {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.ModelCallError{Kind: domain.ModelTimeout, Err: fmt.Errorf("send prompt: %w", redactKey(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &domain.ModelCallError{
			Kind: statusKind(resp.StatusCode),
			Err:  fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload))),
		}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.ModelCallError{Kind: domain.ModelMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Candidates) == 0 {
		return "", &domain.ModelCallError{Kind: domain.ModelMalformed, Err: errors.New("response has no candidates")}
	}

	candidate := result.Candidates[0]
	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", &domain.ModelCallError{
			Kind: domain.ModelMalformed,
			Err:  fmt.Errorf("empty candidate (finish reason %s)", candidate.FinishReason),
		}
	}

	if candidate.FinishReason == "MAX_TOKENS" {
		c.warn("gemini response truncated", "model", c.model, "max_tokens", c.maxTokens, "content_length", text.Len())
	}

	return text.String(), nil
}

func statusKind(status int) domain.ModelErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ModelQuota
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return domain.ModelTimeout
	default:
		return domain.ModelMalformed
	}
}

// redactKey drops the request URL, which carries the API key, from transport errors.
func redactKey(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

func (c *GeminiClient) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
