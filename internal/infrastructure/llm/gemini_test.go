package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SocialListener/internal/config"
	"SocialListener/internal/domain"
)

func newTestClient(url string) *GeminiClient {
	return NewGeminiClient(config.GeminiConfig{
		Endpoint:        url,
		Model:           "gemini-test",
		APIKey:          "secret",
		MaxOutputTokens: 256,
	}, nil)
}

func TestCompleteSendsPromptAndReturnsText(t *testing.T) {
	t.Parallel()

	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" || r.URL.Query().Get("key") != "secret" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"category\":"},{"text":"\"Question\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "classify this", `{"category": "..."}`)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != `{"category":"Question"}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Contents[0].Parts[0].Text != "classify this" || got.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if got.GenerationConfig.MaxOutputTokens != 256 {
		t.Fatalf("max tokens not sent: %+v", got.GenerationConfig)
	}
}

func TestCompleteNarrativeHasNoMimeType(t *testing.T) {
	t.Parallel()

	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- pillar"}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "summarize", "")
	if err != nil || text != "- pillar" {
		t.Fatalf("unexpected result %q %v", text, err)
	}
	if got.GenerationConfig.ResponseMimeType != "" {
		t.Fatalf("narrative prompt must not force json: %+v", got.GenerationConfig)
	}
}

func TestCompleteMapsFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   domain.ModelErrorKind
	}{
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error":"quota"}`, kind: domain.ModelQuota},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: "overloaded", kind: domain.ModelTimeout},
		{name: "bad request", status: http.StatusBadRequest, body: "bad", kind: domain.ModelMalformed},
		{name: "garbage body", status: http.StatusOK, body: "<html>", kind: domain.ModelMalformed},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, kind: domain.ModelMalformed},
		{name: "empty text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, kind: domain.ModelMalformed},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Complete(context.Background(), "p", "")
			var mce *domain.ModelCallError
			if !errors.As(err, &mce) {
				t.Fatalf("expected ModelCallError, got %v", err)
			}
			if mce.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", mce.Kind, tc.kind)
			}
		})
	}
}

func TestCompleteTransportErrorHidesKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Complete(context.Background(), "p", "")
	var mce *domain.ModelCallError
	if !errors.As(err, &mce) || mce.Kind != domain.ModelTimeout {
		t.Fatalf("expected timeout-kind error, got %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestCompleteMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(config.GeminiConfig{Endpoint: "http://localhost", Model: "m"}, nil)
	if _, err := client.Complete(context.Background(), "p", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}
