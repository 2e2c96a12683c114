package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retrodocs/digitizer/internal/infrastructure/resilience"
)

func chatServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("missing bearer token, got %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		handler(w, req)
	}))
}

func chatReply(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestAnalyzeImageParsesModelJSON(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Fatalf("vision calls must request a json_object response")
		}
		chatReply(w, `{"category":"screenshot","description":"A HyperCard stack","entities":["HyperCard"]}`)
	})
	defer server.Close()

	imagePath := filepath.Join(t.TempDir(), "page001_img01.png")
	if err := os.WriteFile(imagePath, []byte("fake png bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	client := New(server.URL, "test-key", "test-model", testExecutor(), nil)
	analysis, err := NewAnalyzer(client).AnalyzeImage(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}
	if analysis.Category != "screenshot" {
		t.Fatalf("category = %q", analysis.Category)
	}
	if len(analysis.Entities) != 1 || analysis.Entities[0] != "HyperCard" {
		t.Fatalf("entities = %v", analysis.Entities)
	}
}

func TestAnalyzeImageToleratesCodeFencedJSON(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		chatReply(w, "```json\n{\"category\":\"diagram\",\"description\":\"Bus layout\",\"entities\":[]}\n```")
	})
	defer server.Close()

	imagePath := filepath.Join(t.TempDir(), "page001_img01.png")
	if err := os.WriteFile(imagePath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	client := New(server.URL, "test-key", "test-model", testExecutor(), nil)
	analysis, err := NewAnalyzer(client).AnalyzeImage(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}
	if analysis.Category != "diagram" {
		t.Fatalf("category = %q", analysis.Category)
	}
}

func TestRefineSectionSkipsEmptyInput(t *testing.T) {
	client := New("http://unreachable.invalid", "test-key", "m", nil, nil)
	out, err := NewRefiner(client).RefineSection(context.Background(), "   \n ")
	if err != nil {
		t.Fatalf("empty section must not call the model: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestChatRetriesRetryableStatus(t *testing.T) {
	var calls int
	server := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		chatReply(w, "Final text")
	})
	defer server.Close()

	client := New(server.URL, "test-key", "test-model", testExecutor(), nil)
	out, err := NewSynthesizer(client).Synthesize(context.Background(), "# draft")
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if out != "Final text" {
		t.Fatalf("output = %q", out)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestChatDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	client := New(server.URL, "test-key", "test-model", testExecutor(), nil)
	_, err := NewSynthesizer(client).Synthesize(context.Background(), "# draft")
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("401 must not be retried, got %d attempts", calls)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected HTTPStatusError 401, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                          `{"a":1}`,
		"Here you go: {\"a\":1} thanks":    `{"a":1}`,
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"no json at all":                   "no json at all",
	}
	for in, want := range cases {
		if got := extractJSONObject(in); got != want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesizePassesDraftThrough(t *testing.T) {
	var gotUser string
	server := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		if len(req.Messages) != 2 {
			t.Fatalf("expected system+user messages, got %d", len(req.Messages))
		}
		gotUser, _ = req.Messages[1].Content.(string)
		chatReply(w, "# Final")
	})
	defer server.Close()

	client := New(server.URL, "test-key", "test-model", testExecutor(), nil)
	if _, err := NewSynthesizer(client).Synthesize(context.Background(), "# draft body"); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.Contains(gotUser, "# draft body") {
		t.Fatalf("draft should be the user message, got %q", gotUser)
	}
}
