package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. One client
// is constructed at bootstrap and shared by every stage; all calls flow
// through the resilience executor and a single rate limiter so the pipeline
// never exceeds the provider's request budget.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
}

func New(baseURL, apiKey, model string, executor *resilience.Executor, limiter *rate.Limiter) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
		limiter:    limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, operation string, req chatRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	var content string
	call := func(ctx context.Context) error {
		var resp chatResponse
		if err := c.postJSON(ctx, "/v1/chat/completions", req, &resp, operation); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("llm %s: empty choices in response", operation)
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "llm."+operation, call, classifyLLMError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return content, nil
}

// Analyzer runs extracted images through the vision model and parses the
// structured JSON it returns.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) AnalyzeImage(ctx context.Context, imagePath string) (domain.ImageAnalysis, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))

	req := chatRequest{
		Model: a.client.model,
		Messages: []chatMessage{
			{Role: "system", Content: imageAnalysisSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: imageAnalysisUserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	respText, err := a.client.chat(ctx, "analyze_image", req)
	if err != nil {
		return domain.ImageAnalysis{}, err
	}

	var analysis domain.ImageAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &analysis); err != nil {
		return domain.ImageAnalysis{}, domain.WrapError(domain.ErrInvalidInput, "parse image analysis", err)
	}
	if analysis.Entities == nil {
		analysis.Entities = []string{}
	}
	return analysis, nil
}

// Refiner cleans one Markdown section of OCR noise.
type Refiner struct {
	client *Client
}

func NewRefiner(client *Client) *Refiner {
	return &Refiner{client: client}
}

func (r *Refiner) RefineSection(ctx context.Context, section string) (string, error) {
	if strings.TrimSpace(section) == "" {
		return "", nil
	}

	req := chatRequest{
		Model: r.client.model,
		Messages: []chatMessage{
			{Role: "system", Content: textCleanupSystemPrompt},
			{Role: "user", Content: section},
		},
	}
	return r.client.chat(ctx, "refine_section", req)
}

// Synthesizer produces the final publication-ready document.
type Synthesizer struct {
	client *Client
}

func NewSynthesizer(client *Client) *Synthesizer {
	return &Synthesizer{client: client}
}

func (s *Synthesizer) Synthesize(ctx context.Context, markdown string) (string, error) {
	req := chatRequest{
		Model: s.client.model,
		Messages: []chatMessage{
			{Role: "system", Content: synthesisSystemPrompt},
			{Role: "user", Content: markdown},
		},
	}
	return s.client.chat(ctx, "synthesize", req)
}

// extractJSONObject trims anything the model wrapped around the JSON body,
// code fences included.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
