package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/minjae-lee/settlescan/internal/pages"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey    string
	Endpoint  string // optional override, used when routing through the relay
	Timeout   time.Duration
	RateLimit int // requests per minute
}

// GeminiClient implements Extractor using the Google Gemini API. Gemini
// answers image-plus-instruction requests with the field object directly, so
// the adapter only has to unwrap the first candidate's text parts.
type GeminiClient struct {
	cfg     GeminiConfig
	limiter *RateLimiter
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	return &GeminiClient{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() Provider {
	return Gemini
}

// Extract sends one page to Gemini and decodes the answer.
func (c *GeminiClient) Extract(ctx context.Context, page *pages.Page, model string) (*Result, error) {
	if c.cfg.APIKey == "" {
		return nil, configErr(Gemini, "missing API key")
	}
	if model == "" {
		model = Gemini.DefaultModel()
	}
	if !Gemini.HasModel(model) {
		return nil, configErr(Gemini, fmt.Sprintf("unknown model %q", model))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportErr(Gemini, "rate limit wait interrupted", err)
	}

	opts := []option.ClientOption{option.WithAPIKey(c.cfg.APIKey)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, transportErr(Gemini, "creating client", err)
	}
	defer client.Close()

	// Pages are normalized to PNG at upload time.
	parts := []genai.Part{
		genai.ImageData("png", page.Image),
		genai.Text(extractionPrompt),
	}

	resp, err := client.GenerativeModel(model).GenerateContent(ctx, parts...)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == 429 {
				c.limiter.Record429()
			}
			return nil, providerErr(Gemini, apiErr.Code, apiErr.Message)
		}
		return nil, transportErr(Gemini, "generating content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, parseErr(Gemini, "no candidates in response", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	content := sb.String()

	raw, err := decodeFieldObject(content)
	if err != nil {
		return nil, parseErr(Gemini, "no field object in response", err)
	}

	// This SDK version reports no usage counts, so cost accounting runs on
	// the same length-based estimates the other adapters fall back to.
	return &Result{
		Raw:          raw,
		RawText:      content,
		Provider:     Gemini,
		Model:        model,
		Duration:     time.Since(start),
		InputTokens:  estimateInputTokens(len(extractionPrompt)),
		OutputTokens: estimateOutputTokens(content),
	}, nil
}

// Verify interface
var _ Extractor = (*GeminiClient)(nil)
