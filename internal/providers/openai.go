package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/minjae-lee/settlescan/internal/pages"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // optional override, used when routing through the relay
	Timeout   time.Duration
	RateLimit int // requests per minute
}

// OpenAIClient implements Extractor using the OpenAI chat completions API
// with an inline image and JSON-object response format.
type OpenAIClient struct {
	cfg     OpenAIConfig
	client  openai.Client
	limiter *RateLimiter
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		cfg:     cfg,
		client:  openai.NewClient(opts...),
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() Provider {
	return OpenAI
}

// Extract sends one page to OpenAI and decodes the answer.
func (c *OpenAIClient) Extract(ctx context.Context, page *pages.Page, model string) (*Result, error) {
	if c.cfg.APIKey == "" {
		return nil, configErr(OpenAI, "missing API key")
	}
	if model == "" {
		model = OpenAI.DefaultModel()
	}
	if !OpenAI.HasModel(model) {
		return nil, configErr(OpenAI, fmt.Sprintf("unknown model %q", model))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportErr(OpenAI, "rate limit wait interrupted", err)
	}

	dataURI := "data:" + page.MIME + ";base64," + base64.StdEncoding.EncodeToString(page.Image)

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(extractionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURI,
				}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 429 {
				c.limiter.Record429()
			}
			return nil, providerErr(OpenAI, apiErr.StatusCode, apiErr.Message)
		}
		return nil, transportErr(OpenAI, "chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, parseErr(OpenAI, "no choices in response", nil)
	}
	content := resp.Choices[0].Message.Content

	raw, err := decodeFieldObject(content)
	if err != nil {
		return nil, parseErr(OpenAI, "no field object in response", err)
	}

	inTokens := estimateInputTokens(len(extractionPrompt))
	outTokens := estimateOutputTokens(content)
	if resp.Usage.PromptTokens > 0 {
		inTokens = int(resp.Usage.PromptTokens)
	}
	if resp.Usage.CompletionTokens > 0 {
		outTokens = int(resp.Usage.CompletionTokens)
	}

	return &Result{
		Raw:          raw,
		RawText:      content,
		Provider:     OpenAI,
		Model:        model,
		Duration:     time.Since(start),
		InputTokens:  inTokens,
		OutputTokens: outTokens,
	}, nil
}

// Verify interface
var _ Extractor = (*OpenAIClient)(nil)
