package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/minjae-lee/settlescan/internal/pages"
)

const (
	UpstageBaseURL = "https://api.upstage.ai/v1"

	upstageChatPath  = "/solar/chat/completions"
	upstageParsePath = "/document-digitization"

	// document-parse takes a fixed model id; the options never vary.
	upstageParseModel = "document-parse"
)

// UpstageConfig holds configuration for the Upstage client.
type UpstageConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per minute
}

// UpstageClient implements Extractor against the Upstage API. It runs in one
// of two modes depending on the selected model: solar models answer a vision
// chat request with JSON, while document-parse returns a layout element list
// that the fields are mined out of.
type UpstageClient struct {
	apiKey  string
	baseURL string
	limiter *RateLimiter
	client  *http.Client
}

// NewUpstageClient creates a new Upstage client.
func NewUpstageClient(cfg UpstageConfig) *UpstageClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = UpstageBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	return &UpstageClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		limiter: NewRateLimiter(cfg.RateLimit),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (c *UpstageClient) Name() Provider {
	return Upstage
}

// Extract sends one page to Upstage and decodes the answer.
func (c *UpstageClient) Extract(ctx context.Context, page *pages.Page, model string) (*Result, error) {
	if c.apiKey == "" {
		return nil, configErr(Upstage, "missing API key")
	}
	if model == "" {
		model = Upstage.DefaultModel()
	}
	if !Upstage.HasModel(model) {
		return nil, configErr(Upstage, fmt.Sprintf("unknown model %q", model))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportErr(Upstage, "rate limit wait interrupted", err)
	}

	start := time.Now()
	var (
		raw  map[string]any
		text string
		err  error
	)
	if model == upstageParseModel {
		raw, text, err = c.parseDocument(ctx, page)
	} else {
		raw, text, err = c.chatVision(ctx, page, model)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Raw:          raw,
		RawText:      text,
		Provider:     Upstage,
		Model:        model,
		Duration:     time.Since(start),
		InputTokens:  estimateInputTokens(len(extractionPrompt)),
		OutputTokens: estimateOutputTokens(text),
	}, nil
}

// chatVision sends the page through the solar chat endpoint with the shared
// extraction instruction and pulls the first JSON object out of the answer.
func (c *UpstageClient) chatVision(ctx context.Context, page *pages.Page, model string) (map[string]any, string, error) {
	dataURI := "data:" + page.MIME + ";base64," + base64.StdEncoding.EncodeToString(page.Image)

	reqBody := upstageChatRequest{
		Model: model,
		Messages: []upstageChatMessage{{
			Role: "user",
			Content: []upstageContentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &upstageImageURL{URL: dataURI}},
			},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", transportErr(Upstage, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+upstageChatPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, "", transportErr(Upstage, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, err := c.do(req)
	if err != nil {
		return nil, "", err
	}

	var chatResp upstageChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, "", parseErr(Upstage, "failed to unmarshal response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, "", parseErr(Upstage, "no choices in response", nil)
	}
	content := chatResp.Choices[0].Message.Content

	raw, err := decodeFieldObject(content)
	if err != nil {
		return nil, content, parseErr(Upstage, "no field object in response", err)
	}
	return raw, content, nil
}

// parseDocument uploads the page to document-digitization and mines the
// settlement fields out of the returned element list. Mining never fails, so
// parse mode only errors on transport or provider problems.
func (c *UpstageClient) parseDocument(ctx context.Context, page *pages.Page) (map[string]any, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("document", page.SourceFile)
	if err != nil {
		return nil, "", transportErr(Upstage, "failed to build form", err)
	}
	if _, err := fw.Write(page.Image); err != nil {
		return nil, "", transportErr(Upstage, "failed to build form", err)
	}
	_ = w.WriteField("model", upstageParseModel)
	_ = w.WriteField("ocr", "auto")
	_ = w.WriteField("output_formats", `["text"]`)
	if err := w.Close(); err != nil {
		return nil, "", transportErr(Upstage, "failed to build form", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+upstageParsePath, &buf)
	if err != nil {
		return nil, "", transportErr(Upstage, "failed to create request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, err := c.do(req)
	if err != nil {
		return nil, "", err
	}

	var parseResp upstageParseResponse
	if err := json.Unmarshal(respBody, &parseResp); err != nil {
		return nil, "", parseErr(Upstage, "failed to unmarshal response", err)
	}

	var rec = mineElements(parseResp.Elements)
	if len(parseResp.Elements) == 0 {
		rec = mineFlatText(parseResp.Content.Text)
	}

	raw := map[string]any{
		"date":          rec.Date,
		"quantity":      rec.Quantity,
		"amountUSD":     rec.AmountUSD,
		"commissionUSD": rec.CommissionUSD,
		"totalUSD":      rec.TotalUSD,
		"totalKRW":      rec.TotalKRW,
		"balanceKRW":    rec.BalanceKRW,
	}
	return raw, parseResp.Content.Text, nil
}

// do runs a prepared request and returns the body, classifying failures.
func (c *UpstageClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportErr(Upstage, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(Upstage, "failed to read response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Record429()
	}
	if resp.StatusCode != http.StatusOK {
		var errResp upstageErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, providerErr(Upstage, resp.StatusCode, errResp.Error.Message)
		}
		return nil, providerErr(Upstage, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Upstage API types

type upstageChatRequest struct {
	Model    string               `json:"model"`
	Messages []upstageChatMessage `json:"messages"`
}

type upstageChatMessage struct {
	Role    string               `json:"role"`
	Content []upstageContentPart `json:"content"`
}

type upstageContentPart struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	ImageURL *upstageImageURL `json:"image_url,omitempty"`
}

type upstageImageURL struct {
	URL string `json:"url"`
}

type upstageChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type upstageParseResponse struct {
	Elements []docElement `json:"elements"`
	Content  struct {
		Text     string `json:"text"`
		Markdown string `json:"markdown"`
	} `json:"content"`
}

type upstageErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Verify interface
var _ Extractor = (*UpstageClient)(nil)
