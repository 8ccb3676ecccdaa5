package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

const (
	MistralOCRName    = "mistral-ocr"
	MistralOCRBaseURL = "https://api.mistral.ai/v1"
	MistralOCRModel   = "mistral-ocr-latest"

	// MistralOCRCostPerPage is the list price per processed page.
	MistralOCRCostPerPage = 0.001
)

// DocumentOCR is implemented by OCR providers that read PDF pages directly,
// without a rendered image per page.
type DocumentOCR interface {
	// ProcessDocument returns the text of pages 1..pages of pdf, in order.
	ProcessDocument(ctx context.Context, pdf []byte, pages int) ([]string, error)
}

// MistralOCRConfig holds configuration for the Mistral OCR client.
type MistralOCRConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // Requests per second (default: 6.0)
}

// MistralOCRClient implements OCRProvider and DocumentOCR using the Mistral
// OCR API. Gazettes are sent whole as a PDF data URL, so only the requested
// leading pages are billed.
type MistralOCRClient struct {
	apiKey    string
	baseURL   string
	model     string
	rateLimit float64
	client    *http.Client
}

// NewMistralOCRClient creates a new Mistral OCR client.
func NewMistralOCRClient(cfg MistralOCRConfig) *MistralOCRClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralOCRBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralOCRModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 6.0
	}

	return &MistralOCRClient{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		rateLimit: cfg.RateLimit,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (c *MistralOCRClient) Name() string {
	return MistralOCRName
}

// RequestsPerSecond returns the rate limit for Mistral OCR.
func (c *MistralOCRClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *MistralOCRClient) MaxRetries() int {
	return 3
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *MistralOCRClient) RetryDelayBase() time.Duration {
	return 2 * time.Second
}

// ProcessImage reads one rendered page.
func (c *MistralOCRClient) ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	start := time.Now()
	resp, err := c.ocr(ctx, mistralDocument{
		Type:     "image_url",
		ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
	}, nil)
	if err != nil {
		return &OCRResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}
	if len(resp.Pages) == 0 {
		err := fmt.Errorf("no pages in OCR response for page %d", pageNum)
		return &OCRResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}

	page := resp.Pages[0]
	return &OCRResult{
		Success: true,
		Text:    page.Markdown,
		Metadata: map[string]any{
			"model_used": resp.Model,
			"page_num":   pageNum,
			"dpi":        page.Dimensions.DPI,
		},
		CostUSD:       MistralOCRCostPerPage,
		ExecutionTime: time.Since(start),
	}, nil
}

// ProcessDocument reads the first pages of a PDF in one request. A page the
// service skips comes back as an empty string.
func (c *MistralOCRClient) ProcessDocument(ctx context.Context, pdf []byte, pages int) ([]string, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("page count must be positive, got %d", pages)
	}
	indexes := make([]int, pages)
	for i := range indexes {
		indexes[i] = i
	}
	resp, err := c.ocr(ctx, mistralDocument{
		Type:        "document_url",
		DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
	}, indexes)
	if err != nil {
		return nil, err
	}
	if len(resp.Pages) == 0 {
		return nil, fmt.Errorf("no pages in OCR response")
	}

	sort.Slice(resp.Pages, func(i, j int) bool { return resp.Pages[i].Index < resp.Pages[j].Index })
	out := make([]string, pages)
	for _, p := range resp.Pages {
		if p.Index >= 0 && p.Index < pages {
			out[p.Index] = p.Markdown
		}
	}
	return out, nil
}

// ocr posts one document to /ocr.
func (c *MistralOCRClient) ocr(ctx context.Context, doc mistralDocument, pages []int) (*mistralOCRResponse, error) {
	body, err := json.Marshal(mistralOCRRequest{Model: c.model, Document: doc, Pages: pages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Message:    "Mistral OCR rate limited",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode != http.StatusOK:
		msg := string(respBody)
		var errResp mistralErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, &StatusError{Provider: "Mistral OCR", StatusCode: resp.StatusCode, Body: msg}
	}

	var out mistralOCRResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}

type mistralOCRRequest struct {
	Model    string          `json:"model"`
	Document mistralDocument `json:"document"`
	Pages    []int           `json:"pages,omitempty"` // zero-based
}

type mistralDocument struct {
	Type        string `json:"type"` // "image_url" or "document_url"
	ImageURL    string `json:"image_url,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

type mistralOCRResponse struct {
	Model string           `json:"model"`
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index      int    `json:"index"`
	Markdown   string `json:"markdown"`
	Dimensions struct {
		DPI int `json:"dpi"`
	} `json:"dimensions"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

var (
	_ OCRProvider = (*MistralOCRClient)(nil)
	_ DocumentOCR = (*MistralOCRClient)(nil)
)
