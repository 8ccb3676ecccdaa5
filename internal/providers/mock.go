package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockReply is one scripted answer from MockClient.
type MockReply struct {
	Content      string
	FinishReason string
	Err          error
}

// MockClient is an LLMClient for testing. Replies are served in order; the
// last one repeats once the script runs out.
type MockClient struct {
	Latency time.Duration
	Replies []MockReply

	mu       sync.Mutex
	requests []*ChatRequest

	requestCount atomic.Int64
}

// NewMockClient creates a mock that always answers with content.
func NewMockClient(content string) *MockClient {
	return &MockClient{Replies: []MockReply{{Content: content, FinishReason: "stop"}}}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat serves the next scripted reply.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = ctx.Err().Error()
			return result, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if len(c.Replies) == 0 {
		return result, fmt.Errorf("mock client has no replies")
	}
	idx := int(count) - 1
	if idx >= len(c.Replies) {
		idx = len(c.Replies) - 1
	}
	reply := c.Replies[idx]
	if reply.Err != nil {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = reply.Err.Error()
		return result, reply.Err
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}

	result.Success = true
	result.Content = reply.Content
	result.FinishReason = reply.FinishReason
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(reply.Content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil && !result.Truncated() {
		if parsed, err := ParseStructuredJSON(reply.Content); err == nil {
			result.ParsedJSON = parsed
		}
	}
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns every request received, in order.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ChatRequest(nil), c.requests...)
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)

// MockOCRProvider is an OCRProvider for testing.
type MockOCRProvider struct {
	ProviderName string
	ShouldFail   bool
	// Pages maps page numbers to text; pages not listed get ResponseText.
	Pages        map[int]string
	ResponseText string

	requestCount atomic.Int64
}

// NewMockOCRProvider creates a new mock OCR provider.
func NewMockOCRProvider() *MockOCRProvider {
	return &MockOCRProvider{
		ProviderName: "mock-ocr",
		ResponseText: "mock OCR text",
	}
}

// Name returns the provider identifier.
func (p *MockOCRProvider) Name() string {
	return p.ProviderName
}

// RequestsPerSecond returns the rate limit.
func (p *MockOCRProvider) RequestsPerSecond() float64 {
	return 100
}

// MaxRetries returns the max retry count.
func (p *MockOCRProvider) MaxRetries() int {
	return 1
}

// RetryDelayBase returns the base retry delay.
func (p *MockOCRProvider) RetryDelayBase() time.Duration {
	return time.Millisecond
}

// ProcessImage returns the scripted text for pageNum.
func (p *MockOCRProvider) ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	p.requestCount.Add(1)
	if err := ctx.Err(); err != nil {
		return &OCRResult{ErrorMessage: err.Error()}, err
	}
	if p.ShouldFail {
		return &OCRResult{ErrorMessage: "mock OCR provider configured to fail"}, fmt.Errorf("mock OCR provider configured to fail")
	}

	text, ok := p.Pages[pageNum]
	if !ok {
		text = p.ResponseText
	}
	return &OCRResult{
		Success: true,
		Text:    text,
		Metadata: map[string]any{
			"page_num":    pageNum,
			"provider":    p.ProviderName,
			"image_bytes": len(image),
		},
	}, nil
}

// RequestCount returns the number of requests made.
func (p *MockOCRProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// Verify interface
var _ OCRProvider = (*MockOCRProvider)(nil)
