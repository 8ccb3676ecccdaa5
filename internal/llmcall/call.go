// Package llmcall provides LLM call recording and querying for traceability.
// Every structuring call is appended to a JSONL log with the fingerprint of
// the request, so a cached response can be traced back to the call that
// produced it.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/bulletin/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	RequestFingerprint string `json:"request_fingerprint,omitempty"`
	GazetteNumber      int    `json:"gazette_number,omitempty"`
	NoticeNumber       int    `json:"notice_number,omitempty"`

	// Prompt traceability
	PromptKey     string `json:"prompt_key"`
	PromptVersion string `json:"prompt_version,omitempty"`
	PromptHash    string `json:"prompt_hash,omitempty"`

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`

	// Token usage
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd,omitempty"`

	// Response
	Response     string `json:"response"`
	FinishReason string `json:"finish_reason,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	RequestFingerprint string
	GazetteNumber      int
	NoticeNumber       int

	// Prompt identification (required for traceability)
	PromptKey     string
	PromptVersion string
	PromptHash    string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
	MaxTokens   int
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:                 uuid.New().String(),
		Timestamp:          time.Now(),
		LatencyMs:          int(result.ExecutionTime.Milliseconds()),
		RequestFingerprint: opts.RequestFingerprint,
		GazetteNumber:      opts.GazetteNumber,
		NoticeNumber:       opts.NoticeNumber,
		PromptKey:          opts.PromptKey,
		PromptVersion:      opts.PromptVersion,
		PromptHash:         opts.PromptHash,
		Provider:           result.Provider,
		Model:              result.ModelUsed,
		Temperature:        opts.Temperature,
		MaxTokens:          opts.MaxTokens,
		InputTokens:        result.PromptTokens,
		OutputTokens:       result.CompletionTokens,
		CostUSD:            result.CostUSD,
		Response:           result.Content,
		FinishReason:       result.FinishReason,
		Attempts:           result.Attempts,
		Success:            result.Success,
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}
	return call
}
