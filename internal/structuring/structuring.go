// Package structuring turns gazette text into a schema-valid notice by asking
// a language model, with every accepted reply stored in the response cache
// under the fingerprint of the request that produced it.
package structuring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/bulletin/internal/cache"
	"github.com/jackzampolin/bulletin/internal/fingerprint"
	"github.com/jackzampolin/bulletin/internal/llmcall"
	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/prompts"
	"github.com/jackzampolin/bulletin/internal/prompts/notices"
	"github.com/jackzampolin/bulletin/internal/providers"
)

const (
	DefaultMaxTokens = 2048

	// truncationGrowth is applied to the token budget when a reply is cut
	// off. The longer request is sent once.
	truncationGrowth = 1.4
)

// Config configures a Client.
type Config struct {
	LLM providers.LLMClient

	// Store backs the response cache. Required.
	Store cache.Store

	// Resolver supplies the notice prompts. Default: embedded prompts only.
	Resolver *prompts.Resolver

	// RateLimiter is shared by every caller of the service and is waited on
	// only when the response cache misses. Nil disables throttling.
	RateLimiter *providers.RateLimiter

	// Recorder logs every call. Nil records nothing.
	Recorder *llmcall.Recorder

	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

// Client structures notices.
type Client struct {
	llm         providers.LLMClient
	resolver    *prompts.Resolver
	cache       *cache.Cache[json.RawMessage]
	schema      *providers.Schema
	limiter     *providers.RateLimiter
	recorder    *llmcall.Recorder
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// New creates a client. It fails only when the notice schema does not
// compile or a required dependency is missing.
func New(cfg Config) (*Client, error) {
	if cfg.LLM == nil {
		return nil, errors.New("structuring: LLM client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("structuring: response store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := providers.CompileSchema(notices.SchemaJSON())
	if err != nil {
		return nil, fmt.Errorf("structuring: %w", err)
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = prompts.NewResolver("", logger)
	}
	notices.RegisterPrompts(resolver)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		llm:         cfg.LLM,
		resolver:    resolver,
		cache:       NewResponseCache(cfg.Store, schema, logger),
		schema:      schema,
		limiter:     cfg.RateLimiter,
		recorder:    cfg.Recorder,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "structuring", "provider", cfg.LLM.Name()),
	}, nil
}

// NewResponseCache creates the response cache over store. Stored replies are
// checked against schema on every read.
func NewResponseCache(store cache.Store, schema *providers.Schema, logger *slog.Logger) *cache.Cache[json.RawMessage] {
	return cache.New(store, cache.JSONCodec[json.RawMessage]{}, cache.Options[json.RawMessage]{
		Namespace: cache.NamespaceResponses,
		Validate:  schema.Validate,
		Logger:    logger,
	})
}

// Cache returns the response cache.
func (c *Client) Cache() *cache.Cache[json.RawMessage] {
	return c.cache
}

// Source is the gazette text a notice is structured from.
type Source struct {
	// Text is the notice body: the page text for a single-notice gazette,
	// or the contents description for one entry of a list.
	Text string

	// Masthead and ContentsEntry give the model the gazette's own framing.
	Masthead      string
	ContentsEntry string
}

// Result is a structured notice and how it was obtained.
type Result struct {
	Notice      notice.Notice
	Raw         json.RawMessage
	Fingerprint fingerprint.Fingerprint
	Outcome     cache.Outcome
	Model       string
}

// Structure returns the structured notice for src. The model is called only
// on a response cache miss.
func (c *Client) Structure(ctx context.Context, src Source, spec notice.Spec) (*Result, error) {
	in := notices.Input{
		GazetteNumber: spec.GazetteNumber,
		NoticeNumber:  spec.NoticeNumber,
		Masthead:      strings.TrimSpace(src.Masthead),
		ContentsEntry: strings.TrimSpace(src.ContentsEntry),
		Text:          strings.TrimSpace(src.Text),
	}
	if major, err := spec.ExpectedMajorType(); err == nil {
		in.MajorType = string(major)
	}
	prompt, err := notices.Build(c.resolver, in)
	if err != nil {
		return nil, fmt.Errorf("failed to build notice prompt: %w", err)
	}

	fp := fingerprint.FromRequest(fingerprint.Request{
		Model:         c.model,
		PromptVersion: prompt.Version,
		PromptHash:    prompt.Hash,
		SchemaVersion: notices.SchemaVersion,
		Text:          prompt.User,
	})

	raw, outcome, err := c.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (json.RawMessage, error) {
		return c.call(ctx, fp, prompt, spec)
	})
	if err != nil {
		var serr *Error
		if errors.As(err, &serr) {
			return nil, err
		}
		return nil, fmt.Errorf("structuring %s: %w", spec, err)
	}

	parsed, err := notices.ParseResult(raw)
	if err != nil {
		return nil, &Error{Fingerprint: fp, Stage: StageParse, Err: err}
	}
	n, err := parsed.Notice()
	if err != nil {
		return nil, &Error{Fingerprint: fp, Stage: StageSchema, Err: err}
	}

	c.logger.Debug("structured notice",
		"notice", spec.NoticeNumber,
		"gazette", spec.GazetteNumber,
		"fingerprint", fp.Short(),
		"cache", outcome)

	return &Result{
		Notice:      n,
		Raw:         raw,
		Fingerprint: fp,
		Outcome:     outcome,
		Model:       c.model,
	}, nil
}

// call asks the model for a reply that satisfies the schema. A truncated
// reply is retried once with a larger budget; an unparseable or
// schema-invalid reply gets one repair turn.
func (c *Client) call(ctx context.Context, fp fingerprint.Fingerprint, prompt *notices.Prompt, spec notice.Spec) (json.RawMessage, error) {
	req := &providers.ChatRequest{
		Model: c.model,
		Messages: []providers.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: notices.SchemaJSON(),
		},
	}

	attempts := 0
	send := func() (*providers.ChatResult, *Error) {
		attempts++
		sent := *req
		sent.Messages = append([]providers.Message(nil), req.Messages...)
		res, err := c.chat(ctx, fp, prompt, spec, &sent)
		if err != nil {
			return nil, &Error{Fingerprint: fp, Stage: StageCall, Attempts: attempts, Retryable: providers.IsRetryable(err), Err: err}
		}
		return res, nil
	}

	res, serr := send()
	if serr != nil {
		return nil, serr
	}
	if res.Truncated() {
		c.logger.Warn("reply truncated, retrying with larger budget",
			"fingerprint", fp.Short(), "max_tokens", req.MaxTokens)
		req.MaxTokens = int(float64(req.MaxTokens) * truncationGrowth)
		if res, serr = send(); serr != nil {
			return nil, serr
		}
		if res.Truncated() {
			return nil, &Error{Fingerprint: fp, Stage: StageTruncated, Attempts: attempts, Retryable: true,
				Err: fmt.Errorf("reply truncated at %d tokens", req.MaxTokens)}
		}
	}

	parsed, stage, err := c.accept(res)
	if err == nil {
		return parsed, nil
	}

	c.logger.Warn("reply rejected, requesting repair", "fingerprint", fp.Short(), "stage", stage, "error", err)
	req.Messages = append(req.Messages,
		providers.Message{Role: "assistant", Content: res.Content},
		providers.Message{Role: "user", Content: providers.StructuredRepairPrompt(c.schema.Raw(), res.Content, err)},
	)
	if res, serr = send(); serr != nil {
		return nil, serr
	}
	if parsed, stage, err = c.accept(res); err != nil {
		return nil, &Error{Fingerprint: fp, Stage: stage, Attempts: attempts, Retryable: true, Err: err}
	}
	return parsed, nil
}

func (c *Client) chat(ctx context.Context, fp fingerprint.Fingerprint, prompt *notices.Prompt, spec notice.Spec, req *providers.ChatRequest) (*providers.ChatResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req.RequestID = uuid.New().String()

	res, err := c.llm.Chat(ctx, req)
	temperature := req.Temperature
	c.recorder.Record(res, llmcall.RecordOptions{
		RequestFingerprint: string(fp),
		GazetteNumber:      spec.GazetteNumber,
		NoticeNumber:       spec.NoticeNumber,
		PromptKey:          notices.UserPromptKey,
		PromptVersion:      prompt.Version,
		PromptHash:         prompt.Hash,
		Temperature:        &temperature,
		MaxTokens:          req.MaxTokens,
	})
	if err != nil {
		if rle, ok := providers.IsRateLimitError(err); ok && c.limiter != nil {
			c.limiter.Record429(rle.RetryAfter)
		}
		return nil, err
	}
	if res == nil {
		return nil, errors.New("empty reply")
	}
	return res, nil
}

// accept extracts JSON from a reply and checks it against the schema.
func (c *Client) accept(res *providers.ChatResult) (json.RawMessage, string, error) {
	parsed := res.ParsedJSON
	if len(parsed) == 0 {
		var err error
		if parsed, err = providers.ParseStructuredJSON(res.Content); err != nil {
			return nil, StageParse, err
		}
	}
	if err := c.schema.Validate(parsed); err != nil {
		return nil, StageSchema, err
	}
	return parsed, "", nil
}
