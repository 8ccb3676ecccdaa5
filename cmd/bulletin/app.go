package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/bulletin/internal/cache"
	"github.com/jackzampolin/bulletin/internal/config"
	"github.com/jackzampolin/bulletin/internal/extract"
	"github.com/jackzampolin/bulletin/internal/home"
	"github.com/jackzampolin/bulletin/internal/llmcall"
	"github.com/jackzampolin/bulletin/internal/pipeline"
	"github.com/jackzampolin/bulletin/internal/prompts"
	"github.com/jackzampolin/bulletin/internal/providers"
	"github.com/jackzampolin/bulletin/internal/providers/tesseract"
	"github.com/jackzampolin/bulletin/internal/structuring"
	"github.com/jackzampolin/bulletin/internal/textsource"
)

// app holds the components a command needs. Close releases the cache stores.
type app struct {
	mgr    *config.Manager
	cfg    *config.Config
	home   *home.Dir
	logger *slog.Logger

	registry  *providers.Registry
	resolver  *prompts.Resolver
	stores    []cache.Store
	textCache *cache.Cache[*extract.Extraction]
	extractor *extract.Extractor

	// Set by withStructuring.
	structurer *structuring.Client
	pipeline   *pipeline.Pipeline
}

// newApp loads config, opens the text cache and builds the extractor.
func newApp() (*app, error) {
	mgr, h, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	logger := slog.Default()

	a := &app{
		mgr:      mgr,
		cfg:      cfg,
		home:     h,
		logger:   logger,
		registry: providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig()),
		resolver: prompts.NewResolver(promptsDir(cfg, h), logger),
	}

	textStore, err := a.openStore(cache.NamespaceText)
	if err != nil {
		return nil, err
	}
	a.textCache = extract.NewTextCache(textStore, logger)

	ocr, err := a.ocrProvider()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.extractor = extract.NewExtractor(extract.ExtractorConfig{
		Cache: a.textCache,
		Source: textsource.New(textsource.Config{
			MaxPages: cfg.OCR.MaxPages,
			MinChars: cfg.OCR.MinChars,
			OCR:      ocr,
			ForceOCR: cfg.OCR.Force,
			DPI:      cfg.OCR.DPI,
			Logger:   logger,
		}),
		Logger: logger,
	})
	return a, nil
}

// withStructuring adds the structuring client and the pipeline. It fails
// when the configured provider has no API key.
func (a *app) withStructuring() error {
	llm, err := a.registry.GetLLM(a.cfg.Structuring.Provider)
	if err != nil {
		return fmt.Errorf("structuring provider %q is unavailable (is its API key set?): %w", a.cfg.Structuring.Provider, err)
	}
	responseStore, err := a.openStore(cache.NamespaceResponses)
	if err != nil {
		return err
	}
	a.structurer, err = structuring.New(structuring.Config{
		LLM:         llm,
		Store:       responseStore,
		Resolver:    a.resolver,
		RateLimiter: providers.NewRateLimiter(a.cfg.Structuring.RequestsPerMinute),
		Recorder:    llmcall.NewRecorder(callLogPath(a.cfg, a.home), a.logger),
		Model:       a.cfg.StructuringModel(),
		MaxTokens:   a.cfg.Structuring.MaxTokens,
		Temperature: a.cfg.Structuring.Temperature,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	a.pipeline = pipeline.New(pipeline.Config{
		Extractor:  a.extractor,
		Structurer: a.structurer,
		Logger:     a.logger,
	})
	return nil
}

func (a *app) openStore(namespace string) (cache.Store, error) {
	store, err := cache.Open(a.cfg.Cache.StoreConfig(a.home.CachePath(), a.home.CacheDBPath()), namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", namespace, err)
	}
	a.stores = append(a.stores, store)
	return store, nil
}

func (a *app) ocrProvider() (providers.OCRProvider, error) {
	switch a.cfg.OCR.Engine {
	case "none":
		return nil, nil
	case "", tesseract.Name:
		return tesseract.New(tesseract.Config{Languages: a.cfg.OCR.Languages, DPI: a.cfg.OCR.DPI}), nil
	default:
		p, err := a.registry.GetOCR(a.cfg.OCR.Engine)
		if err != nil {
			return nil, fmt.Errorf("ocr engine %q is unavailable (is its API key set?): %w", a.cfg.OCR.Engine, err)
		}
		return p, nil
	}
}

// Close releases every opened store.
func (a *app) Close() error {
	var errs []error
	for _, s := range a.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func promptsDir(cfg *config.Config, h *home.Dir) string {
	if cfg.PromptsDir != "" {
		return cfg.PromptsDir
	}
	return h.PromptsPath()
}

func callLogPath(cfg *config.Config, h *home.Dir) string {
	if cfg.CallLog != "" {
		return cfg.CallLog
	}
	return h.CallLogPath()
}
