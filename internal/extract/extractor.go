package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/bulletin/internal/cache"
	"github.com/jackzampolin/bulletin/internal/fingerprint"
	"github.com/jackzampolin/bulletin/internal/gazette"
	"github.com/jackzampolin/bulletin/internal/textsource"
)

// TextSource reads page text from PDF bytes.
type TextSource interface {
	Pages(ctx context.Context, pdf []byte) (*textsource.Document, error)
}

// NewTextCache creates the text cache over store. Entries that no longer
// decode into a valid Extraction are treated as misses.
func NewTextCache(store cache.Store, logger *slog.Logger) *cache.Cache[*Extraction] {
	return cache.New(store, cache.JSONCodec[*Extraction]{}, cache.Options[*Extraction]{
		Namespace: cache.NamespaceText,
		Validate:  func(e *Extraction) error { return e.Validate() },
		Logger:    logger,
	})
}

// ExtractorConfig configures an Extractor.
type ExtractorConfig struct {
	Cache    *cache.Cache[*Extraction]
	Source   TextSource
	Selector *Selector // default: NewSelector with DefaultParsers
	Logger   *slog.Logger
}

// Extractor reads, parses and caches gazette PDFs.
type Extractor struct {
	cache    *cache.Cache[*Extraction]
	source   TextSource
	selector *Selector
	logger   *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	selector := cfg.Selector
	if selector == nil {
		selector = NewSelector(logger)
	}
	return &Extractor{
		cache:    cfg.Cache,
		source:   cfg.Source,
		selector: selector,
		logger:   logger.With("component", "extractor"),
	}
}

// Result is an extraction and how it was obtained.
type Result struct {
	Extraction  *Extraction
	Fingerprint fingerprint.Fingerprint
	Outcome     cache.Outcome

	// Rejected holds the attempts that failed before the accepted one. It
	// is empty unless Outcome is Miss or Recovered: a hit or a result shared
	// with a concurrent caller ran no parsers for this call.
	Rejected []Attempt
}

// Entry returns the contents entry for noticeNumber, or a *NotListedError.
func (r *Result) Entry(noticeNumber int) (gazette.Entry, error) {
	if e, ok := r.Extraction.Find(noticeNumber); ok {
		return e, nil
	}
	return gazette.Entry{}, &NotListedError{
		NoticeNumber:  noticeNumber,
		GazetteNumber: r.Extraction.Header.GazetteNumber,
		Strategy:      r.Extraction.Strategy,
		Listed:        r.Extraction.NoticeNumbers(),
	}
}

// Extract returns the extraction for pdf, reading and parsing it only when
// the text cache has no valid entry for its fingerprint.
func (x *Extractor) Extract(ctx context.Context, pdf []byte, source string) (*Result, error) {
	fp := fingerprint.FromBytes(pdf)

	var rejected []Attempt
	extraction, outcome, err := x.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*Extraction, error) {
		doc, err := x.source.Pages(ctx, pdf)
		if err != nil {
			return nil, fmt.Errorf("failed to read text of %s: %w", source, err)
		}
		sel, err := x.selector.Select(&Input{PDF: pdf, Pages: doc.Pages, Source: source})
		if err != nil {
			return nil, err
		}
		sel.Extraction.TextMethod = doc.Method
		sel.Extraction.PageCount = doc.PageCount
		rejected = sel.Rejected
		return sel.Extraction, nil
	})
	if err != nil {
		return nil, err
	}

	x.logger.Debug("extracted",
		"source", source,
		"fingerprint", fp.Short(),
		"cache", outcome,
		"strategy", extraction.Strategy,
		"entries", len(extraction.Entries))

	return &Result{
		Extraction:  extraction,
		Fingerprint: fp,
		Outcome:     outcome,
		Rejected:    rejected,
	}, nil
}
