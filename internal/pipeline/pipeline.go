// Package pipeline runs one NoticeSpec through every stage: read the PDF,
// extract its contents (text cache), structure the notice (response cache)
// and assemble the validated Notice.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/bulletin/internal/assemble"
	"github.com/jackzampolin/bulletin/internal/extract"
	"github.com/jackzampolin/bulletin/internal/gazette"
	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/structuring"
)

// Structurer turns gazette text into a structured notice.
type Structurer interface {
	Structure(ctx context.Context, src structuring.Source, spec notice.Spec) (*structuring.Result, error)
}

// Config configures a Pipeline.
type Config struct {
	Extractor  *extract.Extractor
	Structurer Structurer

	// BaseDir resolves relative PDF paths in specs.
	BaseDir string

	// ReadFile loads PDF bytes. Default: os.ReadFile.
	ReadFile func(path string) ([]byte, error)

	Logger *slog.Logger
}

// Pipeline processes notice specs. It is safe for concurrent use; items
// share nothing but the caches and the structuring rate limit.
type Pipeline struct {
	extractor  *extract.Extractor
	structurer Structurer
	baseDir    string
	readFile   func(string) ([]byte, error)
	logger     *slog.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	readFile := cfg.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &Pipeline{
		extractor:  cfg.Extractor,
		structurer: cfg.Structurer,
		baseDir:    cfg.BaseDir,
		readFile:   readFile,
		logger:     logger.With("component", "pipeline"),
	}
}

// Process returns the notice described by spec. Errors match
// extract.ErrExtractionFailed, structuring.ErrStructuring or
// assemble.ErrValidation depending on the stage that failed; a PDF that
// cannot be read is reported as is.
func (p *Pipeline) Process(ctx context.Context, spec notice.Spec) (notice.Notice, error) {
	if err := ctx.Err(); err != nil {
		return notice.Notice{}, err
	}

	path := p.resolve(spec.PDF)
	pdf, err := p.readFile(path)
	if err != nil {
		return notice.Notice{}, fmt.Errorf("failed to read %s: %w", spec.PDF, err)
	}

	extracted, err := p.extractor.Extract(ctx, pdf, spec.PDF)
	if err != nil {
		return notice.Notice{}, err
	}
	x := extracted.Extraction
	if x.Header.GazetteNumber != spec.GazetteNumber {
		return notice.Notice{}, &assemble.ValidationError{Spec: spec, Mismatches: []assemble.Mismatch{{
			Field:    "masthead_gazette_number",
			Expected: fmt.Sprint(spec.GazetteNumber),
			Got:      fmt.Sprint(x.Header.GazetteNumber),
		}}}
	}
	entry, err := extracted.Entry(spec.NoticeNumber)
	if err != nil {
		return notice.Notice{}, err
	}

	structured, err := p.structurer.Structure(ctx, source(x, entry), spec)
	if err != nil {
		return notice.Notice{}, err
	}

	n := structured.Notice
	if mismatches := reconcile(&n.Citation, x.Header, entry); len(mismatches) > 0 {
		return notice.Notice{}, &assemble.ValidationError{Spec: spec, Mismatches: mismatches}
	}
	if n.Citation.ISSN == "" {
		n.Citation.ISSN = x.Header.ISSN
	}
	if dept := department(x, entry); dept != "" {
		n.Department = dept
	}
	n.Provenance = notice.Provenance{
		Source:             spec.PDF,
		Strategy:           x.Strategy,
		TextMethod:         x.TextMethod,
		TextCache:          extracted.Outcome.String(),
		ResponseCache:      structured.Outcome.String(),
		PDFFingerprint:     string(extracted.Fingerprint),
		RequestFingerprint: string(structured.Fingerprint),
		Model:              structured.Model,
	}

	assembled, err := assemble.Assemble(spec, n)
	if err != nil {
		return notice.Notice{}, err
	}

	p.logger.Info("notice processed",
		"notice", spec.NoticeNumber,
		"gazette", spec.GazetteNumber,
		"strategy", x.Strategy,
		"text_cache", extracted.Outcome,
		"response_cache", structured.Outcome)
	return assembled, nil
}

func (p *Pipeline) resolve(path string) string {
	if p.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.baseDir, path)
}

// reconcile fills the page and publication date of c from what the gazette
// itself says and reports any value the model gave that contradicts it. The
// contents entry is authoritative for the page, the masthead for the date.
func reconcile(c *notice.Citation, h gazette.Header, entry gazette.Entry) []assemble.Mismatch {
	var mismatches []assemble.Mismatch

	switch {
	case entry.Page == 0:
	case c.Page == 0:
		c.Page = entry.Page
	case c.Page != entry.Page:
		mismatches = append(mismatches, assemble.Mismatch{
			Field:    "contents_page",
			Expected: fmt.Sprint(entry.Page),
			Got:      fmt.Sprint(c.Page),
		})
	}

	if h.Date().IsZero() {
		return mismatches
	}
	switch {
	case c.Day == 0 && c.Month == "" && c.Year == 0:
		c.Day, c.Month, c.Year = h.Day, h.Month, h.Year
	case c.Day != h.Day || !strings.EqualFold(c.Month, h.Month) || c.Year != h.Year:
		want := notice.Citation{Day: h.Day, Month: h.Month, Year: h.Year}
		mismatches = append(mismatches, assemble.Mismatch{
			Field:    "masthead_date",
			Expected: want.Date(),
			Got:      c.Date(),
		})
	}
	return mismatches
}

// source picks the text the model sees. A single-notice gazette gives the
// whole extracted text; a list gives only the entry, which is all the
// contents page says about that notice.
func source(x *extract.Extraction, entry gazette.Entry) structuring.Source {
	h := x.Header
	masthead := fmt.Sprintf("Vol. %d %d %s %d No. %d", h.Volume, h.Day, h.Month, h.Year, h.GazetteNumber)
	if h.ISSN != "" {
		masthead += " ISSN " + h.ISSN
	}

	text := entry.Line
	if x.Strategy == extract.StrategySingle {
		text = x.Text()
	}
	if strings.TrimSpace(text) == "" {
		text = entry.Description
	}
	return structuring.Source{
		Text:          text,
		Masthead:      masthead,
		ContentsEntry: entry.Line,
	}
}

// department prefers what the gazette itself says. For a list entry that is
// a known department named in the description, then the act the entry cites;
// otherwise the department detected for the whole gazette.
func department(x *extract.Extraction, entry gazette.Entry) string {
	if x.Strategy != extract.StrategySingle {
		if dept, err := gazette.MinorType(entry.Description); err == nil {
			return dept
		}
		if entry.Act != nil {
			return entry.Act.String()
		}
	}
	return x.Department
}
