// Package textsource reads the text of the first pages of a gazette PDF.
//
// The embedded text layer is tried first with poppler's pdftotext. Scanned
// gazettes have no usable text layer, so pages are then rendered with
// pdftoppm and sent to an OCR provider one at a time.
package textsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/avast/retry-go/v4"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/bulletin/internal/providers"
)

// Text extraction methods recorded on a Document.
const (
	MethodTextLayer = "text-layer"
	MethodOCR       = "ocr"
)

var (
	// ErrInvalidPDF is returned when the bytes are not a readable PDF.
	ErrInvalidPDF = errors.New("invalid PDF")

	// ErrNoText is returned when the PDF has no text layer and no OCR
	// provider is configured.
	ErrNoText = errors.New("no text layer and OCR is not configured")
)

// Document is the text of the pages that were read.
type Document struct {
	Pages     []string `json:"pages" yaml:"pages"`
	Method    string   `json:"method" yaml:"method"`
	PageCount int      `json:"page_count" yaml:"page_count"`
}

// Text joins the pages with form feeds, the separator pdftotext uses.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\f")
}

// Config configures a Source.
type Config struct {
	// MaxPages caps how many leading pages are read. Default: 5.
	MaxPages int

	// MinChars is the number of non-space characters the text layer must
	// hold before it is trusted. Default: 200.
	MinChars int

	// OCR is used when the text layer is missing or too thin. Nil disables
	// the fallback.
	OCR providers.OCRProvider

	// ForceOCR skips the text layer.
	ForceOCR bool

	// DPI for rendered pages. Default: 300.
	DPI int

	Logger *slog.Logger
}

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Source extracts page text from PDF bytes.
type Source struct {
	maxPages int
	minChars int
	ocr      providers.OCRProvider
	forceOCR bool
	dpi      int
	logger   *slog.Logger

	runner     Runner
	countPages func(pdf []byte) (int, error)
	limiter    *providers.RateLimiter
}

// New creates a Source that shells out to poppler.
func New(cfg Config) *Source {
	return newSource(cfg, ExecRunner{}, pdfcpuPageCount)
}

func newSource(cfg Config, runner Runner, countPages func([]byte) (int, error)) *Source {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 200
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Source{
		maxPages:   cfg.MaxPages,
		minChars:   cfg.MinChars,
		ocr:        cfg.OCR,
		forceOCR:   cfg.ForceOCR,
		dpi:        cfg.DPI,
		logger:     logger.With("component", "textsource"),
		runner:     runner,
		countPages: countPages,
	}
	if cfg.OCR != nil {
		s.limiter = providers.NewRateLimiter(int(cfg.OCR.RequestsPerSecond() * 60))
	}
	return s
}

// Pages returns the text of the first MaxPages pages of pdf.
func (s *Source) Pages(ctx context.Context, pdf []byte) (*Document, error) {
	total, err := s.countPages(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	n := min(total, s.maxPages)

	tmpDir, err := os.MkdirTemp("", "bulletin-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	if !s.forceOCR {
		pages, err := s.textLayer(ctx, pdfPath, n)
		if err != nil {
			return nil, err
		}
		if countChars(pages) >= s.minChars {
			return &Document{Pages: pages, Method: MethodTextLayer, PageCount: total}, nil
		}
		s.logger.Debug("text layer too thin, falling back to OCR", "chars", countChars(pages), "min", s.minChars)
	}

	if s.ocr == nil {
		return nil, ErrNoText
	}
	var pages []string
	if doc, ok := s.ocr.(providers.DocumentOCR); ok {
		pages, err = s.recognizeDocument(ctx, doc, pdf, n)
	} else {
		pages, err = s.ocrPages(ctx, pdfPath, tmpDir, n)
	}
	if err != nil {
		return nil, err
	}
	return &Document{Pages: pages, Method: MethodOCR, PageCount: total}, nil
}

// textLayer runs pdftotext over pages 1..n. Its output separates pages with
// form feeds.
func (s *Source) textLayer(ctx context.Context, pdfPath string, n int) ([]string, error) {
	out, err := s.runner.Run(ctx, "pdftotext",
		"-f", "1",
		"-l", strconv.Itoa(n),
		"-enc", "UTF-8",
		pdfPath,
		"-",
	)
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	for len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if len(pages) > n {
		pages = pages[:n]
	}
	return pages, nil
}

func (s *Source) ocrPages(ctx context.Context, pdfPath, tmpDir string, n int) ([]string, error) {
	pages := make([]string, 0, n)
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		image, err := s.renderPage(ctx, pdfPath, tmpDir, page)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page, err)
		}
		text, err := s.recognize(ctx, image, page)
		if err != nil {
			return nil, fmt.Errorf("OCR page %d: %w", page, err)
		}
		pages = append(pages, text)
	}
	s.logger.Debug("OCR complete", "provider", s.ocr.Name(), "pages", n)
	return pages, nil
}

// renderPage renders one page to PNG with pdftoppm and returns the image.
func (s *Source) renderPage(ctx context.Context, pdfPath, tmpDir string, page int) ([]byte, error) {
	prefix := filepath.Join(tmpDir, fmt.Sprintf("page_%04d", page))
	pageStr := strconv.Itoa(page)
	if _, err := s.runner.Run(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(s.dpi),
		"-singlefile",
		pdfPath,
		prefix,
	); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

// recognize sends one page to the OCR provider.
func (s *Source) recognize(ctx context.Context, image []byte, page int) (string, error) {
	var text string
	err := s.withRetry(ctx, "page", page, func() error {
		result, err := s.ocr.ProcessImage(ctx, image, page)
		if err != nil {
			return err
		}
		text = result.Text
		return nil
	})
	return text, err
}

// recognizeDocument sends the leading n pages to a provider that reads PDFs
// directly.
func (s *Source) recognizeDocument(ctx context.Context, doc providers.DocumentOCR, pdf []byte, n int) ([]string, error) {
	var pages []string
	err := s.withRetry(ctx, "pages", n, func() error {
		var err error
		pages, err = doc.ProcessDocument(ctx, pdf, n)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("OCR: %w", err)
	}
	s.logger.Debug("OCR complete", "provider", s.ocr.Name(), "pages", n, "mode", "document")
	return pages, nil
}

// withRetry runs one OCR request under the provider's rate limit and retry
// settings. Only retryable provider errors are tried again.
func (s *Source) withRetry(ctx context.Context, label string, n int, call func() error) error {
	return retry.Do(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			err := call()
			if err == nil {
				return nil
			}
			if rle, ok := providers.IsRateLimitError(err); ok {
				s.limiter.Record429(rle.RetryAfter)
			}
			if !providers.IsRetryable(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.ocr.MaxRetries()+1)),
		retry.Delay(s.ocr.RetryDelayBase()),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			s.logger.Warn("retrying OCR", label, n, "attempt", attempt+1, "error", err)
		}),
	)
}

func countChars(pages []string) int {
	n := 0
	for _, p := range pages {
		for _, r := range p {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}

func pdfcpuPageCount(pdf []byte) (int, error) {
	return api.PageCount(bytes.NewReader(pdf), nil)
}
