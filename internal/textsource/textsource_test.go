package textsource

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/bulletin/internal/providers"
)

// fakeRunner stands in for poppler. pdftotext returns text; pdftoppm writes a
// placeholder PNG at the requested prefix.
type fakeRunner struct {
	text string
	err  error

	mu    sync.Mutex
	calls [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	switch name {
	case "pdftotext":
		return []byte(r.text), nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		return nil, os.WriteFile(prefix+".png", []byte("png"), 0o600)
	}
	return nil, errors.New("unexpected command " + name)
}

func (r *fakeRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, c := range r.calls {
		names = append(names, c[0])
	}
	return names
}

func pageCount(n int) func([]byte) (int, error) {
	return func([]byte) (int, error) { return n, nil }
}

var gazettePage = strings.Repeat("Government Gazette Vol. 719 23 May 2025 No. 52724 ", 10)

func TestSource_TextLayer(t *testing.T) {
	runner := &fakeRunner{text: gazettePage + "\f" + "Contents 3228\f"}
	ocr := providers.NewMockOCRProvider()
	s := newSource(Config{OCR: ocr}, runner, pageCount(8))

	doc, err := s.Pages(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("Pages() error = %v", err)
	}
	if doc.Method != MethodTextLayer {
		t.Errorf("Method = %q, want %q", doc.Method, MethodTextLayer)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if doc.PageCount != 8 {
		t.Errorf("PageCount = %d, want 8", doc.PageCount)
	}
	if ocr.RequestCount() != 0 {
		t.Errorf("expected no OCR calls, got %d", ocr.RequestCount())
	}

	args := strings.Join(runner.calls[0], " ")
	if !strings.Contains(args, "-f 1 -l 5") {
		t.Errorf("expected page range capped at 5, got %q", args)
	}
}

func TestSource_OCRFallback(t *testing.T) {
	t.Run("thin text layer", func(t *testing.T) {
		runner := &fakeRunner{text: "\f\f"}
		ocr := providers.NewMockOCRProvider()
		ocr.Pages = map[int]string{1: "masthead", 2: "contents"}
		s := newSource(Config{OCR: ocr, MaxPages: 2}, runner, pageCount(3))

		doc, err := s.Pages(context.Background(), []byte("%PDF"))
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if doc.Method != MethodOCR {
			t.Errorf("Method = %q, want %q", doc.Method, MethodOCR)
		}
		if len(doc.Pages) != 2 || doc.Pages[0] != "masthead" || doc.Pages[1] != "contents" {
			t.Errorf("unexpected pages %q", doc.Pages)
		}
		if ocr.RequestCount() != 2 {
			t.Errorf("expected 2 OCR calls, got %d", ocr.RequestCount())
		}
		if doc.Text() != "masthead\fcontents" {
			t.Errorf("Text() = %q", doc.Text())
		}
	})

	t.Run("force OCR skips text layer", func(t *testing.T) {
		runner := &fakeRunner{text: gazettePage}
		ocr := providers.NewMockOCRProvider()
		s := newSource(Config{OCR: ocr, ForceOCR: true}, runner, pageCount(1))

		doc, err := s.Pages(context.Background(), []byte("%PDF"))
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if doc.Method != MethodOCR {
			t.Errorf("Method = %q, want %q", doc.Method, MethodOCR)
		}
		for _, name := range runner.commands() {
			if name == "pdftotext" {
				t.Error("pdftotext should not run when OCR is forced")
			}
		}
	})

	t.Run("no OCR configured", func(t *testing.T) {
		s := newSource(Config{}, &fakeRunner{text: ""}, pageCount(1))
		if _, err := s.Pages(context.Background(), []byte("%PDF")); !errors.Is(err, ErrNoText) {
			t.Errorf("expected ErrNoText, got %v", err)
		}
	})

	t.Run("OCR failure", func(t *testing.T) {
		ocr := providers.NewMockOCRProvider()
		ocr.ShouldFail = true
		s := newSource(Config{OCR: ocr}, &fakeRunner{}, pageCount(1))

		if _, err := s.Pages(context.Background(), []byte("%PDF")); err == nil {
			t.Fatal("expected error")
		}
		if got := ocr.RequestCount(); got != int64(ocr.MaxRetries()+1) {
			t.Errorf("expected %d attempts, got %d", ocr.MaxRetries()+1, got)
		}
	})
}

func TestSource_Errors(t *testing.T) {
	t.Run("invalid PDF", func(t *testing.T) {
		s := newSource(Config{}, &fakeRunner{}, func([]byte) (int, error) {
			return 0, errors.New("no header")
		})
		if _, err := s.Pages(context.Background(), []byte("nope")); !errors.Is(err, ErrInvalidPDF) {
			t.Errorf("expected ErrInvalidPDF, got %v", err)
		}
	})

	t.Run("empty PDF", func(t *testing.T) {
		s := newSource(Config{}, &fakeRunner{}, pageCount(0))
		if _, err := s.Pages(context.Background(), []byte("%PDF")); !errors.Is(err, ErrInvalidPDF) {
			t.Errorf("expected ErrInvalidPDF, got %v", err)
		}
	})

	t.Run("pdftotext failure", func(t *testing.T) {
		s := newSource(Config{}, &fakeRunner{err: errors.New("exit status 1")}, pageCount(1))
		_, err := s.Pages(context.Background(), []byte("%PDF"))
		if err == nil || !strings.Contains(err.Error(), "pdftotext") {
			t.Errorf("expected pdftotext error, got %v", err)
		}
	})

	t.Run("cancelled during OCR", func(t *testing.T) {
		ocr := providers.NewMockOCRProvider()
		s := newSource(Config{OCR: ocr, ForceOCR: true}, &fakeRunner{}, pageCount(3))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Pages(ctx, []byte("%PDF")); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// documentOCR reads whole PDFs; it fails the first failures calls with a
// retryable status.
type documentOCR struct {
	*providers.MockOCRProvider
	pages    []string
	failures int

	mu    sync.Mutex
	calls int
	asked []int
}

func (d *documentOCR) RetryDelayBase() time.Duration { return time.Millisecond }

func (d *documentOCR) ProcessDocument(ctx context.Context, pdf []byte, pages int) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.asked = append(d.asked, pages)
	if d.calls <= d.failures {
		return nil, &providers.StatusError{Provider: "doc", StatusCode: 503, Body: "busy"}
	}
	return d.pages[:pages], nil
}

func TestSource_DocumentOCR(t *testing.T) {
	t.Run("whole document without rendering", func(t *testing.T) {
		runner := &fakeRunner{text: "\f"}
		ocr := &documentOCR{MockOCRProvider: providers.NewMockOCRProvider(), pages: []string{"masthead", "contents", "notice"}}
		s := newSource(Config{OCR: ocr, MaxPages: 2}, runner, pageCount(3))

		doc, err := s.Pages(context.Background(), []byte("%PDF"))
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if doc.Method != MethodOCR || len(doc.Pages) != 2 || doc.Pages[1] != "contents" {
			t.Errorf("unexpected document %+v", doc)
		}
		if len(ocr.asked) != 1 || ocr.asked[0] != 2 {
			t.Errorf("expected one request for 2 pages, got %v", ocr.asked)
		}
		if ocr.RequestCount() != 0 {
			t.Errorf("per-page OCR should not run, got %d calls", ocr.RequestCount())
		}
		for _, name := range runner.commands() {
			if name == "pdftoppm" {
				t.Error("pages should not be rendered for document OCR")
			}
		}
	})

	t.Run("retries service errors", func(t *testing.T) {
		ocr := &documentOCR{MockOCRProvider: providers.NewMockOCRProvider(), pages: []string{"masthead"}, failures: 1}
		s := newSource(Config{OCR: ocr, ForceOCR: true}, &fakeRunner{}, pageCount(1))

		doc, err := s.Pages(context.Background(), []byte("%PDF"))
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if ocr.calls != 2 || doc.Pages[0] != "masthead" {
			t.Errorf("expected success on second call, calls=%d pages=%q", ocr.calls, doc.Pages)
		}
	})
}
