package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/bulletin/internal/assemble"
	"github.com/jackzampolin/bulletin/internal/extract"
	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/structuring"
)

// scriptedProcessor answers per notice number. Each entry in a script is
// used once; the last one repeats.
type scriptedProcessor struct {
	mu      sync.Mutex
	scripts map[int][]error
	calls   map[int]int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	onProcess   func(spec notice.Spec)
}

func newScriptedProcessor() *scriptedProcessor {
	return &scriptedProcessor{scripts: make(map[int][]error), calls: make(map[int]int)}
}

func (p *scriptedProcessor) Process(ctx context.Context, spec notice.Spec) (notice.Notice, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.maxInFlight.Load()
		if n <= peak || p.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if p.onProcess != nil {
		p.onProcess(spec)
	}
	if err := ctx.Err(); err != nil {
		return notice.Notice{}, err
	}
	time.Sleep(time.Millisecond)

	p.mu.Lock()
	call := p.calls[spec.NoticeNumber]
	p.calls[spec.NoticeNumber]++
	script := p.scripts[spec.NoticeNumber]
	p.mu.Unlock()

	if len(script) > 0 {
		if call >= len(script) {
			call = len(script) - 1
		}
		if err := script[call]; err != nil {
			return notice.Notice{}, err
		}
	}
	return notice.Notice{
		MajorType: notice.GovernmentNotice,
		Title:     fmt.Sprintf("Notice %d", spec.NoticeNumber),
		Text:      fmt.Sprintf("Notice %d text.", spec.NoticeNumber),
		Citation:  notice.Citation{NoticeNumber: spec.NoticeNumber, GazetteNumber: spec.GazetteNumber, Day: 23, Month: "May", Year: 2025, Page: 3},
	}, nil
}

func specs(n int) []notice.Spec {
	out := make([]notice.Spec, n)
	for i := range out {
		out[i] = notice.Spec{Row: i + 2, PDF: "gg52730.pdf", GazetteNumber: 52730, NoticeNumber: 6100 + i}
	}
	return out
}

var retryableErr = &structuring.Error{Stage: structuring.StageCall, Retryable: true, Err: errors.New("503")}

func TestRun_AllItems(t *testing.T) {
	p := newScriptedProcessor()
	r := NewRunner(Config{Processor: p, Workers: 3, RetryDelay: time.Millisecond})

	report, err := r.Run(context.Background(), specs(20))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}
	if len(report.Items) != 20 {
		t.Fatalf("expected 20 items, got %d", len(report.Items))
	}
	for i, it := range report.Items {
		if it.Status != StatusOK || it.Attempts != 1 {
			t.Errorf("item %d: status %s, attempts %d", i, it.Status, it.Attempts)
		}
		if it.Notice == nil || it.Notice.Citation.NoticeNumber != 6100+i {
			t.Errorf("item %d is out of order", i)
		}
	}
	if got := len(report.Notices()); got != 20 {
		t.Errorf("Notices() = %d, want 20", got)
	}
	if peak := p.maxInFlight.Load(); peak > 3 {
		t.Errorf("%d items in flight with 3 workers", peak)
	}
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	p := newScriptedProcessor()
	p.scripts[6101] = []error{&extract.NotListedError{NoticeNumber: 6101, GazetteNumber: 52730}}
	p.scripts[6102] = []error{&assemble.ValidationError{Spec: notice.Spec{NoticeNumber: 6102}}}
	p.scripts[6103] = []error{retryableErr, retryableErr, nil}
	p.scripts[6104] = []error{retryableErr}
	p.scripts[6105] = []error{errors.New("disk on fire")}

	r := NewRunner(Config{Processor: p, Workers: 2, RetryAttempts: 3, RetryDelay: time.Millisecond})
	report, err := r.Run(context.Background(), specs(6))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []struct {
		status   Status
		attempts int
	}{
		{StatusOK, 1},
		{StatusExtractionFailed, 1},
		{StatusValidationFailed, 1},
		{StatusOK, 3},
		{StatusStructuringFailed, 3},
		{StatusFailed, 1},
	}
	for i, w := range want {
		it := report.Items[i]
		if it.Status != w.status || it.Attempts != w.attempts {
			t.Errorf("item %d: got %s after %d attempts, want %s after %d", i, it.Status, it.Attempts, w.status, w.attempts)
		}
		if it.Status != StatusOK && it.Error == "" {
			t.Errorf("item %d: failed without an error message", i)
		}
	}
	if report.Failed() != 4 {
		t.Errorf("Failed() = %d, want 4", report.Failed())
	}
	if c := report.Counts(); c[StatusOK] != 2 {
		t.Errorf("Counts()[ok] = %d, want 2", c[StatusOK])
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newScriptedProcessor()
	var seen atomic.Int32
	p.onProcess = func(spec notice.Spec) {
		if seen.Add(1) == 2 {
			cancel()
		}
	}
	r := NewRunner(Config{Processor: p, Workers: 1, RetryDelay: time.Millisecond})

	report, err := r.Run(ctx, specs(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || len(report.Items) != 10 {
		t.Fatal("expected a partial report covering every item")
	}
	if report.Items[0].Status != StatusOK {
		t.Errorf("first item status = %s, want ok", report.Items[0].Status)
	}
	counts := report.Counts()
	if counts[StatusCancelled] < 8 {
		t.Errorf("expected at least 8 cancelled items, got %d", counts[StatusCancelled])
	}
	if counts[StatusPending] != 0 {
		t.Error("no item should be left pending")
	}
	if seen.Load() > 3 {
		t.Errorf("%d items started after cancellation", seen.Load()-2)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{context.Canceled, StatusCancelled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), StatusCancelled},
		{&extract.ExtractionError{Source: "gg.pdf"}, StatusExtractionFailed},
		{retryableErr, StatusStructuringFailed},
		{&assemble.ValidationError{}, StatusValidationFailed},
		{errors.New("other"), StatusFailed},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestReport_WriteXLSX(t *testing.T) {
	p := newScriptedProcessor()
	p.scripts[6101] = []error{&extract.NotListedError{NoticeNumber: 6101, GazetteNumber: 52730}}
	report, err := NewRunner(Config{Processor: p, Workers: 2}).Run(context.Background(), specs(2))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := report.WriteXLSX(path); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][4] != "Status" || rows[1][4] != "ok" || rows[2][4] != "extraction_failed" {
		t.Errorf("unexpected status column: %q, %q, %q", rows[0][4], rows[1][4], rows[2][4])
	}
	if rows[1][8] != "Notice 6100 text. (GN 6100 in GG 52730 of 23 May 2025) (p3)" {
		t.Errorf("bulletin line = %q", rows[1][8])
	}
	if len(rows[2]) < 13 || rows[2][12] == "" {
		t.Error("failed row should carry its error")
	}
}
