package batch

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/bulletin/internal/notice"
)

// Status is the outcome of one item.
type Status string

const (
	StatusPending           Status = "pending"
	StatusOK                Status = "ok"
	StatusExtractionFailed  Status = "extraction_failed"
	StatusStructuringFailed Status = "structuring_failed"
	StatusValidationFailed  Status = "validation_failed"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
)

// Item is the report line for one spec.
type Item struct {
	Spec     notice.Spec    `json:"spec" yaml:"spec"`
	Status   Status         `json:"status" yaml:"status"`
	Notice   *notice.Notice `json:"notice,omitempty" yaml:"notice,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts int            `json:"attempts" yaml:"attempts"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
}

// Report is the result of one run.
type Report struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Items    []Item    `json:"items" yaml:"items"`
}

// Notices returns the notices of successful items, in input order.
func (r *Report) Notices() []notice.Notice {
	var out []notice.Notice
	for _, it := range r.Items {
		if it.Status == StatusOK && it.Notice != nil {
			out = append(out, *it.Notice)
		}
	}
	return out
}

// Counts returns the number of items per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, it := range r.Items {
		counts[it.Status]++
	}
	return counts
}

// Failed returns the number of items that were attempted and failed.
func (r *Report) Failed() int {
	n := 0
	for _, it := range r.Items {
		switch it.Status {
		case StatusOK, StatusPending, StatusCancelled:
		default:
			n++
		}
	}
	return n
}

const reportSheet = "Report"

var reportHeaders = []string{
	"Row", "PDF", "Gazette", "Notice", "Status", "Attempts",
	"Major Type", "Department", "Bulletin Line", "Strategy", "Text Cache", "Response Cache", "Error",
}

// WriteXLSX writes the report as a spreadsheet with one row per item.
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, h)
	}

	for i, it := range r.Items {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(reportSheet, cell, v)
		}
		write(1, it.Spec.Row)
		write(2, it.Spec.PDF)
		write(3, it.Spec.GazetteNumber)
		write(4, it.Spec.NoticeNumber)
		write(5, string(it.Status))
		write(6, it.Attempts)
		if n := it.Notice; n != nil {
			write(7, string(n.MajorType))
			write(8, n.Department)
			write(9, n.BulletinLine())
			write(10, n.Provenance.Strategy)
			write(11, n.Provenance.TextCache)
			write(12, n.Provenance.ResponseCache)
		}
		write(13, it.Error)
	}

	_ = f.SetColWidth(reportSheet, "B", "B", 28)
	_ = f.SetColWidth(reportSheet, "H", "H", 36)
	_ = f.SetColWidth(reportSheet, "I", "I", 80)
	_ = f.SetColWidth(reportSheet, "M", "M", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
