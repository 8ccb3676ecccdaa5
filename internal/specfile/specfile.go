// Package specfile reads the notice specs that drive a batch run: a CSV or
// XLSX table with one row per notice, or annotation JSON files kept next to
// the gazette PDFs.
package specfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/bulletin/internal/gazette"
	"github.com/jackzampolin/bulletin/internal/notice"
)

// Column names. Matching is case-insensitive and ignores surrounding space.
const (
	ColumnPDF           = "pdf"
	ColumnGazetteNumber = "gazette_number"
	ColumnNoticeNumber  = "notice_number"
	ColumnMajorType     = "major_type"
	ColumnPage          = "page"
	ColumnDate          = "date"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spec file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrNoSpecs           = errors.New("no notice specs found")
)

var dateLayouts = []string{"2006-01-02", "2 January 2006", "2 Jan 2006", "02/01/2006", "2006/01/02"}

// RowError reports a row that could not be read. Rows are numbered as a
// spreadsheet shows them, header included.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Load reads specs from path. A directory is scanned for annotated PDFs;
// a file is read as CSV or XLSX by extension. Relative PDF paths are
// resolved against the directory holding the table.
func Load(path string) ([]notice.Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadAnnotations(path, "")
	}

	var specs []notice.Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		specs, err = ParseCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".xlsx":
		specs, err = LoadXLSX(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	dir := filepath.Dir(path)
	for i := range specs {
		if !filepath.IsAbs(specs[i].PDF) {
			specs[i].PDF = filepath.Join(dir, specs[i].PDF)
		}
	}
	return specs, nil
}

// ParseCSV reads a spec table in CSV form.
func ParseCSV(r io.Reader) ([]notice.Spec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

// LoadXLSX reads the spec table from the first sheet of a workbook.
func LoadXLSX(path string) ([]notice.Spec, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSpecs
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]notice.Spec, error) {
	if len(rows) == 0 {
		return nil, ErrNoSpecs
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{ColumnPDF, ColumnNoticeNumber} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var (
		specs []notice.Spec
		errs  []error
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if blank(row) {
			continue
		}

		spec, err := parseRow(rowNum, cell)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}
	return specs, nil
}

// parseRow builds a spec. A conventional PDF name supplies the gazette
// number and date when their columns are empty.
func parseRow(row int, cell func(string) string) (notice.Spec, error) {
	spec := notice.Spec{Row: row, PDF: cell(ColumnPDF)}
	if spec.PDF == "" {
		return spec, &RowError{Row: row, Column: ColumnPDF, Err: errors.New("empty")}
	}
	fromName, named := gazette.ParseFilename(filepath.Base(spec.PDF))

	var err error
	if spec.NoticeNumber, err = positive(cell(ColumnNoticeNumber)); err != nil {
		return spec, &RowError{Row: row, Column: ColumnNoticeNumber, Err: err}
	}

	switch v := cell(ColumnGazetteNumber); {
	case v != "":
		if spec.GazetteNumber, err = positive(v); err != nil {
			return spec, &RowError{Row: row, Column: ColumnGazetteNumber, Err: err}
		}
	case named:
		spec.GazetteNumber = fromName.GazetteNumber
	default:
		return spec, &RowError{Row: row, Column: ColumnGazetteNumber, Err: errors.New("empty and not derivable from the file name")}
	}

	if v := cell(ColumnMajorType); v != "" {
		if spec.MajorType, err = notice.ParseMajorType(v); err != nil {
			return spec, &RowError{Row: row, Column: ColumnMajorType, Err: err}
		}
	}
	if v := cell(ColumnPage); v != "" {
		if spec.Page, err = positive(v); err != nil {
			return spec, &RowError{Row: row, Column: ColumnPage, Err: err}
		}
	}

	switch v := cell(ColumnDate); {
	case v != "":
		if spec.Published, err = parseDate(v); err != nil {
			return spec, &RowError{Row: row, Column: ColumnDate, Err: err}
		}
	case named:
		spec.Published = fromName.Published
	}
	return spec, nil
}

func positive(s string) (int, error) {
	// Spreadsheets often hand numbers back as "6124.0".
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %d", n)
	}
	return n, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
