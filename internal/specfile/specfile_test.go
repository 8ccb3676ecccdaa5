package specfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/bulletin/internal/notice"
)

func TestParseCSV(t *testing.T) {
	in := `PDF, Gazette_Number, notice_number, major_type, page, date
gg52724_23May2025.pdf,52724,3228,GenN,3,2025-05-23
gg52730_23May2025.pdf,,6124,,,
,,,,,
gg52731.pdf,52731,6130,GN,,30 May 2025
`
	specs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}

	first := specs[0]
	if first.Row != 2 || first.GazetteNumber != 52724 || first.NoticeNumber != 3228 || first.MajorType != notice.GeneralNotice || first.Page != 3 {
		t.Errorf("unexpected first spec %+v", first)
	}
	if !first.Published.Equal(time.Date(2025, time.May, 23, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", first.Published)
	}

	derived := specs[1]
	if derived.GazetteNumber != 52730 {
		t.Errorf("gazette number should come from the file name, got %d", derived.GazetteNumber)
	}
	if derived.Published.Day() != 23 || derived.MajorType != "" {
		t.Errorf("unexpected derived spec %+v", derived)
	}

	if specs[2].Row != 5 || specs[2].Published.Day() != 30 {
		t.Errorf("blank rows should keep spreadsheet numbering, got %+v", specs[2])
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   error
		column string
	}{
		{"missing column", "pdf,gazette_number\ngg.pdf,52724\n", ErrMissingColumn, ""},
		{"header only", "pdf,notice_number\n", ErrNoSpecs, ""},
		{"bad notice number", "pdf,gazette_number,notice_number\ngg.pdf,52724,abc\n", nil, ColumnNoticeNumber},
		{"gazette not derivable", "pdf,notice_number\nscan.pdf,3228\n", nil, ColumnGazetteNumber},
		{"bad major type", "pdf,gazette_number,notice_number,major_type\ngg.pdf,52724,3228,memo\n", nil, ColumnMajorType},
		{"bad date", "pdf,gazette_number,notice_number,date\ngg.pdf,52724,3228,yesterday\n", nil, ColumnDate},
		{"negative page", "pdf,gazette_number,notice_number,page\ngg.pdf,52724,3228,-1\n", nil, ColumnPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.column != "" {
				var rerr *RowError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected *RowError, got %T: %v", err, err)
				}
				if rerr.Column != tt.column || rerr.Row != 2 {
					t.Errorf("got row %d column %s", rerr.Row, rerr.Column)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv resolves relative paths", func(t *testing.T) {
		path := filepath.Join(dir, "specs.csv")
		if err := os.WriteFile(path, []byte("pdf,gazette_number,notice_number\npdfs/gg52724.pdf,52724,3228\n/abs/gg.pdf,52724,3229\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		specs, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if specs[0].PDF != filepath.Join(dir, "pdfs", "gg52724.pdf") {
			t.Errorf("PDF = %q", specs[0].PDF)
		}
		if specs[1].PDF != "/abs/gg.pdf" {
			t.Errorf("absolute path changed to %q", specs[1].PDF)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		path := filepath.Join(dir, "specs.xlsx")
		f := excelize.NewFile()
		rows := [][]any{
			{"pdf", "gazette_number", "notice_number", "major_type", "page"},
			{"gg52730_23May2025.pdf", 52730, 6124, "GN", 5},
			{"gg52730_23May2025.pdf", 52730, 6125, "", ""},
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
				t.Fatal(err)
			}
		}
		if err := f.SaveAs(path); err != nil {
			t.Fatal(err)
		}
		f.Close()

		specs, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(specs) != 2 {
			t.Fatalf("expected 2 specs, got %d", len(specs))
		}
		if specs[0].NoticeNumber != 6124 || specs[0].MajorType != notice.GovernmentNotice || specs[0].Page != 5 {
			t.Errorf("unexpected spec %+v", specs[0])
		}
		if specs[1].Published.Month() != time.May {
			t.Errorf("date should come from the file name, got %v", specs[1].Published)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "specs.txt")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestLoadAnnotations(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	touch("gg52724_23May2025.pdf")
	touch("gg52730_23May2025.pdf")
	touch("gg52731_30May2025.pdf")
	touch("random.pdf")

	if err := WriteAnnotation(AnnotationPath(dir, "gg52730_23May2025.pdf"), Annotation{
		PublicationDate: "2025-05-24",
		NoticeNumbers:   []int{6125, 6124, 6125},
	}); err != nil {
		t.Fatal(err)
	}
	if err := WriteAnnotation(AnnotationPath(dir, "gg52724_23May2025.pdf"), Annotation{
		NoticeNumbers: []int{3228},
	}); err != nil {
		t.Fatal(err)
	}

	specs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d: %+v", len(specs), specs)
	}
	if specs[0].NoticeNumber != 3228 || specs[0].Published.Day() != 23 {
		t.Errorf("unannotated date should come from the file name: %+v", specs[0])
	}
	if specs[1].NoticeNumber != 6124 || specs[2].NoticeNumber != 6125 {
		t.Errorf("notice numbers should be sorted and unique: %d, %d", specs[1].NoticeNumber, specs[2].NoticeNumber)
	}
	if specs[1].Published.Day() != 24 {
		t.Errorf("annotated date should win, got %v", specs[1].Published)
	}
	if specs[1].PDF != filepath.Join(dir, "gg52730_23May2025.pdf") || specs[1].GazetteNumber != 52730 {
		t.Errorf("unexpected spec %+v", specs[1])
	}

	t.Run("bad annotation", func(t *testing.T) {
		if err := os.WriteFile(AnnotationPath(dir, "gg52731_30May2025.pdf"), []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadAnnotations(dir, ""); err == nil {
			t.Error("expected error for malformed annotation")
		}
	})
}
