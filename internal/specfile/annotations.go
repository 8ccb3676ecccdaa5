package specfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackzampolin/bulletin/internal/gazette"
	"github.com/jackzampolin/bulletin/internal/notice"
)

// Annotation lists the notices an operator wants from one gazette PDF. It is
// stored as <pdf name without extension>.json.
type Annotation struct {
	PublicationDate string `json:"publication_date"`
	NoticeNumbers   []int  `json:"notice_numbers"`
}

// Published parses PublicationDate.
func (a Annotation) Published() (time.Time, error) {
	if a.PublicationDate == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", a.PublicationDate)
}

// AnnotationPath returns where the annotation for pdf lives in dir.
func AnnotationPath(dir, pdf string) string {
	base := strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
	return filepath.Join(dir, base+".json")
}

// ReadAnnotation reads one annotation file.
func ReadAnnotation(path string) (Annotation, error) {
	var a Annotation
	data, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// WriteAnnotation writes a with sorted, de-duplicated notice numbers.
func WriteAnnotation(path string, a Annotation) error {
	seen := make(map[int]bool)
	var numbers []int
	for _, n := range a.NoticeNumbers {
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	a.NoticeNumbers = numbers

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadAnnotations returns a spec for every notice number annotated on the
// conventionally named PDFs in pdfDir ("gg52724_23May2025.pdf").
// Annotations are read from annotationDir, or from pdfDir when it is empty.
// PDFs without an annotation are skipped.
func LoadAnnotations(pdfDir, annotationDir string) ([]notice.Spec, error) {
	if annotationDir == "" {
		annotationDir = pdfDir
	}
	entries, err := os.ReadDir(pdfDir)
	if err != nil {
		return nil, err
	}

	var (
		specs []notice.Spec
		errs  []error
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, ok := gazette.ParseFilename(e.Name())
		if !ok {
			continue
		}
		a, err := ReadAnnotation(AnnotationPath(annotationDir, e.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		published, err := a.Published()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: publication_date: %w", e.Name(), err))
			continue
		}
		if published.IsZero() {
			published = info.Published
		}
		for _, n := range a.NoticeNumbers {
			specs = append(specs, notice.Spec{
				PDF:           filepath.Join(pdfDir, e.Name()),
				GazetteNumber: info.GazetteNumber,
				NoticeNumber:  n,
				Published:     published,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}
	return specs, nil
}
