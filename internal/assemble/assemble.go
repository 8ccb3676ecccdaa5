// Package assemble merges an operator's NoticeSpec with a structured notice
// and refuses the result when the two disagree.
package assemble

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/bulletin/internal/notice"
)

// ErrValidation is matched by *ValidationError.
var ErrValidation = errors.New("notice validation failed")

// Mismatch is one field where the spec and the structured notice disagree.
type Mismatch struct {
	Field    string `json:"field" yaml:"field"`
	Expected string `json:"expected" yaml:"expected"`
	Got      string `json:"got" yaml:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Field, m.Expected, m.Got)
}

// ValidationError lists every disagreement found for one spec row.
type ValidationError struct {
	Spec       notice.Spec
	Mismatches []Mismatch
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = m.String()
	}
	return fmt.Sprintf("%s: %s", e.Spec, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Assemble returns the notice for spec built from structured. Hints the
// operator supplied (page, publication date) fill gaps in structured but
// must agree with whatever it already carries. The major type, notice number
// and gazette number must always agree.
func Assemble(spec notice.Spec, structured notice.Notice) (notice.Notice, error) {
	var mismatches []Mismatch
	mismatch := func(field string, expected, got any) {
		mismatches = append(mismatches, Mismatch{Field: field, Expected: fmt.Sprint(expected), Got: fmt.Sprint(got)})
	}

	n := structured
	n.Title = strings.TrimSpace(n.Title)
	n.Text = strings.TrimSpace(n.Text)
	n.Acts = append([]notice.Act(nil), structured.Acts...)

	expected, err := spec.ExpectedMajorType()
	switch {
	case err != nil:
		mismatch("major_type", err.Error(), n.MajorType)
	case n.MajorType != expected:
		mismatch("major_type", expected, n.MajorType)
	}

	c := &n.Citation
	if c.NoticeNumber != spec.NoticeNumber {
		mismatch("notice_number", spec.NoticeNumber, c.NoticeNumber)
	}
	if c.GazetteNumber != spec.GazetteNumber {
		mismatch("gazette_number", spec.GazetteNumber, c.GazetteNumber)
	}

	if spec.Page > 0 {
		switch c.Page {
		case 0:
			c.Page = spec.Page
		case spec.Page:
		default:
			mismatch("page", spec.Page, c.Page)
		}
	}

	if !spec.Published.IsZero() {
		want := notice.Citation{
			Day:   spec.Published.Day(),
			Month: spec.Published.Month().String(),
			Year:  spec.Published.Year(),
		}
		switch {
		case c.Day == 0 && c.Month == "" && c.Year == 0:
			c.Day, c.Month, c.Year = want.Day, want.Month, want.Year
		case c.Day != want.Day || !strings.EqualFold(c.Month, want.Month) || c.Year != want.Year:
			mismatch("date", want.Date(), c.Date())
		}
	}

	if n.Title == "" {
		mismatch("title", "non-empty", strconv.Quote(n.Title))
	}
	if n.Text == "" {
		mismatch("text", "non-empty", strconv.Quote(n.Text))
	}
	if c.Day == 0 || c.Month == "" || c.Year == 0 {
		mismatch("date", "a publication date", c.Date())
	}

	if len(mismatches) > 0 {
		return notice.Notice{}, &ValidationError{Spec: spec, Mismatches: mismatches}
	}
	if n.Provenance.Source == "" {
		n.Provenance.Source = spec.PDF
	}
	return n, nil
}
