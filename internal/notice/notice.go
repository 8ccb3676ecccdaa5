// Package notice defines the Notice entity produced by the extraction
// pipeline, the NoticeSpec rows that drive it, and the citation format used in
// the bulletin.
package notice

import (
	"fmt"
	"strings"
	"time"
)

// MajorType is the notice category printed in citations.
type MajorType string

const (
	BoardNotice      MajorType = "BN"
	GeneralNotice    MajorType = "GenN"
	GovernmentNotice MajorType = "GN"
	Proclamation     MajorType = "Proc"
)

// MajorTypes lists every major type in bulletin order.
var MajorTypes = []MajorType{Proclamation, GovernmentNotice, GeneralNotice, BoardNotice}

// ParseMajorType accepts the citation abbreviation or the long form
// ("GENERAL_NOTICE", "General Notice"), case-insensitively.
func ParseMajorType(s string) (MajorType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(norm)
	switch norm {
	case "BN", "BOARD_NOTICE", "BOARD_NOTICES":
		return BoardNotice, nil
	case "GENN", "GENERAL_NOTICE", "GENERAL_NOTICES":
		return GeneralNotice, nil
	case "GN", "GOVERNMENT_NOTICE", "GOVERNMENT_NOTICES":
		return GovernmentNotice, nil
	case "PROC", "PROCLAMATION", "PROCLAMATIONS":
		return Proclamation, nil
	}
	return "", fmt.Errorf("unknown major type %q", s)
}

// Valid reports whether m is one of the known major types.
func (m MajorType) Valid() bool {
	switch m {
	case BoardNotice, GeneralNotice, GovernmentNotice, Proclamation:
		return true
	}
	return false
}

// LongName returns the upper-snake name used in structured output.
func (m MajorType) LongName() string {
	switch m {
	case BoardNotice:
		return "BOARD_NOTICE"
	case GeneralNotice:
		return "GENERAL_NOTICE"
	case GovernmentNotice:
		return "GOVERNMENT_NOTICE"
	case Proclamation:
		return "PROCLAMATION"
	}
	return string(m)
}

// Header returns the bulletin section heading for m.
func (m MajorType) Header() string {
	switch m {
	case GovernmentNotice:
		return "GOVERNMENT NOTICES"
	case BoardNotice:
		return "BOARD NOTICES"
	default:
		return "PROCLAMATIONS AND NOTICES"
	}
}

// MajorTypeForNumber infers the major type from the notice number range used
// by the Government Printing Works: board notices below 3000, general notices
// 3000-4999 and government notices from 6000.
func MajorTypeForNumber(n int) (MajorType, error) {
	switch {
	case n > 0 && n < 3000:
		return BoardNotice, nil
	case n >= 3000 && n < 5000:
		return GeneralNotice, nil
	case n >= 6000 && n < 10000:
		return GovernmentNotice, nil
	}
	return "", fmt.Errorf("unknown major type for notice number %d", n)
}

// Act is a piece of legislation a notice is issued under.
type Act struct {
	Whom   string `json:"whom" yaml:"whom"`
	Number int    `json:"number,omitempty" yaml:"number,omitempty"`
	Year   int    `json:"year,omitempty" yaml:"year,omitempty"`
}

// String formats the act as "<whom> ACT <n> of <year>", omitting missing parts.
func (a Act) String() string {
	s := a.Whom + " ACT"
	if a.Number > 0 {
		s += fmt.Sprintf(" %d", a.Number)
	}
	if a.Year > 0 {
		s += fmt.Sprintf(" of %d", a.Year)
	}
	return s
}

// Citation locates a notice in its gazette.
type Citation struct {
	NoticeNumber  int    `json:"notice_number" yaml:"notice_number"`
	GazetteNumber int    `json:"gazette_number" yaml:"gazette_number"`
	Day           int    `json:"day" yaml:"day"`
	Month         string `json:"month" yaml:"month"`
	Year          int    `json:"year" yaml:"year"`
	Page          int    `json:"page,omitempty" yaml:"page,omitempty"`
	ISSN          string `json:"issn,omitempty" yaml:"issn,omitempty"`
}

// Date returns "23 May 2025".
func (c Citation) Date() string {
	return fmt.Sprintf("%d %s %d", c.Day, c.Month, c.Year)
}

// Provenance records how a notice was produced.
type Provenance struct {
	Source             string `json:"source,omitempty" yaml:"source,omitempty"`
	Strategy           string `json:"strategy" yaml:"strategy"`
	TextMethod         string `json:"text_method,omitempty" yaml:"text_method,omitempty"`
	TextCache          string `json:"text_cache" yaml:"text_cache"`
	ResponseCache      string `json:"response_cache" yaml:"response_cache"`
	PDFFingerprint     string `json:"pdf_fingerprint" yaml:"pdf_fingerprint"`
	RequestFingerprint string `json:"request_fingerprint" yaml:"request_fingerprint"`
	Model              string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Notice is one validated legal announcement.
type Notice struct {
	MajorType  MajorType  `json:"major_type" yaml:"major_type"`
	Department string     `json:"department,omitempty" yaml:"department,omitempty"`
	Title      string     `json:"title" yaml:"title"`
	Text       string     `json:"text" yaml:"text"`
	Citation   Citation   `json:"citation" yaml:"citation"`
	Acts       []Act      `json:"acts,omitempty" yaml:"acts,omitempty"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}

// Reference returns the citation in bulletin form, e.g.
// "GenN 3228 in GG 52724 of 23 May 2025".
func (n Notice) Reference() string {
	return fmt.Sprintf("%s %d in GG %d of %s",
		n.MajorType, n.Citation.NoticeNumber, n.Citation.GazetteNumber, n.Citation.Date())
}

// BulletinLine returns the full bulletin entry:
// "<text> (<reference>) (p<page>)".
func (n Notice) BulletinLine() string {
	line := fmt.Sprintf("%s (%s)", strings.TrimSpace(n.Text), n.Reference())
	if n.Citation.Page > 0 {
		line += fmt.Sprintf(" (p%d)", n.Citation.Page)
	}
	return line
}

// Spec is one row of the input table: a notice the operator expects to find.
type Spec struct {
	Row           int       `json:"row,omitempty" yaml:"row,omitempty"`
	PDF           string    `json:"pdf" yaml:"pdf"`
	GazetteNumber int       `json:"gazette_number" yaml:"gazette_number"`
	NoticeNumber  int       `json:"notice_number" yaml:"notice_number"`
	MajorType     MajorType `json:"major_type,omitempty" yaml:"major_type,omitempty"`
	Page          int       `json:"page,omitempty" yaml:"page,omitempty"`
	Published     time.Time `json:"published,omitempty" yaml:"published,omitempty"`
}

// ExpectedMajorType returns the operator-supplied major type, or the one
// implied by the notice number when none was given.
func (s Spec) ExpectedMajorType() (MajorType, error) {
	if s.MajorType != "" {
		if !s.MajorType.Valid() {
			return "", fmt.Errorf("invalid major type %q", s.MajorType)
		}
		return s.MajorType, nil
	}
	return MajorTypeForNumber(s.NoticeNumber)
}

// String identifies the row in logs and reports.
func (s Spec) String() string {
	return fmt.Sprintf("notice %d in GG %d", s.NoticeNumber, s.GazetteNumber)
}
