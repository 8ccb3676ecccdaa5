// Package extract turns the page text of a gazette PDF into an Extraction:
// the masthead plus the contents entries the gazette lists.
//
// Gazette layouts vary, so three parsers are tried in a fixed order by a
// Selector:
//
//	single      one notice per gazette, contents reduced to a single entry
//	multi       a contents list of several notices
//	regulation  a contents list whose leading entry is an R-numbered regulation
//
// Each parser returns an Attempt carrying either an Extraction or the reason
// it was rejected. The Extractor wraps the Selector with the text cache so
// a PDF is read and parsed at most once.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/bulletin/internal/gazette"
)

// Strategy names.
const (
	StrategySingle     = "single"
	StrategyMulti      = "multi"
	StrategyRegulation = "regulation"
)

// Input is what a parser sees. Parsers must not modify it.
type Input struct {
	PDF   []byte
	Pages []string

	// Source labels the PDF in logs and errors, typically its path.
	Source string
}

// Text returns the pages joined by newlines.
func (in *Input) Text() string {
	return strings.Join(in.Pages, "\n")
}

// Parser is one extraction strategy.
type Parser interface {
	Name() string
	Parse(in *Input) Attempt
}

// Attempt is the outcome of one parser on one input.
type Attempt struct {
	Strategy   string      `json:"strategy" yaml:"strategy"`
	Extraction *Extraction `json:"-" yaml:"-"`
	Reason     error       `json:"-" yaml:"-"`
}

// Valid reports whether the attempt produced a usable extraction.
func (a Attempt) Valid() bool {
	return a.Reason == nil && a.Extraction != nil && a.Extraction.Validate() == nil
}

// Error returns the rejection reason as text.
func (a Attempt) Error() string {
	if a.Reason == nil {
		return ""
	}
	return a.Reason.Error()
}

func reject(strategy string, reason error) Attempt {
	return Attempt{Strategy: strategy, Reason: reason}
}

// Extraction is the parsed contents of a gazette. It is what the text cache
// stores, keyed by the PDF fingerprint.
type Extraction struct {
	Strategy   string          `json:"strategy" yaml:"strategy"`
	Header     gazette.Header  `json:"header" yaml:"header"`
	Department string          `json:"department,omitempty" yaml:"department,omitempty"`
	Entries    []gazette.Entry `json:"entries" yaml:"entries"`
	Pages      []string        `json:"pages" yaml:"-"`
	TextMethod string          `json:"text_method,omitempty" yaml:"text_method,omitempty"`
	PageCount  int             `json:"page_count,omitempty" yaml:"page_count,omitempty"`
}

// Validate checks the minimum an extraction must carry to be used or cached.
func (e *Extraction) Validate() error {
	switch {
	case e == nil:
		return errors.New("nil extraction")
	case len(e.Pages) == 0 || strings.TrimSpace(strings.Join(e.Pages, "")) == "":
		return errors.New("extraction has no text")
	case e.Header.GazetteNumber == 0:
		return errors.New("extraction has no gazette header")
	case len(e.Entries) == 0:
		return ErrNoEntries
	}
	return nil
}

// Text returns the extracted pages joined by newlines.
func (e *Extraction) Text() string {
	return strings.Join(e.Pages, "\n")
}

// Find returns the first entry for noticeNumber. Bilingual gazettes list a
// notice twice; the first listing is the English one.
func (e *Extraction) Find(noticeNumber int) (gazette.Entry, bool) {
	for _, entry := range e.Entries {
		if entry.NoticeNumber == noticeNumber {
			return entry, true
		}
	}
	return gazette.Entry{}, false
}

// NoticeNumbers lists the distinct notice numbers in contents order.
func (e *Extraction) NoticeNumbers() []int {
	seen := make(map[int]bool)
	var out []int
	for _, entry := range e.Entries {
		if !seen[entry.NoticeNumber] {
			seen[entry.NoticeNumber] = true
			out = append(out, entry.NoticeNumber)
		}
	}
	return out
}

// Rejection reasons reported by the parsers.
var (
	ErrEmptyInput         = errors.New("no page text")
	ErrLongList           = errors.New("text looks like a list of several notices")
	ErrNoContents         = errors.New("no contents section")
	ErrSeveralEntries     = errors.New("contents list more than one notice")
	ErrRegulationList     = errors.New("leading entry carries a regulation marker")
	ErrNoRegulationMarker = errors.New("leading entry has no regulation marker")
	ErrNoEntries          = errors.New("no contents entries found")
	ErrGazetteMismatch    = errors.New("contents gazette number does not match masthead")

	// ErrExtractionFailed is matched by ExtractionError and NotListedError.
	ErrExtractionFailed = errors.New("extraction failed")
)

// ExtractionError reports that every parser rejected the input.
type ExtractionError struct {
	Source   string
	Attempts []Attempt
}

func (e *ExtractionError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %v", a.Strategy, a.Reason))
	}
	msg := "extraction failed"
	if e.Source != "" {
		msg += " for " + e.Source
	}
	return msg + ": " + strings.Join(reasons, "; ")
}

// Is matches ErrExtractionFailed.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// Reasons returns each strategy's rejection reason keyed by strategy name.
func (e *ExtractionError) Reasons() map[string]string {
	out := make(map[string]string, len(e.Attempts))
	for _, a := range e.Attempts {
		out[a.Strategy] = a.Error()
	}
	return out
}

// NotListedError reports a gazette that parsed but does not list the
// requested notice.
type NotListedError struct {
	NoticeNumber  int
	GazetteNumber int
	Strategy      string
	Listed        []int
}

func (e *NotListedError) Error() string {
	return fmt.Sprintf("notice %d not listed in gazette %d (%s strategy found %v)",
		e.NoticeNumber, e.GazetteNumber, e.Strategy, e.Listed)
}

// Is matches ErrExtractionFailed.
func (e *NotListedError) Is(target error) bool {
	return target == ErrExtractionFailed
}
