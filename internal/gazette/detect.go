// Package gazette recognises the fixed parts of a Government Gazette: the
// masthead (volume, date, gazette number, ISSN), the contents list, and the
// legislation a notice is issued under.
package gazette

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	volumePattern  = regexp.MustCompile(`Vol[.:]\s*(\d+)\s+(\d+)\s+(\d{4})`)
	yearPattern    = regexp.MustCompile(`\b(\d{4})\b`)
	gazettePattern = regexp.MustCompile(`(?:^|\D)(5\d{4})(?:\D|$)`)
	issnPattern    = regexp.MustCompile(`\b(\d{4}-\d{3}[\dXx])\b`)
	monthPattern   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	pagePatterns   = []*regexp.Regexp{
		regexp.MustCompile(`No[.,]\s*\d{5}\s+(\d{1,3})\b`),
		regexp.MustCompile(`_\s*\d{5}\s+(\d{1,3})\b`),
	}
	fourDigitStart  = regexp.MustCompile(`^\d{4}\b`)
	filenamePattern = regexp.MustCompile(`^gg(\d{5})_(\d{1,2}[A-Za-z]{3}\d{4})\.pdf$`)
)

var (
	ErrDayNotFound     = errors.New("day number not found")
	ErrYearNotFound    = errors.New("year number not found")
	ErrMonthNotFound   = errors.New("month not found")
	ErrGazetteNotFound = errors.New("gazette number not found")
	ErrISSNNotFound    = errors.New("ISSN not found")
	ErrPageNotFound    = errors.New("page number not found")
)

// DetectDay reads the day from the masthead line "Vol. 719 23 2025".
func DetectDay(text string) (int, error) {
	m := volumePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrDayNotFound
	}
	day, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day number %d", day)
	}
	return day, nil
}

// DetectMastheadYear reads the year from the masthead volume line.
func DetectMastheadYear(text string) (int, error) {
	m := volumePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrYearNotFound
	}
	year, _ := strconv.Atoi(m[3])
	if year < 2000 || year > 3000 {
		return 0, fmt.Errorf("invalid year number %d", year)
	}
	return year, nil
}

// DetectYear returns the first four-digit number between 2000 and 3000.
func DetectYear(text string) (int, error) {
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		if year >= 2000 && year <= 3000 {
			return year, nil
		}
	}
	return 0, ErrYearNotFound
}

// DetectMonth returns the first English month name, title-cased.
func DetectMonth(text string) (string, error) {
	m := monthPattern.FindStringSubmatch(text)
	if m == nil {
		return "", ErrMonthNotFound
	}
	lower := strings.ToLower(m[1])
	return strings.ToUpper(lower[:1]) + lower[1:], nil
}

// DetectGazetteNumber returns the first five-digit number starting with 5.
func DetectGazetteNumber(text string) (int, error) {
	m := gazettePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrGazetteNotFound
	}
	n, _ := strconv.Atoi(m[1])
	return n, nil
}

// DetectISSN returns the first ISSN ("1682-5845").
func DetectISSN(text string) (string, error) {
	m := issnPattern.FindStringSubmatch(text)
	if m == nil {
		return "", ErrISSNNotFound
	}
	return strings.ToUpper(m[1]), nil
}

// DetectPageNumber reads the page number from a running header such as
// "No. 52724 3" or "_ 52724 5".
func DetectPageNumber(text string) (int, error) {
	for _, p := range pagePatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			page, _ := strconv.Atoi(m[1])
			if LooksLikePageNumber(page) {
				return page, nil
			}
		}
	}
	return 0, ErrPageNotFound
}

// LooksLikeYear reports whether s is a plausible four-digit year.
func LooksLikeYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1900 && n <= 2100
}

// LooksLikeNoticeNumber reports whether n is in the range used for
// numbered notices.
func LooksLikeNoticeNumber(n int) bool {
	return n >= 2000 && n <= 9000
}

// LooksLikeGazetteNumber reports whether n is in the gazette number range.
func LooksLikeGazetteNumber(n int) bool {
	return n >= 30000 && n <= 90000
}

// LooksLikePageNumber reports whether n is a plausible page number.
func LooksLikePageNumber(n int) bool {
	return n >= 1 && n <= 100
}

// LooksLikeLongList reports whether text contains at least three consecutive
// lines that begin with a four-digit number, the shape of a contents list
// covering several notices.
func LooksLikeLongList(text string) bool {
	run := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fourDigitStart.MatchString(line) {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// Header is the parsed gazette masthead.
type Header struct {
	GazetteNumber int    `json:"gazette_number" yaml:"gazette_number"`
	Volume        int    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Day           int    `json:"day" yaml:"day"`
	Month         string `json:"month" yaml:"month"`
	Year          int    `json:"year" yaml:"year"`
	ISSN          string `json:"issn,omitempty" yaml:"issn,omitempty"`
}

// Date returns the publication date, or the zero time if the header is
// incomplete.
func (h Header) Date() time.Time {
	t, err := time.Parse("2 January 2006", fmt.Sprintf("%d %s %d", h.Day, h.Month, h.Year))
	if err != nil {
		return time.Time{}
	}
	return t
}

// DetectHeader parses the masthead from the first page of a gazette. Day,
// month, year and gazette number are required; the ISSN is optional.
func DetectHeader(text string) (Header, error) {
	var h Header
	var errs []error

	if m := volumePattern.FindStringSubmatch(text); m != nil {
		h.Volume, _ = strconv.Atoi(m[1])
	}
	var err error
	if h.Day, err = DetectDay(text); err != nil {
		errs = append(errs, err)
	}
	if h.Year, err = DetectMastheadYear(text); err != nil {
		if h.Year, err = DetectYear(text); err != nil {
			errs = append(errs, err)
		}
	}
	if h.Month, err = DetectMonth(text); err != nil {
		errs = append(errs, err)
	}
	if h.GazetteNumber, err = DetectGazetteNumber(text); err != nil {
		errs = append(errs, err)
	}
	h.ISSN, _ = DetectISSN(text)

	if len(errs) > 0 {
		return h, fmt.Errorf("masthead not recognised: %w", errors.Join(errs...))
	}
	return h, nil
}

// FileInfo is what a conventional gazette filename ("gg52724_23May2025.pdf")
// says about the file.
type FileInfo struct {
	GazetteNumber int
	Published     time.Time
}

// ParseFilename parses a conventional gazette filename. It returns false when
// the name does not follow the convention or the date is invalid.
func ParseFilename(name string) (FileInfo, bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return FileInfo{}, false
	}
	n, _ := strconv.Atoi(m[1])
	published, err := time.Parse("2Jan2006", m[2])
	if err != nil {
		return FileInfo{}, false
	}
	return FileInfo{GazetteNumber: n, Published: published}, true
}
