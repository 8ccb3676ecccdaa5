package gazette

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jackzampolin/bulletin/internal/notice"
)

var (
	entryStart      = regexp.MustCompile(`^(\d{3,4})\s+`)
	entryEnd        = regexp.MustCompile(`\.{3,}\s+\d+\s+\d+\s*$`)
	trailingNumbers = regexp.MustCompile(`\s+\d+\s+\d+\s*$`)
	dotLeader       = regexp.MustCompile(`\.{10,}`)
	longWord        = regexp.MustCompile(`[A-Za-z]{10,}`)
	whitespace      = regexp.MustCompile(`\s+`)
	entryPattern    = regexp.MustCompile(`^(\d{3,4})\s+(.+?)\.{3,}\s+(\d+)\s+(\d+)\s*$`)
	regulationStart = regexp.MustCompile(`^R\.?\s*(\d{3,4})(\s+.*)$`)
	quotedAside     = regexp.MustCompile(`\s*\(["'].*?["']\)\s*`)
)

// Entry is one line of a gazette contents list:
// "3228 Road Accident Fund Act (56/1996): Notice text ........ 52724 3".
type Entry struct {
	NoticeNumber  int         `json:"notice_number" yaml:"notice_number"`
	Regulation    bool        `json:"regulation,omitempty" yaml:"regulation,omitempty"`
	Act           *notice.Act `json:"act,omitempty" yaml:"act,omitempty"`
	Description   string      `json:"description" yaml:"description"`
	GazetteNumber int         `json:"gazette_number" yaml:"gazette_number"`
	Page          int         `json:"page" yaml:"page"`
	Line          string      `json:"line,omitempty" yaml:"line,omitempty"`
}

// LogicalLines joins contents entries that wrap across physical lines. An
// entry starts with a three or four digit notice number and ends with a dot
// leader followed by the gazette and page numbers. A line that begins with a
// four digit number but carries only a leader and the trailing numbers is
// treated as a wrapped year, not a new entry. Whitespace is collapsed.
func LogicalLines(text string) []string {
	lines := strings.Split(text, "\n")
	var out []string

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		start := entryStart.FindStringSubmatch(line)
		if start == nil {
			i++
			continue
		}

		parts := []string{line}
		found := entryEnd.MatchString(line) || trailingNumbers.MatchString(line)
		j := i + 1
		for j < len(lines) && !found {
			next := strings.TrimSpace(lines[j])
			if m := entryStart.FindStringSubmatch(next); m != nil {
				content := next[len(m[0]):]
				if isYearContinuation(m[1], content, next) {
					parts = append(parts, next)
					found = true
					j++
				}
				break
			}
			parts = append(parts, next)
			if entryEnd.MatchString(next) {
				found = true
				j++
				break
			}
			j++
		}

		joined := strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(parts, " "), " "))
		if joined != "" {
			out = append(out, joined)
		}
		i = j
	}
	return out
}

func isYearContinuation(number, content, line string) bool {
	return len(number) == 4 &&
		dotLeader.MatchString(content) &&
		entryEnd.MatchString(line) &&
		!longWord.MatchString(content)
}

// ParseEntry parses one logical contents line. Entries without a
// recognisable act keep the whole content as their description.
func ParseEntry(line string) (Entry, bool) {
	m := entryPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Entry{}, false
	}

	e := Entry{Line: line}
	e.NoticeNumber, _ = strconv.Atoi(m[1])
	e.GazetteNumber, _ = strconv.Atoi(m[3])
	e.Page, _ = strconv.Atoi(m[4])

	e.Act, e.Description = SplitAct(m[2])
	return e, true
}

// SplitAct separates a leading act reference from the rest of a contents
// description. Without a recognisable act the whole content is the
// description and the act is nil.
func SplitAct(content string) (*notice.Act, string) {
	content = strings.TrimSpace(content)
	if act, rest, ok := matchAct(content); ok {
		return &act, cleanDescription(rest)
	}
	return nil, cleanDescription(content)
}

// ParseEntries parses every contents entry in text.
func ParseEntries(text string) []Entry {
	var entries []Entry
	for _, line := range LogicalLines(text) {
		if e, ok := ParseEntry(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// LeadingRegulationMarker reports whether the first contents entry in text is
// an R-prefixed regulation number ("R. 6123").
func LeadingRegulationMarker(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if regulationStart.MatchString(line) {
			return true
		}
		if entryStart.MatchString(line) && !fourDigitYearLine(line) {
			return false
		}
	}
	return false
}

// StripRegulationMarkers rewrites "R. 6123 ..." lines as "6123 ..." and
// returns the notice numbers that carried the marker.
func StripRegulationMarkers(text string) (string, map[int]bool) {
	marked := make(map[int]bool)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		m := regulationStart.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		marked[n] = true
		lines[i] = m[1] + m[2]
	}
	return strings.Join(lines, "\n"), marked
}

func fourDigitYearLine(line string) bool {
	m := entryStart.FindStringSubmatch(line)
	return m != nil && LooksLikeYear(m[1]) && !longWord.MatchString(line)
}

func cleanDescription(s string) string {
	s = quotedAside.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
