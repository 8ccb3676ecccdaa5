package gazette

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackzampolin/bulletin/internal/notice"
)

// ErrNoAct is returned when no legislation reference can be found.
var ErrNoAct = errors.New("no act information found")

type actPattern struct {
	re     *regexp.Regexp
	whom   int
	number int
	year   int
	prefix string
}

// actPatterns are tried in order; the first match wins.
var actPatterns = []actPattern{
	{re: regexp.MustCompile(`(?i)^(.+?)\s+Act\s*\((\d+)/(\d{4})\)`), whom: 1, number: 2, year: 3},
	{re: regexp.MustCompile(`(?i)^(.+?)\s+Act,\s*No\.?\s*(\d+)\s+of\s+(\d{4})`), whom: 1, number: 2, year: 3},
	{re: regexp.MustCompile(`(?i)^(.+?)\s+Act,\s*(\d+)\s+of\s+(\d{4})`), whom: 1, number: 2, year: 3},
	{re: regexp.MustCompile(`(?i)^(.+?)\s+Act,\s*(\d{4})\s*\((?:Act\s+)?No\.?\s*(\d+)\s+of\s+\d{4}\)`), whom: 1, number: 3, year: 2},
	{re: regexp.MustCompile(`(?i)^(.+?)\s+Act\s*\((?:Act\s+)?No\.?\s*(\d+)\s+of\s+(\d{4})\)`), whom: 1, number: 2, year: 3},
	{re: regexp.MustCompile(`(?i)^Wet\s+(.+?)\s*\((\d+)/(\d{4})\)`), whom: 1, number: 2, year: 3, prefix: "Wet "},
	{re: regexp.MustCompile(`(?i)^(.+?wet),\s*No\.?\s*(\d+)\s+van\s+(\d{4})`), whom: 1, number: 2, year: 3},
	{re: regexp.MustCompile(`(?i)^(.+?wet)\s*\((?:No\.?\s*)?(\d+)\s+van\s+(\d{4})\)`), whom: 1, number: 2, year: 3},
}

var actNormalizer = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)-\s*Act\b`), " Act"},
	{regexp.MustCompile(`;`), ","},
	{regexp.MustCompile(`(?i)\bNo\s*:`), "No."},
}

// matchAct runs the act cascade against the start of content and returns the
// act and whatever follows it.
func matchAct(content string) (notice.Act, string, bool) {
	for _, p := range actPatterns {
		m := p.re.FindStringSubmatchIndex(content)
		if m == nil {
			continue
		}
		group := func(i int) string { return content[m[2*i]:m[2*i+1]] }
		act := notice.Act{Whom: p.prefix + strings.TrimSpace(group(p.whom))}
		act.Number, _ = strconv.Atoi(group(p.number))
		act.Year, _ = strconv.Atoi(group(p.year))
		return act, content[m[1]:], true
	}
	return notice.Act{}, content, false
}

// DecodeAct finds the legislation named in text. Punctuation variants such as
// "Exchanges-Act; 1933 (Act No: 9 of 1933)" are normalised before matching,
// and each line is tried in turn.
func DecodeAct(text string) (notice.Act, error) {
	if strings.Contains(strings.ToLower(text), "exchange control") {
		return notice.Act{Whom: "Currency and Exchanges", Number: 9, Year: 1933}, nil
	}
	for _, n := range actNormalizer {
		text = n.re.ReplaceAllString(text, n.repl)
	}
	for _, line := range strings.Split(text, "\n") {
		if act, _, ok := matchAct(strings.TrimSpace(line)); ok {
			return act, nil
		}
	}
	return notice.Act{}, ErrNoAct
}

var departmentRules = []struct {
	needle string
	minor  string
}{
	{"department of sports, arts and culture", "Department of Sports, Arts and Culture"},
	{"national astro-tourism", "Department of Tourism"},
	{"department of transport", "Department of Transport"},
	{"exchange control", "CURRENCY AND EXCHANGES ACT 9 OF 1933"},
}

// MinorType returns the department or act heading a notice is grouped under
// in the bulletin.
func MinorType(text string) (string, error) {
	lower := strings.ToLower(text)
	for _, r := range departmentRules {
		if strings.Contains(lower, r.needle) {
			return r.minor, nil
		}
	}
	act, err := DecodeAct(text)
	if err != nil {
		return "", fmt.Errorf("unable to determine minor type: %w", err)
	}
	return act.String(), nil
}
