package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/bulletin/internal/gazette"
)

// Single parses a gazette that carries exactly one notice. The notice is
// found in the contents section: the first number after the word "Contents"
// is the notice number, the next gazette-shaped number must match the
// masthead, and the number after that is the page.
type Single struct{}

func (Single) Name() string { return StrategySingle }

func (s Single) Parse(in *Input) Attempt {
	text := in.Text()
	if strings.TrimSpace(text) == "" {
		return reject(s.Name(), ErrEmptyInput)
	}
	header, err := gazette.DetectHeader(text)
	if err != nil {
		return reject(s.Name(), err)
	}
	if gazette.LooksLikeLongList(text) {
		return reject(s.Name(), ErrLongList)
	}
	stripped, _ := gazette.StripRegulationMarkers(text)
	if n := len(gazette.ParseEntries(stripped)); n > 1 {
		return reject(s.Name(), fmt.Errorf("%w (%d entries)", ErrSeveralEntries, n))
	}

	entry, err := contentsEntry(text, header.GazetteNumber)
	if err != nil {
		return reject(s.Name(), err)
	}
	department, _ := gazette.MinorType(text)

	return Attempt{
		Strategy: s.Name(),
		Extraction: &Extraction{
			Strategy:   s.Name(),
			Header:     header,
			Department: department,
			Entries:    []gazette.Entry{entry},
			Pages:      clonePages(in.Pages),
		},
	}
}

// contentsEntry walks the words after "Contents". Years between the notice
// number and the gazette number are skipped, as are numbers inside the
// description that cannot be a gazette number.
func contentsEntry(text string, gazetteNumber int) (gazette.Entry, error) {
	words := strings.Fields(text)
	start := -1
	for i, w := range words {
		if strings.EqualFold(w, "Contents") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return gazette.Entry{}, ErrNoContents
	}

	var (
		entry     gazette.Entry
		descStart int
		descEnd   = -1
		end       = len(words)
	)
	for i := start; i < len(words); i++ {
		n, ok := number(words[i])
		if !ok {
			continue
		}
		switch {
		case entry.NoticeNumber == 0:
			entry.NoticeNumber = n
			descStart = i + 1
		case descEnd < 0:
			if gazette.LooksLikeYear(words[i]) || !gazette.LooksLikeGazetteNumber(n) {
				continue
			}
			if n != gazetteNumber {
				return gazette.Entry{}, fmt.Errorf("%w: contents say %d, masthead %d", ErrGazetteMismatch, n, gazetteNumber)
			}
			entry.GazetteNumber = n
			descEnd = i
		default:
			entry.Page = n
			end = i + 1
		}
		if entry.Page != 0 {
			break
		}
	}
	if entry.NoticeNumber == 0 {
		return gazette.Entry{}, fmt.Errorf("%w: no notice number after contents", ErrNoContents)
	}
	if descEnd < 0 {
		return gazette.Entry{}, fmt.Errorf("%w: no gazette number after notice %d", ErrNoContents, entry.NoticeNumber)
	}
	if entry.Page == 0 {
		entry.Page, _ = gazette.DetectPageNumber(text)
	}

	desc := strings.Join(words[descStart:descEnd], " ")
	desc = strings.TrimRight(desc, " _.")
	entry.Act, entry.Description = gazette.SplitAct(desc)
	entry.Line = strings.Join(words[descStart-1:end], " ")
	return entry, nil
}

func number(word string) (int, bool) {
	if word == "" {
		return 0, false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(word)
	return n, err == nil
}

func clonePages(pages []string) []string {
	return append([]string(nil), pages...)
}
