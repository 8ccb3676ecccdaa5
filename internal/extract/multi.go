package extract

import (
	"strings"

	"github.com/jackzampolin/bulletin/internal/gazette"
)

// Multi parses a contents list of several notices, one logical line per
// notice: "3228 Road Accident Fund Act (56/1996): ... ........ 52724 3".
type Multi struct{}

func (Multi) Name() string { return StrategyMulti }

func (m Multi) Parse(in *Input) Attempt {
	text := in.Text()
	if strings.TrimSpace(text) == "" {
		return reject(m.Name(), ErrEmptyInput)
	}
	header, err := gazette.DetectHeader(text)
	if err != nil {
		return reject(m.Name(), err)
	}
	if gazette.LeadingRegulationMarker(text) {
		return reject(m.Name(), ErrRegulationList)
	}

	entries := gazette.ParseEntries(text)
	if len(entries) == 0 {
		return reject(m.Name(), ErrNoEntries)
	}
	return Attempt{
		Strategy: m.Name(),
		Extraction: &Extraction{
			Strategy: m.Name(),
			Header:   header,
			Entries:  entries,
			Pages:    clonePages(in.Pages),
		},
	}
}

// Regulation parses a contents list whose leading notice is written with an
// R-prefixed number ("R. 6123"). The markers are removed before the list is
// parsed and remembered on the entries that carried them.
type Regulation struct{}

func (Regulation) Name() string { return StrategyRegulation }

func (r Regulation) Parse(in *Input) Attempt {
	text := in.Text()
	if strings.TrimSpace(text) == "" {
		return reject(r.Name(), ErrEmptyInput)
	}
	header, err := gazette.DetectHeader(text)
	if err != nil {
		return reject(r.Name(), err)
	}
	if !gazette.LeadingRegulationMarker(text) {
		return reject(r.Name(), ErrNoRegulationMarker)
	}

	stripped, marked := gazette.StripRegulationMarkers(text)
	entries := gazette.ParseEntries(stripped)
	if len(entries) == 0 {
		return reject(r.Name(), ErrNoEntries)
	}
	for i := range entries {
		entries[i].Regulation = marked[entries[i].NoticeNumber]
	}
	return Attempt{
		Strategy: r.Name(),
		Extraction: &Extraction{
			Strategy: r.Name(),
			Header:   header,
			Entries:  entries,
			Pages:    clonePages(in.Pages),
		},
	}
}
