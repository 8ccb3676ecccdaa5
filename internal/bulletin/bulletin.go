// Package bulletin composes the weekly statutes bulletin from validated
// notices: sections by major type, headings by department, one citation line
// per notice.
package bulletin

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jackzampolin/bulletin/internal/notice"
)

// DefaultTitle heads the bulletin when Options.Title is empty.
const DefaultTitle = "WEEKLY STATUTES BULLETIN"

// Options describe the bulletin issue.
type Options struct {
	Title  string
	Number int
	ISSN   string

	// From and To bound the week of gazettes the issue covers.
	From time.Time
	To   time.Time
}

// Section is one major heading and its departments.
type Section struct {
	Header      string
	Departments []Department
}

// Department is one department or act heading and its notices.
type Department struct {
	Name    string
	Notices []notice.Notice
}

// Group sorts notices into sections in bulletin order. Departments are
// alphabetical; notices within a department follow gazette then notice
// number. Notices without a department are grouped under an empty name,
// which sorts first.
func Group(notices []notice.Notice) []Section {
	byHeader := make(map[string]map[string][]notice.Notice)
	for _, n := range notices {
		h := n.MajorType.Header()
		if byHeader[h] == nil {
			byHeader[h] = make(map[string][]notice.Notice)
		}
		dept := strings.TrimSpace(n.Department)
		byHeader[h][dept] = append(byHeader[h][dept], n)
	}

	var sections []Section
	seen := make(map[string]bool)
	for _, mt := range notice.MajorTypes {
		h := mt.Header()
		if seen[h] || byHeader[h] == nil {
			continue
		}
		seen[h] = true

		s := Section{Header: h}
		for name, list := range byHeader[h] {
			sort.SliceStable(list, func(i, j int) bool {
				a, b := list[i].Citation, list[j].Citation
				if a.GazetteNumber != b.GazetteNumber {
					return a.GazetteNumber < b.GazetteNumber
				}
				return a.NoticeNumber < b.NoticeNumber
			})
			s.Departments = append(s.Departments, Department{Name: name, Notices: list})
		}
		sort.Slice(s.Departments, func(i, j int) bool {
			return strings.ToLower(s.Departments[i].Name) < strings.ToLower(s.Departments[j].Name)
		})
		sections = append(sections, s)
	}
	return sections
}

// Render writes the bulletin as Markdown.
func Render(w io.Writer, notices []notice.Notice, opts Options) error {
	var b strings.Builder

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	if line := issueLine(opts); line != "" {
		fmt.Fprintf(&b, "%s\n\n", line)
	}
	if opts.ISSN != "" {
		fmt.Fprintf(&b, "ISSN %s\n\n", opts.ISSN)
	}

	for _, s := range Group(notices) {
		fmt.Fprintf(&b, "## %s\n\n", s.Header)
		for _, d := range s.Departments {
			if d.Name != "" {
				fmt.Fprintf(&b, "### %s:\n\n", escape(d.Name))
			}
			for _, n := range d.Notices {
				fmt.Fprintf(&b, "%s\n\n", escape(n.BulletinLine()))
			}
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

// RenderHTML writes the bulletin as an HTML fragment.
func RenderHTML(w io.Writer, notices []notice.Notice, opts Options) error {
	var md bytes.Buffer
	if err := Render(&md, notices, opts); err != nil {
		return err
	}
	if err := goldmark.New().Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("failed to render bulletin HTML: %w", err)
	}
	return nil
}

// issueLine reads "(Bulletin 21 of 2025 based on Gazettes received during
// the week 16 to 23 May 2025)".
func issueLine(opts Options) string {
	if opts.Number == 0 && opts.To.IsZero() {
		return ""
	}
	var parts []string
	if opts.Number > 0 {
		year := opts.To.Year()
		if opts.To.IsZero() {
			year = time.Now().Year()
		}
		parts = append(parts, fmt.Sprintf("Bulletin %d of %d", opts.Number, year))
	}
	if !opts.To.IsZero() {
		parts = append(parts, "based on Gazettes received during the week "+weekRange(opts.From, opts.To))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func weekRange(from, to time.Time) string {
	end := to.Format("2 January 2006")
	switch {
	case from.IsZero():
		return "ending " + end
	case from.Year() != to.Year():
		return from.Format("2 January 2006") + " to " + end
	case from.Month() != to.Month():
		return from.Format("2 January") + " to " + end
	default:
		return fmt.Sprintf("%d to %s", from.Day(), end)
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
