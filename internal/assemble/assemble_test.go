package assemble

import (
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/bulletin/internal/notice"
)

func structuredNotice() notice.Notice {
	return notice.Notice{
		MajorType:  notice.GeneralNotice,
		Department: "Department of Sports, Arts and Culture",
		Title:      " Draft National Policy on Heritage Memorialisation ",
		Text:       "The Draft National Policy on Heritage Memorialisation is published for public comment.",
		Citation: notice.Citation{
			NoticeNumber:  3228,
			GazetteNumber: 52724,
			Day:           23,
			Month:         "May",
			Year:          2025,
			Page:          3,
		},
		Acts: []notice.Act{{Whom: "National Heritage Resources", Number: 25, Year: 1999}},
	}
}

func baseSpec() notice.Spec {
	return notice.Spec{PDF: "gg52724.pdf", GazetteNumber: 52724, NoticeNumber: 3228}
}

func TestAssemble(t *testing.T) {
	t.Run("agreeing fields", func(t *testing.T) {
		spec := baseSpec()
		spec.Page = 3
		spec.Published = time.Date(2025, time.May, 23, 0, 0, 0, 0, time.UTC)

		n, err := Assemble(spec, structuredNotice())
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		if n.Title != "Draft National Policy on Heritage Memorialisation" {
			t.Errorf("Title = %q", n.Title)
		}
		if n.Provenance.Source != "gg52724.pdf" {
			t.Errorf("Source = %q", n.Provenance.Source)
		}
		if got := n.BulletinLine(); got != "The Draft National Policy on Heritage Memorialisation is published for public comment. (GenN 3228 in GG 52724 of 23 May 2025) (p3)" {
			t.Errorf("BulletinLine = %q", got)
		}
	})

	t.Run("hints fill gaps", func(t *testing.T) {
		spec := baseSpec()
		spec.Page = 4
		spec.Published = time.Date(2025, time.May, 23, 0, 0, 0, 0, time.UTC)
		s := structuredNotice()
		s.Citation.Page = 0
		s.Citation.Day, s.Citation.Month, s.Citation.Year = 0, "", 0

		n, err := Assemble(spec, s)
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		if n.Citation.Page != 4 || n.Citation.Date() != "23 May 2025" {
			t.Errorf("unexpected citation %+v", n.Citation)
		}
	})

	t.Run("explicit major type", func(t *testing.T) {
		spec := baseSpec()
		spec.MajorType = notice.GeneralNotice
		if _, err := Assemble(spec, structuredNotice()); err != nil {
			t.Errorf("Assemble failed: %v", err)
		}
	})
}

func TestAssemble_Mismatches(t *testing.T) {
	tests := []struct {
		name   string
		spec   func(*notice.Spec)
		notice func(*notice.Notice)
		field  string
	}{
		{
			name:   "major type",
			spec:   func(s *notice.Spec) { s.MajorType = notice.GovernmentNotice },
			notice: func(n *notice.Notice) { n.MajorType = notice.BoardNotice },
			field:  "major_type",
		},
		{
			name:   "major type inferred from number",
			notice: func(n *notice.Notice) { n.MajorType = notice.GovernmentNotice },
			field:  "major_type",
		},
		{
			name:  "notice number without a known range",
			spec:  func(s *notice.Spec) { s.NoticeNumber = 5100 },
			field: "major_type",
		},
		{
			name:   "notice number",
			notice: func(n *notice.Notice) { n.Citation.NoticeNumber = 3229 },
			field:  "notice_number",
		},
		{
			name:   "gazette number",
			notice: func(n *notice.Notice) { n.Citation.GazetteNumber = 52725 },
			field:  "gazette_number",
		},
		{
			name:  "page hint",
			spec:  func(s *notice.Spec) { s.Page = 9 },
			field: "page",
		},
		{
			name:  "date hint",
			spec:  func(s *notice.Spec) { s.Published = time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC) },
			field: "date",
		},
		{
			name:   "empty summary",
			notice: func(n *notice.Notice) { n.Text = "  " },
			field:  "text",
		},
		{
			name:   "no date at all",
			notice: func(n *notice.Notice) { n.Citation.Day, n.Citation.Month, n.Citation.Year = 0, "", 0 },
			field:  "date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := baseSpec()
			if tt.spec != nil {
				tt.spec(&spec)
			}
			n := structuredNotice()
			if tt.notice != nil {
				tt.notice(&n)
			}

			got, err := Assemble(spec, n)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got.Title != "" {
				t.Error("no notice should be produced on failure")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, m := range verr.Mismatches {
				if m.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a %s mismatch, got %v", tt.field, verr.Mismatches)
			}
		})
	}
}

func TestAssemble_DoesNotShareActs(t *testing.T) {
	s := structuredNotice()
	n, err := Assemble(baseSpec(), s)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	n.Acts[0].Whom = "changed"
	if s.Acts[0].Whom != "National Heritage Resources" {
		t.Error("assembled notice shares its acts with the input")
	}
}
