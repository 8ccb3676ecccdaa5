package gazette

import (
	"testing"

	"github.com/jackzampolin/bulletin/internal/notice"
)

func TestLogicalLines(t *testing.T) {
	t.Run("single line entry", func(t *testing.T) {
		got := LogicalLines("3228 Road Accident Fund Act (56/1996): Notice ........ 52724 3")
		if len(got) != 1 || got[0] != "3228 Road Accident Fund Act (56/1996): Notice ........ 52724 3" {
			t.Errorf("unexpected lines %q", got)
		}
	})

	t.Run("wrapped entry", func(t *testing.T) {
		text := "1234 First line\ncontinues here....... 52724 3"
		got := LogicalLines(text)
		if len(got) != 1 || got[0] != "1234 First line continues here....... 52724 3" {
			t.Errorf("unexpected lines %q", got)
		}
	})

	t.Run("several entries", func(t *testing.T) {
		text := "Contents\n" +
			"3228 Road Accident Fund Act (56/1996): First ........ 52724 3\n" +
			"3229 Skills Development Act, No. 97 of 1998: Second\n" +
			"notice continues ........ 52724 5\n" +
			"3230 Third ........ 52724 7\n"
		got := LogicalLines(text)
		if len(got) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(got), got)
		}
		if got[1] != "3229 Skills Development Act, No. 97 of 1998: Second notice continues ........ 52724 5" {
			t.Errorf("unexpected joined line %q", got[1])
		}
	})

	t.Run("wrapped year is not a new entry", func(t *testing.T) {
		text := "3231 Competition Act, No. 89 of\n" +
			"1998 .................... 52724 9\n" +
			"3232 Next notice ........ 52724 10"
		got := LogicalLines(text)
		if len(got) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(got), got)
		}
		if got[0] != "3231 Competition Act, No. 89 of 1998 .................... 52724 9" {
			t.Errorf("unexpected joined line %q", got[0])
		}
	})

	t.Run("non entry text ignored", func(t *testing.T) {
		if got := LogicalLines("Government Gazette\nStaatskoerant\n"); len(got) != 0 {
			t.Errorf("expected no lines, got %q", got)
		}
	})
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Entry
	}{
		{
			name: "slash act",
			line: "3228 Road Accident Fund Act (56/1996): Notice of amendment ........ 52724 3",
			want: Entry{
				NoticeNumber:  3228,
				Act:           &notice.Act{Whom: "Road Accident Fund", Number: 56, Year: 1996},
				Description:   "Notice of amendment",
				GazetteNumber: 52724,
				Page:          3,
			},
		},
		{
			name: "act comma number",
			line: "3229 Skills Development Act, No. 97 of 1998: Call for comment ........ 52724 5",
			want: Entry{
				NoticeNumber:  3229,
				Act:           &notice.Act{Whom: "Skills Development", Number: 97, Year: 1998},
				Description:   "Call for comment",
				GazetteNumber: 52724,
				Page:          5,
			},
		},
		{
			name: "year then number",
			line: "3230 Competition Act, 1998 (Act No. 89 of 1998): Exemption granted ........ 52724 7",
			want: Entry{
				NoticeNumber:  3230,
				Act:           &notice.Act{Whom: "Competition", Number: 89, Year: 1998},
				Description:   "Exemption granted",
				GazetteNumber: 52724,
				Page:          7,
			},
		},
		{
			name: "quoted aside removed",
			line: "3231 Marine Living Resources Act (18/1998): (\"the Act\") Fishing rights ........ 52724 8",
			want: Entry{
				NoticeNumber:  3231,
				Act:           &notice.Act{Whom: "Marine Living Resources", Number: 18, Year: 1998},
				Description:   "Fishing rights",
				GazetteNumber: 52724,
				Page:          8,
			},
		},
		{
			name: "afrikaans",
			line: "3232 Wet op Padongelukkefonds (56/1996): Kennisgewing ........ 52724 9",
			want: Entry{
				NoticeNumber:  3232,
				Act:           &notice.Act{Whom: "Wet op Padongelukkefonds", Number: 56, Year: 1996},
				Description:   "Kennisgewing",
				GazetteNumber: 52724,
				Page:          9,
			},
		},
		{
			name: "no act",
			line: "3233 Draft National Heritage Policy published for comment ........ 52724 11",
			want: Entry{
				NoticeNumber:  3233,
				Description:   "Draft National Heritage Policy published for comment",
				GazetteNumber: 52724,
				Page:          11,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEntry(tt.line)
			if !ok {
				t.Fatal("expected entry to parse")
			}
			if got.NoticeNumber != tt.want.NoticeNumber || got.GazetteNumber != tt.want.GazetteNumber || got.Page != tt.want.Page {
				t.Errorf("unexpected numbers %+v", got)
			}
			if got.Description != tt.want.Description {
				t.Errorf("expected description %q, got %q", tt.want.Description, got.Description)
			}
			switch {
			case tt.want.Act == nil && got.Act != nil:
				t.Errorf("expected no act, got %+v", *got.Act)
			case tt.want.Act != nil && got.Act == nil:
				t.Errorf("expected act %+v, got none", *tt.want.Act)
			case tt.want.Act != nil && *got.Act != *tt.want.Act:
				t.Errorf("expected act %+v, got %+v", *tt.want.Act, *got.Act)
			}
		})
	}

	if _, ok := ParseEntry("Invalid line format"); ok {
		t.Error("expected invalid line to be rejected")
	}
}

func TestRegulationMarkers(t *testing.T) {
	text := "Contents\nR. 6123 Medicines Act (101/1965): Regulations ........ 52724 3\nR6124 Further regulations ........ 52724 6\n"

	if !LeadingRegulationMarker(text) {
		t.Error("expected leading regulation marker")
	}
	if LeadingRegulationMarker("Vol. 719\n2025 No. 52724\n3228 Notice ........ 52724 3\nR. 6123 Later ........ 52724 4") {
		t.Error("expected plain leading entry not to count as a regulation marker")
	}

	stripped, marked := StripRegulationMarkers(text)
	if !marked[6123] || !marked[6124] || len(marked) != 2 {
		t.Errorf("unexpected marked numbers %v", marked)
	}
	entries := ParseEntries(stripped)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].NoticeNumber != 6123 || entries[1].NoticeNumber != 6124 {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestSplitAct(t *testing.T) {
	act, desc := SplitAct(`Road Accident Fund Act (56/1996): ("RAF") Adjustment of limit`)
	if act == nil || act.Whom != "Road Accident Fund" || act.Number != 56 || act.Year != 1996 {
		t.Errorf("unexpected act %+v", act)
	}
	if desc != "Adjustment of limit" {
		t.Errorf("description = %q", desc)
	}

	act, desc = SplitAct("  Draft National Policy on Heritage Memorialisation  ")
	if act != nil {
		t.Errorf("expected no act, got %+v", act)
	}
	if desc != "Draft National Policy on Heritage Memorialisation" {
		t.Errorf("description = %q", desc)
	}
}
