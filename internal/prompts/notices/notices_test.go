package notices

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/prompts"
	"github.com/jackzampolin/bulletin/internal/providers"
)

const validResult = `{
	"major_type": "GenN",
	"notice_number": 3228,
	"gazette_number": 52724,
	"day": 23,
	"month": "May",
	"year": 2025,
	"page": 3,
	"title": "Road Accident Fund Act, 1996: Adjustment of statutory limit",
	"summary": "The Minister of Transport adjusts the statutory limit on claims for loss of income and support.",
	"department": "Department of Transport",
	"acts": [{"whom": "Road Accident Fund", "number": 56, "year": 1996}]
}`

func TestBuild(t *testing.T) {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)

	in := Input{
		GazetteNumber: 52724,
		NoticeNumber:  3228,
		MajorType:     "GenN",
		Masthead:      "Vol. 719 23 May 2025 No. 52724",
		Text:          "Road Accident Fund Act (56/1996): Adjustment of statutory limit",
	}
	p, err := Build(r, in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, want := range []string{"Gazette number: 52724", "Notice number: 3228", "Expected major type: GenN", "Masthead:", "Road Accident Fund"} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q:\n%s", want, p.User)
		}
	}
	if strings.Contains(p.User, "Contents entry:") {
		t.Error("empty contents entry should be omitted")
	}
	if p.Version != PromptVersion || p.Hash == "" || p.System == "" {
		t.Errorf("unexpected prompt metadata %+v", p)
	}

	again, _ := Build(r, in)
	if again.Hash != p.Hash {
		t.Error("hash should be stable")
	}
}

func TestBuild_OverrideChangesHash(t *testing.T) {
	dir := t.TempDir()
	base := prompts.NewResolver(dir, nil)
	RegisterPrompts(base)
	before, err := Build(base, Input{NoticeNumber: 1, GazetteNumber: 2, Text: "x"})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, SystemPromptKey+".tmpl"), []byte("Be brief."), 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := Build(base, Input{NoticeNumber: 1, GazetteNumber: 2, Text: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if after.Hash == before.Hash {
		t.Error("editing a template must change the prompt hash")
	}
	if after.System != "Be brief." {
		t.Errorf("expected override system prompt, got %q", after.System)
	}
}

func TestSchema(t *testing.T) {
	schema, err := providers.CompileSchema(SchemaJSON())
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	if err := schema.Validate(json.RawMessage(validResult)); err != nil {
		t.Errorf("valid result rejected: %v", err)
	}

	invalid := []struct {
		name string
		doc  string
	}{
		{"unknown major type", strings.Replace(validResult, `"GenN"`, `"Memo"`, 1)},
		{"bad month", strings.Replace(validResult, `"May"`, `"Mei"`, 1)},
		{"missing summary", strings.Replace(validResult, `"summary"`, `"abstract"`, 1)},
		{"string notice number", strings.Replace(validResult, `3228`, `"3228"`, 1)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := schema.Validate(json.RawMessage(tt.doc)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResult_Notice(t *testing.T) {
	r, err := ParseResult(json.RawMessage(validResult))
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	n, err := r.Notice()
	if err != nil {
		t.Fatalf("Notice() error = %v", err)
	}

	if n.MajorType != notice.GeneralNotice {
		t.Errorf("MajorType = %q", n.MajorType)
	}
	if n.Citation.Page != 3 || n.Citation.Date() != "23 May 2025" {
		t.Errorf("unexpected citation %+v", n.Citation)
	}
	if n.Department != "Department of Transport" {
		t.Errorf("Department = %q", n.Department)
	}
	if len(n.Acts) != 1 || n.Acts[0].String() != "Road Accident Fund ACT 56 of 1996" {
		t.Errorf("unexpected acts %+v", n.Acts)
	}

	t.Run("null page and department", func(t *testing.T) {
		doc := strings.Replace(strings.Replace(validResult, `"page": 3`, `"page": null`, 1),
			`"Department of Transport"`, `null`, 1)
		r, _ := ParseResult(json.RawMessage(doc))
		n, err := r.Notice()
		if err != nil {
			t.Fatal(err)
		}
		if n.Citation.Page != 0 || n.Department != "" {
			t.Errorf("expected empty page and department, got %+v", n)
		}
	})
}
