package output

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestTo(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "{\n  \"name\": \"gg52724\",\n  \"count\": 3\n}\n"},
		{FormatYAML, "name: gg52724\ncount: 3\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := To(&buf, tt.format, sample{Name: "gg52724", Count: 3}); err != nil {
				t.Fatalf("To failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := To(&bytes.Buffer{}, "xml", sample{}); err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "yaml": FormatYAML, "": DefaultFormat} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for toml")
	}
}

func TestSetFormat(t *testing.T) {
	defer SetFormat(DefaultFormat)

	SetFormat(FormatJSON)
	if CurrentFormat() != FormatJSON {
		t.Errorf("expected json, got %s", CurrentFormat())
	}
}
