package notices

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackzampolin/bulletin/internal/notice"
)

// SchemaVersion is part of every response-cache key. Bump it whenever
// StructureSchema or Result changes shape.
const SchemaVersion = "1"

// StructureSchema is the JSON schema for structured notice output.
var StructureSchema = map[string]any{
	"name":   "gazette_notice",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"major_type": map[string]any{
				"type":        "string",
				"enum":        []string{"BN", "GenN", "GN", "Proc"},
				"description": "Notice category",
			},
			"notice_number": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"gazette_number": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"day": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 31,
			},
			"month": map[string]any{
				"type": "string",
				"enum": []string{
					"January", "February", "March", "April", "May", "June",
					"July", "August", "September", "October", "November", "December",
				},
			},
			"year": map[string]any{
				"type":    "integer",
				"minimum": 1900,
				"maximum": 2999,
			},
			"page": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "First page of the notice, null if not stated",
			},
			"title": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "One or two complete sentences for the bulletin",
			},
			"department": map[string]any{
				"type": []string{"string", "null"},
			},
			"acts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"whom":   map[string]any{"type": "string", "minLength": 1},
						"number": map[string]any{"type": []string{"integer", "null"}},
						"year":   map[string]any{"type": []string{"integer", "null"}},
					},
					"required":             []string{"whom", "number", "year"},
					"additionalProperties": false,
				},
			},
		},
		"required": []string{
			"major_type",
			"notice_number",
			"gazette_number",
			"day",
			"month",
			"year",
			"page",
			"title",
			"summary",
			"department",
			"acts",
		},
		"additionalProperties": false,
	},
}

// SchemaJSON returns StructureSchema encoded for a ResponseFormat.
func SchemaJSON() json.RawMessage {
	b, err := json.Marshal(StructureSchema)
	if err != nil {
		panic(fmt.Sprintf("notice schema does not encode: %v", err))
	}
	return b
}

// Result is the parsed structuring output.
type Result struct {
	MajorType     string  `json:"major_type"`
	NoticeNumber  int     `json:"notice_number"`
	GazetteNumber int     `json:"gazette_number"`
	Day           int     `json:"day"`
	Month         string  `json:"month"`
	Year          int     `json:"year"`
	Page          *int    `json:"page"`
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	Department    *string `json:"department"`
	Acts          []Act   `json:"acts"`
}

// Act is one legislation reference in a Result.
type Act struct {
	Whom   string `json:"whom"`
	Number *int   `json:"number"`
	Year   *int   `json:"year"`
}

// ParseResult decodes schema-valid JSON.
func ParseResult(raw json.RawMessage) (*Result, error) {
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to decode notice result: %w", err)
	}
	return &r, nil
}

// Notice converts the result to a notice with no provenance.
func (r *Result) Notice() (notice.Notice, error) {
	major, err := notice.ParseMajorType(r.MajorType)
	if err != nil {
		return notice.Notice{}, err
	}

	n := notice.Notice{
		MajorType: major,
		Title:     strings.TrimSpace(r.Title),
		Text:      strings.TrimSpace(r.Summary),
		Citation: notice.Citation{
			NoticeNumber:  r.NoticeNumber,
			GazetteNumber: r.GazetteNumber,
			Day:           r.Day,
			Month:         r.Month,
			Year:          r.Year,
		},
	}
	if r.Page != nil {
		n.Citation.Page = *r.Page
	}
	if r.Department != nil {
		n.Department = strings.TrimSpace(*r.Department)
	}
	for _, a := range r.Acts {
		act := notice.Act{Whom: strings.TrimSpace(a.Whom)}
		if a.Number != nil {
			act.Number = *a.Number
		}
		if a.Year != nil {
			act.Year = *a.Year
		}
		n.Acts = append(n.Acts, act)
	}
	return n, nil
}
