// Package prompts manages the LLM prompt templates.
//
// Templates are embedded .tmpl files registered by the package that owns
// them. An override directory may replace any template by key, so prompts can
// be tuned without a rebuild:
//
//	<override dir>/<key>.tmpl
//
// Every resolved prompt carries the hash of its text. The structuring client
// folds that hash into the response-cache fingerprint, so editing a template
// never serves a reply produced by the old one.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: notices.structure.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the text a caller should use for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash       string   `json:"hash" yaml:"hash"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"` // override file, when IsOverride
}
