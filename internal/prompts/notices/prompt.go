// Package notices holds the prompt and output schema used to turn gazette
// text into a structured notice.
package notices

import (
	_ "embed"
	"fmt"

	"github.com/jackzampolin/bulletin/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "notices.structure.system"
	UserPromptKey   = "notices.structure.user"
)

// PromptVersion is bumped by hand when the prompt's meaning changes. Edits
// that forget to bump it are still caught by the template hash.
const PromptVersion = "2"

// RegisterPrompts registers the notice prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Notice structuring system prompt - field rules for bulletin entries",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Notice structuring user prompt template",
	})
}

// Input is the data the user template renders.
type Input struct {
	GazetteNumber int
	NoticeNumber  int
	MajorType     string
	Masthead      string
	ContentsEntry string
	Text          string
}

// Prompt is a rendered request ready to send.
type Prompt struct {
	System  string
	User    string
	Version string
	// Hash covers both templates as resolved, overrides included.
	Hash string
}

// Build resolves and renders the notice prompts.
func Build(r *prompts.Resolver, in Input) (*Prompt, error) {
	system, err := r.Resolve(SystemPromptKey)
	if err != nil {
		return nil, err
	}
	user, err := r.Resolve(UserPromptKey)
	if err != nil {
		return nil, err
	}

	userText, err := user.Render(in)
	if err != nil {
		return nil, err
	}
	return &Prompt{
		System:  system.Text,
		User:    userText,
		Version: PromptVersion,
		Hash:    prompts.HashText(fmt.Sprintf("%s\x00%s", system.Hash, user.Hash)),
	}, nil
}
