package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/output"
	"github.com/jackzampolin/bulletin/internal/prompts"
	"github.com/jackzampolin/bulletin/internal/prompts/notices"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt templates",
}

type promptInfo struct {
	Key      string `json:"key" yaml:"key"`
	Hash     string `json:"hash" yaml:"hash"`
	Override bool   `json:"override" yaml:"override"`
	Path     string `json:"path" yaml:"path"`
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts and whether an override is in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		var infos []promptInfo
		for _, p := range r.AllEmbedded() {
			resolved, err := r.Resolve(p.Key)
			if err != nil {
				return err
			}
			infos = append(infos, promptInfo{
				Key:      p.Key,
				Hash:     resolved.Hash,
				Override: resolved.IsOverride,
				Path:     r.OverridePath(p.Key),
			})
		}
		return output.Print(infos)
	},
}

var promptsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the embedded prompts to the override directory",
	Long: `Write each embedded prompt to <prompts_dir>/<key>.tmpl so it can be edited.
Existing files are left alone. Editing a prompt changes its hash, so cached
responses made with the old text are not reused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		written, err := r.ExportDefaults()
		if err != nil {
			return err
		}
		return output.Print(map[string]any{"written": written})
	},
}

func promptResolver() (*prompts.Resolver, error) {
	mgr, h, err := loadConfig()
	if err != nil {
		return nil, err
	}
	r := prompts.NewResolver(promptsDir(mgr.Get(), h), nil)
	notices.RegisterPrompts(r)
	return r, nil
}

func init() {
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsExportCmd)
	rootCmd.AddCommand(promptsCmd)
}
