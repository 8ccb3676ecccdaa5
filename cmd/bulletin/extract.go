package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/gazette"
	"github.com/jackzampolin/bulletin/internal/notice"
	"github.com/jackzampolin/bulletin/internal/output"
)

var (
	extractNotice  int
	extractGazette int
	extractType    string
	extractPage    int
)

// contentsView is what extract prints when no notice is requested.
type contentsView struct {
	PDF         string          `json:"pdf" yaml:"pdf"`
	Fingerprint string          `json:"fingerprint" yaml:"fingerprint"`
	Cache       string          `json:"cache" yaml:"cache"`
	Strategy    string          `json:"strategy" yaml:"strategy"`
	TextMethod  string          `json:"text_method" yaml:"text_method"`
	Header      gazette.Header  `json:"header" yaml:"header"`
	Department  string          `json:"department,omitempty" yaml:"department,omitempty"`
	Entries     []gazette.Entry `json:"entries" yaml:"entries"`
	Rejected    []string        `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <gazette.pdf>",
	Short: "Extract the contents of one gazette, or one notice from it",
	Long: `Extract reads a gazette PDF and prints its masthead and contents entries.

With --notice, the notice is also structured by the LLM, cross-checked and
printed as a bulletin-ready record. The gazette number defaults to the one in
a conventional file name (gg52724_23May2025.pdf), then to the masthead.

Examples:
  bulletin extract gg52724_23May2025.pdf
  bulletin extract gg52724_23May2025.pdf --notice 3228
  bulletin extract scan.pdf --notice 6130 --gazette 52726 --type GN -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pdf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := a.extractor.Extract(ctx, pdf, path)
		if err != nil {
			return err
		}

		if extractNotice == 0 {
			view := contentsView{
				PDF:         path,
				Fingerprint: res.Fingerprint.String(),
				Cache:       res.Outcome.String(),
				Strategy:    res.Extraction.Strategy,
				TextMethod:  res.Extraction.TextMethod,
				Header:      res.Extraction.Header,
				Department:  res.Extraction.Department,
				Entries:     res.Extraction.Entries,
			}
			for _, r := range res.Rejected {
				view.Rejected = append(view.Rejected, r.Strategy+": "+r.Error())
			}
			return output.Print(view)
		}

		spec, err := extractSpec(path, res.Extraction.Header.GazetteNumber)
		if err != nil {
			return err
		}
		if err := a.withStructuring(); err != nil {
			return err
		}
		n, err := a.pipeline.Process(ctx, spec)
		if err != nil {
			return err
		}
		return output.Print(n)
	},
}

// extractSpec builds the spec for a single-PDF run from flags.
func extractSpec(path string, mastheadGazette int) (notice.Spec, error) {
	spec := notice.Spec{
		PDF:           path,
		NoticeNumber:  extractNotice,
		GazetteNumber: extractGazette,
		Page:          extractPage,
	}
	if extractType != "" {
		mt, err := notice.ParseMajorType(extractType)
		if err != nil {
			return spec, err
		}
		spec.MajorType = mt
	}
	if info, ok := gazette.ParseFilename(filepath.Base(path)); ok {
		if spec.GazetteNumber == 0 {
			spec.GazetteNumber = info.GazetteNumber
		}
		spec.Published = info.Published
	}
	if spec.GazetteNumber == 0 {
		spec.GazetteNumber = mastheadGazette
	}
	if spec.GazetteNumber == 0 {
		return spec, fmt.Errorf("no gazette number for %s: pass --gazette", path)
	}
	return spec, nil
}

func init() {
	extractCmd.Flags().IntVar(&extractNotice, "notice", 0, "notice number to structure")
	extractCmd.Flags().IntVar(&extractGazette, "gazette", 0, "expected gazette number")
	extractCmd.Flags().StringVar(&extractType, "type", "", "expected major type (GN, GenN, BN, Proc)")
	extractCmd.Flags().IntVar(&extractPage, "page", 0, "expected page")

	rootCmd.AddCommand(extractCmd)
}
