package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/bulletin"
	"github.com/jackzampolin/bulletin/internal/notice"
)

var (
	bulletinTitle  string
	bulletinNumber int
	bulletinISSN   string
	bulletinFrom   string
	bulletinTo     string
	renderOut      string
	renderHTML     bool
)

var renderCmd = &cobra.Command{
	Use:     "render <notices.json>",
	Aliases: []string{"bulletin"},
	Short:   "Compose the weekly bulletin from validated notices",
	Long: `Render groups notices by section and department and writes the bulletin
as Markdown, or HTML with --html or an .html output path.

The input is the JSON written by "bulletin run --notices".

Examples:
  bulletin render week21.json --number 21 --from 2025-05-16 --to 2025-05-23
  bulletin render week21.json --out week21.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var notices []notice.Notice
		if err := json.Unmarshal(data, &notices); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}
		opts := bulletinOptions()

		if renderOut != "" {
			return writeBulletin(renderOut, notices, opts)
		}
		return render(cmd.OutOrStdout(), renderHTML, notices, opts)
	},
}

func addBulletinFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bulletinTitle, "title", "", "bulletin title")
	cmd.Flags().IntVar(&bulletinNumber, "number", 0, "bulletin number within the year")
	cmd.Flags().StringVar(&bulletinISSN, "issn", "", "ISSN printed under the title")
	cmd.Flags().StringVar(&bulletinFrom, "from", "", "first day of the week covered (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bulletinTo, "to", "", "last day of the week covered (YYYY-MM-DD)")
}

// bulletinOptions reads the shared bulletin flags. Unparseable dates are
// left out of the issue line.
func bulletinOptions() bulletin.Options {
	opts := bulletin.Options{
		Title:  bulletinTitle,
		Number: bulletinNumber,
		ISSN:   bulletinISSN,
	}
	opts.From, _ = time.Parse(time.DateOnly, bulletinFrom)
	opts.To, _ = time.Parse(time.DateOnly, bulletinTo)
	return opts
}

func writeBulletin(path string, notices []notice.Notice, opts bulletin.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if err := render(f, ext == ".html" || ext == ".htm", notices, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func render(w io.Writer, html bool, notices []notice.Notice, opts bulletin.Options) error {
	if html {
		return bulletin.RenderHTML(w, notices, opts)
	}
	return bulletin.Render(w, notices, opts)
}

func init() {
	addBulletinFlags(renderCmd)
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output path (default: stdout)")
	renderCmd.Flags().BoolVar(&renderHTML, "html", false, "write HTML instead of Markdown to stdout")

	rootCmd.AddCommand(renderCmd)
}
