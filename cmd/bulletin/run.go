package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/batch"
	"github.com/jackzampolin/bulletin/internal/config"
	"github.com/jackzampolin/bulletin/internal/output"
	"github.com/jackzampolin/bulletin/internal/specfile"
)

var (
	runWorkers  int
	runReport   string
	runNotices  string
	runBulletin string
)

// runSummary is what run prints.
type runSummary struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Total    int                  `json:"total" yaml:"total"`
	Counts   map[batch.Status]int `json:"counts" yaml:"counts"`
	Report   string               `json:"report" yaml:"report"`
	Notices  string               `json:"notices,omitempty" yaml:"notices,omitempty"`
	Bulletin string               `json:"bulletin,omitempty" yaml:"bulletin,omitempty"`
	Failures []runFailure         `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type runFailure struct {
	Row    int    `json:"row,omitempty" yaml:"row,omitempty"`
	Spec   string `json:"spec" yaml:"spec"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error" yaml:"error"`
}

var runCmd = &cobra.Command{
	Use:   "run <specs.csv|specs.xlsx|pdf-dir>",
	Short: "Process every notice listed in a spec table",
	Long: `Run processes a table of requested notices concurrently.

The table is CSV or XLSX with the columns pdf, gazette_number, notice_number
and optionally major_type, page and published. A directory is read as
gazette PDFs with <name>.json annotations listing the notice numbers.

Every item is reported in an XLSX report; failures do not stop the run.
Retryable structuring failures (rate limits, service errors, invalid
replies) are retried with backoff.

Examples:
  bulletin run week21.xlsx
  bulletin run week21.csv --workers 8 --notices week21.json
  bulletin run ./gazettes --bulletin week21.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		specs, err := specfile.Load(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.withStructuring(); err != nil {
			return err
		}

		// Log level follows config edits while a long run is in progress.
		a.mgr.OnChange(func(cfg *config.Config) {
			if err := applyLogLevel(cfg); err != nil {
				a.logger.Warn("ignoring config reload", "error", err)
			}
		})
		if a.mgr.ConfigFile() != "" {
			a.mgr.WatchConfig()
		}

		workers := a.cfg.Batch.Workers
		if runWorkers > 0 {
			workers = runWorkers
		}
		runner := batch.NewRunner(batch.Config{
			Processor:     a.pipeline,
			Workers:       workers,
			RetryAttempts: uint(a.cfg.Batch.RetryAttempts),
			RetryDelay:    a.cfg.Batch.RetryDelay(),
			MaxRetryDelay: a.cfg.Batch.MaxRetryDelay(),
			Logger:        a.logger,
		})

		report, runErr := runner.Run(ctx, specs)
		if report == nil {
			return runErr
		}

		summary := runSummary{
			RunID:  report.RunID,
			Total:  len(report.Items),
			Counts: report.Counts(),
			Report: runReport,
		}
		if summary.Report == "" {
			summary.Report = filepath.Join(a.home.ReportsPath(), "run-"+report.RunID+".xlsx")
		}
		if err := report.WriteXLSX(summary.Report); err != nil {
			return errors.Join(runErr, err)
		}

		notices := report.Notices()
		if runNotices != "" {
			data, err := json.MarshalIndent(notices, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(runNotices, data, 0o644); err != nil {
				return fmt.Errorf("failed to write notices: %w", err)
			}
			summary.Notices = runNotices
		}
		if runBulletin != "" {
			if err := writeBulletin(runBulletin, notices, bulletinOptions()); err != nil {
				return err
			}
			summary.Bulletin = runBulletin
		}

		for _, it := range report.Items {
			if it.Status == batch.StatusOK {
				continue
			}
			summary.Failures = append(summary.Failures, runFailure{
				Row:    it.Spec.Row,
				Spec:   it.Spec.String(),
				Status: string(it.Status),
				Error:  it.Error,
			})
		}
		if err := output.Print(summary); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent workers (default: batch.workers from config)")
	runCmd.Flags().StringVar(&runReport, "report", "", "XLSX report path (default: ~/.bulletin/reports/run-<id>.xlsx)")
	runCmd.Flags().StringVar(&runNotices, "notices", "", "write the validated notices as JSON to this path")
	runCmd.Flags().StringVar(&runBulletin, "bulletin", "", "render the bulletin to this path (.md or .html)")
	addBulletinFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}
