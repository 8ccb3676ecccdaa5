package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/config"
	"github.com/jackzampolin/bulletin/internal/home"
	"github.com/jackzampolin/bulletin/internal/output"
	"github.com/jackzampolin/bulletin/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string

	// level is shared by every logger so config reloads can change it.
	level = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "bulletin",
	Short: "Extract notices from government gazettes into a weekly statutes bulletin",
	Long: `Bulletin reads government gazette PDFs, finds the notices an editor asked
for, and turns each into a validated, citable bulletin entry.

The pipeline includes:
  - Text layer extraction with OCR fallback (text cache)
  - Contents parsing with single, list and regulation strategies
  - LLM structuring with schema validation (response cache)
  - Cross-checking against the requested gazette and notice numbers
  - Concurrent batch runs with retry and an XLSX report`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bulletin/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bulletin home directory (default: ~/.bulletin)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)",
	)

	// Set output format and logger before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		output.SetFormat(format)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
}

// loadConfig reads configuration for the selected home directory and applies
// the --log-level override.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	if err := applyLogLevel(mgr.Get()); err != nil {
		return nil, nil, err
	}
	return mgr, h, nil
}

func applyLogLevel(cfg *config.Config) error {
	if logLevel != "" {
		cfg = &config.Config{LogLevel: logLevel}
	}
	l, err := cfg.Level()
	if err != nil {
		return err
	}
	level.Set(l)
	return nil
}
