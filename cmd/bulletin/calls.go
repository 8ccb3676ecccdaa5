package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/llmcall"
	"github.com/jackzampolin/bulletin/internal/output"
)

var (
	callsGazette     int
	callsNotice      int
	callsFingerprint string
	callsFailed      bool
	callsLimit       int
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the LLM call log",
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded LLM calls",
	Long: `List calls from the JSONL call log, oldest first.

Examples:
  bulletin calls list --gazette 52724 --notice 3228
  bulletin calls list --failed --limit 20 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		filter := llmcall.QueryFilter{
			GazetteNumber:      callsGazette,
			NoticeNumber:       callsNotice,
			RequestFingerprint: callsFingerprint,
			Limit:              callsLimit,
		}
		if callsFailed {
			ok := false
			filter.Success = &ok
		}
		calls, err := llmcall.List(callLogPath(mgr.Get(), h), filter)
		if err != nil {
			return err
		}
		return output.Print(calls)
	},
}

var callsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count recorded LLM calls by prompt key",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		counts, err := llmcall.CountByPromptKey(callLogPath(mgr.Get(), h))
		if err != nil {
			return err
		}
		return output.Print(counts)
	},
}

func init() {
	callsListCmd.Flags().IntVar(&callsGazette, "gazette", 0, "filter by gazette number")
	callsListCmd.Flags().IntVar(&callsNotice, "notice", 0, "filter by notice number")
	callsListCmd.Flags().StringVar(&callsFingerprint, "fingerprint", "", "filter by request fingerprint")
	callsListCmd.Flags().BoolVar(&callsFailed, "failed", false, "only failed calls")
	callsListCmd.Flags().IntVar(&callsLimit, "limit", 0, "maximum calls to list (0: all)")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsCountCmd)
	rootCmd.AddCommand(callsCmd)
}
