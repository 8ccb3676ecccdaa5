package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bulletin/internal/cache"
	"github.com/jackzampolin/bulletin/internal/fingerprint"
	"github.com/jackzampolin/bulletin/internal/output"
	"github.com/jackzampolin/bulletin/internal/prompts/notices"
	"github.com/jackzampolin/bulletin/internal/providers"
	"github.com/jackzampolin/bulletin/internal/structuring"
)

var cacheNamespace string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the text and response caches",
}

type cacheInfo struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Backend   string `json:"backend" yaml:"backend"`
	Entries   int    `json:"entries" yaml:"entries"`
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per cache namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var infos []cacheInfo
		for _, ns := range []string{cache.NamespaceText, cache.NamespaceResponses} {
			store, err := a.openStore(ns)
			if err != nil {
				return err
			}
			n, err := store.Len(ctx)
			if err != nil {
				return fmt.Errorf("failed to count %s cache: %w", ns, err)
			}
			infos = append(infos, cacheInfo{Namespace: ns, Backend: store.Backend(), Entries: n})
		}
		return output.Print(infos)
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <fingerprint>",
	Short: "Print one cache entry",
	Long: `Print the entry stored under a fingerprint. Text cache keys are PDF
fingerprints; response cache keys are request fingerprints, both shown in a
notice's provenance.

Examples:
  bulletin cache get 3f9a...e1
  bulletin cache get 77c0...4b --namespace responses -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key, err := fingerprint.Parse(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		switch cacheNamespace {
		case cache.NamespaceText:
			x, err := a.textCache.Get(ctx, key)
			if err != nil {
				return err
			}
			return output.Print(x)
		case cache.NamespaceResponses:
			store, err := a.openStore(cache.NamespaceResponses)
			if err != nil {
				return err
			}
			schema, err := providers.CompileSchema(notices.SchemaJSON())
			if err != nil {
				return err
			}
			raw, err := structuring.NewResponseCache(store, schema, a.logger).Get(ctx, key)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			return output.Print(v)
		default:
			return fmt.Errorf("unknown namespace %q (want %s or %s)", cacheNamespace, cache.NamespaceText, cache.NamespaceResponses)
		}
	},
}

func init() {
	cacheGetCmd.Flags().StringVar(&cacheNamespace, "namespace", cache.NamespaceText, "cache namespace: text or responses")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	rootCmd.AddCommand(cacheCmd)
}
