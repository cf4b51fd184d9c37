package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/boshu2/rewriteguard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after applying all sources in precedence order:
flags > REWRITEGUARD_* environment > project .rewriteguard/config.yaml >
~/.rewriteguard/config.yaml > defaults.

Examples:
  rewriteguard config show
  rewriteguard config show -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		return outputConfig(cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func outputConfig(cfg *config.Config) error {
	switch GetOutput() {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)

	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		return enc.Encode(cfg)

	default:
		return outputConfigTable(cfg)
	}
}

func outputConfigTable(cfg *config.Config) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "hard_percent\t%d\n", cfg.HardPercent)
	fmt.Fprintf(w, "soft_percent\t%d\n", cfg.SoftPercent)
	fmt.Fprintf(w, "min_lines\t%d\n", cfg.MinLines)
	fmt.Fprintf(w, "exclude\t%s\n", strings.Join(cfg.Exclude, ", "))
	fmt.Fprintf(w, "retry_ttl_seconds\t%d\n", cfg.RetryTTLSeconds)
	fmt.Fprintf(w, "cache_dir\t%s\n", cfg.CacheDir)
	fmt.Fprintf(w, "cleanup_batch\t%d\n", cfg.CleanupBatch)
	fmt.Fprintf(w, "tidy.disable_newline_fix\t%t\n", cfg.Tidy.DisableNewlineFix)
	fmt.Fprintf(w, "tidy.disable_char_scan\t%t\n", cfg.Tidy.DisableCharScan)
	return w.Flush()
}
