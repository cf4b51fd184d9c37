package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/rewriteguard/internal/config"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rewriteguard",
	Short: "Guard against accidental large-scale file rewrites",
	Long: `rewriteguard sits between an automated code-editing agent and the
filesystem. Installed as a Claude Code hook, it estimates how much of an
existing file each Write, Edit, or MultiEdit call would change and blocks
changes above a configurable threshold. A blocked change can be pushed
through deliberately by resubmitting the identical operation within the
retry window.

Hook commands (invoked by the host, reading JSON on stdin):
  check        PreToolUse: allow, warn about, or block a proposed edit
  tidy         PostToolUse: repair trailing newlines, flag non-ASCII text

Management commands:
  hooks        Install or inspect the Claude Code hook configuration
  config       Show the effective configuration
  mcp          Serve the guard as an MCP tool over stdio
  version      Show version information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose diagnostics on stderr")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .rewriteguard/config.yaml)")
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	return output
}

// VerbosePrintf prints to stderr only when verbose mode is enabled. Hook
// commands must keep stdout clean for the host runtime.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("REWRITEGUARD_CONFIG", path)
}

// loadConfig resolves the effective configuration. Hook commands fail open:
// a broken config file falls back to defaults with an advisory rather than
// aborting the host's tool call.
func loadConfig() *config.Config {
	overrides := &config.Config{Verbose: verbose}
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rewriteguard: config invalid (%v); using defaults\n", err)
		cfg = config.Default()
		cfg.Verbose = verbose
	}
	return cfg
}
