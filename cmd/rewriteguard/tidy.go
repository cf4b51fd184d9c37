package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/rewriteguard/internal/config"
	"github.com/boshu2/rewriteguard/internal/hook"
	"github.com/boshu2/rewriteguard/internal/scan"
)

// maxCharFindings caps how many non-ASCII findings one pass reports.
const maxCharFindings = 10

var tidyCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Clean up after an applied file modification (PostToolUse hook)",
	Long: `Read a Claude Code PostToolUse payload from stdin and run the post-edit
glue on the modified file: append a missing trailing newline and flag
non-ASCII characters.

Everything here is advisory. The command always exits 0 and only writes
diagnostics to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		tidyFile(os.Stdin, os.Stderr, loadConfig())
	},
}

func init() {
	rootCmd.AddCommand(tidyCmd)
}

// tidyFile performs the best-effort cleanup pass for one hook payload.
func tidyFile(stdin io.Reader, diag io.Writer, cfg *config.Config) {
	payload, err := hook.Decode(stdin)
	if err != nil {
		return
	}
	op, ok := payload.Operation()
	if !ok {
		return
	}

	if !cfg.Tidy.DisableNewlineFix {
		fixed, err := scan.EnsureTrailingNewline(op.Path)
		if err != nil {
			VerbosePrintf("rewriteguard: newline fix skipped: %v\n", err)
		} else if fixed {
			fmt.Fprintf(diag, "rewriteguard: added missing trailing newline to %s\n", op.Path)
		}
	}

	if !cfg.Tidy.DisableCharScan {
		reportNonASCII(diag, op.Path)
	}
}

// reportNonASCII prints up to maxCharFindings advisories for path.
func reportNonASCII(diag io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	findings := scan.FindNonASCII(string(data))
	if len(findings) == 0 {
		return
	}

	shown := findings
	if len(shown) > maxCharFindings {
		shown = shown[:maxCharFindings]
	}
	fmt.Fprintf(diag, "rewriteguard: %d non-ASCII character(s) in %s\n", len(findings), path)
	for _, f := range shown {
		fmt.Fprintf(diag, "  %s\n", f)
	}
	if len(findings) > len(shown) {
		fmt.Fprintf(diag, "  ... and %d more\n", len(findings)-len(shown))
	}
}
