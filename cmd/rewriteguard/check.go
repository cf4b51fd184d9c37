package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/rewriteguard/internal/config"
	"github.com/boshu2/rewriteguard/internal/guard"
	"github.com/boshu2/rewriteguard/internal/hook"
	"github.com/boshu2/rewriteguard/internal/tokenstore"
)

// Hook exit codes. The host treats 2 as "block this tool call"; anything
// written to stderr accompanies the verdict.
const (
	exitAllow = 0
	exitBlock = 2
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a proposed file modification (PreToolUse hook)",
	Long: `Read a Claude Code PreToolUse payload from stdin and decide whether the
proposed Write, Edit, or MultiEdit may proceed.

Exit codes:
  0  allow (a warning may accompany it on stderr)
  2  block; stderr carries a machine-parsable header and remediation guidance

The command fails open: unparsable input, unknown tools, unreadable files,
and an unwritable token cache never abort the host's flow.

Example payload:
  echo '{"tool_name":"Write","tool_input":{"file_path":"main.go","content":"..."}}' | rewriteguard check`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := tokenstore.NewFileStore(cfg.CacheDir, cfg.RetryTTL())
		os.Exit(evaluateProposal(os.Stdin, os.Stderr, cfg, store))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// evaluateProposal runs the fail-open decision flow and returns the process
// exit code.
func evaluateProposal(stdin io.Reader, diag io.Writer, cfg *config.Config, store tokenstore.Store) int {
	payload, err := hook.Decode(stdin)
	if err != nil {
		// Malformed input is the host's bug, not a reason to block.
		return exitAllow
	}

	op, ok := payload.Operation()
	if !ok {
		return exitAllow
	}

	existing, err := guard.ReadExistingFile(op.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(diag, "rewriteguard: cannot read %s (%v); allowing\n", op.Path, err)
		}
		// A file that does not exist yet cannot be rewritten.
		return exitAllow
	}
	if existing.ByteCount == 0 {
		return exitAllow
	}

	decision := guard.New(cfg, store).Decide(existing, op)
	switch decision.Verdict {
	case guard.Deny:
		fmt.Fprintln(diag, decision.Message)
		return exitBlock
	case guard.Warn:
		fmt.Fprintln(diag, decision.Message)
		return exitAllow
	default:
		if decision.Message != "" && cfg.Verbose {
			fmt.Fprintln(diag, decision.Message)
		}
		return exitAllow
	}
}
