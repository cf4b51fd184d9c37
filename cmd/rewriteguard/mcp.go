package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/boshu2/rewriteguard/internal/guard"
	"github.com/boshu2/rewriteguard/internal/tokenstore"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the guard as an MCP tool over stdio",
	Long: `Run an MCP server exposing a single review_edit tool, so agent hosts
without a hook mechanism can consult the guard before applying an edit.

The tool takes the same inputs the hooks see (tool, file_path, and the
kind-specific payload) and returns the verdict with the same messages the
PreToolUse hook would print.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := tokenstore.NewFileStore(cfg.CacheDir, cfg.RetryTTL())
	engine := guard.New(cfg, store)

	s := server.NewMCPServer(
		"rewriteguard",
		version,
		server.WithToolCapabilities(false),
	)

	reviewTool := mcp.NewTool("review_edit",
		mcp.WithDescription(`Evaluate a proposed file modification before applying it.

Returns "allow", "warn: ..." or a block report. A blocked proposal may be
resubmitted identically within the retry window to force it through once.

Args:
  - tool (string, required): Write, Edit, or MultiEdit
  - file_path (string, required): absolute path of the target file
  - content (string): full new content, for Write
  - old_string / new_string (string): the replaced span, for Edit
  - edits (array): [{old_string, new_string}, ...], for MultiEdit`),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Description("Write, Edit, or MultiEdit"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Absolute path of the file to be modified"),
		),
		mcp.WithString("content",
			mcp.Description("Full replacement content (Write)"),
		),
		mcp.WithString("old_string",
			mcp.Description("Text being replaced (Edit)"),
		),
		mcp.WithString("new_string",
			mcp.Description("Replacement text (Edit)"),
		),
		mcp.WithArray("edits",
			mcp.Description("Ordered old_string/new_string pairs (MultiEdit)"),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "Review proposed edit",
			ReadOnlyHint: boolPtr(false),
		}),
	)

	s.AddTool(reviewTool, makeReviewHandler(engine))

	return server.ServeStdio(s)
}

func boolPtr(b bool) *bool {
	return &b
}

// makeReviewHandler adapts the decision engine to the MCP tool contract.
func makeReviewHandler(engine *guard.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		op, err := operationFromArgs(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		existing, err := guard.ReadExistingFile(op.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return mcp.NewToolResultText("allow: file does not exist yet"), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("allow: cannot read file (%v)", err)), nil
		}
		if existing.ByteCount == 0 {
			return mcp.NewToolResultText("allow: file is empty"), nil
		}

		decision := engine.Decide(existing, op)
		switch decision.Verdict {
		case guard.Deny:
			return mcp.NewToolResultText("deny\n" + decision.Message), nil
		case guard.Warn:
			return mcp.NewToolResultText("warn: " + decision.Message), nil
		default:
			return mcp.NewToolResultText(fmt.Sprintf("allow (estimated change %d%%)", decision.Percent)), nil
		}
	}
}

// operationFromArgs builds a guard operation from the MCP tool arguments.
func operationFromArgs(args map[string]any) (guard.Operation, error) {
	toolName, _ := args["tool"].(string)
	filePath, _ := args["file_path"].(string)
	if filePath == "" {
		return guard.Operation{}, fmt.Errorf("file_path is required")
	}

	op := guard.Operation{Path: filePath}
	switch toolName {
	case "Write":
		op.Kind = guard.KindFullRewrite
		op.Content, _ = args["content"].(string)

	case "Edit":
		op.Kind = guard.KindSingleReplace
		oldStr, _ := args["old_string"].(string)
		newStr, _ := args["new_string"].(string)
		op.Spans = []guard.Span{{Old: oldStr, New: newStr}}

	case "MultiEdit":
		op.Kind = guard.KindMultiReplace
		edits, _ := args["edits"].([]any)
		for _, e := range edits {
			pair, ok := e.(map[string]any)
			if !ok {
				continue
			}
			oldStr, _ := pair["old_string"].(string)
			newStr, _ := pair["new_string"].(string)
			op.Spans = append(op.Spans, guard.Span{Old: oldStr, New: newStr})
		}
		if len(op.Spans) == 0 {
			return guard.Operation{}, fmt.Errorf("edits must contain at least one old_string/new_string pair")
		}

	default:
		return guard.Operation{}, fmt.Errorf("unknown tool %q (expected Write, Edit, or MultiEdit)", toolName)
	}
	return op, nil
}
