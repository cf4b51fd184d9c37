// Package hook decodes the JSON records Claude Code pipes to hook commands
// and maps file-modifying tool calls onto guard operations.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/boshu2/rewriteguard/internal/guard"
)

// Payload is the record the host runtime writes to a hook's stdin.
type Payload struct {
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
	Cwd       string          `json:"cwd"`
}

// editInput covers the inputs of Write, Edit, and MultiEdit in one struct;
// only the fields for the named tool are populated.
type editInput struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
	Edits     []struct {
		OldString string `json:"old_string"`
		NewString string `json:"new_string"`
	} `json:"edits"`
}

// Decode parses a hook payload from r.
func Decode(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hook payload: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse hook payload: %w", err)
	}
	return &p, nil
}

// Operation maps the payload onto a guard operation. ok is false when the
// tool is not one the guard evaluates or the input names no file; callers
// must allow those without raising an error.
func (p *Payload) Operation() (op guard.Operation, ok bool) {
	kind := kindForTool(p.ToolName)
	if kind == guard.KindUnknown {
		return guard.Operation{}, false
	}

	var in editInput
	if err := json.Unmarshal(p.ToolInput, &in); err != nil {
		return guard.Operation{}, false
	}
	if in.FilePath == "" {
		return guard.Operation{}, false
	}

	op = guard.Operation{Path: p.resolvePath(in.FilePath), Kind: kind}
	switch kind {
	case guard.KindFullRewrite:
		op.Content = in.Content
	case guard.KindSingleReplace:
		op.Spans = []guard.Span{{Old: in.OldString, New: in.NewString}}
	case guard.KindMultiReplace:
		if len(in.Edits) == 0 {
			return guard.Operation{}, false
		}
		op.Spans = make([]guard.Span, len(in.Edits))
		for i, e := range in.Edits {
			op.Spans[i] = guard.Span{Old: e.OldString, New: e.NewString}
		}
	}
	return op, true
}

// resolvePath joins relative tool paths against the session working
// directory the host reports.
func (p *Payload) resolvePath(path string) string {
	if filepath.IsAbs(path) || p.Cwd == "" {
		return path
	}
	return filepath.Join(p.Cwd, path)
}

// kindForTool maps a host tool name onto an operation kind.
func kindForTool(tool string) guard.Kind {
	switch tool {
	case "Write":
		return guard.KindFullRewrite
	case "Edit":
		return guard.KindSingleReplace
	case "MultiEdit":
		return guard.KindMultiReplace
	default:
		return guard.KindUnknown
	}
}
