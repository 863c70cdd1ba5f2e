package events

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxDetailLen  = 48
	maxSnippetLen = 80
)

// record mirrors the subset of the transcript line schema sprout cares about.
// Lines are self-describing: the top-level type discriminates the payload.
type record struct {
	Type         string  `json:"type"`
	ProgressType string  `json:"progressType"`
	Tool         string  `json:"tool"`
	Status       string  `json:"status"`
	Timestamp    string  `json:"timestamp"`
	Message      message `json:"message"`
}

type message struct {
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

type usage struct {
	OutputTokens int `json:"output_tokens"`
}

type contentBlock struct {
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
}

// Parse converts one raw record line into zero or more activity events.
// Malformed or unrecognized records yield nothing; parsing never fails.
func Parse(line string) []ActivityEvent {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil
	}

	ts := parseTimestamp(rec.Timestamp)

	switch rec.Type {
	case "progress":
		switch rec.ProgressType {
		case "bash":
			return []ActivityEvent{{Type: EventBashProgress, Timestamp: ts}}
		case "mcp":
			return []ActivityEvent{{Type: EventMCPProgress, Tool: rec.Tool, Detail: rec.Status, Timestamp: ts}}
		}
		return nil

	case "assistant":
		var out []ActivityEvent
		for i, block := range rec.Message.Content {
			switch block.Type {
			case "tool_use":
				ev := ActivityEvent{
					Type:      EventToolUse,
					Tool:      block.Name,
					Detail:    toolDetail(block.Name, block.Input),
					File:      toolFilePath(block.Name, block.Input),
					Timestamp: ts,
				}
				// Usage covers the whole turn; attribute it once.
				if i == 0 {
					ev.Tokens = rec.Message.Usage.OutputTokens
				}
				out = append(out, ev)
			case "thinking":
				ev := ActivityEvent{Type: EventThinking, Timestamp: ts}
				if i == 0 {
					ev.Tokens = rec.Message.Usage.OutputTokens
				}
				out = append(out, ev)
			case "text":
				ev := ActivityEvent{Type: EventText, Detail: truncate(block.Text, maxSnippetLen), Timestamp: ts}
				if i == 0 {
					ev.Tokens = rec.Message.Usage.OutputTokens
				}
				out = append(out, ev)
			}
		}
		return out

	case "user", "result":
		return []ActivityEvent{{Type: EventUser, Timestamp: ts}}
	}

	return nil
}

// toolDetail derives a deterministic, length-bounded human-readable summary
// of a tool invocation from its input payload.
func toolDetail(tool string, input json.RawMessage) string {
	var in struct {
		FilePath string `json:"file_path"`
		Command  string `json:"command"`
		Query    string `json:"query"`
		Pattern  string `json:"pattern"`
	}
	_ = json.Unmarshal(input, &in)

	switch tool {
	case "Read", "Write", "Edit", "NotebookEdit":
		if in.FilePath != "" {
			return shortenPath(in.FilePath)
		}
	case "Bash":
		if in.Command != "" {
			cmd := in.Command
			if i := strings.IndexByte(cmd, '\n'); i >= 0 {
				cmd = cmd[:i]
			}
			return truncate(cmd, maxDetailLen)
		}
	case "Grep", "Glob", "WebSearch":
		if in.Query != "" {
			return truncate(in.Query, maxDetailLen)
		}
		if in.Pattern != "" {
			return truncate(in.Pattern, maxDetailLen)
		}
	}
	return tool
}

// shortenPath keeps the last two path elements: /a/b/c/d.go -> c/d.go.
func shortenPath(path string) string {
	dir, base := filepath.Split(filepath.Clean(path))
	parent := filepath.Base(filepath.Clean(dir))
	if parent == "." || parent == string(filepath.Separator) || parent == "" {
		return base
	}
	return parent + string(filepath.Separator) + base
}

// toolFilePath returns the full file path of a file-operating tool call.
// Unlike the shortened Detail, this keeps paths with the same last elements
// distinguishable.
func toolFilePath(tool string, input json.RawMessage) string {
	switch tool {
	case "Read", "Write", "Edit", "NotebookEdit":
		var in struct {
			FilePath string `json:"file_path"`
		}
		_ = json.Unmarshal(input, &in)
		return in.FilePath
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// FileIdentifier returns the full path a tool_use event touched, if the tool
// operates on files. Used by the distinct-files achievement tracker; the full
// path keeps files with equal basenames in different trees distinct.
func FileIdentifier(ev ActivityEvent) (string, bool) {
	if ev.File != "" {
		return ev.File, true
	}
	return "", false
}

// IsWriteTool reports whether the tool mutates files. Used by the
// think-then-write achievement tracker.
func IsWriteTool(tool string) bool {
	switch tool {
	case "Write", "Edit", "NotebookEdit":
		return true
	}
	return false
}
