package events

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParse_BashProgress(t *testing.T) {
	evs := Parse(`{"type":"progress","progressType":"bash","timestamp":"2026-08-28T10:00:00Z"}`)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if evs[0].Type != EventBashProgress {
		t.Errorf("type = %s, want bash_progress", evs[0].Type)
	}
	want := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if !evs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", evs[0].Timestamp, want)
	}
}

func TestParse_MCPProgress(t *testing.T) {
	evs := Parse(`{"type":"progress","progressType":"mcp","tool":"sprout_status","status":"running"}`)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if evs[0].Type != EventMCPProgress || evs[0].Tool != "sprout_status" || evs[0].Detail != "running" {
		t.Errorf("event = %+v, want mcp_progress/sprout_status/running", evs[0])
	}
}

func TestParse_AssistantBlocks(t *testing.T) {
	line := `{"type":"assistant","timestamp":"2026-08-28T09:30:00Z","message":{` +
		`"usage":{"output_tokens":321},` +
		`"content":[` +
		`{"type":"thinking","thinking":"hmm"},` +
		`{"type":"tool_use","name":"Read","input":{"file_path":"/home/dev/proj/internal/farm/engine.go"}},` +
		`{"type":"text","text":"Done reading."}` +
		`]}}`

	evs := Parse(line)
	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}

	if evs[0].Type != EventThinking {
		t.Errorf("first event = %s, want thinking", evs[0].Type)
	}
	if evs[0].Tokens != 321 {
		t.Errorf("tokens = %d, want 321 on first event", evs[0].Tokens)
	}
	if evs[1].Tokens != 0 {
		t.Errorf("tokens attributed twice: second event has %d", evs[1].Tokens)
	}

	if evs[1].Type != EventToolUse || evs[1].Tool != "Read" {
		t.Errorf("second event = %+v, want tool_use Read", evs[1])
	}
	if evs[1].Detail != "farm/engine.go" {
		t.Errorf("detail = %q, want shortened path farm/engine.go", evs[1].Detail)
	}
	if evs[1].File != "/home/dev/proj/internal/farm/engine.go" {
		t.Errorf("file = %q, want full path", evs[1].File)
	}

	if evs[2].Type != EventText || evs[2].Detail != "Done reading." {
		t.Errorf("third event = %+v, want text snippet", evs[2])
	}
}

func TestParse_BashCommandPrefix(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash",` +
		`"input":{"command":"go test ./... -count=1 -run TestGrowth -v -timeout 300s && echo ok\nsecond line"}}]}}`
	evs := Parse(line)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	d := evs[0].Detail
	if strings.Contains(d, "second line") {
		t.Errorf("detail includes later lines: %q", d)
	}
	if len(d) > maxDetailLen+3 {
		t.Errorf("detail too long (%d): %q", len(d), d)
	}
}

func TestParse_LongTextTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	evs := Parse(`{"type":"assistant","message":{"content":[{"type":"text","text":"` + long + `"}]}}`)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if len(evs[0].Detail) > maxSnippetLen+3 {
		t.Errorf("snippet too long: %d bytes", len(evs[0].Detail))
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// Multi-byte runes straddling every possible cut point.
	s := strings.Repeat("é", 100) // 2 bytes each
	for n := 1; n < 12; n++ {
		got := truncate(s, n)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(é..., %d) = %q is not valid UTF-8", n, got)
		}
	}

	if got := truncate("héllo", 100); got != "héllo" {
		t.Errorf("short string altered: %q", got)
	}
}

func TestParse_UserAndResult(t *testing.T) {
	for _, line := range []string{
		`{"type":"user","message":{"content":[{"type":"text","text":"hi"}]}}`,
		`{"type":"result","subtype":"success"}`,
	} {
		evs := Parse(line)
		if len(evs) != 1 || evs[0].Type != EventUser {
			t.Errorf("Parse(%s) = %+v, want one user event", line, evs)
		}
	}
}

func TestParse_UnrecognizedAndMalformed(t *testing.T) {
	for _, line := range []string{
		``,
		`   `,
		`not json at all`,
		`{"type":"summary","summary":"compacted"}`,
		`{"type":"progress","progressType":"weird"}`,
		`{"type":`,
	} {
		if evs := Parse(line); len(evs) != 0 {
			t.Errorf("Parse(%q) = %+v, want no events", line, evs)
		}
	}
}

func TestFileIdentifier(t *testing.T) {
	ev := ActivityEvent{Type: EventToolUse, Tool: "Edit", Detail: "farm/engine.go", File: "/home/dev/proj/internal/farm/engine.go"}
	id, ok := FileIdentifier(ev)
	if !ok || id != "/home/dev/proj/internal/farm/engine.go" {
		t.Errorf("FileIdentifier = %q, %v; want full path, true", id, ok)
	}

	if _, ok := FileIdentifier(ActivityEvent{Type: EventToolUse, Tool: "Bash", Detail: "ls"}); ok {
		t.Error("Bash should not yield a file identifier")
	}
}

func TestFileIdentifier_DistinguishesEqualBasenames(t *testing.T) {
	parse := func(path string) ActivityEvent {
		evs := Parse(`{"type":"assistant","message":{"content":[` +
			`{"type":"tool_use","name":"Edit","input":{"file_path":"` + path + `"}}]}}`)
		if len(evs) != 1 {
			t.Fatalf("got %d events for %s, want 1", len(evs), path)
		}
		return evs[0]
	}

	a := parse("/a/pkg/x.go")
	b := parse("/b/pkg/x.go")
	if a.Detail != b.Detail {
		t.Fatalf("display details differ: %q vs %q", a.Detail, b.Detail)
	}

	idA, _ := FileIdentifier(a)
	idB, _ := FileIdentifier(b)
	if idA == idB {
		t.Errorf("identifiers collide for %q and %q: %q", a.File, b.File, idA)
	}
}

func TestIsWriteTool(t *testing.T) {
	for tool, want := range map[string]bool{"Write": true, "Edit": true, "NotebookEdit": true, "Read": false, "Bash": false} {
		if got := IsWriteTool(tool); got != want {
			t.Errorf("IsWriteTool(%s) = %v, want %v", tool, got, want)
		}
	}
}
