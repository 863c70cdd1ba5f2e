package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestTailer_NoDuplicateNoGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	appendFile(t, path, "")

	tl := NewTailer()
	tl.SetFile(path, 64*1024)

	var collected []string
	appendFile(t, path, "one\ntwo\n")
	collected = append(collected, tl.Poll()...)
	appendFile(t, path, "three\n")
	collected = append(collected, tl.Poll()...)
	// Nothing appended: poll must return nothing.
	if extra := tl.Poll(); extra != nil {
		t.Errorf("idle poll returned %v, want nil", extra)
	}
	appendFile(t, path, "four\nfive\n")
	collected = append(collected, tl.Poll()...)

	want := []string{"one", "two", "three", "four", "five"}
	if strings.Join(collected, ",") != strings.Join(want, ",") {
		t.Errorf("collected = %v, want %v", collected, want)
	}
}

func TestTailer_TornLineReReadWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	appendFile(t, path, "")

	tl := NewTailer()
	tl.SetFile(path, 64*1024)

	appendFile(t, path, "complete\npartial")
	got := tl.Poll()
	if len(got) != 1 || got[0] != "complete" {
		t.Fatalf("first poll = %v, want [complete]", got)
	}

	// Offset must not have consumed the torn fragment.
	appendFile(t, path, " rest\n")
	got = tl.Poll()
	if len(got) != 1 || got[0] != "partial rest" {
		t.Errorf("second poll = %v, want [partial rest]", got)
	}
}

func TestTailer_LookbackOnLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	appendFile(t, path, strings.Repeat("old line that should be skipped\n", 100))
	appendFile(t, path, "tail line\n")

	tl := NewTailer()
	tl.SetFile(path, 16)

	got := tl.Poll()
	// The lookback window starts mid-line; the fragment before the first
	// newline belongs to a record whose start was skipped, so only whole
	// trailing lines matter here.
	if len(got) == 0 {
		t.Fatal("poll after lookback SetFile returned nothing")
	}
	if got[len(got)-1] != "tail line" {
		t.Errorf("last line = %q, want %q", got[len(got)-1], "tail line")
	}
}

func TestTailer_SmallFileReadFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	appendFile(t, path, "a\nb\n")

	tl := NewTailer()
	tl.SetFile(path, 64*1024)

	if tl.Offset() != 0 {
		t.Errorf("offset = %d, want 0 for file smaller than lookback", tl.Offset())
	}
	got := tl.Poll()
	if len(got) != 2 {
		t.Errorf("poll = %v, want 2 lines", got)
	}
}

func TestTailer_MissingFileTransient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")

	tl := NewTailer()
	tl.SetFile(path, 1024)

	if got := tl.Poll(); got != nil {
		t.Errorf("poll on missing file = %v, want nil", got)
	}

	// File appears later: the same tailer picks it up.
	appendFile(t, path, "late\n")
	got := tl.Poll()
	if len(got) != 1 || got[0] != "late" {
		t.Errorf("poll = %v, want [late]", got)
	}
}

func TestTailer_TruncationResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	appendFile(t, path, "aaaa\nbbbb\ncccc\n")

	tl := NewTailer()
	tl.SetFile(path, 64*1024)
	tl.Poll()

	if err := os.WriteFile(path, []byte("new\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got := tl.Poll()
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("poll after truncation = %v, want [new]", got)
	}
}
