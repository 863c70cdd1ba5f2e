package watch

import (
	"io"
	"os"
	"strings"
)

// Tailer reads newly appended records from one session log.
// It keeps a byte offset so already-seen bytes are never re-read.
// The offset only advances past the last confirmed newline, so a torn
// trailing line is re-read whole on the next poll.
type Tailer struct {
	path   string
	offset int64
}

// NewTailer creates a tailer with no file bound. Call SetFile before Poll.
func NewTailer() *Tailer {
	return &Tailer{}
}

// SetFile binds the tailer to path. For a large existing file the offset
// starts lookback bytes from the end, so a freshly discovered session still
// yields recent context on the first poll.
func (t *Tailer) SetFile(path string, lookback int64) {
	t.path = path
	t.offset = 0

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if size := info.Size(); size > lookback {
		t.offset = size - lookback
	}
}

// Offset returns the current byte offset. Exposed for tests and snapshots.
func (t *Tailer) Offset() int64 { return t.offset }

// Poll reads the byte range appended since the last poll and returns complete
// record lines. Transient I/O errors return nil; the same range is retried on
// the next poll. An incomplete trailing fragment stays unconsumed.
func (t *Tailer) Poll() []string {
	if t.path == "" {
		return nil
	}

	info, err := os.Stat(t.path)
	if err != nil {
		return nil
	}
	size := info.Size()
	if size < t.offset {
		// Truncated or replaced; start over from the beginning.
		t.offset = 0
	}
	if size == t.offset {
		return nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	buf := make([]byte, size-t.offset)
	n, err := f.ReadAt(buf, t.offset)
	if err != nil && err != io.EOF {
		return nil
	}
	buf = buf[:n]

	chunk := string(buf)
	last := strings.LastIndexByte(chunk, '\n')
	if last < 0 {
		// No complete record yet; leave the offset so the fragment is
		// re-read whole once its newline arrives.
		return nil
	}

	t.offset += int64(last + 1)

	var lines []string
	for _, line := range strings.Split(chunk[:last], "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
