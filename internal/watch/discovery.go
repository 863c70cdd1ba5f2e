// Package watch finds live transcript logs and tails them incrementally.
//
// Discovery is a pure scan: one subdirectory per project, the most recently
// modified log in each is that project's current session. Tailing reads only
// bytes appended since the previous poll, tracked by a byte offset.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Candidate is one live session reported by a discovery scan.
type Candidate struct {
	// ID is the session log filename without extension (a UUID for Claude logs).
	ID string
	// Path is the absolute path of the session log.
	Path string
	// DisplayName is the decoded project directory name.
	DisplayName string
	// ModTime is the log's last modification time.
	ModTime time.Time
}

// Scan walks the immediate subdirectories of base and returns, per
// subdirectory, the most recently modified .jsonl file — but only those
// modified within window of now. Results are sorted newest first.
// Unreadable subdirectories are skipped; an unreadable base is an error, so
// a transient failure is distinguishable from an empty result. Scan mutates
// nothing.
func Scan(base string, now time.Time, window time.Duration) ([]Candidate, error) {
	dirs, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("reading transcript base: %w", err)
	}

	var out []Candidate
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(base, dir.Name()))
		if err != nil {
			continue
		}

		var best Candidate
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(best.ModTime) {
				best = Candidate{
					ID:          strings.TrimSuffix(entry.Name(), ".jsonl"),
					Path:        filepath.Join(base, dir.Name(), entry.Name()),
					DisplayName: decodeProjectName(dir.Name()),
					ModTime:     info.ModTime(),
				}
			}
		}

		if best.ID != "" && now.Sub(best.ModTime) < window {
			out = append(out, best)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// decodeProjectName turns a transcript directory name like
// "-home-dev-code-sprout" into a short display name ("sprout").
// Directory names encode the project path with '-' for separators.
func decodeProjectName(dir string) string {
	trimmed := strings.Trim(dir, "-")
	if trimmed == "" {
		return dir
	}
	parts := strings.Split(trimmed, "-")
	return parts[len(parts)-1]
}
