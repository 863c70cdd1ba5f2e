// Package persist loads and saves the simulation and achievement state as one
// JSON document, written atomically.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/farm"
)

// stateFile is the default state filename inside the data directory.
const stateFile = "state.json"

// document is the on-disk representation of both state machines.
type document struct {
	SavedAt      time.Time       `json:"saved_at"`
	Farm         *farm.State     `json:"farm"`
	Achievements achievementsDoc `json:"achievements"`
}

type achievementsDoc struct {
	Progress map[string]*achievements.Progress `json:"progress"`
	// Days holds the day-bucket sets in array form.
	Days map[string][]string `json:"days,omitempty"`
}

// Store reads and writes the state document in one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the state file path.
func (s *Store) Path() string { return filepath.Join(s.dir, stateFile) }

// Load reads saved state merged onto freshly constructed defaults. New fields
// get defaults, old data is preserved, and missing achievement entries are
// back-filled by the achievement engine's constructor. Any read or parse
// failure falls back to pure defaults; Load never blocks startup.
func (s *Store) Load() (*farm.State, *achievements.State) {
	farmState := farm.NewState()
	achState := achievements.NewState()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		return farmState, achState
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return farm.NewState(), achievements.NewState()
	}

	if doc.Farm != nil {
		// Unmarshal populated only the fields present in the file; absent
		// fields keep their zero defaults.
		farmState = doc.Farm
	}
	if doc.Achievements.Progress != nil {
		achState.Progress = doc.Achievements.Progress
		for id, p := range achState.Progress {
			if p != nil && p.ID == "" {
				p.ID = id
			}
		}
	}
	if doc.Achievements.Days != nil {
		achState.SetDayArrays(doc.Achievements.Days)
	}

	return farmState, achState
}

// Save stamps the document and writes it atomically via temp file + rename.
func (s *Store) Save(farmState *farm.State, achState *achievements.State) error {
	doc := document{
		SavedAt: time.Now().UTC(),
		Farm:    farmState,
		Achievements: achievementsDoc{
			Progress: achState.Progress,
			Days:     achState.DayArrays(),
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming state file: %w", err)
	}

	return nil
}
