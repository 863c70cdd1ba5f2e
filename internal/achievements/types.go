// Package achievements maintains tiered progress driven by activity events
// and simulation snapshots.
package achievements

import (
	"sort"
	"time"
)

// Tier is an ordered achievement rank. Comparison is numeric, never by name.
type Tier int

const (
	TierNone Tier = iota
	TierBronze
	TierSilver
	TierGold
)

// Progress is the persisted record for one achievement.
type Progress struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
	Tier  Tier   `json:"tier"`
	// UnlockedAt records the crossing time per tier name, set exactly once.
	UnlockedAt map[string]time.Time `json:"unlocked_at,omitempty"`
}

// State is the persisted achievement state: per-achievement progress plus the
// day buckets backing once-per-day counters.
type State struct {
	Progress map[string]*Progress `json:"progress"`

	// days maps achievement id -> set of "2006-01-02" dates already counted.
	// Persisted in array form; see DayArrays and SetDayArrays.
	days map[string]map[string]bool
}

// NewState returns an empty achievement state.
func NewState() *State {
	return &State{
		Progress: make(map[string]*Progress),
		days:     make(map[string]map[string]bool),
	}
}

// MarkDay records a calendar day for an achievement. Returns false if the day
// was already counted.
func (s *State) MarkDay(id, day string) bool {
	if s.days == nil {
		s.days = make(map[string]map[string]bool)
	}
	set := s.days[id]
	if set == nil {
		set = make(map[string]bool)
		s.days[id] = set
	}
	if set[day] {
		return false
	}
	set[day] = true
	return true
}

// DayArrays exports the day buckets as sorted arrays for serialization.
func (s *State) DayArrays() map[string][]string {
	out := make(map[string][]string, len(s.days))
	for id, set := range s.days {
		days := make([]string, 0, len(set))
		for d := range set {
			days = append(days, d)
		}
		sort.Strings(days)
		out[id] = days
	}
	return out
}

// SetDayArrays reconstructs the day-bucket sets from their array form.
func (s *State) SetDayArrays(arrays map[string][]string) {
	s.days = make(map[string]map[string]bool, len(arrays))
	for id, days := range arrays {
		set := make(map[string]bool, len(days))
		for _, d := range days {
			set[d] = true
		}
		s.days[id] = set
	}
}

// Notification is one achievement tier crossing, drained by the consumer.
type Notification struct {
	ID       string `json:"id"`
	TierName string `json:"tier"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
}
