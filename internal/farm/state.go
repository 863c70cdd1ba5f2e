// Package farm is the resource economy driven by activity events.
// Energy accumulates from events, crosses unlock thresholds, and feeds a
// growth-distribution cycle over crop plots.
package farm

// Plot is one square of farmland. A plot with an empty CropID is fallow.
type Plot struct {
	CropID string `json:"crop_id,omitempty"`
	// Stage runs from 0 (planted) to the crop's last stage (mature).
	Stage int `json:"stage"`
	// GrowthProgress is always below the crop's grow cost.
	GrowthProgress int `json:"growth_progress"`
}

// Stats are lifetime counters.
type Stats struct {
	TotalHarvests   int `json:"total_harvests"`
	PeakConcurrency int `json:"peak_concurrency"`
}

// State is the complete simulation state. Unlock slices and milestones are
// monotonic: they grow, and never shrink, across any event sequence.
type State struct {
	TotalEnergy   int    `json:"total_energy"`
	PendingGrowth int    `json:"pending_growth"`
	Plots         []Plot `json:"plots"`

	UnlockedCrops     []string `json:"unlocked_crops"`
	UnlockedAnimals   []string `json:"unlocked_animals"`
	UnlockedBuildings []string `json:"unlocked_buildings"`

	// MilestonesReached holds the crossed thresholds from the configured set.
	MilestonesReached []int `json:"milestones_reached"`

	Stats Stats `json:"stats"`
}

// NewState returns an empty simulation state. Initial unlocks (the zero-cost
// crop and plot batch) are applied by the engine's first unlock pass.
func NewState() *State {
	return &State{}
}

// Clone returns a deep copy, safe to hand to external consumers.
func (s *State) Clone() *State {
	cp := *s
	cp.Plots = append([]Plot(nil), s.Plots...)
	cp.UnlockedCrops = append([]string(nil), s.UnlockedCrops...)
	cp.UnlockedAnimals = append([]string(nil), s.UnlockedAnimals...)
	cp.UnlockedBuildings = append([]string(nil), s.UnlockedBuildings...)
	cp.MilestonesReached = append([]int(nil), s.MilestonesReached...)
	return &cp
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
