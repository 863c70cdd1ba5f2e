package farm

import (
	"math/rand"

	"github.com/sproutapp/sprout/internal/config"
)

// ReplantScheduler receives the index of a freshly harvested plot. The
// pipeline schedules a one-shot delayed call back into ReplantPlot.
type ReplantScheduler func(plotIndex int)

// Engine applies activity-derived energy to an owned State.
// It is not safe for concurrent use; the pipeline serializes all calls.
type Engine struct {
	cfg   *config.Config
	state *State
	rng   *rand.Rand
	dirty bool

	// scheduleReplant may be nil, in which case harvested plots simply
	// stay mature until something replants them.
	scheduleReplant ReplantScheduler
}

// NewEngine wraps state with the configured rules. The RNG is injected so
// tests can pin crop selection.
func NewEngine(cfg *config.Config, state *State, rng *rand.Rand) *Engine {
	e := &Engine{cfg: cfg, state: state, rng: rng}
	// Zero-threshold unlocks (first crop, first plot batch) apply even
	// before any energy arrives.
	e.applyUnlocks()
	return e
}

// SetReplantScheduler installs the scheduler used on harvest.
func (e *Engine) SetReplantScheduler(s ReplantScheduler) { e.scheduleReplant = s }

// State returns the engine's owned state. Callers other than tests should
// prefer Snapshot.
func (e *Engine) State() *State { return e.state }

// Snapshot returns a deep copy for external consumers.
func (e *Engine) Snapshot() *State { return e.state.Clone() }

// Dirty reports whether the state has unsaved mutations.
func (e *Engine) Dirty() bool { return e.dirty }

// ClearDirty marks the state as saved.
func (e *Engine) ClearDirty() { e.dirty = false }

// AddEnergy converts one activity event into energy and returns the delta.
// An unconfigured event type returns 0 with no side effects. The
// collaboration multiplier applies while concurrent sessions meet the
// configured threshold. Each call runs one unlock pass and one
// growth-distribution pass.
func (e *Engine) AddEnergy(eventType string, concurrent int) int {
	base := e.cfg.Points[eventType]
	if base == 0 {
		return 0
	}

	delta := base
	if concurrent >= e.cfg.Collaboration.Threshold {
		delta *= e.cfg.Collaboration.Multiplier
	}

	e.state.TotalEnergy += delta
	e.state.PendingGrowth += delta
	if concurrent > e.state.Stats.PeakConcurrency {
		e.state.Stats.PeakConcurrency = concurrent
	}

	e.applyUnlocks()
	e.distributeGrowth()

	e.dirty = true
	return delta
}

// applyUnlocks crosses every threshold the current energy reaches.
// Unlocks are permanent; this pass never removes anything.
func (e *Engine) applyUnlocks() {
	energy := e.state.TotalEnergy

	for _, crop := range e.cfg.Crops {
		if energy >= crop.UnlockAt && !contains(e.state.UnlockedCrops, crop.ID) {
			e.state.UnlockedCrops = append(e.state.UnlockedCrops, crop.ID)
			e.dirty = true
		}
	}

	// Plot batches unlock as a growing prefix of the configured list.
	wantPlots := 0
	for _, batch := range e.cfg.PlotBatches {
		if energy >= batch.UnlockAt {
			wantPlots += batch.Count
		}
	}
	for len(e.state.Plots) < wantPlots {
		e.state.Plots = append(e.state.Plots, Plot{})
		e.dirty = true
	}

	for _, a := range e.cfg.Animals {
		if energy >= a.UnlockAt && !contains(e.state.UnlockedAnimals, a.ID) {
			e.state.UnlockedAnimals = append(e.state.UnlockedAnimals, a.ID)
			e.dirty = true
		}
	}
	for _, b := range e.cfg.Buildings {
		if energy >= b.UnlockAt && !contains(e.state.UnlockedBuildings, b.ID) {
			e.state.UnlockedBuildings = append(e.state.UnlockedBuildings, b.ID)
			e.dirty = true
		}
	}
	for _, m := range e.cfg.Milestones {
		if energy >= m && !containsInt(e.state.MilestonesReached, m) {
			e.state.MilestonesReached = append(e.state.MilestonesReached, m)
			e.dirty = true
		}
	}
}

// ReplantPlot clears a harvested plot and plants a crop chosen uniformly at
// random from the unlocked set. Fired by the delayed replant task; the index
// is validated because state may have been reloaded since scheduling.
func (e *Engine) ReplantPlot(idx int) {
	if idx < 0 || idx >= len(e.state.Plots) {
		return
	}
	if len(e.state.UnlockedCrops) == 0 {
		return
	}

	cropID := e.state.UnlockedCrops[e.rng.Intn(len(e.state.UnlockedCrops))]
	e.state.Plots[idx] = Plot{CropID: cropID}
	e.dirty = true
}

func (e *Engine) cropByID(id string) (config.CropConfig, bool) {
	for _, c := range e.cfg.Crops {
		if c.ID == id {
			return c, true
		}
	}
	return config.CropConfig{}, false
}
