package achievements

import (
	"time"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/registry"
)

// Achievement ids with dedicated tracker wiring. Everything else configured
// under these trackers still goes through the same update primitive.
const (
	idDeepWork   = "deep_work"   // think-then-write counter
	idBusyHands  = "busy_hands"  // distinct files touched in one session
	idWordsmith  = "wordsmith"   // tokens produced in one session
	idLongHaul   = "long_haul"   // session duration, minutes
	idEarlyBird  = "early_bird"  // day-bucketed, activity before 7:00
	idNightOwl   = "night_owl"   // day-bucketed, activity at or after 22:00
	idMarathon   = "marathon"    // one-shot flag
	idGreenThumb = "green_thumb" // lifetime harvests, from simulation snapshot
	idArchitect  = "architect"   // buildings unlocked, from simulation snapshot
)

// Marathon flag thresholds. Either crossing sets the flag.
const (
	marathonMinTokens   = 200_000
	marathonMinDuration = 4 * time.Hour
)

const flagAchieved = 1

// sessionTrack is per-session tracker scratch. It is released on session
// removal; recorded Progress is permanent.
type sessionTrack struct {
	lastWasThinking bool
	files           map[string]bool
	tokens          int
	firstActivity   time.Time
}

// Engine routes events through the independent trackers and owns the
// notification queue. Not safe for concurrent use; the pipeline serializes
// all calls.
type Engine struct {
	defs     map[string]config.AchievementConfig
	state    *State
	sessions map[registry.SessionID]*sessionTrack
	queue    []Notification
	dirty    bool

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine wraps state with the configured achievement definitions.
// Progress entries missing from state (new achievements) are back-filled
// with defaults.
func NewEngine(cfg *config.Config, state *State) *Engine {
	defs := make(map[string]config.AchievementConfig, len(cfg.Achievements))
	for _, a := range cfg.Achievements {
		defs[a.ID] = a
		if state.Progress[a.ID] == nil {
			state.Progress[a.ID] = &Progress{ID: a.ID}
		}
	}
	return &Engine{
		defs:     defs,
		state:    state,
		sessions: make(map[registry.SessionID]*sessionTrack),
		now:      time.Now,
	}
}

// State returns the engine's owned state.
func (e *Engine) State() *State { return e.state }

// Dirty reports whether progress has unsaved mutations.
func (e *Engine) Dirty() bool { return e.dirty }

// ClearDirty marks the state as saved.
func (e *Engine) ClearDirty() { e.dirty = false }

// AddSession creates per-session tracking slots.
func (e *Engine) AddSession(id registry.SessionID) {
	if _, ok := e.sessions[id]; !ok {
		e.sessions[id] = &sessionTrack{files: make(map[string]bool)}
	}
}

// RemoveSession clears per-session tracking state only; recorded achievement
// progress is permanent.
func (e *Engine) RemoveSession(id registry.SessionID) {
	delete(e.sessions, id)
}

// PopNotifications atomically drains and clears the pending queue.
func (e *Engine) PopNotifications() []Notification {
	out := e.queue
	e.queue = nil
	return out
}

// update is the generic primitive: counter adds, max takes the greater value,
// flag sets the achieved sentinel. It then advances the tier to the highest
// configured threshold met that outranks the current tier (ranks may be
// skipped in one update), records the crossing time once, and enqueues a
// notification per crossed tier.
func (e *Engine) update(id string, delta int) {
	def, ok := e.defs[id]
	if !ok {
		return
	}
	prog := e.state.Progress[id]
	if prog == nil {
		prog = &Progress{ID: id}
		e.state.Progress[id] = prog
	}

	before := prog.Value
	switch def.Tracker {
	case "counter":
		prog.Value += delta
	case "max":
		if delta <= prog.Value {
			return
		}
		prog.Value = delta
	case "flag":
		if prog.Value == flagAchieved {
			return
		}
		prog.Value = flagAchieved
	}
	if prog.Value != before {
		e.dirty = true
	}

	e.advanceTier(prog, def)
}

// advanceTier promotes prog to the highest met tier. Tier rank never
// decreases; UnlockedAt is written exactly once per tier, on the crossing
// update.
func (e *Engine) advanceTier(prog *Progress, def config.AchievementConfig) {
	for i, tier := range def.Tiers {
		rank := Tier(i + 1)
		if rank <= prog.Tier || prog.Value < tier.Threshold {
			continue
		}

		prog.Tier = rank
		if prog.UnlockedAt == nil {
			prog.UnlockedAt = make(map[string]time.Time)
		}
		if _, seen := prog.UnlockedAt[tier.Name]; !seen {
			prog.UnlockedAt[tier.Name] = e.now()
		}
		e.queue = append(e.queue, Notification{
			ID:       prog.ID,
			TierName: tier.Name,
			Title:    def.Title,
			Icon:     def.Icon,
		})
		e.dirty = true
	}
}

// updateDayBucketed counts at most one increment per qualifying calendar day.
func (e *Engine) updateDayBucketed(id string, day string) {
	if e.state.MarkDay(id, day) {
		e.dirty = true
		e.update(id, 1)
	}
}
