package achievements

import (
	"time"

	"github.com/sproutapp/sprout/internal/events"
	"github.com/sproutapp/sprout/internal/farm"
	"github.com/sproutapp/sprout/internal/registry"
)

// OnEvent routes one activity event through every tracker. The simulation
// snapshot feeds the trackers that read simulation state rather than the
// event stream.
func (e *Engine) OnEvent(ev events.ActivityEvent, sid registry.SessionID, snap *farm.State) {
	track := e.sessions[sid]
	if track == nil {
		// Sessions normally arrive via AddSession; tolerate strays.
		track = &sessionTrack{files: make(map[string]bool)}
		e.sessions[sid] = track
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = e.now()
	}
	if track.firstActivity.IsZero() {
		track.firstActivity = ts
	}

	e.trackThinkThenWrite(track, ev)
	e.trackDistinctFiles(track, ev)
	e.trackVolume(track, ev)
	e.trackDuration(track, ts)
	e.trackTimeOfDay(ts)
	e.trackMarathon(track, ts)
	e.trackSimulation(snap)
}

// trackThinkThenWrite counts a write-tool event immediately following a
// reasoning event in the same session. Any other event resets the flag.
func (e *Engine) trackThinkThenWrite(track *sessionTrack, ev events.ActivityEvent) {
	if ev.Type == events.EventThinking {
		track.lastWasThinking = true
		return
	}
	if ev.Type == events.EventToolUse && events.IsWriteTool(ev.Tool) && track.lastWasThinking {
		e.update(idDeepWork, 1)
	}
	track.lastWasThinking = false
}

func (e *Engine) trackDistinctFiles(track *sessionTrack, ev events.ActivityEvent) {
	if ev.Type != events.EventToolUse {
		return
	}
	if id, ok := events.FileIdentifier(ev); ok {
		track.files[id] = true
		e.update(idBusyHands, len(track.files))
	}
}

func (e *Engine) trackVolume(track *sessionTrack, ev events.ActivityEvent) {
	if ev.Tokens <= 0 {
		return
	}
	track.tokens += ev.Tokens
	e.update(idWordsmith, track.tokens)
}

func (e *Engine) trackDuration(track *sessionTrack, ts time.Time) {
	minutes := int(ts.Sub(track.firstActivity).Minutes())
	if minutes > 0 {
		e.update(idLongHaul, minutes)
	}
}

// trackTimeOfDay increments the day-bucketed counters at most once per
// qualifying calendar day.
func (e *Engine) trackTimeOfDay(ts time.Time) {
	day := ts.Format("2006-01-02")
	switch {
	case ts.Hour() < 7:
		e.updateDayBucketed(idEarlyBird, day)
	case ts.Hour() >= 22:
		e.updateDayBucketed(idNightOwl, day)
	}
}

func (e *Engine) trackMarathon(track *sessionTrack, ts time.Time) {
	if track.tokens >= marathonMinTokens || ts.Sub(track.firstActivity) >= marathonMinDuration {
		e.update(idMarathon, flagAchieved)
	}
}

// trackSimulation pulls values straight from the snapshot rather than the
// event stream.
func (e *Engine) trackSimulation(snap *farm.State) {
	if snap == nil {
		return
	}
	e.update(idGreenThumb, snap.Stats.TotalHarvests)
	e.update(idArchitect, len(snap.UnlockedBuildings))
}
