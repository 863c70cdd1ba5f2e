// Package pipeline drives the whole system from a single goroutine: discovery,
// tailing, parsing, simulation, achievements, and persistence all run inside
// one select loop, so no state needs locking.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/events"
	"github.com/sproutapp/sprout/internal/farm"
	"github.com/sproutapp/sprout/internal/history"
	"github.com/sproutapp/sprout/internal/logging"
	"github.com/sproutapp/sprout/internal/persist"
	"github.com/sproutapp/sprout/internal/registry"
	"github.com/sproutapp/sprout/internal/watch"
)

// replantTask is a one-shot delayed replant for a harvested plot.
type replantTask struct {
	plot int
	due  time.Time
}

// Pipeline owns every engine and serializes all access to them.
type Pipeline struct {
	cfg      *config.Config
	log      *slog.Logger
	eventLog *logging.EventLogger

	reg  *registry.Registry
	farm *farm.Engine
	ach  *achievements.Engine

	store *persist.Store
	hist  *history.Store

	replants  []replantTask
	firstPoll []registry.SessionID

	// Notify, when set, receives unlocked achievement notifications on each
	// flush tick. Defaults to logging only.
	Notify func(achievements.Notification)
}

// New loads persisted state and wires the engines together. hist and eventLog
// may be nil.
func New(cfg *config.Config, logger *slog.Logger, store *persist.Store, hist *history.Store, eventLog *logging.EventLogger) *Pipeline {
	farmState, achState := store.Load()

	p := &Pipeline{
		cfg:      cfg,
		log:      logger,
		eventLog: eventLog,
		store:    store,
		hist:     hist,
	}

	p.farm = farm.NewEngine(cfg, farmState, rand.New(rand.NewSource(time.Now().UnixNano())))
	p.farm.SetReplantScheduler(p.scheduleReplant)
	p.ach = achievements.NewEngine(cfg, achState)

	p.reg = registry.New(cfg.TailLookback, cfg.Liveness.InactivityTimeout, registry.Hooks{
		OnJoin:  p.onSessionJoin,
		OnLeave: p.onSessionLeave,
	})

	return p
}

// Run blocks until ctx is cancelled, then flushes all state and returns.
func (p *Pipeline) Run(ctx context.Context) error {
	discovery := time.NewTicker(p.cfg.Intervals.Discovery)
	defer discovery.Stop()
	poll := time.NewTicker(p.cfg.Intervals.Poll)
	defer poll.Stop()
	flush := time.NewTicker(p.cfg.Intervals.NotifyFlush)
	defer flush.Stop()
	autosave := time.NewTicker(p.cfg.Intervals.Autosave)
	defer autosave.Stop()

	p.log.Info("pipeline started",
		"base_dir", p.cfg.BaseDir,
		"poll_interval", p.cfg.Intervals.Poll)

	p.runDiscovery(time.Now())

	for {
		select {
		case <-ctx.Done():
			return p.shutdown()
		case now := <-discovery.C:
			p.runDiscovery(now)
		case now := <-poll.C:
			p.fireDueReplants(now)
			p.runPoll(now)
		case <-flush.C:
			p.flushNotifications()
		case <-autosave.C:
			p.saveIfDirty()
		}
	}
}

// runDiscovery reconciles the session set against a fresh scan, then gives any
// newly joined session an immediate first poll so startup does not wait a full
// poll interval. A failed scan is transient: the tracked set is kept as-is
// (only the inactivity timeout still applies) and the next cycle retries.
func (p *Pipeline) runDiscovery(now time.Time) {
	candidates, err := watch.Scan(p.cfg.BaseDir, now, p.cfg.Liveness.Window)
	if err != nil {
		p.log.Warn("discovery scan failed, keeping session set", "error", err)
		p.reg.PruneInactive(now)
		return
	}
	p.reg.Reconcile(candidates, now)

	joined := p.firstPoll
	p.firstPoll = nil
	for _, id := range joined {
		p.pollSession(id, now)
	}
}

// runPoll tails every tracked session once.
func (p *Pipeline) runPoll(now time.Time) {
	for _, s := range p.reg.Sessions() {
		p.pollSession(s.ID, now)
	}
}

// pollSession drains one session's new lines through the parse, simulation,
// and achievement stages.
func (p *Pipeline) pollSession(id registry.SessionID, now time.Time) {
	lines := p.reg.Poll(id, now)
	for _, line := range lines {
		for _, ev := range events.Parse(line) {
			p.applyEvent(ev, id)
		}
	}
}

// applyEvent runs one activity event through the simulation and achievement
// engines, in that order, so achievement trackers see the post-event snapshot.
func (p *Pipeline) applyEvent(ev events.ActivityEvent, id registry.SessionID) {
	concurrent := p.reg.Len()
	delta := p.farm.AddEnergy(string(ev.Type), concurrent)

	p.ach.OnEvent(ev, id, p.farm.Snapshot())

	p.log.Log(context.Background(), logging.LevelTrace, "activity event",
		"session", id,
		"type", ev.Type,
		"tool", ev.Tool,
		"energy", delta)
	p.eventLog.Log(string(id), map[string]any{
		"type":   string(ev.Type),
		"tool":   ev.Tool,
		"detail": ev.Detail,
		"tokens": ev.Tokens,
		"energy": delta,
	})
}

func (p *Pipeline) onSessionJoin(s *registry.Session) {
	p.ach.AddSession(s.ID)
	p.firstPoll = append(p.firstPoll, s.ID)
	p.log.Info("session joined", "session", s.ID, "project", s.DisplayName)
}

func (p *Pipeline) onSessionLeave(s *registry.Session, h registry.HistoryEntry) {
	p.ach.RemoveSession(s.ID)
	if p.hist != nil {
		if err := p.hist.Record(context.Background(), h); err != nil {
			p.log.Warn("recording session history", "session", s.ID, "error", err)
		}
	}
	p.log.Info("session left",
		"session", s.ID,
		"project", s.DisplayName,
		"duration", h.Duration.Round(time.Second))
}

// scheduleReplant queues a delayed replant for a harvested plot. A pending
// task for the same plot is replaced rather than duplicated.
func (p *Pipeline) scheduleReplant(plotIndex int) {
	due := time.Now().Add(p.cfg.Intervals.ReplantDelay)
	for i, t := range p.replants {
		if t.plot == plotIndex {
			p.replants[i].due = due
			return
		}
	}
	p.replants = append(p.replants, replantTask{plot: plotIndex, due: due})
}

// fireDueReplants replants every plot whose delay has elapsed.
func (p *Pipeline) fireDueReplants(now time.Time) {
	remaining := p.replants[:0]
	for _, t := range p.replants {
		if now.Before(t.due) {
			remaining = append(remaining, t)
			continue
		}
		p.farm.ReplantPlot(t.plot)
	}
	p.replants = remaining
}

func (p *Pipeline) flushNotifications() {
	for _, n := range p.ach.PopNotifications() {
		p.log.Info("achievement unlocked", "id", n.ID, "tier", n.TierName, "title", n.Title)
		if p.Notify != nil {
			p.Notify(n)
		}
	}
}

func (p *Pipeline) saveIfDirty() {
	if !p.farm.Dirty() && !p.ach.Dirty() {
		return
	}
	if err := p.store.Save(p.farm.State(), p.ach.State()); err != nil {
		p.log.Error("saving state", "error", err)
		return
	}
	p.farm.ClearDirty()
	p.ach.ClearDirty()
	p.log.Debug("state saved", "path", p.store.Path())
}

// shutdown flushes everything synchronously before the loop exits.
func (p *Pipeline) shutdown() error {
	p.flushNotifications()

	if err := p.store.Save(p.farm.State(), p.ach.State()); err != nil {
		p.log.Error("saving state on shutdown", "error", err)
	}
	if p.hist != nil {
		if err := p.hist.Close(); err != nil {
			p.log.Warn("closing history store", "error", err)
		}
	}
	p.eventLog.Close()

	p.log.Info("pipeline stopped", "total_energy", p.farm.State().TotalEnergy)
	return nil
}
