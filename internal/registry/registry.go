// Package registry reconciles discovered transcript logs against the set of
// tracked sessions. It owns all Session values; other components hold only
// SessionIDs.
package registry

import (
	"time"

	"github.com/sproutapp/sprout/internal/watch"
)

// SessionID is an opaque key for one tracked session. A distinct type keeps
// per-session maps in different packages from mixing up raw strings.
type SessionID string

// Session is one currently-live, continuously-appended source log.
type Session struct {
	ID           SessionID
	DisplayName  string
	Path         string
	StartTime    time.Time
	LastActivity time.Time

	Tailer *watch.Tailer
}

// HistoryEntry records a closed session.
type HistoryEntry struct {
	SessionID   SessionID
	DisplayName string
	Start       time.Time
	End         time.Time
	Duration    time.Duration
}

// Hooks receive lifecycle notifications. Any hook may be nil.
type Hooks struct {
	// OnJoin fires after a session is created and its tailer bound.
	OnJoin func(s *Session)
	// OnLeave fires after a session is removed, with its history entry.
	OnLeave func(s *Session, h HistoryEntry)
}

// Registry tracks the live session set.
// Not safe for concurrent use; the pipeline serializes all calls.
type Registry struct {
	sessions          map[SessionID]*Session
	hooks             Hooks
	tailLookback      int64
	inactivityTimeout time.Duration

	// pruned remembers sessions removed for inactivity, with the log mtime
	// seen at removal. Such a session stays out until its log is written
	// again, even while discovery still reports it inside the liveness
	// window; without this a long window re-adds it every cycle.
	pruned map[SessionID]time.Time
}

// New creates an empty registry.
func New(tailLookback int64, inactivityTimeout time.Duration, hooks Hooks) *Registry {
	return &Registry{
		sessions:          make(map[SessionID]*Session),
		pruned:            make(map[SessionID]time.Time),
		hooks:             hooks,
		tailLookback:      tailLookback,
		inactivityTimeout: inactivityTimeout,
	}
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int { return len(r.sessions) }

// Get returns a tracked session, or nil.
func (r *Registry) Get(id SessionID) *Session { return r.sessions[id] }

// Sessions returns the tracked sessions in no particular order.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Reconcile aligns the tracked set with a discovery result, then prunes
// sessions whose last tailed activity is older than the inactivity timeout —
// a session can be removed even while discovery still reports it live by
// mtime. Reconciling an unchanged result is a no-op.
func (r *Registry) Reconcile(candidates []watch.Candidate, now time.Time) {
	live := make(map[SessionID]bool, len(candidates))
	mtimes := make(map[SessionID]time.Time, len(candidates))

	for _, c := range candidates {
		id := SessionID(c.ID)
		live[id] = true
		mtimes[id] = c.ModTime
		if _, tracked := r.sessions[id]; tracked {
			continue
		}
		if prunedAt, ok := r.pruned[id]; ok && !c.ModTime.After(prunedAt) {
			continue
		}
		delete(r.pruned, id)
		r.add(c, now)
	}

	for id, s := range r.sessions {
		switch {
		case !live[id]:
			r.remove(s, now)
		case now.Sub(s.LastActivity) > r.inactivityTimeout:
			r.pruned[id] = mtimes[id]
			r.remove(s, now)
		}
	}

	// Forget pruned sessions whose logs have left the liveness window.
	for id := range r.pruned {
		if !live[id] {
			delete(r.pruned, id)
		}
	}
}

// PruneInactive applies only the inactivity timeout, without a discovery
// result. Used when a scan fails transiently: tracked sessions are kept, but
// ones that have gone silent are still released.
func (r *Registry) PruneInactive(now time.Time) {
	for id, s := range r.sessions {
		if now.Sub(s.LastActivity) > r.inactivityTimeout {
			r.pruned[id] = s.LastActivity
			r.remove(s, now)
		}
	}
}

func (r *Registry) add(c watch.Candidate, now time.Time) {
	tailer := watch.NewTailer()
	tailer.SetFile(c.Path, r.tailLookback)

	s := &Session{
		ID:           SessionID(c.ID),
		DisplayName:  c.DisplayName,
		Path:         c.Path,
		StartTime:    now,
		LastActivity: now,
		Tailer:       tailer,
	}
	r.sessions[s.ID] = s

	if r.hooks.OnJoin != nil {
		r.hooks.OnJoin(s)
	}
}

func (r *Registry) remove(s *Session, now time.Time) {
	delete(r.sessions, s.ID)

	entry := HistoryEntry{
		SessionID:   s.ID,
		DisplayName: s.DisplayName,
		Start:       s.StartTime,
		End:         now,
		Duration:    now.Sub(s.StartTime),
	}
	if r.hooks.OnLeave != nil {
		r.hooks.OnLeave(s, entry)
	}
}

// Poll tails one session and returns the new raw record lines.
// LastActivity advances only when bytes actually arrived.
func (r *Registry) Poll(id SessionID, now time.Time) []string {
	s := r.sessions[id]
	if s == nil {
		return nil
	}
	lines := s.Tailer.Poll()
	if len(lines) > 0 {
		s.LastActivity = now
	}
	return lines
}
