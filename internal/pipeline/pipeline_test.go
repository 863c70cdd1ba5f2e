package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/persist"
)

func testConfig(t *testing.T, baseDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.BaseDir = baseDir
	cfg.DataDir = t.TempDir()
	cfg.Intervals.ReplantDelay = 8 * time.Second
	return cfg
}

func testPipeline(t *testing.T, cfg *config.Config) *Pipeline {
	t.Helper()
	store, err := persist.NewStore(cfg.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger, store, nil, nil)
}

// writeTranscript creates base/<project>/<session>.jsonl with the given lines
// and a fresh mtime.
func writeTranscript(t *testing.T, base, project, session string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(base, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, session+".jsonl")
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assistantLine(ts time.Time, tokens int, blocks string) string {
	return fmt.Sprintf(
		`{"type":"assistant","timestamp":%q,"message":{"content":[%s],"usage":{"output_tokens":%d}}}`,
		ts.Format(time.RFC3339), blocks, tokens)
}

func toolUseBlock(tool, filePath string) string {
	return fmt.Sprintf(`{"type":"tool_use","name":%q,"input":{"file_path":%q}}`, tool, filePath)
}

func TestDiscoveryThenPoll_FeedsSimulation(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 500, toolUseBlock("Edit", "/home/dev/proj/main.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)

	p.runDiscovery(now)

	if got := p.reg.Len(); got != 1 {
		t.Fatalf("tracked sessions = %d, want 1", got)
	}
	// The joined session got its first poll inside runDiscovery.
	if got := p.farm.State().TotalEnergy; got != cfg.Points["tool_use"] {
		t.Errorf("energy = %d after first poll, want %d", got, cfg.Points["tool_use"])
	}
}

func TestPoll_AppendedLinesOnly(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	path := writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 100, toolUseBlock("Edit", "/home/dev/proj/a.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)
	p.runDiscovery(now)
	after := p.farm.State().TotalEnergy

	// Polling again without new bytes adds nothing.
	p.runPoll(now.Add(time.Second))
	if got := p.farm.State().TotalEnergy; got != after {
		t.Fatalf("energy = %d after empty poll, want unchanged %d", got, after)
	}

	// Appending one line adds exactly one event's worth.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(assistantLine(now, 0, toolUseBlock("Write", "/home/dev/proj/b.go")) + "\n")
	f.Close()

	p.runPoll(now.Add(2 * time.Second))
	if got := p.farm.State().TotalEnergy; got != after+cfg.Points["tool_use"] {
		t.Errorf("energy = %d after append, want %d", got, after+cfg.Points["tool_use"])
	}
}

func TestDiscovery_ScanFailureKeepsSessions(t *testing.T) {
	base := filepath.Join(t.TempDir(), "transcripts")
	now := time.Now()
	writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 100, toolUseBlock("Edit", "/home/dev/proj/a.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)
	p.runDiscovery(now)

	if got := p.reg.Len(); got != 1 {
		t.Fatalf("tracked sessions = %d, want 1", got)
	}
	energy := p.farm.State().TotalEnergy

	// Base dir vanishes: the scan fails, but the tracked set must survive
	// so a transient outage does not fabricate leaves and re-joins.
	if err := os.RemoveAll(base); err != nil {
		t.Fatal(err)
	}
	p.runDiscovery(now.Add(time.Second))

	if got := p.reg.Len(); got != 1 {
		t.Fatalf("tracked = %d after failed scan, want 1", got)
	}
	if got := p.farm.State().TotalEnergy; got != energy {
		t.Errorf("energy = %d after failed scan, want unchanged %d", got, energy)
	}
}

func TestPoll_UpdatesAchievements(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 2000,
			toolUseBlock("Edit", "/home/dev/proj/a.go")+","+toolUseBlock("Edit", "/home/dev/proj/b.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)
	p.runDiscovery(now)

	if got := p.ach.State().Progress["busy_hands"].Value; got != 2 {
		t.Errorf("busy_hands = %d, want 2 distinct files", got)
	}
	if got := p.ach.State().Progress["wordsmith"].Value; got != 2000 {
		t.Errorf("wordsmith = %d, want 2000", got)
	}
}

func TestReplant_FiresOnlyWhenDue(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	p := testPipeline(t, cfg)

	// Put a mature plot in place and schedule its replant by hand.
	p.farm.State().UnlockedCrops = []string{"turnip"}
	p.farm.State().Plots[0].CropID = "turnip"
	p.farm.State().Plots[0].Stage = 3
	p.replants = []replantTask{{plot: 0, due: time.Now().Add(cfg.Intervals.ReplantDelay)}}

	p.fireDueReplants(time.Now())
	if got := p.farm.State().Plots[0].Stage; got != 3 {
		t.Fatal("replant fired before its delay elapsed")
	}
	if len(p.replants) != 1 {
		t.Fatal("pending replant dropped")
	}

	p.fireDueReplants(time.Now().Add(cfg.Intervals.ReplantDelay + time.Second))
	if got := p.farm.State().Plots[0].Stage; got != 0 {
		t.Errorf("plot stage = %d after due replant, want 0", got)
	}
	if len(p.replants) != 0 {
		t.Error("fired replant not removed from queue")
	}
}

func TestScheduleReplant_ReplacesSamePlot(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	p := testPipeline(t, cfg)

	p.scheduleReplant(2)
	p.scheduleReplant(2)
	if len(p.replants) != 1 {
		t.Errorf("replant queue = %d entries for one plot, want 1", len(p.replants))
	}
}

func TestFlushNotifications_ForwardsToNotify(t *testing.T) {
	base := t.TempDir()
	now := time.Now()

	// Six distinct files crosses busy_hands bronze (threshold 5).
	var blocks string
	for i := 0; i < 6; i++ {
		if i > 0 {
			blocks += ","
		}
		blocks += toolUseBlock("Edit", fmt.Sprintf("/home/dev/proj/f%d.go", i))
	}
	writeTranscript(t, base, "-home-dev-proj", "abc-123", assistantLine(now, 0, blocks))

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)

	var names []string
	p.Notify = func(n achievements.Notification) {
		names = append(names, n.ID+":"+n.TierName)
	}

	p.runDiscovery(now)
	p.flushNotifications()

	found := false
	for _, n := range names {
		if n == "busy_hands:bronze" {
			found = true
		}
	}
	if !found {
		t.Errorf("notifications = %v, want busy_hands:bronze among them", names)
	}
	if got := len(p.ach.PopNotifications()); got != 0 {
		t.Errorf("queue holds %d notifications after flush, want 0", got)
	}
}

func TestSaveIfDirty_PersistsAndClears(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 0, toolUseBlock("Edit", "/home/dev/proj/a.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)
	p.runDiscovery(now)

	if !p.farm.Dirty() {
		t.Fatal("farm not dirty after activity")
	}
	p.saveIfDirty()
	if p.farm.Dirty() || p.ach.Dirty() {
		t.Error("dirty flags not cleared after save")
	}

	// A fresh pipeline over the same data dir sees the saved energy.
	reloaded := testPipeline(t, cfg)
	if got, want := reloaded.farm.State().TotalEnergy, p.farm.State().TotalEnergy; got != want {
		t.Errorf("reloaded energy = %d, want %d", got, want)
	}
}

func TestSessionLeave_ReleasesTracking(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	writeTranscript(t, base, "-home-dev-proj", "abc-123",
		assistantLine(now, 0, toolUseBlock("Edit", "/home/dev/proj/a.go")),
	)

	cfg := testConfig(t, base)
	p := testPipeline(t, cfg)
	p.runDiscovery(now)

	// Later discovery past the liveness window drops the session; recorded
	// progress survives.
	p.runDiscovery(now.Add(cfg.Liveness.InactivityTimeout + time.Minute))
	if got := p.reg.Len(); got != 0 {
		t.Fatalf("tracked sessions = %d after timeout, want 0", got)
	}
	if got := p.ach.State().Progress["busy_hands"].Value; got != 1 {
		t.Errorf("busy_hands = %d after session left, want 1 preserved", got)
	}
}
