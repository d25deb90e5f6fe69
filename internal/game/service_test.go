package game

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"planets-engine/internal/shared/config"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/sim/catalog"
	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/rules"
	"planets-engine/internal/sim/session"
	"planets-engine/internal/sim/snapshot"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	epoch   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		DriverInterval:     250 * time.Millisecond,
		SnapshotEveryTicks: 2,
		MaxLiveSessions:    3,
		MaxSessionsPerUser: 2,
		SummaryTTL:         time.Minute,
		MaxTicksPerFrame:   50,
		MaxSystems:         64,
	}
}

func newTestService(t *testing.T, cfg config.SimulationConfig) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	engine := session.NewEngine(catalog.MustDefault(), nil)
	svc := NewService(store, engine, NewSummaryCache(nil, cfg.SummaryTTL, discard), cfg, discard)
	svc.now = func() time.Time { return epoch }
	return svc, store
}

func TestCreateSessionPersistsAndGoesLive(t *testing.T) {
	svc, store := newTestService(t, testSimConfig())
	ctx := context.Background()

	g, err := svc.CreateSession(ctx, 1, CreateSessionRequest{Label: "first", Seed: "alpha", SystemCount: 10})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if g.OwnerID != 1 || g.Seed != "alpha" || g.Digest == "" {
		t.Fatalf("session = %+v", g)
	}
	if store.Saves() != 1 {
		t.Fatalf("saves = %d, want 1", store.Saves())
	}

	st, err := svc.State(ctx, g.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(st.Galaxy.Systems) != 10 || st.Clock.IsRunning {
		t.Fatalf("systems = %d running = %v", len(st.Galaxy.Systems), st.Clock.IsRunning)
	}
	if owner, _ := svc.SessionOwner(ctx, g.ID); owner != 1 {
		t.Fatalf("owner = %d, want 1", owner)
	}
}

func TestCreateSessionLimits(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t, testSimConfig())
	for i := 0; i < 2; i++ {
		if _, err := svc.CreateSession(ctx, 1, CreateSessionRequest{}); err != nil {
			t.Fatalf("CreateSession %d: %v", i, err)
		}
	}
	if _, err := svc.CreateSession(ctx, 1, CreateSessionRequest{}); errors.GetType(err) != errors.ErrorTypeConflict {
		t.Fatalf("per-player limit err = %v", err)
	}

	if _, err := svc.CreateSession(ctx, 2, CreateSessionRequest{}); err != nil {
		t.Fatalf("third live session: %v", err)
	}
	if _, err := svc.CreateSession(ctx, 3, CreateSessionRequest{}); errors.GetType(err) != errors.ErrorTypeUnavailable {
		t.Fatalf("live limit err = %v", err)
	}

	if _, err := svc.CreateSession(ctx, 4, CreateSessionRequest{Shape: "hexagon"}); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("bad shape err = %v", err)
	}
}

func TestCreateSessionRejectsOversizedGalaxy(t *testing.T) {
	svc, store := newTestService(t, testSimConfig())
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, 1, CreateSessionRequest{SystemCount: 1 << 30})
	if errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("oversized galaxy err = %v", err)
	}
	if store.Saves() != 0 {
		t.Fatalf("saves = %d, want 0", store.Saves())
	}

	g, err := svc.CreateSession(ctx, 1, CreateSessionRequest{SystemCount: 64})
	if err != nil {
		t.Fatalf("CreateSession at the limit: %v", err)
	}
	if st, _ := svc.State(ctx, g.ID); len(st.Galaxy.Systems) != 64 {
		t.Fatalf("systems = %d, want 64", len(st.Galaxy.Systems))
	}
}

func TestApplyKeepsStateOnRejection(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{})
	before, _ := svc.State(ctx, g.ID)

	_, err := svc.Apply(ctx, g.ID, func(e *session.Engine, s *session.Session) (*session.Session, error) {
		return e.OrderFleetMove(s, "FLEET-9999", s.HomeSystemID)
	})
	if reason, ok := rules.ReasonOf(err); !ok || reason != rules.FleetNotFound {
		t.Fatalf("err = %v, want FLEET_NOT_FOUND", err)
	}

	after, _ := svc.State(ctx, g.ID)
	if after != before {
		t.Fatal("rejected command replaced the live session")
	}
}

func TestFrameAdvancesRunningSessionsOnly(t *testing.T) {
	svc, store := newTestService(t, testSimConfig())
	ctx := context.Background()

	running, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	paused, _ := svc.CreateSession(ctx, 2, CreateSessionRequest{})
	saves := store.Saves()

	if n := svc.Frame(ctx, epoch.Add(1500*time.Millisecond)); n != 1 {
		t.Fatalf("first frame ticks = %d, want 1", n)
	}
	if n := svc.Frame(ctx, epoch.Add(3*time.Second)); n != 2 {
		t.Fatalf("second frame ticks = %d, want 2", n)
	}

	st, _ := svc.State(ctx, running.ID)
	if st.Clock.Tick != 3 {
		t.Fatalf("running tick = %d, want 3", st.Clock.Tick)
	}
	if ps, _ := svc.State(ctx, paused.ID); ps.Clock.Tick != 0 {
		t.Fatalf("paused tick = %d, want 0", ps.Clock.Tick)
	}

	if store.Saves() != saves+1 {
		t.Fatalf("checkpoints = %d, want 1", store.Saves()-saves)
	}
	meta, _, _ := store.LoadSession(ctx, running.ID)
	if meta.Tick != 3 {
		t.Fatalf("checkpoint tick = %d, want 3", meta.Tick)
	}
}

func TestFrameCapsCatchUpPerSession(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	if _, err := svc.Apply(ctx, g.ID, func(e *session.Engine, s *session.Session) (*session.Session, error) {
		return e.SetSpeed(s, clock.MaxSpeedMultiplier)
	}); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}

	if n := svc.Frame(ctx, epoch.Add(time.Second)); n != 50 {
		t.Fatalf("first frame ticks = %d, want 50", n)
	}
	st, _ := svc.State(ctx, g.ID)
	if st.Clock.Tick != 50 || st.Clock.ElapsedMs != 950_000 {
		t.Fatalf("tick = %d backlog = %v, want 50/950000", st.Clock.Tick, st.Clock.ElapsedMs)
	}

	// No new wall time: the next frame drains the backlog.
	if n := svc.Frame(ctx, epoch.Add(time.Second+time.Nanosecond)); n != 50 {
		t.Fatalf("drain frame ticks = %d, want 50", n)
	}
	if st, _ := svc.State(ctx, g.ID); st.Clock.Tick != 100 {
		t.Fatalf("tick = %d, want 100", st.Clock.Tick)
	}
}

func TestFrameDoesNotBlockOtherSessions(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	other, _ := svc.CreateSession(ctx, 2, CreateSessionRequest{})

	ls, _ := svc.lookup(g.ID)
	ls.mu.Lock()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Apply(ctx, other.ID, func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.SetRunning(s, true)
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command on one session waited for another session's lock")
	}
	ls.mu.Unlock()
}

func TestPausedTimeIsNotSimulated(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{})

	svc.Frame(ctx, epoch.Add(time.Hour))
	if _, err := svc.Apply(ctx, g.ID, func(e *session.Engine, s *session.Session) (*session.Session, error) {
		return e.SetRunning(s, true)
	}); err != nil {
		t.Fatalf("start clock: %v", err)
	}
	svc.Frame(ctx, epoch.Add(time.Hour+2*time.Second))

	st, _ := svc.State(ctx, g.ID)
	if st.Clock.Tick != 2 {
		t.Fatalf("tick = %d, want 2", st.Clock.Tick)
	}
}

func TestPauseCheckpoints(t *testing.T) {
	svc, store := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	svc.Frame(ctx, epoch.Add(time.Second))
	saves := store.Saves()

	if _, err := svc.Apply(ctx, g.ID, func(e *session.Engine, s *session.Session) (*session.Session, error) {
		return e.SetRunning(s, false)
	}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if store.Saves() != saves+1 {
		t.Fatal("pausing did not checkpoint")
	}
	meta, _, _ := store.LoadSession(ctx, g.ID)
	if meta.IsRunning || meta.Tick != 1 {
		t.Fatalf("stored meta = %+v", meta)
	}
}

func TestUnloadAndResume(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{})

	st, _, err := svc.ForceAdvance(ctx, g.ID, 12)
	if err != nil {
		t.Fatalf("ForceAdvance: %v", err)
	}
	want, _ := snapshot.Digest(st)

	if err := svc.Unload(ctx, g.ID); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if svc.Status().LiveSessions != 0 {
		t.Fatal("session still live after unload")
	}

	sum, err := svc.Summary(ctx, g.ID)
	if err != nil || sum.Tick != 12 {
		t.Fatalf("cold summary = %+v, %v", sum, err)
	}

	resumed, err := svc.State(ctx, g.ID)
	if err != nil {
		t.Fatalf("State after unload: %v", err)
	}
	if got, _ := snapshot.Digest(resumed); got != want {
		t.Fatalf("resumed digest = %s, want %s", got, want)
	}
}

func TestForceAdvanceBounds(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{})

	for _, n := range []int{0, MaxForcedTicks + 1} {
		if _, _, err := svc.ForceAdvance(ctx, g.ID, n); errors.GetType(err) != errors.ErrorTypeValidation {
			t.Errorf("ForceAdvance(%d) err = %v", n, err)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	svc, _ := newTestService(t, testSimConfig())
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{})

	if err := svc.DeleteSession(ctx, g.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := svc.State(ctx, g.ID); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("State after delete err = %v", err)
	}
	if list, _ := svc.ListSessions(ctx, 1); len(list) != 0 {
		t.Fatalf("sessions after delete = %+v", list)
	}
}

func TestListSessionsShowsLiveTick(t *testing.T) {
	svc, _ := newTestService(t, config.SimulationConfig{MaxLiveSessions: 5, SnapshotEveryTicks: 100})
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	svc.Frame(ctx, epoch.Add(4*time.Second))

	list, err := svc.ListSessions(ctx, 1)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 1 || list[0].ID != g.ID || list[0].Tick != 4 || !list[0].IsRunning {
		t.Fatalf("list = %+v", list)
	}
}

func TestShutdownPersistsLiveSessions(t *testing.T) {
	svc, store := newTestService(t, config.SimulationConfig{MaxLiveSessions: 5})
	ctx := context.Background()
	g, _ := svc.CreateSession(ctx, 1, CreateSessionRequest{AutoStart: true})
	svc.Frame(ctx, epoch.Add(5*time.Second))

	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	meta, _, _ := store.LoadSession(ctx, g.ID)
	if meta.Tick != 5 {
		t.Fatalf("persisted tick = %d, want 5", meta.Tick)
	}
}

func TestSummaryCacheExpires(t *testing.T) {
	c := NewSummaryCache(nil, time.Second, discard)
	now := epoch
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, session.Summary{ID: "s", Tick: 4})
	if sum, ok := c.Get(ctx, "s"); !ok || sum.Tick != 4 {
		t.Fatalf("Get = %+v, %v", sum, ok)
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "s"); ok {
		t.Fatal("expired summary returned")
	}

	c.Set(ctx, session.Summary{ID: "s"})
	c.Invalidate(ctx, "s")
	if _, ok := c.Get(ctx, "s"); ok {
		t.Fatal("invalidated summary returned")
	}
}
