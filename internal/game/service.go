package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"planets-engine/internal/shared/config"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/session"
	"planets-engine/internal/sim/snapshot"
)

// MaxForcedTicks bounds a single administrative advance.
const MaxForcedTicks = 10000

// Command mutates a session through the engine. It follows the engine's
// contract: a rejected command returns an error and no new session.
type Command func(e *session.Engine, s *session.Session) (*session.Session, error)

// Service hosts live sessions in memory, advances their clocks and
// checkpoints them to the store. mu guards the live map only; each entry
// carries its own lock and is always taken after mu, never before.
type Service struct {
	repo   Store
	engine *session.Engine
	cache  *SummaryCache
	cfg    config.SimulationConfig
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

type liveSession struct {
	mu        sync.Mutex
	meta      GameSession
	state     *session.Session
	savedTick int64
	lastFrame time.Time
	// gone is set once the entry has left the live map.
	gone bool
}

func (ls *liveSession) current() *session.Session {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state
}

type checkpoint struct {
	meta  GameSession
	state *session.Session
}

func NewService(repo Store, engine *session.Engine, cache *SummaryCache, cfg config.SimulationConfig, logger *slog.Logger) *Service {
	logger.Debug("Initializing game service",
		"max_live_sessions", cfg.MaxLiveSessions,
		"snapshot_every_ticks", cfg.SnapshotEveryTicks)

	return &Service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		live:   make(map[string]*liveSession),
	}
}

func (s *Service) Engine() *session.Engine {
	return s.engine
}

func (s *Service) CreateSession(ctx context.Context, ownerID int, req CreateSessionRequest) (*GameSession, error) {
	logger := s.logger.With("component", "game_service", "operation", "create_session", "owner_id", ownerID)

	if req.Shape != "" && !req.Shape.IsValid() {
		return nil, errors.Validationf("unknown galaxy shape: %s", req.Shape)
	}
	if req.SystemCount < 0 || req.Radius < 0 {
		return nil, errors.Validation("system count and radius must not be negative")
	}
	if s.cfg.MaxSystems > 0 && req.SystemCount > s.cfg.MaxSystems {
		return nil, errors.Validationf("system count must be at most %d", s.cfg.MaxSystems)
	}

	if s.cfg.MaxSessionsPerUser > 0 {
		count, err := s.repo.CountSessions(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if count >= s.cfg.MaxSessionsPerUser {
			return nil, errors.Conflictf("session limit of %d reached", s.cfg.MaxSessionsPerUser)
		}
	}

	if !s.hasRoom() {
		return nil, errors.Unavailablef("server is hosting the maximum of %d sessions", s.cfg.MaxLiveSessions)
	}

	now := s.now()
	state := s.engine.New(session.Params{
		Label: req.Label,
		Galaxy: galaxy.Params{
			Seed:        req.Seed,
			SystemCount: req.SystemCount,
			Radius:      req.Radius,
			Shape:       req.Shape,
		},
	}, now)
	if req.AutoStart {
		var err error
		if state, err = s.engine.SetRunning(state, true); err != nil {
			return nil, err
		}
	}

	meta := GameSession{
		ID:            state.ID,
		OwnerID:       ownerID,
		Label:         state.Label,
		Seed:          state.Galaxy.Seed,
		CatalogDigest: state.CatalogDigest,
		CreatedAt:     now,
	}
	saved, err := s.persist(ctx, checkpoint{meta: meta, state: state})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.live[state.ID] = &liveSession{meta: saved, state: state, savedTick: state.Clock.Tick, lastFrame: now}
	s.mu.Unlock()

	logger.Info("Session created",
		"session_id", state.ID,
		"seed", meta.Seed,
		"systems", len(state.Galaxy.Systems),
		"running", state.Clock.IsRunning)
	return &saved, nil
}

func (s *Service) hasRoom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live) < s.cfg.MaxLiveSessions
}

// ListSessions returns the owner's sessions with live progress applied.
func (s *Service) ListSessions(ctx context.Context, ownerID int) ([]GameSession, error) {
	sessions, err := s.repo.ListSessions(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		ls, ok := s.lookup(sessions[i].ID)
		if !ok {
			continue
		}
		st := ls.current()
		sessions[i].Tick = st.Clock.Tick
		sessions[i].IsRunning = st.Clock.IsRunning
	}
	return sessions, nil
}

// SessionOwner reports the owning player of a session.
func (s *Service) SessionOwner(ctx context.Context, id string) (int, error) {
	if ls, ok := s.lookup(id); ok {
		return ls.meta.OwnerID, nil
	}
	return s.repo.SessionOwner(ctx, id)
}

// State returns the current session, loading it from the store if it is
// not live. Sessions are immutable values, so the result is safe to read.
func (s *Service) State(ctx context.Context, id string) (*session.Session, error) {
	if err := s.acquire(ctx, id); err != nil {
		return nil, err
	}
	ls, ok := s.lookup(id)
	if !ok {
		return nil, errors.NotFoundf("session not found: %s", id)
	}
	return ls.current(), nil
}

// Summary describes a session without making it live.
func (s *Service) Summary(ctx context.Context, id string) (session.Summary, error) {
	if ls, ok := s.lookup(id); ok {
		return session.Summarize(ls.current()), nil
	}

	if sum, ok := s.cache.Get(ctx, id); ok {
		return sum, nil
	}

	_, data, err := s.repo.LoadSession(ctx, id)
	if err != nil {
		return session.Summary{}, err
	}
	state, _, err := snapshot.Unmarshal(data)
	if err != nil {
		return session.Summary{}, errors.WrapInternal("failed to decode session snapshot", err)
	}
	sum := session.Summarize(state)
	s.cache.Set(ctx, sum)
	return sum, nil
}

// Snapshot encodes the current state of a session.
func (s *Service) Snapshot(ctx context.Context, id string) ([]byte, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := snapshot.Marshal(state)
	if err != nil {
		return nil, errors.WrapInternal("failed to encode snapshot", err)
	}
	return data, nil
}

// Apply runs cmd against the live session. Rule rejections come back
// unchanged so callers can report their reason.
func (s *Service) Apply(ctx context.Context, id string, cmd Command) (*session.Session, error) {
	if err := s.acquire(ctx, id); err != nil {
		return nil, err
	}

	ls, ok := s.lookup(id)
	if !ok {
		return nil, errors.NotFoundf("session not found: %s", id)
	}
	ls.mu.Lock()
	if ls.gone {
		ls.mu.Unlock()
		return nil, errors.NotFoundf("session not found: %s", id)
	}
	wasRunning := ls.state.Clock.IsRunning
	next, err := cmd(s.engine, ls.state)
	if err != nil {
		ls.mu.Unlock()
		return nil, err
	}
	ls.state = next
	cp := checkpoint{meta: ls.meta, state: next}
	ls.mu.Unlock()

	// Pausing checkpoints immediately.
	if wasRunning && !next.Clock.IsRunning {
		if err := s.save(ctx, cp); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// ForceAdvance runs ticks steps regardless of the clock.
func (s *Service) ForceAdvance(ctx context.Context, id string, ticks int) (*session.Session, []session.TickResult, error) {
	if ticks <= 0 || ticks > MaxForcedTicks {
		return nil, nil, errors.Validationf("ticks must be between 1 and %d", MaxForcedTicks)
	}

	var results []session.TickResult
	next, err := s.Apply(ctx, id, func(e *session.Engine, st *session.Session) (*session.Session, error) {
		var out *session.Session
		out, results = e.AdvanceTicks(st, ticks)
		return out, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Session advanced by administrator",
		"component", "game_service",
		"session_id", id,
		"ticks", ticks,
		"tick", next.Clock.Tick)
	return next, results, nil
}

// Frame feeds wall-clock time into every running session and checkpoints
// the ones that progressed far enough. Each session simulates at most
// MaxTicksPerFrame ticks per call; the rest stays on its clock for later
// frames. It returns the ticks simulated.
func (s *Service) Frame(ctx context.Context, now time.Time) int {
	var due []checkpoint
	total := 0

	for _, ls := range s.entries() {
		n, cp, ok := s.advance(ls, now)
		total += n
		if ok {
			due = append(due, cp)
		}
	}

	for _, cp := range due {
		if err := s.save(ctx, cp); err != nil {
			s.logger.Error("Failed to checkpoint session",
				"component", "driver",
				"session_id", cp.meta.ID,
				"tick", cp.state.Clock.Tick,
				"error", err)
		}
	}
	return total
}

// advance runs one frame of a single session under its own lock.
func (s *Service) advance(ls *liveSession, now time.Time) (int, checkpoint, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	elapsed := now.Sub(ls.lastFrame)
	ls.lastFrame = now
	if ls.gone || !ls.state.Clock.IsRunning {
		return 0, checkpoint{}, false
	}
	if elapsed < 0 {
		elapsed = 0
	}

	next, results := s.engine.AdvanceClockWithin(ls.state, float64(elapsed)/float64(time.Millisecond), now, s.maxTicksPerFrame())
	ls.state = next

	for _, r := range results {
		for _, rep := range r.NewReports {
			s.logger.Debug("Combat resolved",
				"component", "driver",
				"session_id", ls.meta.ID,
				"tick", r.Tick,
				"system_id", rep.SystemID,
				"result", rep.Result)
		}
	}

	if s.cfg.SnapshotEveryTicks > 0 && next.Clock.Tick-ls.savedTick >= int64(s.cfg.SnapshotEveryTicks) {
		return len(results), checkpoint{meta: ls.meta, state: next}, true
	}
	return len(results), checkpoint{}, false
}

func (s *Service) maxTicksPerFrame() int {
	if s.cfg.MaxTicksPerFrame > 0 {
		return s.cfg.MaxTicksPerFrame
	}
	return clock.MaxCatchUpTicks
}

// Unload checkpoints a session and drops it from memory.
func (s *Service) Unload(ctx context.Context, id string) error {
	ls, ok := s.remove(id)
	if !ok {
		return nil
	}
	state := ls.current()

	if _, err := s.persist(ctx, checkpoint{meta: ls.meta, state: state}); err != nil {
		return err
	}
	s.cache.Set(ctx, session.Summarize(state))
	return nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.remove(id)

	s.cache.Invalidate(ctx, id)
	return s.repo.DeleteSession(ctx, id)
}

// Shutdown checkpoints every live session.
func (s *Service) Shutdown(ctx context.Context) error {
	entries := s.entries()
	all := make([]checkpoint, 0, len(entries))
	for _, ls := range entries {
		all = append(all, checkpoint{meta: ls.meta, state: ls.current()})
	}

	var failed int
	for _, cp := range all {
		if err := s.save(ctx, cp); err != nil {
			failed++
			s.logger.Error("Failed to persist session on shutdown", "session_id", cp.meta.ID, "error", err)
		}
	}
	s.logger.Info("Live sessions persisted", "component", "game_service", "count", len(all), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("failed to persist %d of %d sessions", failed, len(all))
	}
	return nil
}

func (s *Service) Status() Status {
	entries := s.entries()
	st := Status{
		LiveSessions:   len(entries),
		CatalogDigest:  s.engine.Catalog().Digest(),
		TicksPerSecond: s.engine.Catalog().TicksPerSecond,
	}
	for _, ls := range entries {
		if ls.current().Clock.IsRunning {
			st.RunningClocks++
		}
	}
	return st
}

func (s *Service) lookup(id string) (*liveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.live[id]
	return ls, ok
}

func (s *Service) entries() []*liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		out = append(out, ls)
	}
	return out
}

// remove drops a session from the live map and marks it gone so an
// in-flight frame or command does not keep working on it.
func (s *Service) remove(id string) (*liveSession, bool) {
	s.mu.Lock()
	ls, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	ls.mu.Lock()
	ls.gone = true
	ls.mu.Unlock()
	return ls, true
}

// acquire makes sure the session is live, loading its latest snapshot
// from the store when needed.
func (s *Service) acquire(ctx context.Context, id string) error {
	if _, ok := s.lookup(id); ok {
		return nil
	}

	meta, data, err := s.repo.LoadSession(ctx, id)
	if err != nil {
		return err
	}
	state, header, err := snapshot.Unmarshal(data)
	if err != nil {
		return errors.WrapInternal("failed to decode session snapshot", err)
	}
	if header.CatalogDigest != s.engine.Catalog().Digest() {
		s.logger.Warn("Resuming session under different game rules",
			"component", "game_service",
			"session_id", id,
			"stored_digest", header.CatalogDigest,
			"current_digest", s.engine.Catalog().Digest())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[id]; ok {
		return nil
	}
	if len(s.live) >= s.cfg.MaxLiveSessions {
		return errors.Unavailablef("server is hosting the maximum of %d sessions", s.cfg.MaxLiveSessions)
	}
	s.live[id] = &liveSession{meta: *meta, state: state, savedTick: state.Clock.Tick, lastFrame: s.now()}

	s.logger.Info("Session resumed",
		"component", "game_service",
		"session_id", id,
		"tick", state.Clock.Tick)
	return nil
}

// save persists a checkpoint and records the saved tick on the live entry.
func (s *Service) save(ctx context.Context, cp checkpoint) error {
	if _, err := s.persist(ctx, cp); err != nil {
		return err
	}
	if ls, ok := s.lookup(cp.meta.ID); ok {
		ls.mu.Lock()
		if cp.state.Clock.Tick > ls.savedTick {
			ls.savedTick = cp.state.Clock.Tick
		}
		ls.mu.Unlock()
	}
	return nil
}

func (s *Service) persist(ctx context.Context, cp checkpoint) (GameSession, error) {
	data, err := snapshot.Marshal(cp.state)
	if err != nil {
		return GameSession{}, errors.WrapInternal("failed to encode snapshot", err)
	}
	digest, err := snapshot.Digest(cp.state)
	if err != nil {
		return GameSession{}, errors.WrapInternal("failed to digest session", err)
	}

	meta := cp.meta
	meta.Tick = cp.state.Clock.Tick
	meta.IsRunning = cp.state.Clock.IsRunning
	meta.Digest = digest
	meta.UpdatedAt = s.now()
	if err := s.repo.SaveSession(ctx, meta, data); err != nil {
		return GameSession{}, err
	}

	s.logger.Debug("Session checkpointed",
		"component", "game_service",
		"session_id", meta.ID,
		"tick", meta.Tick,
		"snapshot_bytes", len(data))
	return meta, nil
}
