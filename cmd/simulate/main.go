// Command simulate runs a session headlessly: it generates a galaxy from a
// seed, advances it a number of ticks, records a digest per tick in a
// SQLite archive and prints the final digest.
//
// A run can start from a snapshot file (-resume) or from the newest
// archived snapshot of an earlier run (-resume-run), and can be checked
// tick by tick against the digests archived for another run (-verify).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"planets-engine/internal/persistence/archive"
	"planets-engine/internal/shared/logger"
	"planets-engine/internal/sim/catalog"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/session"
	"planets-engine/internal/sim/snapshot"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

type options struct {
	seed          string
	systems       int
	radius        float64
	shape         string
	ticks         int
	autoExplore   bool
	catalogPath   string
	archivePath   string
	snapshotEvery int
	out           string
	resume        string
	resumeRun     string
	verify        string
	logLevel      string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.StringVar(&o.seed, "seed", "", "galaxy seed (catalog default when empty)")
	fs.IntVar(&o.systems, "systems", 0, "number of star systems (catalog default when 0)")
	fs.Float64Var(&o.radius, "radius", 0, "galaxy radius (catalog default when 0)")
	fs.StringVar(&o.shape, "shape", "", "galaxy shape: circle, ring, spiral, ellipse, bar, cluster")
	fs.IntVar(&o.ticks, "ticks", 100, "ticks to simulate")
	fs.BoolVar(&o.autoExplore, "auto-explore", true, "put every science ship on auto-explore")
	fs.StringVar(&o.catalogPath, "catalog", "", "YAML catalog (built-in rules when empty)")
	fs.StringVar(&o.archivePath, "archive", "", "SQLite archive for per-tick digests (optional)")
	fs.IntVar(&o.snapshotEvery, "snapshot-every", 50, "archive a snapshot every N ticks (0 disables)")
	fs.StringVar(&o.out, "out", "", "write the final snapshot to this path (optional)")
	fs.StringVar(&o.resume, "resume", "", "continue from this snapshot file instead of a new galaxy")
	fs.StringVar(&o.resumeRun, "resume-run", "", "continue from the newest archived snapshot of this run")
	fs.StringVar(&o.verify, "verify", "", "compare every tick against the digests archived for this run")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.ticks < 0 {
		return o, errors.New("-ticks must not be negative")
	}
	if o.resume != "" && o.resumeRun != "" {
		return o, errors.New("-resume and -resume-run are mutually exclusive")
	}
	if (o.resumeRun != "" || o.verify != "") && o.archivePath == "" {
		return o, errors.New("-resume-run and -verify need -archive")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger.Setup(o.logLevel, false)
	log := slog.With("component", "simulate")

	cat, err := loadCatalog(o.catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	engine := session.NewEngine(cat, nil)

	var arc *archive.Archive
	if o.archivePath != "" {
		if arc, err = archive.Open(o.archivePath); err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer arc.Close()
	}

	s, err := startSession(ctx, engine, arc, o)
	if err != nil {
		return err
	}
	log.Info("Session ready",
		"session_id", s.ID,
		"seed", s.Galaxy.Seed,
		"tick", s.Clock.Tick,
		"systems", len(s.Galaxy.Systems),
		"catalog_digest", cat.Digest(),
	)

	var expected map[int64]string
	if o.verify != "" {
		recorded, err := arc.Digests(ctx, o.verify)
		if err != nil {
			return fmt.Errorf("load digests of %s: %w", o.verify, err)
		}
		if len(recorded) == 0 {
			return fmt.Errorf("run %s has no archived digests", o.verify)
		}
		expected = make(map[int64]string, len(recorded))
		for _, d := range recorded {
			expected[d.Tick] = d.Digest
		}
	}

	if arc != nil {
		if err := arc.RecordRun(ctx, archive.Run{
			ID:            s.ID,
			Seed:          s.Galaxy.Seed,
			CatalogDigest: cat.Digest(),
			StartedAt:     s.CreatedAt,
		}); err != nil {
			return err
		}
	}

	digests := make([]archive.TickDigest, 0, o.ticks)
	checked := 0
	for range o.ticks {
		var res session.TickResult
		s, res = engine.Step(s)

		for _, r := range res.NewReports {
			log.Debug("Combat resolved", "tick", r.Tick, "system_id", r.SystemID, "result", r.Result)
		}
		for _, id := range res.CompletedTechs {
			log.Debug("Research completed", "tick", res.Tick, "tech_id", id)
		}

		if arc == nil {
			continue
		}
		d, err := snapshot.Digest(s)
		if err != nil {
			return fmt.Errorf("digest: %w", err)
		}
		digests = append(digests, archive.TickDigest{Tick: s.Clock.Tick, Digest: d})

		if want, ok := expected[s.Clock.Tick]; ok {
			if want != d {
				return fmt.Errorf("tick %d diverges from run %s: digest %s, want %s", s.Clock.Tick, o.verify, d, want)
			}
			checked++
		}

		if o.snapshotEvery > 0 && s.Clock.Tick%int64(o.snapshotEvery) == 0 {
			data, err := snapshot.Marshal(s)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			if err := arc.SaveSnapshot(ctx, s.ID, s.Clock.Tick, data); err != nil {
				return err
			}
		}
	}

	if arc != nil {
		if err := arc.RecordDigests(ctx, s.ID, digests); err != nil {
			return fmt.Errorf("archive digests: %w", err)
		}
	}
	if o.verify != "" {
		if checked == 0 {
			return fmt.Errorf("no simulated tick overlaps the digests of run %s", o.verify)
		}
		log.Info("Run verified", "against", o.verify, "ticks_checked", checked)
	}

	if o.out != "" {
		if err := snapshot.WriteFile(o.out, s); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	final, err := snapshot.Digest(s)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}

	sum := session.Summarize(s)
	log.Info("Simulation finished",
		"tick", sum.Tick,
		"surveyed", sum.Surveyed,
		"planets", sum.Planets,
		"ships", sum.Ships,
		"combat_reports", sum.CombatReports,
	)
	_, err = fmt.Fprintf(stdout, "session=%s tick=%d digest=%s\n", s.ID, s.Clock.Tick, final)
	return err
}

// startSession resumes from a snapshot when asked to and otherwise
// generates a new galaxy. Auto-explore only applies to new sessions.
func startSession(ctx context.Context, engine *session.Engine, arc *archive.Archive, o options) (*session.Session, error) {
	var (
		s      *session.Session
		header snapshot.Header
		err    error
	)
	switch {
	case o.resume != "":
		if s, header, err = snapshot.ReadFile(o.resume); err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", o.resume, err)
		}
	case o.resumeRun != "":
		data, tick, err := arc.LatestSnapshot(ctx, o.resumeRun)
		if err != nil {
			return nil, fmt.Errorf("latest snapshot of %s: %w", o.resumeRun, err)
		}
		if s, header, err = snapshot.Unmarshal(data); err != nil {
			return nil, fmt.Errorf("decode snapshot of %s at tick %d: %w", o.resumeRun, tick, err)
		}
	default:
		s = engine.New(session.Params{
			Galaxy: galaxy.Params{Seed: o.seed, SystemCount: o.systems, Radius: o.radius, Shape: galaxy.Shape(o.shape)},
		}, time.Now())
		if o.autoExplore {
			for _, ship := range s.ScienceShips {
				if s, err = engine.SetScienceShipAuto(s, ship.ID, true); err != nil {
					return nil, fmt.Errorf("auto-explore: %w", err)
				}
			}
		}
		return s, nil
	}

	if header.CatalogDigest != engine.Catalog().Digest() {
		slog.Warn("Resuming under different game rules",
			"component", "simulate",
			"stored_digest", header.CatalogDigest,
			"current_digest", engine.Catalog().Digest())
	}
	return s, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
