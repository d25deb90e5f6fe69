package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

type result struct {
	id     string
	tick   int64
	digest string
}

func simulate(t *testing.T, args ...string) (result, error) {
	t.Helper()
	var out bytes.Buffer
	args = append([]string{"-log-level", "error"}, args...)
	if err := run(context.Background(), args, &out); err != nil {
		return result{}, err
	}
	var r result
	if _, err := fmt.Sscanf(out.String(), "session=%s tick=%d digest=%s", &r.id, &r.tick, &r.digest); err != nil {
		t.Fatalf("parse output %q: %v", out.String(), err)
	}
	return r, nil
}

func TestVerifyAcceptsReplay(t *testing.T) {
	arc := filepath.Join(t.TempDir(), "runs.db")

	first, err := simulate(t, "-archive", arc, "-seed", "alpha", "-systems", "8", "-ticks", "6")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	replay, err := simulate(t, "-archive", arc, "-seed", "alpha", "-systems", "8", "-ticks", "6", "-verify", first.id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if replay.digest != first.digest || replay.id == first.id {
		t.Fatalf("replay = %+v, first = %+v", replay, first)
	}
}

func TestVerifyReportsDivergence(t *testing.T) {
	arc := filepath.Join(t.TempDir(), "runs.db")

	first, err := simulate(t, "-archive", arc, "-seed", "alpha", "-systems", "8", "-ticks", "4")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	_, err = simulate(t, "-archive", arc, "-seed", "beta", "-systems", "8", "-ticks", "4", "-verify", first.id)
	if err == nil || !strings.Contains(err.Error(), "diverges") {
		t.Fatalf("err = %v, want divergence", err)
	}

	_, err = simulate(t, "-archive", arc, "-ticks", "1", "-verify", "no-such-run")
	if err == nil {
		t.Fatal("verify against an unknown run succeeded")
	}
}

func TestResumeFromArchivedRun(t *testing.T) {
	arc := filepath.Join(t.TempDir(), "runs.db")

	first, err := simulate(t, "-archive", arc, "-seed", "alpha", "-systems", "8", "-ticks", "7", "-snapshot-every", "3")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	resumed, err := simulate(t, "-archive", arc, "-resume-run", first.id, "-ticks", "1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	// the newest archived snapshot is at tick 6
	if resumed.id != first.id || resumed.tick != 7 || resumed.digest != first.digest {
		t.Fatalf("resumed = %+v, first = %+v", resumed, first)
	}
}

func TestResumeFromSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "final.snap")

	straight, err := simulate(t, "-seed", "alpha", "-systems", "8", "-ticks", "5")
	if err != nil {
		t.Fatalf("straight run: %v", err)
	}
	if _, err := simulate(t, "-seed", "alpha", "-systems", "8", "-ticks", "3", "-out", snap); err != nil {
		t.Fatalf("first leg: %v", err)
	}
	resumed, err := simulate(t, "-resume", snap, "-ticks", "2")
	if err != nil {
		t.Fatalf("second leg: %v", err)
	}
	if resumed.tick != 5 || resumed.digest != straight.digest {
		t.Fatalf("resumed = %+v, straight = %+v", resumed, straight)
	}
}

func TestFlagConflicts(t *testing.T) {
	cases := [][]string{
		{"-resume", "a.snap", "-resume-run", "run", "-archive", "x.db"},
		{"-verify", "run"},
		{"-resume-run", "run"},
		{"-ticks", "-1"},
	}
	for _, args := range cases {
		if _, err := parseFlags(args); err == nil {
			t.Fatalf("parseFlags(%v) accepted", args)
		}
	}
}
