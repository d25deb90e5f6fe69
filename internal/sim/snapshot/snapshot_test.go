package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"planets-engine/internal/sim/catalog"
	"planets-engine/internal/sim/session"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func playedSession(t *testing.T, id string, created time.Time) *session.Session {
	t.Helper()
	e := session.NewEngine(catalog.MustDefault(), nil)
	s := e.New(session.Params{ID: id}, created)

	s, err := e.SetScienceShipAuto(s, s.ScienceShips[0].ID, true)
	if err != nil {
		t.Fatalf("SetScienceShipAuto: %v", err)
	}
	s, err = e.BeginResearch(s, "engineering", "orbital-engineering")
	if err != nil {
		t.Fatalf("BeginResearch: %v", err)
	}
	s, _ = e.AdvanceTicks(s, 30)
	return s
}

func TestRoundTripPreservesDigest(t *testing.T) {
	s := playedSession(t, "round-trip", epoch)

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, h, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Version != FormatVersion || h.SessionID != "round-trip" || h.Tick != 30 || h.CatalogDigest != s.CatalogDigest {
		t.Fatalf("header = %+v", h)
	}

	want, _ := Digest(s)
	have, _ := Digest(got)
	if have != want {
		t.Fatalf("digest after round trip = %s, want %s", have, want)
	}
}

func TestReplaysShareDigest(t *testing.T) {
	a := playedSession(t, "a", epoch)
	b := playedSession(t, "b", epoch.Add(time.Hour))

	da, _ := Digest(a)
	db, _ := Digest(b)
	if da != db {
		t.Fatalf("replay digests differ: %s vs %s", da, db)
	}

	e := session.NewEngine(catalog.MustDefault(), nil)
	c, _ := e.AdvanceTicks(b, 1)
	if dc, _ := Digest(c); dc == db {
		t.Fatal("one more tick left the digest unchanged")
	}
}

func TestResumedSessionContinuesIdentically(t *testing.T) {
	e := session.NewEngine(catalog.MustDefault(), nil)
	s := playedSession(t, "resume", epoch)

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resumed, _, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	live, _ := e.AdvanceTicks(s, 20)
	replayed, _ := e.AdvanceTicks(resumed, 20)
	dl, _ := Digest(live)
	dr, _ := Digest(replayed)
	if dl != dr {
		t.Fatalf("resumed session diverged: %s vs %s", dr, dl)
	}
}

func TestFileRoundTrip(t *testing.T) {
	s := playedSession(t, "file", epoch)
	path := filepath.Join(t.TempDir(), "snapshots", "file.zst")

	if err := WriteFile(path, s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, h, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.ID != "file" || h.Tick != s.Clock.Tick {
		t.Fatalf("read session %q at tick %d", got.ID, h.Tick)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	enc.Write([]byte(`{"version":99}` + "\n{}\n"))
	enc.Close()

	if _, _, err := Unmarshal(buf.Bytes()); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}
