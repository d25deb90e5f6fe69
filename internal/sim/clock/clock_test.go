package clock

import (
	"math"
	"testing"
	"time"
)

func TestTickDurationMs(t *testing.T) {
	cases := []struct {
		tps  float64
		want float64
	}{
		{1, 1000},
		{4, 250},
		{3, 333},
		{120, MinTickDurationMs},
		{0, 1000},
	}
	for _, tc := range cases {
		if got := TickDurationMs(tc.tps); got != tc.want {
			t.Fatalf("TickDurationMs(%v) = %v, want %v", tc.tps, got, tc.want)
		}
	}
}

func TestAdvanceCatchesUpWholeTicks(t *testing.T) {
	c := SetRunning(New(), true)
	base := time.Unix(1_700_000_000, 0)

	c, ticks := Advance(c, 2500, 1000, base)
	if ticks != 2 || c.Tick != 2 {
		t.Fatalf("ticks = %d tick = %d, want 2/2", ticks, c.Tick)
	}
	if c.ElapsedMs != 500 {
		t.Fatalf("residual = %v, want 500", c.ElapsedMs)
	}
}

func TestAdvanceSameInstantIsNoop(t *testing.T) {
	c := SetRunning(New(), true)
	now := time.Unix(1_700_000_000, 0)

	c, _ = Advance(c, 1500, 1000, now)
	again, ticks := Advance(c, 1500, 1000, now)
	if ticks != 0 || again.Tick != c.Tick || again.ElapsedMs != c.ElapsedMs {
		t.Fatalf("repeat advance changed clock: %+v -> %+v", c, again)
	}
}

func TestAdvanceStoppedClockDoesNotTick(t *testing.T) {
	c := New()
	c, ticks := Advance(c, 5000, 1000, time.Unix(10, 0))
	if ticks != 0 || c.Tick != 0 || c.ElapsedMs != 0 {
		t.Fatalf("stopped clock advanced: %+v", c)
	}
}

func TestSplitAdvanceMatchesSingleCall(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	single := SetRunning(New(), true)
	single, _ = Advance(single, 7300, 250, start)

	split := SetRunning(New(), true)
	split, _ = Advance(split, 3100, 250, start)
	split, _ = Advance(split, 4200, 250, start.Add(time.Second))

	if math.Abs(float64(single.Tick-split.Tick)) > 1 {
		t.Fatalf("split tick = %d, single tick = %d", split.Tick, single.Tick)
	}
}

func TestSpeedMultiplierScalesAccumulation(t *testing.T) {
	c := SetRunning(New(), true)
	c, err := SetSpeed(c, 2)
	if err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	c, ticks := Advance(c, 1000, 1000, time.Unix(1, 0))
	if ticks != 2 {
		t.Fatalf("ticks = %d, want 2", ticks)
	}
}

func TestSetSpeedRejectsNonPositive(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		c, err := SetSpeed(New(), v)
		if err == nil {
			t.Fatalf("SetSpeed(%v) accepted", v)
		}
		if c.SpeedMultiplier != 1 {
			t.Fatalf("speed changed to %v on rejection", c.SpeedMultiplier)
		}
	}
}

func TestSetSpeedRejectsAboveMaximum(t *testing.T) {
	for _, v := range []float64{MaxSpeedMultiplier + 1, 1e300} {
		if _, err := SetSpeed(New(), v); err != ErrInvalidSpeed {
			t.Fatalf("SetSpeed(%v) = %v, want ErrInvalidSpeed", v, err)
		}
	}
	c, err := SetSpeed(New(), MaxSpeedMultiplier)
	if err != nil || c.SpeedMultiplier != MaxSpeedMultiplier {
		t.Fatalf("SetSpeed(max) = %v, speed %v", err, c.SpeedMultiplier)
	}
}

func TestAdvanceSaturatesHugeBacklog(t *testing.T) {
	c := SetRunning(New(), true)
	c.SpeedMultiplier = 1e300

	c, ticks := Advance(c, 1e6, MinTickDurationMs, time.Unix(1, 0))
	if ticks != MaxCatchUpTicks {
		t.Fatalf("ticks = %d, want %d", ticks, MaxCatchUpTicks)
	}
	if c.Tick != MaxCatchUpTicks {
		t.Fatalf("tick = %d, want %d", c.Tick, MaxCatchUpTicks)
	}
	if c.ElapsedMs <= 0 {
		t.Fatalf("residual = %v, want the untaken backlog", c.ElapsedMs)
	}
}

func TestAdvanceWithinKeepsRemainder(t *testing.T) {
	c := SetRunning(New(), true)
	base := time.Unix(1_700_000_000, 0)

	c, ticks := AdvanceWithin(c, 10_500, 1000, base, 4)
	if ticks != 4 || c.Tick != 4 {
		t.Fatalf("ticks = %d tick = %d, want 4/4", ticks, c.Tick)
	}
	if c.ElapsedMs != 6500 {
		t.Fatalf("residual = %v, want 6500", c.ElapsedMs)
	}

	c, ticks = AdvanceWithin(c, 0, 1000, base.Add(time.Millisecond), 4)
	if ticks != 4 || c.ElapsedMs != 2500 {
		t.Fatalf("ticks = %d residual = %v, want 4/2500", ticks, c.ElapsedMs)
	}
	c, ticks = AdvanceWithin(c, 0, 1000, base.Add(2*time.Millisecond), 4)
	if ticks != 2 || c.Tick != 10 || c.ElapsedMs != 500 {
		t.Fatalf("ticks = %d tick = %d residual = %v, want 2/10/500", ticks, c.Tick, c.ElapsedMs)
	}
}

func TestAdvanceIgnoresNonFiniteElapsed(t *testing.T) {
	c := SetRunning(New(), true)
	for i, v := range []float64{math.NaN(), math.Inf(1), -5} {
		var ticks int
		c, ticks = Advance(c, v, 1000, time.Unix(int64(i+1), 0))
		if ticks != 0 || c.Tick != 0 || c.ElapsedMs != 0 {
			t.Fatalf("Advance(%v) = %d ticks, clock %+v", v, ticks, c)
		}
	}
}
