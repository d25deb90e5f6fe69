// Package clock converts wall-clock time into whole simulation ticks.
package clock

import (
	"errors"
	"math"
	"time"
)

const (
	// MinTickDurationMs caps the tick rate at roughly 60Hz.
	MinTickDurationMs = 16
	// MaxSpeedMultiplier bounds how fast a clock may run relative to wall time.
	MaxSpeedMultiplier = 1000
	// MaxCatchUpTicks bounds the ticks a single Advance may report. Anything
	// beyond it stays in ElapsedMs for later calls.
	MaxCatchUpTicks = 1 << 16
)

var ErrInvalidSpeed = errors.New("clock: speed multiplier must be a positive finite number no greater than 1000")

type Clock struct {
	Tick            int64      `json:"tick"`
	ElapsedMs       float64    `json:"elapsed_ms"`
	SpeedMultiplier float64    `json:"speed_multiplier"`
	IsRunning       bool       `json:"is_running"`
	LastUpdate      *time.Time `json:"last_update"`
}

// New returns a stopped clock at tick zero running at normal speed.
func New() Clock {
	return Clock{SpeedMultiplier: 1}
}

// TickDurationMs derives the tick length from the configured rate.
func TickDurationMs(ticksPerSecond float64) float64 {
	if ticksPerSecond <= 0 || math.IsNaN(ticksPerSecond) || math.IsInf(ticksPerSecond, 0) {
		return 1000
	}
	return math.Max(MinTickDurationMs, math.Round(1000/ticksPerSecond))
}

// Advance accumulates elapsedMs scaled by the speed multiplier and returns
// the clock together with the number of whole ticks it covers, at most
// MaxCatchUpTicks. Repeating a call with the same now is a no-op, and a
// stopped clock never ticks.
func Advance(c Clock, elapsedMs, tickDurationMs float64, now time.Time) (Clock, int) {
	return AdvanceWithin(c, elapsedMs, tickDurationMs, now, MaxCatchUpTicks)
}

// AdvanceWithin is Advance with a caller supplied tick ceiling. Time that
// does not fit under maxTicks is kept in ElapsedMs so later calls drain it.
func AdvanceWithin(c Clock, elapsedMs, tickDurationMs float64, now time.Time, maxTicks int) (Clock, int) {
	if c.LastUpdate != nil && c.LastUpdate.Equal(now) {
		return c, 0
	}
	stamp := now
	c.LastUpdate = &stamp

	if !c.IsRunning || tickDurationMs <= 0 || maxTicks <= 0 {
		return c, 0
	}
	if elapsedMs < 0 || math.IsNaN(elapsedMs) || math.IsInf(elapsedMs, 0) {
		elapsedMs = 0
	}

	acc := c.ElapsedMs + elapsedMs*c.SpeedMultiplier
	switch {
	case math.IsInf(acc, 1):
		acc = math.MaxFloat64
	case math.IsNaN(acc) || acc < 0:
		acc = 0
	}
	whole := math.Floor(acc / tickDurationMs)
	if whole <= 0 {
		c.ElapsedMs = acc
		return c, 0
	}
	limit := int64(maxTicks)
	if whole < float64(limit) {
		limit = int64(whole)
	}
	c.ElapsedMs = acc - float64(limit)*tickDurationMs
	c.Tick += limit
	return c, int(limit)
}

func SetRunning(c Clock, running bool) Clock {
	c.IsRunning = running
	return c
}

// SetSpeed rejects multipliers outside (0, MaxSpeedMultiplier].
func SetSpeed(c Clock, multiplier float64) (Clock, error) {
	if multiplier <= 0 || multiplier > MaxSpeedMultiplier || math.IsNaN(multiplier) {
		return c, ErrInvalidSpeed
	}
	c.SpeedMultiplier = multiplier
	return c, nil
}
