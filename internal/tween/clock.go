package tween

import (
	"context"
	"time"
)

// Clock paces a timeline. Next blocks until the next frame and returns the
// time elapsed since the previous one.
type Clock interface {
	Next(ctx context.Context) (time.Duration, error)
}

// TickerClock is a wall clock that produces frames at a fixed interval.
type TickerClock struct {
	ticker *time.Ticker
	last   time.Time
}

// NewTickerClock starts a clock at the given frame interval. Stop it when
// the timeline finishes.
func NewTickerClock(interval time.Duration) *TickerClock {
	return &TickerClock{
		ticker: time.NewTicker(interval),
		last:   time.Now(),
	}
}

func (c *TickerClock) Next(ctx context.Context) (time.Duration, error) {
	select {
	case now := <-c.ticker.C:
		dt := now.Sub(c.last)
		c.last = now
		return dt, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Stop releases the ticker.
func (c *TickerClock) Stop() {
	c.ticker.Stop()
}

// StepClock returns a fixed step immediately. It makes timelines
// deterministic in tests and in offline rendering.
type StepClock struct {
	Step time.Duration
}

func (c StepClock) Next(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.Step, nil
}

// ClockFactory makes a fresh clock for one timeline run.
type ClockFactory func() (Clock, func())

// RealTime returns a factory of ticker clocks at the given interval.
func RealTime(interval time.Duration) ClockFactory {
	return func() (Clock, func()) {
		c := NewTickerClock(interval)
		return c, c.Stop
	}
}

// Stepped returns a factory of step clocks.
func Stepped(step time.Duration) ClockFactory {
	return func() (Clock, func()) {
		return StepClock{Step: step}, func() {}
	}
}
