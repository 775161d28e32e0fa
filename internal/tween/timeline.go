// Package tween drives time-based animation: easing curves, sequential
// timelines of tweens and the clocks that advance them.
package tween

import (
	"context"
	"time"
)

// Segment is one entry of a timeline. It waits Delay, then runs for
// Duration, reporting eased progress to Update on every step. Complete runs
// once, right after the final Update(1).
type Segment struct {
	Delay    time.Duration
	Duration time.Duration
	Easing   Easing
	Update   func(progress float64)
	Complete func()
}

func (s Segment) total() time.Duration {
	return s.Delay + s.Duration
}

// Timeline runs segments strictly one after another.
type Timeline struct {
	segments []Segment
	index    int
	elapsed  time.Duration // time spent in the current segment

	// OnUpdate runs after every step in which a segment reported progress.
	OnUpdate func()
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Add appends a segment and returns the timeline for chaining.
func (tl *Timeline) Add(s Segment) *Timeline {
	tl.segments = append(tl.segments, s)
	return tl
}

// Len returns the number of segments.
func (tl *Timeline) Len() int {
	return len(tl.segments)
}

// Duration is the sum of every segment's delay and duration.
func (tl *Timeline) Duration() time.Duration {
	var d time.Duration
	for _, s := range tl.segments {
		d += s.total()
	}
	return d
}

// Done reports whether every segment completed.
func (tl *Timeline) Done() bool {
	return tl.index >= len(tl.segments)
}

// Advance moves the timeline forward by dt. A large step completes every
// segment it covers, in order, each with a final Update(1). It reports
// whether the timeline is done.
func (tl *Timeline) Advance(dt time.Duration) bool {
	remaining := dt
	updated := false

	for tl.index < len(tl.segments) {
		seg := tl.segments[tl.index]
		need := seg.total() - tl.elapsed

		if remaining < need {
			if remaining == 0 {
				break
			}
			tl.elapsed += remaining
			remaining = 0
			if tl.elapsed > seg.Delay && seg.Update != nil {
				p := float64(tl.elapsed-seg.Delay) / float64(seg.Duration)
				seg.Update(Ease(seg.Easing, p))
				updated = true
			}
			break
		}

		remaining -= need
		if seg.Update != nil {
			seg.Update(1)
			updated = true
		}
		if seg.Complete != nil {
			seg.Complete()
		}
		tl.index++
		tl.elapsed = 0
	}

	if updated && tl.OnUpdate != nil {
		tl.OnUpdate()
	}
	return tl.Done()
}

// Play advances the timeline from clock until it is done or ctx ends.
func (tl *Timeline) Play(ctx context.Context, clock Clock) error {
	if tl.Done() {
		return nil
	}
	// Zero-length leading segments complete without waiting for a frame.
	if tl.Advance(0) {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		dt, err := clock.Next(ctx)
		if err != nil {
			return err
		}
		if tl.Advance(dt) {
			return nil
		}
	}
}
