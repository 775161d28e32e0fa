// Package reveal draws the boundary of the replaced area segment by
// segment, then flashes the area itself while the buildings are swapped.
package reveal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/tween"
)

// Masker switches the display between the original and the planned
// buildings of the masked area.
type Masker interface {
	SetMaskedVisibility(show bool)
}

// Config tunes an Animator.
type Config struct {
	// LeadIn is the pause before the boundary starts drawing.
	LeadIn time.Duration

	PeakAlpha float64
	Rise      time.Duration
	Hold      time.Duration
	Fall      time.Duration
	Easing    tween.Easing

	Color        graphic.Color
	PathSize     float64
	OutlineWidth float64

	Clock tween.ClockFactory
}

// DefaultConfig returns the timing of the original presentation.
func DefaultConfig() Config {
	return Config{
		LeadIn:       time.Second,
		PeakAlpha:    0.6,
		Rise:         1500 * time.Millisecond,
		Hold:         500 * time.Millisecond,
		Fall:         500 * time.Millisecond,
		Easing:       tween.EaseInOutExpo,
		Color:        graphic.Color{R: 226, G: 119, B: 40, A: 1},
		PathSize:     6,
		OutlineWidth: 6,
		Clock:        tween.RealTime(16 * time.Millisecond),
	}
}

// Animator owns at most one path graphic and one mask graphic on its
// layer. Every visual change replaces the owned graphic with a new
// snapshot, so the layer never holds two of either.
type Animator struct {
	layer  *graphic.Layer
	masker Masker
	mask   geometry.Polygon
	cfg    Config

	mu     sync.Mutex
	pathID string
	maskID string
}

// NewAnimator creates an animator drawing on layer. mask is the area that
// fades in and out.
func NewAnimator(layer *graphic.Layer, masker Masker, mask geometry.Polygon, cfg Config) *Animator {
	if cfg.Clock == nil {
		cfg.Clock = tween.RealTime(16 * time.Millisecond)
	}
	if cfg.Easing == "" {
		cfg.Easing = tween.EaseInOutExpo
	}
	return &Animator{layer: layer, masker: masker, mask: mask, cfg: cfg}
}

// Reveal draws the boundary and then fades the mask. Degenerate input
// completes at once without touching the layer or the masker.
func (a *Animator) Reveal(ctx context.Context, waypoints []geometry.Point, total time.Duration) error {
	if AllocateDurations(waypoints, total) == nil {
		slog.Debug("nothing to reveal", "waypoints", len(waypoints))
		return nil
	}
	if err := a.RevealPath(ctx, waypoints, total); err != nil {
		return err
	}
	return a.FadeMask(ctx)
}

// RevealPath draws the path through waypoints over total, after the
// configured lead-in. The path graphic stays on the layer afterwards.
// Degenerate input draws nothing. When ctx ends first the path is removed
// and the context error is returned.
func (a *Animator) RevealPath(ctx context.Context, waypoints []geometry.Point, total time.Duration) error {
	durations := AllocateDurations(waypoints, total)
	if durations == nil {
		slog.Debug("nothing to reveal", "waypoints", len(waypoints))
		return nil
	}
	a.detachPath()

	sr := waypoints[0].SR
	prefix := []geometry.Point{waypoints[0]}

	tl := tween.NewTimeline().Add(tween.Segment{Delay: a.cfg.LeadIn})
	for i, d := range durations {
		from, to := waypoints[i], waypoints[i+1]
		tl.Add(tween.Segment{
			Duration: d,
			Easing:   tween.Linear,
			Update: func(p float64) {
				pts := make([]geometry.Point, len(prefix), len(prefix)+1)
				copy(pts, prefix)
				a.drawPath(geometry.NewPolyline(sr, append(pts, geometry.Lerp(from, to, p))))
			},
			Complete: func() {
				prefix = append(prefix, to)
			},
		})
	}

	if err := a.play(ctx, tl); err != nil {
		a.detachPath()
		return fmt.Errorf("reveal path: %w", err)
	}
	return nil
}

// FadeMask attaches the mask at alpha 0, raises it to the peak, holds, and
// lowers it back to 0 before detaching it. The masked buildings are
// swapped for the planned ones once, when the peak is first reached.
func (a *Animator) FadeMask(ctx context.Context) error {
	peak := a.cfg.PeakAlpha
	a.drawMask(0)

	tl := tween.NewTimeline().
		Add(tween.Segment{
			Duration: a.cfg.Rise,
			Easing:   a.cfg.Easing,
			Update:   func(p float64) { a.drawMask(peak * p) },
			Complete: func() {
				if a.masker != nil {
					a.masker.SetMaskedVisibility(false)
				}
			},
		}).
		Add(tween.Segment{
			Duration: a.cfg.Hold,
			Update:   func(float64) { a.drawMask(peak) },
		}).
		Add(tween.Segment{
			Duration: a.cfg.Fall,
			Easing:   a.cfg.Easing,
			Update:   func(p float64) { a.drawMask(peak * (1 - p)) },
			Complete: a.detachMask,
		})

	if err := a.play(ctx, tl); err != nil {
		a.detachMask()
		return fmt.Errorf("fade mask: %w", err)
	}
	return nil
}

// Clear removes every graphic the animator owns.
func (a *Animator) Clear() {
	a.detachPath()
	a.detachMask()
}

func (a *Animator) play(ctx context.Context, tl *tween.Timeline) error {
	clock, stop := a.cfg.Clock()
	defer stop()
	return tl.Play(ctx, clock)
}

func (a *Animator) drawPath(line geometry.Polyline) {
	g := graphic.NewPolyline(line, graphic.Symbol{
		Kind:  graphic.KindPath,
		Color: a.cfg.Color,
		Size:  a.cfg.PathSize,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.layer.Replace(a.pathID, g)
	a.pathID = g.ID
}

func (a *Animator) drawMask(alpha float64) {
	alpha = min(max(alpha, 0), a.cfg.PeakAlpha)
	outline := a.cfg.Color
	g := graphic.NewPolygon(a.mask, graphic.Symbol{
		Kind:         graphic.KindFill,
		Color:        a.cfg.Color.WithAlpha(alpha),
		OutlineColor: &outline,
		OutlineWidth: a.cfg.OutlineWidth,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.layer.Replace(a.maskID, g)
	a.maskID = g.ID
}

func (a *Animator) detachPath() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pathID != "" {
		a.layer.Remove(a.pathID)
		a.pathID = ""
	}
}

func (a *Animator) detachMask() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maskID != "" {
		a.layer.Remove(a.maskID)
		a.maskID = ""
	}
}
