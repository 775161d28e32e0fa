// Package sequencer runs the presentation script: intro, before, the
// boundary reveal, the mask fade and the after slide. One run is active at
// a time; starting another cancels it.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/reveal"
	"github.com/scenereveal/backend-go/internal/typeid"
)

// SlideMover is the slide transition controller.
type SlideMover interface {
	GoToSlide(ctx context.Context, s deck.Slide) error
}

// Animator is the boundary reveal animator.
type Animator interface {
	RevealPath(ctx context.Context, waypoints []geometry.Point, total time.Duration) error
	FadeMask(ctx context.Context) error
	Clear()
}

// Masker toggles the masked buildings.
type Masker interface {
	SetMaskedVisibility(show bool)
}

// Deps are the collaborators a sequencer drives.
type Deps struct {
	Deck      *deck.Deck
	Slides    SlideMover
	Animator  Animator
	Masker    Masker
	Highlight *graphic.Layer
}

// Config tunes a Sequencer.
type Config struct {
	MaskAnimationDuration time.Duration
	// RunTimeout bounds the active time of a run; time spent paused does
	// not count. Zero means unbounded.
	RunTimeout time.Duration
}

var errRunTimeout = fmt.Errorf("run timeout: %w", context.DeadlineExceeded)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// State describes the latest run.
type State struct {
	RunID         string     `json:"runId,omitempty"`
	Status        Status     `json:"status"`
	Paused        bool       `json:"paused"`
	Stages        []string   `json:"stages,omitempty"`
	Current       string     `json:"current,omitempty"`
	LastCompleted string     `json:"lastCompleted,omitempty"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"startedAt,omitzero"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// Sequencer runs the script against its dependencies.
type Sequencer struct {
	deps Deps
	cfg  Config

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	paused bool
	resume chan struct{}
	state  State
}

// New creates an idle sequencer.
func New(deps Deps, cfg Config) *Sequencer {
	if cfg.MaskAnimationDuration <= 0 {
		cfg.MaskAnimationDuration = 2 * time.Second
	}
	return &Sequencer{deps: deps, cfg: cfg, state: State{Status: StatusIdle}}
}

// Run plays the whole script and blocks until it ends.
func (s *Sequencer) Run(ctx context.Context) error {
	return s.run(ctx, Stages)
}

// RunFrom plays the script starting at stage.
func (s *Sequencer) RunFrom(ctx context.Context, stage Stage) error {
	stages, err := From(stage)
	if err != nil {
		return err
	}
	return s.run(ctx, stages)
}

// Show plays a single stage.
func (s *Sequencer) Show(ctx context.Context, stage Stage) error {
	if _, err := From(stage); err != nil {
		return err
	}
	return s.run(ctx, []Stage{stage})
}

// Start launches a run of stages in the background and returns its id
// once the run is registered. Errors end up in State.
func (s *Sequencer) Start(stages []Stage) string {
	ready := make(chan string, 1)
	go func() {
		if err := s.run(context.Background(), stages, ready); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("presentation run ended", "error", err)
		}
	}()
	return <-ready
}

// Cancel stops the active run and waits for it to unwind. It returns
// ErrNotRunning when nothing is running.
func (s *Sequencer) Cancel() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done
	return nil
}

// Pause holds the active run before its next stage. The stage in progress
// plays to its end.
func (s *Sequencer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ErrNotRunning
	}
	if !s.paused {
		s.paused = true
		s.resume = make(chan struct{})
		s.state.Paused = true
	}
	return nil
}

// Resume lets a paused run continue.
func (s *Sequencer) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ErrNotRunning
	}
	s.unpauseLocked()
	return nil
}

// State returns a snapshot of the latest run.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Stages = append([]string(nil), s.state.Stages...)
	return st
}

func (s *Sequencer) unpauseLocked() {
	if s.paused {
		s.paused = false
		close(s.resume)
		s.state.Paused = false
	}
}

func (s *Sequencer) run(parent context.Context, stages []Stage, ready ...chan<- string) error {
	ctx, cancelCause := context.WithCancelCause(parent)
	cancel := func() { cancelCause(nil) }
	var budget *runBudget
	if s.cfg.RunTimeout > 0 {
		budget = newRunBudget(s.cfg.RunTimeout, func() { cancelCause(errRunTimeout) })
	}
	defer budget.stop()
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	prev := s.done
	done := make(chan struct{})
	defer close(done)
	s.gen++
	gen := s.gen
	s.cancel, s.done = cancel, done
	s.unpauseLocked()
	runID := typeid.NewRunID()
	s.mu.Unlock()

	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.String()
	}
	fail := func(err error) error {
		if errors.Is(context.Cause(ctx), errRunTimeout) {
			err = fmt.Errorf("%w: %v", errRunTimeout, err)
		}
		return s.finish(gen, err)
	}

	s.update(gen, func(state *State) {
		*state = State{RunID: runID, Status: StatusRunning, Stages: names, StartedAt: time.Now()}
	})
	for _, r := range ready {
		r <- runID
	}

	// The superseded run may still be detaching its graphics.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}
	slog.Info("presentation started", "run", runID, "stages", len(stages))

	for _, st := range stages {
		if err := s.waitResumed(ctx, budget); err != nil {
			return fail(err)
		}
		s.update(gen, func(state *State) { state.Current = st.String() })

		if err := s.step(ctx, st); err != nil {
			return fail(fmt.Errorf("stage %s: %w", st, err))
		}
		s.update(gen, func(state *State) {
			state.Current = ""
			state.LastCompleted = st.String()
		})
	}
	return s.finish(gen, nil)
}

// runBudget fires expire once a run has been active for its timeout.
// Only the run goroutine touches it.
type runBudget struct {
	timer   *time.Timer
	left    time.Duration
	since   time.Time
	stopped bool
}

func newRunBudget(d time.Duration, expire func()) *runBudget {
	return &runBudget{timer: time.AfterFunc(d, expire), left: d, since: time.Now()}
}

func (b *runBudget) pause() {
	if b == nil {
		return
	}
	if b.timer.Stop() {
		b.left -= time.Since(b.since)
		b.stopped = true
	}
}

func (b *runBudget) resume() {
	if b == nil || !b.stopped {
		return
	}
	b.stopped = false
	b.since = time.Now()
	b.timer.Reset(b.left)
}

func (b *runBudget) stop() {
	if b != nil {
		b.timer.Stop()
	}
}

func (s *Sequencer) waitResumed(ctx context.Context, budget *runBudget) error {
	s.mu.Lock()
	paused, resume := s.paused, s.resume
	s.mu.Unlock()
	if !paused {
		return ctx.Err()
	}
	budget.pause()
	defer budget.resume()
	select {
	case <-resume:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) step(ctx context.Context, st Stage) error {
	d := s.deps
	switch st {
	case StageIntro:
		d.Animator.Clear()
		if d.Highlight != nil {
			d.Highlight.RemoveAll()
		}
		return d.Slides.GoToSlide(ctx, d.Deck.Slides[deck.SlideIntro])
	case StageBefore:
		if err := d.Slides.GoToSlide(ctx, d.Deck.Slides[deck.SlideBefore]); err != nil {
			return err
		}
		d.Masker.SetMaskedVisibility(true)
		return nil
	case StageAnimatePath:
		return d.Animator.RevealPath(ctx, d.Deck.Waypoints(), s.cfg.MaskAnimationDuration)
	case StageAnimateFade:
		// A mask area without extent has no boundary to reveal, so the
		// buildings stay as they are.
		if reveal.AllocateDurations(d.Deck.Waypoints(), s.cfg.MaskAnimationDuration) == nil {
			slog.Debug("mask area has no extent, skipping fade")
			return nil
		}
		return d.Animator.FadeMask(ctx)
	case StageAfter:
		if err := d.Slides.GoToSlide(ctx, d.Deck.Slides[deck.SlideAfter]); err != nil {
			return err
		}
		d.Masker.SetMaskedVisibility(false)
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStage, int(st))
	}
}

// update applies fn to the state unless a newer run has taken over.
func (s *Sequencer) update(gen uint64, fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		fn(&s.state)
	}
}

func (s *Sequencer) finish(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return err
	}
	now := time.Now()
	s.state.FinishedAt = &now
	s.state.Current = ""
	s.state.Paused = false
	s.paused = false
	s.cancel, s.done = nil, nil

	switch {
	case err == nil:
		s.state.Status = StatusDone
		slog.Info("presentation finished", "run", s.state.RunID)
	case errors.Is(err, context.Canceled):
		s.state.Status = StatusCancelled
		s.state.Error = err.Error()
		slog.Info("presentation cancelled", "run", s.state.RunID)
	default:
		s.state.Status = StatusFailed
		s.state.Error = err.Error()
		slog.Error("presentation failed", "error", err, "run", s.state.RunID)
	}
	return err
}
