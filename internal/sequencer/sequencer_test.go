package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

// script records every call the sequencer makes, in order.
type script struct {
	mu  sync.Mutex
	log []string

	slideErr error
	// pathGate, when set, blocks RevealPath until it is closed or ctx ends.
	pathGate chan struct{}
	entered  chan struct{}
}

func (s *script) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, fmt.Sprintf(format, args...))
}

func (s *script) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *script) GoToSlide(_ context.Context, sl deck.Slide) error {
	s.record("slide %s", sl.ID)
	return s.slideErr
}

func (s *script) RevealPath(ctx context.Context, wps []geometry.Point, total time.Duration) error {
	s.mu.Lock()
	gate := s.pathGate
	s.mu.Unlock()

	s.record("path %d %s", len(wps), total)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		s.record("path cancelled")
		return ctx.Err()
	}
}

func (s *script) FadeMask(context.Context) error {
	s.record("fade")
	return nil
}

func (s *script) Clear() { s.record("clear") }

func (s *script) SetMaskedVisibility(show bool) { s.record("masked %t", show) }

func newSequencer(sc *script, cfg Config) (*Sequencer, *graphic.Layer) {
	highlight := graphic.NewLayer("highlight")
	highlight.Add(graphic.New(graphic.Symbol{Kind: graphic.KindPath}))
	return New(Deps{
		Deck:      deck.Sample(),
		Slides:    sc,
		Animator:  sc,
		Masker:    sc,
		Highlight: highlight,
	}, cfg), highlight
}

func TestRun(t *testing.T) {
	sc := &script{}
	seq, highlight := newSequencer(sc, Config{})

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, []string{
		"clear",
		"slide intro",
		"slide before",
		"masked true",
		"path 8 2s",
		"fade",
		"slide after",
		"masked false",
	}, sc.calls())
	assert.Zero(t, highlight.Len())

	st := seq.State()
	assert.Equal(t, StatusDone, st.Status)
	assert.Equal(t, "after", st.LastCompleted)
	assert.NotEmpty(t, st.RunID)
	assert.NotNil(t, st.FinishedAt)
}

func TestRunFrom(t *testing.T) {
	sc := &script{}
	seq, _ := newSequencer(sc, Config{MaskAnimationDuration: time.Second})

	require.NoError(t, seq.RunFrom(context.Background(), StageAnimatePath))
	assert.Equal(t, []string{"path 8 1s", "fade", "slide after", "masked false"}, sc.calls())
}

func TestRunSkipsFadeForFlatMaskArea(t *testing.T) {
	sc := &script{}
	d := deck.Sample()
	d.Mask.Area = [][2]float64{{5, 5}, {5, 5}, {5, 5}}
	seq := New(Deps{Deck: d, Slides: sc, Animator: sc, Masker: sc}, Config{})

	require.NoError(t, seq.RunFrom(context.Background(), StageAnimatePath))
	assert.Equal(t, []string{"path 3 2s", "slide after", "masked false"}, sc.calls())
	assert.Equal(t, StatusDone, seq.State().Status)
}

func TestShow(t *testing.T) {
	sc := &script{}
	seq, _ := newSequencer(sc, Config{})

	require.NoError(t, seq.Show(context.Background(), StageBefore))
	assert.Equal(t, []string{"slide before", "masked true"}, sc.calls())

	require.ErrorIs(t, seq.Show(context.Background(), Stage(42)), ErrUnknownStage)
}

func TestFailingStageAborts(t *testing.T) {
	boom := errors.New("camera lost")
	sc := &script{slideErr: boom}
	seq, _ := newSequencer(sc, Config{})

	err := seq.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"clear", "slide intro"}, sc.calls())

	st := seq.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Empty(t, st.LastCompleted)
	assert.Contains(t, st.Error, "camera lost")
}

func TestNewRunCancelsPrevious(t *testing.T) {
	sc := &script{pathGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	seq, _ := newSequencer(sc, Config{})

	first := make(chan error, 1)
	go func() { first <- seq.RunFrom(context.Background(), StageAnimatePath) }()
	<-sc.entered

	sc.mu.Lock()
	sc.pathGate = nil
	sc.mu.Unlock()
	require.NoError(t, seq.Show(context.Background(), StageAfter))
	require.ErrorIs(t, <-first, context.Canceled)

	calls := sc.calls()
	assert.Equal(t, []string{"path 8 2s", "path cancelled", "slide after", "masked false"}, calls)
	assert.Equal(t, StatusDone, seq.State().Status)
	assert.Equal(t, []string{"after"}, seq.State().Stages)
}

func TestCancel(t *testing.T) {
	sc := &script{pathGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	seq, _ := newSequencer(sc, Config{})
	require.ErrorIs(t, seq.Cancel(), ErrNotRunning)

	id := seq.Start(Stages)
	<-sc.entered
	require.NoError(t, seq.Cancel())

	st := seq.State()
	assert.Equal(t, id, st.RunID)
	assert.Equal(t, StatusCancelled, st.Status)
	assert.Equal(t, "before", st.LastCompleted)
	assert.NotContains(t, sc.calls(), "fade")
}

func TestPauseResume(t *testing.T) {
	sc := &script{pathGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	seq, _ := newSequencer(sc, Config{})
	require.ErrorIs(t, seq.Pause(), ErrNotRunning)

	done := make(chan error, 1)
	go func() { done <- seq.RunFrom(context.Background(), StageAnimatePath) }()
	<-sc.entered

	require.NoError(t, seq.Pause())
	close(sc.pathGate)

	require.Eventually(t, func() bool {
		return seq.State().LastCompleted == "animate-path"
	}, time.Second, time.Millisecond)
	assert.True(t, seq.State().Paused)
	assert.NotContains(t, sc.calls(), "fade")

	require.NoError(t, seq.Resume())
	require.NoError(t, <-done)
	assert.Contains(t, sc.calls(), "fade")
	assert.False(t, seq.State().Paused)
}

func TestRunTimeout(t *testing.T) {
	sc := &script{pathGate: make(chan struct{})}
	seq, _ := newSequencer(sc, Config{RunTimeout: 20 * time.Millisecond})

	err := seq.RunFrom(context.Background(), StageAnimatePath)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusFailed, seq.State().Status)
}

func TestPausedTimeDoesNotCountTowardRunTimeout(t *testing.T) {
	sc := &script{pathGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	seq, _ := newSequencer(sc, Config{RunTimeout: 100 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- seq.RunFrom(context.Background(), StageAnimatePath) }()
	<-sc.entered

	require.NoError(t, seq.Pause())
	close(sc.pathGate)
	require.Eventually(t, func() bool {
		return seq.State().LastCompleted == "animate-path"
	}, time.Second, time.Millisecond)

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, StatusRunning, seq.State().Status)

	require.NoError(t, seq.Resume())
	require.NoError(t, <-done)
	assert.Equal(t, StatusDone, seq.State().Status)
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages {
		got, err := ParseStage(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStage("outro")
	require.ErrorIs(t, err, ErrUnknownStage)
}
