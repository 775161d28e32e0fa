// Package slide moves the camera between slides and applies each slide's
// layer set once the camera has arrived.
package slide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/scene"
)

var (
	ErrStale      = errors.New("superseded by a newer slide transition")
	ErrCameraMove = errors.New("camera move failed")
	ErrSettle     = errors.New("layer view failed to settle")
)

// Camera moves the view. GoTo returns once the view has arrived.
type Camera interface {
	GoTo(ctx context.Context, vp deck.Viewpoint) error
}

// LayerView is the rendered counterpart of a layer.
type LayerView interface {
	LayerID() string
	// WhenNotUpdating returns once the view has finished loading.
	WhenNotUpdating(ctx context.Context) error
}

// ViewSource lists the layer views currently rendered.
type ViewSource interface {
	LayerViews() []LayerView
}

// Mode selects how a slide's layer set is applied.
type Mode string

const (
	// ModeVisibility shows exactly the listed layers.
	ModeVisibility Mode = "visibility"
	// ModeDim keeps every layer visible and dims the unlisted ones that
	// have an opacity channel.
	ModeDim Mode = "dim"
)

// Config tunes a Controller.
type Config struct {
	Mode          Mode
	DimOpacity    float64
	CameraTimeout time.Duration // zero waits as long as ctx allows
	SettleTimeout time.Duration
}

// Controller runs slide transitions. The most recent GoToSlide wins; older
// calls that are still waiting on the camera end with ErrStale.
type Controller struct {
	camera Camera
	views  ViewSource
	scene  *scene.Scene
	cfg    Config

	mu  sync.Mutex
	gen uint64
}

// NewController creates a controller.
func NewController(camera Camera, views ViewSource, sc *scene.Scene, cfg Config) *Controller {
	if cfg.Mode == "" {
		cfg.Mode = ModeVisibility
	}
	if cfg.DimOpacity <= 0 || cfg.DimOpacity > 1 {
		cfg.DimOpacity = 0.1
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 10 * time.Second
	}
	return &Controller{camera: camera, views: views, scene: sc, cfg: cfg}
}

// Mode returns the transition mode in use.
func (c *Controller) Mode() Mode {
	return c.cfg.Mode
}

// GoToSlide moves the camera to s, applies its layer set and waits for the
// layer views to settle.
func (c *Controller) GoToSlide(ctx context.Context, s deck.Slide) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if err := c.moveCamera(ctx, s.Viewpoint); err != nil {
		return fmt.Errorf("%w: slide %s: %w", ErrCameraMove, s.ID, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		slog.Debug("slide transition superseded", "slide", s.ID)
		return ErrStale
	}
	c.scene.UpdateManaged(func(l *scene.LayerState) {
		c.apply(s, l)
	})
	c.mu.Unlock()

	if err := c.settle(ctx); err != nil {
		return err
	}
	slog.Info("slide shown", "slide", s.ID, "mode", c.cfg.Mode)
	return nil
}

func (c *Controller) moveCamera(ctx context.Context, vp deck.Viewpoint) error {
	if c.cfg.CameraTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CameraTimeout)
		defer cancel()
	}
	return c.camera.GoTo(ctx, vp)
}

func (c *Controller) apply(s deck.Slide, l *scene.LayerState) {
	listed := s.Shows(l.ID)
	if c.cfg.Mode == ModeDim && l.HasOpacity {
		l.Visible = true
		if listed {
			l.Opacity = 1
		} else {
			l.Opacity = c.cfg.DimOpacity
		}
		return
	}
	l.Visible = listed
}

// settle waits for every layer view. A view that does not settle within
// SettleTimeout is logged and treated as settled.
func (c *Controller) settle(ctx context.Context) error {
	var g errgroup.Group
	for _, v := range c.views.LayerViews() {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(ctx, c.cfg.SettleTimeout)
			defer cancel()

			err := v.WhenNotUpdating(wctx)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				slog.Warn("layer view did not settle", "layer", v.LayerID(), "timeout", c.cfg.SettleTimeout)
				return nil
			default:
				slog.Error("layer view settle", "error", err, "layer", v.LayerID())
				return fmt.Errorf("%w: layer %s: %w", ErrSettle, v.LayerID(), err)
			}
		})
	}
	return g.Wait()
}
