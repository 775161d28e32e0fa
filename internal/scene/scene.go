// Package scene holds the display state the presentation manipulates: the
// web scene layers with their visibility, opacity and exclusion, and the
// graphics layers the application draws into.
package scene

import (
	"log/slog"
	"sync"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

// Graphics layer ids.
const (
	DrawLayerID      = "draw"
	ModelLayerID     = "models"
	HighlightLayerID = "highlight"
	SketchLayerID    = "sketch"
)

// Options configures a scene.
type Options struct {
	ExclusionMode ExclusionMode
	// FrameMargin is the distance between the planning area and the outer
	// edge of the dimmed frame drawn around it in spatial mode.
	FrameMargin float64
}

// Scene is the layer store. All methods are safe for concurrent use.
type Scene struct {
	mu        sync.RWMutex
	order     []string
	layers    map[string]*LayerState
	contentID string
	exclusion Exclusion
	observer  LayerObserver

	// masked is nil until the first SetMaskedVisibility call.
	masked *bool
	frame  string

	draw      *graphic.Layer
	models    *graphic.Layer
	highlight *graphic.Layer
	sketch    *graphic.Layer
}

// New builds the scene of a deck. The content layer is the first scene
// layer of the deck; its exclusion hides the buildings the reveal replaces.
func New(d *deck.Deck, opts Options) *Scene {
	s := &Scene{
		layers:    make(map[string]*LayerState),
		draw:      graphic.NewLayer(DrawLayerID),
		models:    graphic.NewLayer(ModelLayerID),
		highlight: graphic.NewLayer(HighlightLayerID),
		sketch:    graphic.NewLayer(SketchLayerID),
	}

	for _, l := range d.Layers {
		s.add(fromDeck(l))
		if s.contentID == "" && l.Kind == deck.LayerKindScene {
			s.contentID = l.ID
		}
	}
	s.add(graphicsLayer(DrawLayerID, "Planned buildings", RelativeToScene))
	s.add(graphicsLayer(ModelLayerID, "Imported models", RelativeToGround))
	s.add(graphicsLayer(HighlightLayerID, "Highlight", OnTheGround))
	s.add(graphicsLayer(SketchLayerID, "Sketch", OnTheGround))

	switch opts.ExclusionMode {
	case ExclusionSpatial:
		area := d.PlanningPolygon()
		s.exclusion = ExcludeWhere(area)
		frame := graphic.NewPolygon(geometry.BoundingPolygon(area, opts.FrameMargin), graphic.Symbol{
			Kind:  graphic.KindFill,
			Color: graphic.Color{A: 0.15},
		})
		s.frame = frame.ID
		s.sketch.Add(frame)
	default:
		s.exclusion = ExcludeIDs(d.Mask.ObjectIDs)
	}

	if s.contentID == "" {
		slog.Warn("deck has no scene layer, masked buildings cannot be hidden")
	}
	return s
}

func (s *Scene) add(l *LayerState) {
	s.order = append(s.order, l.ID)
	s.layers[l.ID] = l
}

// Observer watches both layer state and graphics.
type Observer interface {
	LayerObserver
	graphic.Observer
}

// SetObserver installs the observer of layer state and of every graphics
// layer.
func (s *Scene) SetObserver(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()

	for _, l := range s.GraphicsLayers() {
		l.SetObserver(o)
	}
}

// ContentLayerID returns the id of the layer the exclusion applies to.
func (s *Scene) ContentLayerID() string {
	return s.contentID
}

// Layers returns a snapshot of every layer state in drawing order.
func (s *Scene) Layers() []LayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LayerState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.layers[id])
	}
	return out
}

// Layer returns the state of one layer.
func (s *Scene) Layer(id string) (LayerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[id]
	if !ok {
		return LayerState{}, false
	}
	return *l, true
}

// ManagedLayers returns the states of the deck layers.
func (s *Scene) ManagedLayers() []LayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LayerState
	for _, id := range s.order {
		if l := s.layers[id]; l.Managed {
			out = append(out, *l)
		}
	}
	return out
}

// UpdateManaged calls fn for every managed layer under one write lock, so
// readers see either none or all of the changes. Changed layers are
// reported to the observer.
func (s *Scene) UpdateManaged(fn func(l *LayerState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		l := s.layers[id]
		if !l.Managed {
			continue
		}
		before := *l
		fn(l)
		// Identity and capabilities are not fn's to change.
		l.ID, l.Kind, l.HasOpacity, l.Managed = before.ID, before.Kind, before.HasOpacity, before.Managed
		if !l.equal(before) {
			s.notifyLocked(l)
		}
	}
}

// SetMaskedVisibility switches between showing the original buildings of
// the masked area and hiding them behind the planned overlays. A repeated
// call with the same value changes nothing.
func (s *Scene) SetMaskedVisibility(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masked != nil && *s.masked == show {
		return
	}
	s.masked = &show

	if content, ok := s.layers[s.contentID]; ok {
		if show {
			content.Exclusion = Exclusion{}
		} else {
			content.Exclusion = s.exclusion
		}
		content.Expression = content.Exclusion.Expression()
		content.Visible = true
		s.notifyLocked(content)
	}

	for _, id := range []string{DrawLayerID, ModelLayerID} {
		l := s.layers[id]
		l.Visible = !show
		s.notifyLocked(l)
	}

	if s.frame != "" {
		if g, ok := s.sketch.Get(s.frame); ok {
			next := g.Clone()
			next.Visible = !show
			s.sketch.Replace(g.ID, next)
			s.frame = next.ID
		}
	}
}

// MaskedShown reports the last value passed to SetMaskedVisibility and
// whether it was called at all.
func (s *Scene) MaskedShown() (show, set bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.masked == nil {
		return false, false
	}
	return *s.masked, true
}

// Draw is the layer of planned buildings.
func (s *Scene) Draw() *graphic.Layer { return s.draw }

// Models is the layer of imported 3D models.
func (s *Scene) Models() *graphic.Layer { return s.models }

// Highlight is the layer the reveal animation draws on.
func (s *Scene) Highlight() *graphic.Layer { return s.highlight }

// Sketch holds the planning frame.
func (s *Scene) Sketch() *graphic.Layer { return s.sketch }

// GraphicsLayers returns every application graphics layer.
func (s *Scene) GraphicsLayers() []*graphic.Layer {
	return []*graphic.Layer{s.draw, s.models, s.highlight, s.sketch}
}

// DrawLayers returns the layers height queries reduce over.
func (s *Scene) DrawLayers() []*graphic.Layer {
	return []*graphic.Layer{s.draw, s.models}
}

// GroundRelativeLayers returns the draw layers whose graphics follow the
// height of what is below them.
func (s *Scene) GroundRelativeLayers() []*graphic.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graphic.Layer
	for _, l := range s.DrawLayers() {
		if s.layers[l.ID()].Elevation == RelativeToGround {
			out = append(out, l)
		}
	}
	return out
}

// Clear removes every planned building and model.
func (s *Scene) Clear() {
	for _, l := range s.DrawLayers() {
		l.RemoveAll()
	}
}

func (s *Scene) notifyLocked(l *LayerState) {
	if s.observer != nil {
		s.observer.LayerChanged(*l)
	}
}
