package deck

import (
	"errors"
	"fmt"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

var (
	ErrTooFewSlides  = errors.New("deck needs intro, before and after slides")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrUnknownLayer  = errors.New("slide references unknown layer")
	ErrMaskAreaShort = errors.New("mask area needs at least two waypoints")
)

// Slide indexes read by the presentation script.
const (
	SlideIntro  = 0
	SlideBefore = 1
	SlideAfter  = 2
)

// Deck is everything the presentation needs that is not code: the layers of
// the web scene, the slides, and the area to reveal.
type Deck struct {
	Version          string                    `yaml:"version" json:"version"`
	WebSceneID       string                    `yaml:"webSceneId" json:"webSceneId"`
	SpatialReference geometry.SpatialReference `yaml:"spatialReference" json:"spatialReference"`
	Layers           []Layer                   `yaml:"layers" json:"layers"`
	Slides           []Slide                   `yaml:"slides" json:"slides"`
	Mask             Mask                      `yaml:"mask" json:"mask"`
	PlanningArea     [][2]float64              `yaml:"planningArea,omitempty" json:"planningArea,omitempty"`
}

type LayerKind string

const (
	LayerKindScene   LayerKind = "scene"   // textured or mesh buildings
	LayerKindFeature LayerKind = "feature" // service-backed vector layer
	LayerKindTile    LayerKind = "tile"
)

// Layer describes one layer of the web scene.
type Layer struct {
	ID      string    `yaml:"id" json:"id"`
	Title   string    `yaml:"title" json:"title"`
	Kind    LayerKind `yaml:"kind" json:"kind"`
	URL     string    `yaml:"url,omitempty" json:"url,omitempty"`
	Visible bool      `yaml:"visible" json:"visible"`
	Opacity float64   `yaml:"opacity" json:"opacity"`
}

// HasOpacity reports whether the layer is service backed. Only those expose
// an opacity channel to the dimming transition.
func (l Layer) HasOpacity() bool {
	return l.URL != ""
}

// Viewpoint is an opaque camera pose. Nothing but the renderer looks inside.
type Viewpoint struct {
	Position geometry.Point `yaml:"position" json:"position"`
	Heading  float64        `yaml:"heading" json:"heading"`
	Tilt     float64        `yaml:"tilt" json:"tilt"`
	FOV      float64        `yaml:"fov,omitempty" json:"fov,omitempty"`
}

// Slide is a camera pose plus the layers to show with it.
type Slide struct {
	ID            string    `yaml:"id" json:"id"`
	Title         string    `yaml:"title" json:"title"`
	Viewpoint     Viewpoint `yaml:"viewpoint" json:"viewpoint"`
	VisibleLayers []string  `yaml:"visibleLayers" json:"visibleLayers"`
}

// Shows reports whether layerID is listed as visible.
func (s Slide) Shows(layerID string) bool {
	for _, id := range s.VisibleLayers {
		if id == layerID {
			return true
		}
	}
	return false
}

// Mask is the area whose buildings get swapped during the reveal.
type Mask struct {
	Area         [][2]float64  `yaml:"area" json:"area"`
	ObjectIDs    []int64       `yaml:"objectIds" json:"objectIds"`
	Color        graphic.Color `yaml:"color" json:"color"`
	PathSize     float64       `yaml:"pathSize" json:"pathSize"`
	OutlineWidth float64       `yaml:"outlineWidth" json:"outlineWidth"`
}

// Waypoints returns the mask area as points in the deck's reference system.
func (d *Deck) Waypoints() []geometry.Point {
	pts := make([]geometry.Point, len(d.Mask.Area))
	for i, c := range d.Mask.Area {
		pts[i] = geometry.Point{X: c[0], Y: c[1], SR: d.SpatialReference}
	}
	return pts
}

// MaskPolygon returns the mask area as a polygon.
func (d *Deck) MaskPolygon() geometry.Polygon {
	return geometry.NewPolygon(d.SpatialReference, d.Mask.Area)
}

// PlanningPolygon returns the planning area, falling back to the mask area.
func (d *Deck) PlanningPolygon() geometry.Polygon {
	if len(d.PlanningArea) >= 3 {
		return geometry.NewPolygon(d.SpatialReference, d.PlanningArea)
	}
	return d.MaskPolygon()
}

// Layer looks up a layer by id.
func (d *Deck) Layer(id string) (Layer, bool) {
	for _, l := range d.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// Validate checks the invariants the presentation relies on.
func (d *Deck) Validate() error {
	if len(d.Slides) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewSlides, len(d.Slides))
	}
	if len(d.Mask.Area) < 2 {
		return ErrMaskAreaShort
	}

	layers := make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		if layers[l.ID] {
			return fmt.Errorf("%w: layer %q", ErrDuplicateID, l.ID)
		}
		layers[l.ID] = true
	}

	slides := make(map[string]bool, len(d.Slides))
	for _, s := range d.Slides {
		if slides[s.ID] {
			return fmt.Errorf("%w: slide %q", ErrDuplicateID, s.ID)
		}
		slides[s.ID] = true
		for _, id := range s.VisibleLayers {
			if !layers[id] {
				return fmt.Errorf("%w: slide %q lists %q", ErrUnknownLayer, s.ID, id)
			}
		}
	}
	return nil
}
