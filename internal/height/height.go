// Package height answers "how tall is the scene here": the maximum
// extrusion of the extruded footprints covering a map point. New
// point-anchored objects use it to sit on top of what is already drawn.
package height

import (
	"fmt"
	"math"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

// ContainsFunc is the containment primitive. geometry.Contains is the
// default.
type ContainsFunc func(footprint geometry.Polygon, p geometry.Point) (bool, error)

// Engine runs height queries. The zero value is ready to use.
type Engine struct {
	Contains ContainsFunc
}

// NewEngine returns an engine backed by geometry.Contains.
func NewEngine() *Engine {
	return &Engine{Contains: geometry.Contains}
}

// HeightAt returns the tallest extrusion among the extruded graphics whose
// footprint contains p, or 0 when none does. The result does not depend on
// the order of graphics.
func (e *Engine) HeightAt(p geometry.Point, graphics []graphic.Graphic) (float64, error) {
	best := 0.0
	for _, g := range graphics {
		h, err := e.extrudedHeight(p, g)
		if err != nil {
			return 0, err
		}
		best = math.Max(best, h)
	}
	return best, nil
}

// HeightAtLayers runs HeightAt over the contents of every layer.
func (e *Engine) HeightAtLayers(p geometry.Point, layers []*graphic.Layer) (float64, error) {
	best := 0.0
	for _, l := range layers {
		h, err := e.HeightAt(p, l.Graphics())
		if err != nil {
			return 0, fmt.Errorf("layer %s: %w", l.ID(), err)
		}
		best = math.Max(best, h)
	}
	return best, nil
}

func (e *Engine) extrudedHeight(p geometry.Point, g graphic.Graphic) (float64, error) {
	if !g.IsExtruded() {
		return 0, nil
	}
	contains := e.Contains
	if contains == nil {
		contains = geometry.Contains
	}
	ok, err := contains(*g.Polygon, p)
	if err != nil {
		return 0, fmt.Errorf("graphic %s: %w", g.ID, err)
	}
	if !ok {
		return 0, nil
	}
	return g.Symbol.Extrusion, nil
}
