package graphic

import (
	"fmt"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/typeid"
)

// Kind is the symbol family of a graphic. Only KindExtruded graphics
// take part in height queries.
type Kind string

const (
	KindPath     Kind = "path"     // 3D line with a tube profile
	KindFill     Kind = "fill"     // flat draped polygon
	KindExtruded Kind = "extruded" // polygon-3d with an extrusion height
	KindModel    Kind = "model"    // point-anchored 3D model
	KindMarker   Kind = "marker"
)

// Color is an RGB triple with a float alpha in [0, 1].
type Color struct {
	R uint8   `json:"r" yaml:"r"`
	G uint8   `json:"g" yaml:"g"`
	B uint8   `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, c.A)
}

// Symbol describes how a graphic is drawn.
type Symbol struct {
	Kind         Kind    `json:"kind"`
	Color        Color   `json:"color"`
	OutlineColor *Color  `json:"outlineColor,omitempty"`
	OutlineWidth float64 `json:"outlineWidth,omitempty"`
	Size         float64 `json:"size,omitempty"`      // path diameter
	Extrusion    float64 `json:"extrusion,omitempty"` // extruded height in map units
	Href         string  `json:"href,omitempty"`      // model resource
}

// Graphic is an immutable drawable snapshot. Renderers only notice a change
// when a graphic is replaced by another one, so every visual change goes
// through Clone and a layer Replace.
type Graphic struct {
	ID       string             `json:"id"`
	Point    *geometry.Point    `json:"point,omitempty"`
	Polyline *geometry.Polyline `json:"polyline,omitempty"`
	Polygon  *geometry.Polygon  `json:"polygon,omitempty"`
	Symbol   Symbol             `json:"symbol"`
	Visible  bool               `json:"visible"`
}

// New returns a visible graphic with a fresh id.
func New(sym Symbol) Graphic {
	return Graphic{ID: typeid.NewGraphicID(), Symbol: sym, Visible: true}
}

// NewPolygon returns a visible polygon graphic.
func NewPolygon(p geometry.Polygon, sym Symbol) Graphic {
	g := New(sym)
	g.Polygon = &p
	return g
}

// NewPolyline returns a visible polyline graphic.
func NewPolyline(l geometry.Polyline, sym Symbol) Graphic {
	g := New(sym)
	g.Polyline = &l
	return g
}

// NewPoint returns a visible point graphic.
func NewPoint(p geometry.Point, sym Symbol) Graphic {
	g := New(sym)
	g.Point = &p
	return g
}

// Clone returns a deep copy with a new identity.
func (g Graphic) Clone() Graphic {
	c := g
	c.ID = typeid.NewGraphicID()
	if g.Point != nil {
		p := *g.Point
		c.Point = &p
	}
	if g.Polyline != nil {
		paths := make([][]geometry.Point, len(g.Polyline.Paths))
		for i, path := range g.Polyline.Paths {
			paths[i] = append([]geometry.Point(nil), path...)
		}
		c.Polyline = &geometry.Polyline{Paths: paths, SR: g.Polyline.SR}
	}
	if g.Polygon != nil {
		rings := make([]geometry.Ring, len(g.Polygon.Rings))
		for i, ring := range g.Polygon.Rings {
			rings[i] = append(geometry.Ring(nil), ring...)
		}
		c.Polygon = &geometry.Polygon{Rings: rings, SR: g.Polygon.SR}
	}
	if g.Symbol.OutlineColor != nil {
		oc := *g.Symbol.OutlineColor
		c.Symbol.OutlineColor = &oc
	}
	return c
}

// WithColor returns a clone whose fill color is col.
func (g Graphic) WithColor(col Color) Graphic {
	c := g.Clone()
	c.Symbol.Color = col
	return c
}

// WithPolyline returns a clone whose geometry is l.
func (g Graphic) WithPolyline(l geometry.Polyline) Graphic {
	c := g.Clone()
	c.Polyline = &l
	return c
}

// WithPoint returns a clone whose geometry is p.
func (g Graphic) WithPoint(p geometry.Point) Graphic {
	c := g.Clone()
	c.Point = &p
	return c
}

// IsExtruded reports whether the graphic is a volumetric footprint.
func (g Graphic) IsExtruded() bool {
	return g.Symbol.Kind == KindExtruded && g.Polygon != nil
}
