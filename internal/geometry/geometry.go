// Package geometry holds the planar map geometry used by the reveal
// animation and the height queries. Coordinates are projected map units
// (Web Mercator meters unless a spatial reference says otherwise).
package geometry

import "math"

// SpatialReference identifies a coordinate reference system by its
// well-known id. The zero value means "unspecified".
type SpatialReference struct {
	WKID int `json:"wkid" yaml:"wkid"`
}

// WebMercator is the reference system of the web scene.
var WebMercator = SpatialReference{WKID: 3857}

// webMercatorAliases are the historical ids that describe the same
// projection as EPSG:3857.
var webMercatorAliases = map[int]bool{
	3857:   true,
	102100: true,
	102113: true,
	900913: true,
}

// IsZero reports whether the reference system is unspecified.
func (sr SpatialReference) IsZero() bool {
	return sr.WKID == 0
}

// Normalize maps alias ids onto their canonical id.
func (sr SpatialReference) Normalize() SpatialReference {
	if webMercatorAliases[sr.WKID] {
		return WebMercator
	}
	return sr
}

// Equal compares two reference systems after normalization.
func (sr SpatialReference) Equal(other SpatialReference) bool {
	return sr.Normalize() == other.Normalize()
}

// Point is a map location with an optional vertical coordinate.
type Point struct {
	X    float64          `json:"x" yaml:"x"`
	Y    float64          `json:"y" yaml:"y"`
	Z    float64          `json:"z,omitempty" yaml:"z,omitempty"`
	HasZ bool             `json:"hasZ,omitempty" yaml:"hasZ,omitempty"`
	SR   SpatialReference `json:"spatialReference" yaml:"spatialReference,omitempty"`
}

// XY returns a 2D point in the given reference system.
func XY(x, y float64) Point {
	return Point{X: x, Y: y}
}

// WithZ returns a copy of p carrying the vertical coordinate z.
func (p Point) WithZ(z float64) Point {
	p.Z = z
	p.HasZ = true
	return p
}

// Distance is the planar Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Lerp interpolates between a and b. t is not clamped.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X:  a.X + (b.X-a.X)*t,
		Y:  a.Y + (b.Y-a.Y)*t,
		SR: a.SR,
	}
}

// Ring is a closed sequence of vertices. The first and last vertex may or
// may not repeat.
type Ring []Point

// Polygon is an outer ring followed by optional holes.
type Polygon struct {
	Rings []Ring           `json:"rings" yaml:"rings"`
	SR    SpatialReference `json:"spatialReference" yaml:"spatialReference,omitempty"`
}

// NewPolygon builds a single-ring polygon from xy pairs.
func NewPolygon(sr SpatialReference, coords [][2]float64) Polygon {
	ring := make(Ring, len(coords))
	for i, c := range coords {
		ring[i] = Point{X: c[0], Y: c[1], SR: sr}
	}
	return Polygon{Rings: []Ring{ring}, SR: sr}
}

// IsEmpty reports whether the polygon has no usable outer ring.
func (p Polygon) IsEmpty() bool {
	return len(p.Rings) == 0 || len(p.Rings[0]) < 3
}

// Polyline is a set of paths. The reveal animation only ever builds a
// single path.
type Polyline struct {
	Paths [][]Point        `json:"paths" yaml:"paths"`
	SR    SpatialReference `json:"spatialReference" yaml:"spatialReference,omitempty"`
}

// NewPolyline copies pts into a single-path polyline.
func NewPolyline(sr SpatialReference, pts []Point) Polyline {
	path := make([]Point, len(pts))
	copy(path, pts)
	return Polyline{Paths: [][]Point{path}, SR: sr}
}

// Length sums the planar length of every path.
func (l Polyline) Length() float64 {
	total := 0.0
	for _, path := range l.Paths {
		for i := 1; i < len(path); i++ {
			total += Distance(path[i-1], path[i])
		}
	}
	return total
}

// Bounds is an axis-aligned extent.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// IsEmpty reports whether the extent has zero or negative area.
func (b Bounds) IsEmpty() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

// Expand grows the extent by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Center returns the middle of the extent.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Extent computes the bounds of the polygon's outer ring.
func (p Polygon) Extent() Bounds {
	if len(p.Rings) == 0 || len(p.Rings[0]) == 0 {
		return Bounds{}
	}
	outer := p.Rings[0]
	b := Bounds{MinX: outer[0].X, MinY: outer[0].Y, MaxX: outer[0].X, MaxY: outer[0].Y}
	for _, pt := range outer[1:] {
		b.MinX = math.Min(b.MinX, pt.X)
		b.MinY = math.Min(b.MinY, pt.Y)
		b.MaxX = math.Max(b.MaxX, pt.X)
		b.MaxY = math.Max(b.MaxY, pt.Y)
	}
	return b
}

// BoundingPolygon returns a frame around p: the extent of p grown by
// margin, with p's outer ring cut out as a hole. Filled with a translucent
// color it dims everything around the planning area.
func BoundingPolygon(p Polygon, margin float64) Polygon {
	if p.IsEmpty() {
		return Polygon{SR: p.SR}
	}
	b := p.Extent().Expand(margin)
	outer := Ring{
		{X: b.MinX, Y: b.MinY, SR: p.SR},
		{X: b.MinX, Y: b.MaxY, SR: p.SR},
		{X: b.MaxX, Y: b.MaxY, SR: p.SR},
		{X: b.MaxX, Y: b.MinY, SR: p.SR},
		{X: b.MinX, Y: b.MinY, SR: p.SR},
	}
	hole := make(Ring, len(p.Rings[0]))
	copy(hole, p.Rings[0])
	return Polygon{Rings: []Ring{outer, hole}, SR: p.SR}
}
