package height

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

func footprint(min, max, extrusion float64) graphic.Graphic {
	poly := geometry.NewPolygon(geometry.WebMercator, [][2]float64{{min, min}, {max, min}, {max, max}, {min, max}, {min, min}})
	return graphic.NewPolygon(poly, graphic.Symbol{Kind: graphic.KindExtruded, Extrusion: extrusion})
}

func TestHeightAtTakesMaximum(t *testing.T) {
	e := NewEngine()
	p := geometry.Point{X: 5, Y: 5, SR: geometry.WebMercator}
	f1 := footprint(0, 10, 10)
	f2 := footprint(2, 8, 5)

	for _, order := range [][]graphic.Graphic{{f1, f2}, {f2, f1}} {
		h, err := e.HeightAt(p, order)
		require.NoError(t, err)
		assert.Equal(t, 10.0, h)
	}
}

func TestHeightAtNoCoverage(t *testing.T) {
	e := NewEngine()
	h, err := e.HeightAt(geometry.XY(50, 50), []graphic.Graphic{footprint(0, 10, 10)})
	require.NoError(t, err)
	assert.Zero(t, h)

	h, err = e.HeightAt(geometry.XY(50, 50), nil)
	require.NoError(t, err)
	assert.Zero(t, h)
}

func TestHeightAtIgnoresFlatGraphics(t *testing.T) {
	e := NewEngine()
	flat := footprint(0, 10, 30)
	flat.Symbol.Kind = graphic.KindFill
	marker := graphic.NewPoint(geometry.XY(5, 5), graphic.Symbol{Kind: graphic.KindMarker})

	h, err := e.HeightAt(geometry.XY(5, 5), []graphic.Graphic{flat, marker, footprint(0, 10, 4)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, h)
}

func TestHeightAtSurfacesContainmentErrors(t *testing.T) {
	e := NewEngine()
	p := geometry.Point{X: 5, Y: 5, SR: geometry.SpatialReference{WKID: 4326}}
	_, err := e.HeightAt(p, []graphic.Graphic{footprint(0, 10, 10)})
	require.ErrorIs(t, err, geometry.ErrSpatialReferenceMismatch)
}

func TestHeightAtCustomPrimitive(t *testing.T) {
	boom := errors.New("boom")
	e := &Engine{Contains: func(geometry.Polygon, geometry.Point) (bool, error) { return false, boom }}
	_, err := e.HeightAt(geometry.XY(0, 0), []graphic.Graphic{footprint(0, 1, 1)})
	require.ErrorIs(t, err, boom)
}

func TestHeightAtLayers(t *testing.T) {
	e := NewEngine()
	a := graphic.NewLayer("draw-a")
	a.Add(footprint(0, 10, 3))
	b := graphic.NewLayer("draw-b")
	b.Add(footprint(0, 10, 12))

	h, err := e.HeightAtLayers(geometry.XY(1, 1), []*graphic.Layer{a, b})
	require.NoError(t, err)
	assert.Equal(t, 12.0, h)
}

func TestAdjustHeight(t *testing.T) {
	e := NewEngine()
	draw := graphic.NewLayer("draw")
	draw.Add(footprint(0, 10, 20))
	layers := []*graphic.Layer{draw}

	model := graphic.NewPoint(geometry.XY(5, 5).WithZ(0), graphic.Symbol{Kind: graphic.KindModel})
	adjusted, changed, err := e.AdjustHeight(model, layers)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 20.0, adjusted.Point.Z)
	assert.NotEqual(t, model.ID, adjusted.ID)
	assert.Equal(t, 0.0, model.Point.Z)

	again, changed, err := e.AdjustHeight(adjusted, layers)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, adjusted.ID, again.ID)
}

func TestAdjustHeightSkipsFlatPoints(t *testing.T) {
	e := NewEngine()
	flat := graphic.NewPoint(geometry.XY(5, 5), graphic.Symbol{Kind: graphic.KindMarker})
	out, changed, err := e.AdjustHeight(flat, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, flat.ID, out.ID)
}

func TestAdjustLayerHeights(t *testing.T) {
	e := NewEngine()
	draw := graphic.NewLayer("draw")
	draw.Add(footprint(0, 10, 8))

	models := graphic.NewLayer("models")
	inside := graphic.NewPoint(geometry.XY(5, 5).WithZ(0), graphic.Symbol{Kind: graphic.KindModel})
	outside := graphic.NewPoint(geometry.XY(50, 50).WithZ(0), graphic.Symbol{Kind: graphic.KindModel})
	models.Add(inside)
	models.Add(outside)

	n, err := e.AdjustLayerHeights([]*graphic.Layer{models}, []*graphic.Layer{draw})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := models.Graphics()
	require.Len(t, got, 2)
	assert.Equal(t, 8.0, got[0].Point.Z)
	assert.Equal(t, outside.ID, got[1].ID)
}
