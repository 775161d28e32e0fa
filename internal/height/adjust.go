package height

import (
	"fmt"

	"github.com/scenereveal/backend-go/internal/graphic"
)

// AdjustHeight recomputes the Z of a point graphic against layers. When the
// height changed it returns a replacement graphic and true; otherwise g is
// returned as is so that nothing gets redrawn. Graphics without a Z point
// are left alone.
func (e *Engine) AdjustHeight(g graphic.Graphic, layers []*graphic.Layer) (graphic.Graphic, bool, error) {
	if g.Point == nil || !g.Point.HasZ {
		return g, false, nil
	}
	h, err := e.HeightAtLayers(*g.Point, layers)
	if err != nil {
		return g, false, err
	}
	if h == g.Point.Z {
		return g, false, nil
	}
	return g.WithPoint(g.Point.WithZ(h)), true, nil
}

// AdjustLayerHeights adjusts every point graphic of targets against the
// footprints in layers, replacing the ones whose height changed. It returns
// the number of replaced graphics.
func (e *Engine) AdjustLayerHeights(targets, layers []*graphic.Layer) (int, error) {
	changed := 0
	for _, target := range targets {
		for _, g := range target.Graphics() {
			adjusted, ok, err := e.AdjustHeight(g, layers)
			if err != nil {
				return changed, fmt.Errorf("adjust %s: %w", g.ID, err)
			}
			if ok {
				target.Replace(g.ID, adjusted)
				changed++
			}
		}
	}
	return changed, nil
}
