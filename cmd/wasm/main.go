//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/height"
	"github.com/scenereveal/backend-go/internal/reveal"
)

var (
	heights = height.NewEngine()
	areas   = graphic.NewLayer("draw")
)

func main() {
	engine := js.Global().Get("Object").New()

	// --- Commands (frontend → wasm) ---
	engine.Set("addArea", js.FuncOf(addArea))
	engine.Set("clearAreas", js.FuncOf(clearAreas))

	// --- Queries (frontend ← wasm) ---
	engine.Set("heightAt", js.FuncOf(heightAt))
	engine.Set("allocateDurations", js.FuncOf(allocateDurations))

	js.Global().Set("sceneRevealEngine", engine)
	js.Global().Set("sceneRevealWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

type areaInput struct {
	Rings            [][2]float64              `json:"rings"`
	Height           float64                   `json:"height"`
	SpatialReference geometry.SpatialReference `json:"spatialReference"`
}

// addArea(json) registers an extruded footprint for height queries.
func addArea(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing area JSON"})
	}
	var in areaInput
	if err := json.Unmarshal([]byte(args[0].String()), &in); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	sr := in.SpatialReference
	if sr.IsZero() {
		sr = geometry.WebMercator
	}
	g := graphic.NewPolygon(geometry.NewPolygon(sr, in.Rings), graphic.Symbol{
		Kind:      graphic.KindExtruded,
		Extrusion: in.Height,
	})
	areas.Add(g)
	return js.ValueOf(map[string]interface{}{"id": g.ID})
}

func clearAreas(this js.Value, args []js.Value) interface{} {
	areas.RemoveAll()
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// heightAt(x, y) returns the tallest registered extrusion at the point.
func heightAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected x and y"})
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float(), SR: geometry.WebMercator}
	h, err := heights.HeightAt(p, areas.Graphics())
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(h)
}

// allocateDurations(waypointsJSON, totalMs) splits the animation time over
// the path segments and returns milliseconds per segment.
func allocateDurations(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected waypoints and total"})
	}
	var coords [][2]float64
	if err := json.Unmarshal([]byte(args[0].String()), &coords); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	wps := make([]geometry.Point, len(coords))
	for i, c := range coords {
		wps[i] = geometry.XY(c[0], c[1])
	}
	total := time.Duration(args[1].Float() * float64(time.Millisecond))

	durations := reveal.AllocateDurations(wps, total)
	out := make([]interface{}, len(durations))
	for i, d := range durations {
		out[i] = float64(d) / float64(time.Millisecond)
	}
	return js.ValueOf(out)
}
