package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/height"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/sequencer"
	"github.com/scenereveal/backend-go/internal/slide"
)

type viewers int

func (v viewers) ClientCount() int { return int(v) }

// stage fakes resolve every step immediately.
type stage struct{}

func (stage) GoToSlide(context.Context, deck.Slide) error { return nil }
func (stage) RevealPath(context.Context, []geometry.Point, time.Duration) error {
	return nil
}
func (stage) FadeMask(context.Context) error { return nil }
func (stage) Clear()                         {}

type fixture struct {
	router *mux.Router
	scene  *scene.Scene
	seq    *sequencer.Sequencer
}

func newFixture(t *testing.T, connected int) *fixture {
	t.Helper()
	d := deck.Sample()
	sc := scene.New(d, scene.Options{})
	seq := sequencer.New(sequencer.Deps{
		Deck:      d,
		Slides:    stage{},
		Animator:  stage{},
		Masker:    sc,
		Highlight: sc.Highlight(),
	}, sequencer.Config{})

	h := NewHandler(d, sc, seq, height.NewEngine(), viewers(connected), slide.ModeVisibility)
	r := mux.NewRouter()
	h.Routes(r.PathPrefix("/api").Subrouter())
	return &fixture{router: r, scene: sc, seq: seq}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRunPresentation(t *testing.T) {
	f := newFixture(t, 1)

	rec := f.do(t, http.MethodPost, "/api/presentation/run", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var run runResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.NotEmpty(t, run.RunID)

	require.Eventually(t, func() bool {
		return f.seq.State().Status == sequencer.StatusDone
	}, time.Second, time.Millisecond)

	shown, set := f.scene.MaskedShown()
	assert.True(t, set)
	assert.False(t, shown, "after slide hides the masked buildings")

	rec = f.do(t, http.MethodGet, "/api/presentation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p presentationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, run.RunID, p.State.RunID)
	assert.Len(t, p.Slides, 3)
}

func TestRunFromUnknownStage(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.do(t, http.MethodPost, "/api/presentation/run", runRequest{From: "outro"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShowStage(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.do(t, http.MethodPost, "/api/presentation/stages/before", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return f.seq.State().Status == sequencer.StatusDone
	}, time.Second, time.Millisecond)
	shown, _ := f.scene.MaskedShown()
	assert.True(t, shown)
	assert.Equal(t, []string{"before"}, f.seq.State().Stages)

	rec = f.do(t, http.MethodPost, "/api/presentation/stages/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunWithoutViewer(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodPost, "/api/presentation/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestControlWithoutRun(t *testing.T) {
	f := newFixture(t, 1)
	for _, path := range []string{"/api/presentation/cancel", "/api/presentation/pause", "/api/presentation/resume"} {
		rec := f.do(t, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, path)
	}
}

func TestAreasAndHeight(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(t, http.MethodPost, "/api/areas", areaRequest{
		Rings:  [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		Height: 25,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var g graphic.Graphic
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&g))
	assert.Equal(t, graphic.KindExtruded, g.Symbol.Kind)

	rec = f.do(t, http.MethodPost, "/api/areas", areaRequest{
		Rings:  [][2]float64{{0, 0}, {20, 0}, {20, 20}, {0, 20}},
		Height: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"overlap takes the tallest", 5, 5, 25},
		{"lower footprint only", 15, 15, 10},
		{"outside", 50, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/height", heightRequest{X: tt.x, Y: tt.y})
			require.Equal(t, http.StatusOK, rec.Code)
			var resp heightResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.want, resp.Height)
		})
	}

	rec = f.do(t, http.MethodPost, "/api/height", heightRequest{X: 5, Y: 5, SpatialReference: &geometry.SpatialReference{WKID: 4326}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/areas", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.scene.Draw().Len())
}

func TestCreateAreaValidation(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodPost, "/api/areas", areaRequest{Rings: [][2]float64{{0, 0}, {1, 1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/areas", areaRequest{Rings: [][2]float64{{0, 0}, {1, 0}, {1, 1}}, Height: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustHeights(t *testing.T) {
	f := newFixture(t, 0)
	f.do(t, http.MethodPost, "/api/areas", areaRequest{
		Rings:  [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		Height: 30,
	})
	model := graphic.NewPoint(geometry.Point{X: 5, Y: 5, SR: geometry.WebMercator}.WithZ(0), graphic.Symbol{Kind: graphic.KindModel})
	f.scene.Models().Add(model)

	rec := f.do(t, http.MethodPost, "/api/heights/adjust", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp adjustResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Adjusted)
	assert.Equal(t, 30.0, f.scene.Models().Graphics()[0].Point.Z)
}

func TestSetMasked(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, http.MethodPost, "/api/masked", maskedRequest{Show: false})
	require.Equal(t, http.StatusOK, rec.Code)
	var l scene.LayerState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&l))
	assert.Contains(t, l.Expression, "OBJECTID NOT IN")
}
