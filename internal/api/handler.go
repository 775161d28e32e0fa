// Package api exposes the presentation controls and the scene queries over
// HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scenereveal/backend-go/internal/bridge"
	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/height"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/sequencer"
	"github.com/scenereveal/backend-go/internal/slide"
)

// Viewers reports connected rendering clients.
type Viewers interface {
	ClientCount() int
}

type Handler struct {
	deck      *deck.Deck
	scene     *scene.Scene
	sequencer *sequencer.Sequencer
	heights   *height.Engine
	viewers   Viewers
	mode      slide.Mode
}

func NewHandler(d *deck.Deck, sc *scene.Scene, seq *sequencer.Sequencer, heights *height.Engine, viewers Viewers, mode slide.Mode) *Handler {
	return &Handler{deck: d, scene: sc, sequencer: seq, heights: heights, viewers: viewers, mode: mode}
}

// Routes registers the API on r. r is expected to be the authenticated
// /api subrouter.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/presentation", h.GetPresentation).Methods("GET")
	r.HandleFunc("/presentation/run", h.Run).Methods("POST")
	r.HandleFunc("/presentation/stages/{stage}", h.ShowStage).Methods("POST")
	r.HandleFunc("/presentation/cancel", h.Cancel).Methods("POST")
	r.HandleFunc("/presentation/pause", h.Pause).Methods("POST")
	r.HandleFunc("/presentation/resume", h.Resume).Methods("POST")

	r.HandleFunc("/layers", h.ListLayers).Methods("GET")
	r.HandleFunc("/masked", h.SetMasked).Methods("POST")
	r.HandleFunc("/height", h.Height).Methods("POST")
	r.HandleFunc("/heights/adjust", h.AdjustHeights).Methods("POST")
	r.HandleFunc("/areas", h.CreateArea).Methods("POST")
	r.HandleFunc("/areas", h.ClearAreas).Methods("DELETE")
}

type presentationResponse struct {
	WebSceneID string          `json:"webSceneId"`
	Mode       slide.Mode      `json:"mode"`
	Viewers    int             `json:"viewers"`
	Slides     []deck.Slide    `json:"slides"`
	State      sequencer.State `json:"state"`
}

func (h *Handler) GetPresentation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presentationResponse{
		WebSceneID: h.deck.WebSceneID,
		Mode:       h.mode,
		Viewers:    h.viewers.ClientCount(),
		Slides:     h.deck.Slides,
		State:      h.sequencer.State(),
	})
}

type runRequest struct {
	From string `json:"from"`
}

type runResponse struct {
	RunID string `json:"runId"`
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	from := sequencer.StageIntro
	if req.From != "" {
		var err error
		if from, err = sequencer.ParseStage(req.From); err != nil {
			handleServiceError(w, err)
			return
		}
	}
	stages, err := sequencer.From(from)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.start(w, stages)
}

func (h *Handler) ShowStage(w http.ResponseWriter, r *http.Request) {
	stage, err := sequencer.ParseStage(mux.Vars(r)["stage"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.start(w, []sequencer.Stage{stage})
}

func (h *Handler) start(w http.ResponseWriter, stages []sequencer.Stage) {
	if h.viewers.ClientCount() == 0 {
		handleServiceError(w, bridge.ErrNoViewer)
		return
	}
	runID := h.sequencer.Start(stages)
	writeJSON(w, http.StatusAccepted, runResponse{RunID: runID})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.sequencer.Cancel)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.sequencer.Pause)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.sequencer.Resume)
}

func (h *Handler) control(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sequencer.State())
}

func (h *Handler) ListLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scene.Layers())
}

type maskedRequest struct {
	Show bool `json:"show"`
}

func (h *Handler) SetMasked(w http.ResponseWriter, r *http.Request) {
	var req maskedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.scene.SetMaskedVisibility(req.Show)
	layer, _ := h.scene.Layer(h.scene.ContentLayerID())
	writeJSON(w, http.StatusOK, layer)
}

type heightRequest struct {
	X                float64                    `json:"x"`
	Y                float64                    `json:"y"`
	SpatialReference *geometry.SpatialReference `json:"spatialReference,omitempty"`
}

type heightResponse struct {
	Height float64 `json:"height"`
}

func (h *Handler) Height(w http.ResponseWriter, r *http.Request) {
	var req heightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p := geometry.Point{X: req.X, Y: req.Y, SR: h.deck.SpatialReference}
	if req.SpatialReference != nil {
		p.SR = *req.SpatialReference
	}

	z, err := h.heights.HeightAtLayers(p, h.scene.DrawLayers())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heightResponse{Height: z})
}

type adjustResponse struct {
	Adjusted int `json:"adjusted"`
}

func (h *Handler) AdjustHeights(w http.ResponseWriter, r *http.Request) {
	n, err := h.heights.AdjustLayerHeights(h.scene.GroundRelativeLayers(), h.scene.DrawLayers())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustResponse{Adjusted: n})
}

type areaRequest struct {
	Rings  [][2]float64   `json:"rings"`
	Height float64        `json:"height"`
	Color  *graphic.Color `json:"color,omitempty"`
}

func (h *Handler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Rings) < 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "an area needs at least three vertices"})
		return
	}
	if req.Height < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "height must not be negative"})
		return
	}

	sym := graphic.Symbol{Kind: graphic.KindFill, Color: graphic.Color{R: 255, G: 255, B: 255, A: 1}}
	if req.Height > 0 {
		sym.Kind = graphic.KindExtruded
		sym.Extrusion = req.Height
	}
	if req.Color != nil {
		sym.Color = *req.Color
	}

	g := graphic.NewPolygon(geometry.NewPolygon(h.deck.SpatialReference, req.Rings), sym)
	h.scene.Draw().Add(g)
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) ClearAreas(w http.ResponseWriter, r *http.Request) {
	h.scene.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sequencer.ErrUnknownStage):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, sequencer.ErrNotRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no presentation is running"})
	case errors.Is(err, bridge.ErrNoViewer):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no viewer connected"})
	case errors.Is(err, geometry.ErrSpatialReferenceMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "spatial reference does not match the scene"})
	case errors.Is(err, geometry.ErrEmptyPolygon):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty footprint"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
