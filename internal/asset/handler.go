package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/height"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/typeid"
)

const maxUploadSize = 50 << 20 // 50MB

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Type      Format         `json:"type"`
	Name      string         `json:"name"`
	GraphicID string         `json:"graphicId"`
	Location  geometry.Point `json:"location"`
}

// Handler serves model upload and retrieval endpoints.
type Handler struct {
	dir     string // directory to store model files
	scene   *scene.Scene
	heights *height.Engine
	anchor  geometry.Point // placement when the request names no point
}

// NewHandler creates an asset handler that stores files in dir and places
// uploaded models on the scene's model layer. anchor is used when an
// upload carries no x and y.
func NewHandler(dir string, sc *scene.Scene, heights *height.Engine, anchor geometry.Point) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, scene: sc, heights: heights, anchor: anchor}
}

// Upload handles POST /assets/upload: a multipart form with a "file" field
// and optional "x" and "y" map coordinates. The model is stored and placed
// on top of whatever is drawn at that point.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 50MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	format, err := DetectFormat(header.Filename, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	at, err := h.location(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	z, err := h.heights.HeightAtLayers(at, h.scene.DrawLayers())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, geometry.ErrSpatialReferenceMismatch) {
			status = http.StatusBadRequest
		}
		http.Error(w, "height query failed: "+err.Error(), status)
		return
	}
	at = at.WithZ(z)

	assetID := typeid.NewAssetID()
	filename := assetID + "." + string(format)
	if err := os.WriteFile(filepath.Join(h.dir, filename), data, 0644); err != nil {
		slog.Error("write model file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	url := fmt.Sprintf("/assets/%s", filename)
	g := graphic.NewPoint(at, graphic.Symbol{Kind: graphic.KindModel, Href: url})
	h.scene.Models().Add(g)

	slog.Info("model placed", "asset", assetID, "x", at.X, "y", at.Y, "z", at.Z)

	resp := UploadResponse{
		ID:        assetID,
		URL:       url,
		Type:      format,
		Name:      header.Filename,
		GraphicID: g.ID,
		Location:  at,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) location(r *http.Request) (geometry.Point, error) {
	xs, ys := r.FormValue("x"), r.FormValue("y")
	if xs == "" && ys == "" {
		return h.anchor, nil
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid x: %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid y: %q", ys)
	}
	return geometry.Point{X: x, Y: y, SR: h.anchor.SR}, nil
}

// Serve returns an http.Handler that serves stored model files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
