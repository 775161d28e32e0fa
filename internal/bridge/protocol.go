package bridge

import (
	"encoding/json"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/scene"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypeWelcome   = "welcome"
	TypeSceneSync = "scene.sync"
	TypeError     = "error"

	// Camera control. The server sends camera.goto; the viewer answers
	// with camera.done or camera.failed carrying the same request id.
	TypeCameraGoTo   = "camera.goto"
	TypeCameraDone   = "camera.done"
	TypeCameraFailed = "camera.failed"

	// Sent by the viewer whenever a layer view starts or stops loading. A
	// layer.update keeps the layer busy until the viewer reports
	// updating=false for it.
	TypeLayerUpdating = "layer.updating"

	// Scene changes pushed to viewers.
	TypeLayerUpdate    = "layer.update"
	TypeGraphicAttach  = "graphic.attach"
	TypeGraphicDetach  = "graphic.detach"
	TypeGraphicReplace = "graphic.replace"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
}

type SceneSyncPayload struct {
	Layers   []scene.LayerState           `json:"layers"`
	Graphics map[string][]graphic.Graphic `json:"graphics"`
}

type CameraGoToPayload struct {
	RequestID string         `json:"requestId"`
	Viewpoint deck.Viewpoint `json:"viewpoint"`
}

type CameraResultPayload struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

type LayerUpdatingPayload struct {
	LayerID  string `json:"layerId"`
	Updating bool   `json:"updating"`
}

// GraphicPayload carries attach, detach and replace. Detach only sets
// GraphicID; replace sets OldID and Graphic.
type GraphicPayload struct {
	LayerID   string           `json:"layerId"`
	GraphicID string           `json:"graphicId,omitempty"`
	OldID     string           `json:"oldId,omitempty"`
	Graphic   *graphic.Graphic `json:"graphic,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
