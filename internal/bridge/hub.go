// Package bridge connects the server to the rendering viewers over
// WebSocket. The hub is the camera and the layer views of the slide
// controller, and it mirrors every scene change to the viewers.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/typeid"
)

var (
	ErrNoViewer       = errors.New("no viewer connected")
	ErrCameraRejected = errors.New("viewer rejected camera move")
)

// Snapshotter provides the full scene state sent to a joining viewer.
type Snapshotter interface {
	Layers() []scene.LayerState
	GraphicsLayers() []*graphic.Layer
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	scene      Snapshotter
	seq        atomic.Int64

	pmu      sync.Mutex
	pending  map[string]chan error    // camera request id -> result
	updating map[string]chan struct{} // layer id -> closed when idle
}

func NewHub(sc Snapshotter) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		scene:      sc,
		pending:    make(map[string]chan error),
		updating:   make(map[string]chan struct{}),
	}
}

// Run serves registrations until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	if msg, err := newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID}); err == nil {
		if !client.Send(msg) {
			h.dropSlow(client)
			return
		}
	}

	// Changes broadcast from here on reach the client too, and the
	// snapshot below supersedes them.
	snap := SceneSyncPayload{Graphics: make(map[string][]graphic.Graphic)}
	if h.scene != nil {
		snap.Layers = h.scene.Layers()
		for _, l := range h.scene.GraphicsLayers() {
			snap.Graphics[l.ID()] = l.Graphics()
		}
	}
	msg, err := newMessage(TypeSceneSync, snap)
	if err != nil {
		slog.Error("marshal scene sync", "error", err)
		return
	}
	msg.Seq = h.seq.Add(1)
	if !client.Send(msg) {
		h.dropSlow(client)
		return
	}

	slog.Info("viewer joined", "client", client.ClientID, "user", client.UserID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	client.close()
	remaining := len(h.clients)
	h.mu.Unlock()

	if remaining == 0 {
		h.releaseAll()
	}
	slog.Info("viewer left", "client", client.ClientID, "user", client.UserID)
}

// releaseAll fails pending camera moves and marks every layer idle. Only
// used once the last viewer is gone.
func (h *Hub) releaseAll() {
	h.pmu.Lock()
	defer h.pmu.Unlock()
	for id, ch := range h.pending {
		ch <- ErrNoViewer
		delete(h.pending, id)
	}
	for id, ch := range h.updating {
		close(ch)
		delete(h.updating, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeCameraDone, TypeCameraFailed:
		var p CameraResultPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("invalid camera payload", "error", err)
			return
		}
		if err := typeid.Validate(p.RequestID, typeid.PrefixRequest); err != nil {
			slog.Warn("camera answer with bad request id", "error", err, "client", sender.ClientID)
			return
		}
		var result error
		if msg.Type == TypeCameraFailed {
			result = fmt.Errorf("%w: %s", ErrCameraRejected, p.Error)
		}
		h.resolve(p.RequestID, result)
	case TypeLayerUpdating:
		var p LayerUpdatingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("invalid layer payload", "error", err)
			return
		}
		h.setUpdating(p.LayerID, p.Updating)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

// broadcast sends msg to every viewer and returns how many it reached.
// Viewers that cannot take it are disconnected.
func (h *Hub) broadcast(msg *Message) int {
	msg.Seq = h.seq.Add(1)
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return 0
	}

	var slow []*Client
	h.mu.RLock()
	for _, c := range h.clients {
		if !c.queue(data) {
			slow = append(slow, c)
		}
	}
	reached := len(h.clients) - len(slow)
	h.mu.RUnlock()

	for _, c := range slow {
		h.dropSlow(c)
	}
	return reached
}

// dropSlow disconnects a viewer that missed a message. It reconnects and
// gets a fresh scene.sync.
func (h *Hub) dropSlow(c *Client) {
	slog.Warn("viewer fell behind, disconnecting", "client", c.ClientID)
	h.removeClient(c)
}

func (h *Hub) publish(typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", typ)
		return
	}
	h.broadcast(msg)
}

// LayerChanged implements scene.LayerObserver. The layer counts as
// updating from here until a viewer reports it idle.
func (h *Hub) LayerChanged(state scene.LayerState) {
	msg, err := newMessage(TypeLayerUpdate, state)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", TypeLayerUpdate)
		return
	}
	h.setUpdating(state.ID, true)
	if h.broadcast(msg) == 0 {
		h.setUpdating(state.ID, false)
	}
}

// GraphicAdded implements graphic.Observer.
func (h *Hub) GraphicAdded(layerID string, g graphic.Graphic) {
	h.publish(TypeGraphicAttach, GraphicPayload{LayerID: layerID, GraphicID: g.ID, Graphic: &g})
}

// GraphicRemoved implements graphic.Observer.
func (h *Hub) GraphicRemoved(layerID, graphicID string) {
	h.publish(TypeGraphicDetach, GraphicPayload{LayerID: layerID, GraphicID: graphicID})
}

// GraphicReplaced implements graphic.Observer.
func (h *Hub) GraphicReplaced(layerID, oldID string, g graphic.Graphic) {
	h.publish(TypeGraphicReplace, GraphicPayload{LayerID: layerID, GraphicID: g.ID, OldID: oldID, Graphic: &g})
}
