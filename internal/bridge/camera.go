package bridge

import (
	"context"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/slide"
	"github.com/scenereveal/backend-go/internal/typeid"
)

// GoTo asks the viewers to move the camera and waits for the first answer.
func (h *Hub) GoTo(ctx context.Context, vp deck.Viewpoint) error {
	reqID := typeid.NewRequestID()
	result := make(chan error, 1)

	h.pmu.Lock()
	h.pending[reqID] = result
	h.pmu.Unlock()
	defer func() {
		h.pmu.Lock()
		delete(h.pending, reqID)
		h.pmu.Unlock()
	}()

	msg, err := newMessage(TypeCameraGoTo, CameraGoToPayload{RequestID: reqID, Viewpoint: vp})
	if err != nil {
		return err
	}
	if h.broadcast(msg) == 0 {
		return ErrNoViewer
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) resolve(reqID string, err error) {
	h.pmu.Lock()
	defer h.pmu.Unlock()
	ch, ok := h.pending[reqID]
	if !ok {
		// Already answered by another viewer.
		return
	}
	delete(h.pending, reqID)
	ch <- err
}

func (h *Hub) setUpdating(layerID string, updating bool) {
	h.pmu.Lock()
	defer h.pmu.Unlock()
	ch, busy := h.updating[layerID]
	switch {
	case updating && !busy:
		h.updating[layerID] = make(chan struct{})
	case !updating && busy:
		close(ch)
		delete(h.updating, layerID)
	}
}

func (h *Hub) idle(layerID string) <-chan struct{} {
	h.pmu.Lock()
	defer h.pmu.Unlock()
	return h.updating[layerID]
}

type layerView struct {
	hub *Hub
	id  string
}

func (v layerView) LayerID() string {
	return v.id
}

func (v layerView) WhenNotUpdating(ctx context.Context) error {
	ch := v.hub.idle(v.id)
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LayerViews returns a view for every layer of the scene.
func (h *Hub) LayerViews() []slide.LayerView {
	if h.scene == nil {
		return nil
	}
	layers := h.scene.Layers()
	views := make([]slide.LayerView, len(layers))
	for i, l := range layers {
		views[i] = layerView{hub: h, id: l.ID}
	}
	return views
}
