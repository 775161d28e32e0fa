package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/graphic"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/slide"
)

type fixture struct {
	hub   *Hub
	scene *scene.Scene
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sc := scene.New(deck.Sample(), scene.Options{})
	hub := NewHub(sc)
	sc.SetObserver(hub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, nil, nil))
	t.Cleanup(srv.Close)
	return &fixture{hub: hub, scene: sc, srv: srv}
}

func (f *fixture) view(t *testing.T, layerID string) slide.LayerView {
	t.Helper()
	for _, v := range f.hub.LayerViews() {
		if v.LayerID() == layerID {
			return v
		}
	}
	t.Fatalf("no view for layer %s", layerID)
	return nil
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	readType(t, conn, TypeWelcome)
	return conn
}

// readType reads until a message of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) *Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return &msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg, err := newMessage(typ, payload)
	require.NoError(t, err)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
}

func TestSceneSyncOnJoin(t *testing.T) {
	f := newFixture(t)
	f.scene.Draw().Add(graphic.New(graphic.Symbol{Kind: graphic.KindExtruded}))

	conn := f.dial(t)
	msg := readType(t, conn, TypeSceneSync)

	var p SceneSyncPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Len(t, p.Layers, len(f.scene.Layers()))
	assert.Len(t, p.Graphics[scene.DrawLayerID], 1)
	assert.Equal(t, 1, f.hub.ClientCount())
}

func TestGoTo(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	vp := deck.Sample().Slides[0].Viewpoint
	done := make(chan error, 1)
	go func() { done <- f.hub.GoTo(context.Background(), vp) }()

	msg := readType(t, conn, TypeCameraGoTo)
	var req CameraGoToPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, vp.Position.X, req.Viewpoint.Position.X)

	send(t, conn, TypeCameraDone, CameraResultPayload{RequestID: req.RequestID})
	require.NoError(t, <-done)
}

func TestGoToRejected(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	done := make(chan error, 1)
	go func() { done <- f.hub.GoTo(context.Background(), deck.Viewpoint{}) }()

	msg := readType(t, conn, TypeCameraGoTo)
	var req CameraGoToPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &req))

	send(t, conn, TypeCameraFailed, CameraResultPayload{RequestID: req.RequestID, Error: "interrupted"})
	err := <-done
	require.ErrorIs(t, err, ErrCameraRejected)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestGoToWithoutViewer(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.hub.GoTo(context.Background(), deck.Viewpoint{}), ErrNoViewer)
}

func TestWhenNotUpdating(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	send(t, conn, TypeLayerUpdating, LayerUpdatingPayload{LayerID: "buildings", Updating: true})
	require.Eventually(t, func() bool { return f.hub.idle("buildings") != nil }, time.Second, time.Millisecond)

	var view layerView
	for _, v := range f.hub.LayerViews() {
		if v.LayerID() == "buildings" {
			view = v.(layerView)
		}
	}
	require.Equal(t, "buildings", view.id)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, view.WhenNotUpdating(ctx), context.DeadlineExceeded)

	send(t, conn, TypeLayerUpdating, LayerUpdatingPayload{LayerID: "buildings", Updating: false})
	wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
	defer wcancel()
	require.NoError(t, view.WhenNotUpdating(wctx))
}

func TestSceneChangesAreBroadcast(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readType(t, conn, TypeSceneSync)

	g := graphic.New(graphic.Symbol{Kind: graphic.KindPath})
	f.scene.Highlight().Add(g)
	msg := readType(t, conn, TypeGraphicAttach)
	var p GraphicPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, scene.HighlightLayerID, p.LayerID)
	assert.Equal(t, g.ID, p.GraphicID)

	next := g.Clone()
	f.scene.Highlight().Replace(g.ID, next)
	msg = readType(t, conn, TypeGraphicReplace)
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, g.ID, p.OldID)
	assert.Equal(t, next.ID, p.GraphicID)

	f.scene.SetMaskedVisibility(false)
	msg = readType(t, conn, TypeLayerUpdate)
	var l scene.LayerState
	require.NoError(t, json.Unmarshal(msg.Payload, &l))
	assert.Equal(t, "buildings", l.ID)
	assert.Contains(t, l.Expression, "OBJECTID NOT IN")
}

func TestLayerChangeKeepsLayerBusyUntilViewerReports(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readType(t, conn, TypeSceneSync)

	f.scene.SetMaskedVisibility(false)
	view := f.view(t, "buildings")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, view.WhenNotUpdating(ctx), context.DeadlineExceeded)

	readType(t, conn, TypeLayerUpdate)
	send(t, conn, TypeLayerUpdating, LayerUpdatingPayload{LayerID: "buildings", Updating: false})
	wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
	defer wcancel()
	require.NoError(t, view.WhenNotUpdating(wctx))
}

func TestLayerChangeWithoutViewerStaysIdle(t *testing.T) {
	f := newFixture(t)
	f.scene.SetMaskedVisibility(false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, f.view(t, "buildings").WhenNotUpdating(ctx))
}

func TestGoToSlideSettlesOnViewerReport(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readType(t, conn, TypeSceneSync)

	ctl := slide.NewController(f.hub, f.hub, f.scene, slide.Config{SettleTimeout: 5 * time.Second})
	done := make(chan error, 1)
	go func() { done <- ctl.GoToSlide(context.Background(), deck.Sample().Slides[deck.SlideAfter]) }()

	msg := readType(t, conn, TypeCameraGoTo)
	var req CameraGoToPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	send(t, conn, TypeCameraDone, CameraResultPayload{RequestID: req.RequestID})
	readType(t, conn, TypeLayerUpdate)

	select {
	case err := <-done:
		t.Fatalf("slide settled before the viewer reported: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	for _, l := range f.scene.Layers() {
		send(t, conn, TypeLayerUpdating, LayerUpdatingPayload{LayerID: l.ID, Updating: false})
	}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("slide never settled")
	}
}

func TestSlowViewerIsDisconnected(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient(hub, nil, "user", "slow")
	hub.clients[c.ClientID] = c

	g := graphic.New(graphic.Symbol{Kind: graphic.KindPath})
	for range sendBuffer {
		hub.GraphicReplaced(scene.HighlightLayerID, g.ID, g)
	}
	assert.Equal(t, 1, hub.ClientCount())

	hub.GraphicRemoved(scene.HighlightLayerID, g.ID)
	assert.Zero(t, hub.ClientCount())

	var queued []string
	for data := range c.send {
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		queued = append(queued, msg.Type)
	}
	assert.Len(t, queued, sendBuffer)
	assert.NotContains(t, queued, TypeGraphicDetach)
	assert.False(t, c.Send(&Message{Type: TypeGraphicDetach}), "closed viewer takes nothing")
}
