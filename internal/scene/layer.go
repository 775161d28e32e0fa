package scene

import "github.com/scenereveal/backend-go/internal/deck"

// ElevationMode tells the renderer how graphics of a layer are placed
// vertically.
type ElevationMode string

const (
	OnTheGround      ElevationMode = "on-the-ground"
	RelativeToGround ElevationMode = "relative-to-ground"
	RelativeToScene  ElevationMode = "relative-to-scene"
	AbsoluteHeight   ElevationMode = "absolute-height"
)

// KindGraphics marks the layers the application draws into itself.
const KindGraphics deck.LayerKind = "graphics"

// LayerState is the display state of one layer. Managed layers come from
// the deck and are driven by slide transitions. Graphics layers are owned
// by the application.
type LayerState struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Kind       deck.LayerKind `json:"kind"`
	Visible    bool           `json:"visible"`
	Opacity    float64        `json:"opacity"`
	HasOpacity bool           `json:"hasOpacity"`
	Managed    bool           `json:"managed"`
	Elevation  ElevationMode  `json:"elevation,omitempty"`
	Exclusion  Exclusion      `json:"exclusion"`
	Expression string         `json:"definitionExpression,omitempty"`
}

func (l LayerState) equal(o LayerState) bool {
	return l.Visible == o.Visible &&
		l.Opacity == o.Opacity &&
		l.Expression == o.Expression &&
		l.Exclusion.IsZero() == o.Exclusion.IsZero()
}

// LayerObserver is told about every layer state change. It runs under the
// scene lock and must not call back into the scene.
type LayerObserver interface {
	LayerChanged(state LayerState)
}

func fromDeck(l deck.Layer) *LayerState {
	opacity := l.Opacity
	if opacity == 0 {
		opacity = 1
	}
	return &LayerState{
		ID:         l.ID,
		Title:      l.Title,
		Kind:       l.Kind,
		Visible:    l.Visible,
		Opacity:    opacity,
		HasOpacity: l.HasOpacity(),
		Managed:    true,
	}
}

func graphicsLayer(id, title string, mode ElevationMode) *LayerState {
	return &LayerState{
		ID:        id,
		Title:     title,
		Kind:      KindGraphics,
		Visible:   true,
		Opacity:   1,
		Elevation: mode,
	}
}
