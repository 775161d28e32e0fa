package graphic

import "sync"

// Observer is notified of every change to a layer's contents. Callbacks run
// while the layer lock is held so that they see changes in order; they must
// not call back into the layer.
type Observer interface {
	GraphicAdded(layerID string, g Graphic)
	GraphicRemoved(layerID, graphicID string)
	GraphicReplaced(layerID, oldID string, g Graphic)
}

// Layer is an ordered, concurrency-safe collection of graphics.
type Layer struct {
	mu       sync.RWMutex
	id       string
	graphics []Graphic
	observer Observer
}

// NewLayer creates an empty layer.
func NewLayer(id string) *Layer {
	return &Layer{id: id}
}

// ID returns the layer id.
func (l *Layer) ID() string {
	return l.id
}

// SetObserver installs the change observer (nil removes it).
func (l *Layer) SetObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = o
}

// Add appends g.
func (l *Layer) Add(g Graphic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.graphics = append(l.graphics, g)
	if l.observer != nil {
		l.observer.GraphicAdded(l.id, g)
	}
}

// Remove deletes the graphic with the given id. It reports whether the
// graphic was present.
func (l *Layer) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.graphics = append(l.graphics[:i], l.graphics[i+1:]...)
	if l.observer != nil {
		l.observer.GraphicRemoved(l.id, id)
	}
	return true
}

// Replace swaps the graphic oldID for g in one step, keeping its position.
// When oldID is not present g is appended. Readers never observe a state
// with both or neither graphic.
func (l *Layer) Replace(oldID string, g Graphic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(oldID)
	if i < 0 {
		l.graphics = append(l.graphics, g)
		if l.observer != nil {
			l.observer.GraphicAdded(l.id, g)
		}
		return
	}
	l.graphics[i] = g
	if l.observer != nil {
		l.observer.GraphicReplaced(l.id, oldID, g)
	}
}

// RemoveAll empties the layer.
func (l *Layer) RemoveAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.graphics {
		if l.observer != nil {
			l.observer.GraphicRemoved(l.id, g.ID)
		}
	}
	l.graphics = nil
}

// Get returns the graphic with the given id.
func (l *Layer) Get(id string) (Graphic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.indexLocked(id)
	if i < 0 {
		return Graphic{}, false
	}
	return l.graphics[i], true
}

// Graphics returns a snapshot of the layer contents in drawing order.
func (l *Layer) Graphics() []Graphic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Graphic, len(l.graphics))
	copy(out, l.graphics)
	return out
}

// Len returns the number of graphics.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.graphics)
}

func (l *Layer) indexLocked(id string) int {
	for i := range l.graphics {
		if l.graphics[i].ID == id {
			return i
		}
	}
	return -1
}
