package deck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scenereveal/backend-go/internal/typeid"
)

// Parse decodes and validates a YAML deck. Slides without an id get a
// generated one.
func Parse(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	for i := range d.Slides {
		if d.Slides[i].ID == "" {
			d.Slides[i].ID = typeid.NewSlideID()
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Read loads a deck from a YAML file.
func Read(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return Parse(data)
}

// Write stores a deck as YAML.
func Write(d *Deck, path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads the deck at path, or returns the built-in sample when path is
// empty.
func Load(path string) (*Deck, error) {
	if path == "" {
		return Sample(), nil
	}
	return Read(path)
}
