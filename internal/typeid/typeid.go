package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixGraphic = "graphic"
	PrefixRun     = "run"
	PrefixAsset   = "asset"
	PrefixRequest = "req"
	PrefixSlide   = "slide"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewGraphicID() string { return New(PrefixGraphic) }
func NewRunID() string     { return New(PrefixRun) }
func NewAssetID() string   { return New(PrefixAsset) }
func NewRequestID() string { return New(PrefixRequest) }
func NewSlideID() string   { return New(PrefixSlide) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
