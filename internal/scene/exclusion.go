package scene

import (
	"strconv"
	"strings"

	"github.com/scenereveal/backend-go/internal/geometry"
)

// ExclusionMode selects how the masked buildings are hidden from the
// content layer.
type ExclusionMode string

const (
	ExclusionIDs     ExclusionMode = "ids"     // attribute filter on object ids
	ExclusionSpatial ExclusionMode = "spatial" // features disjoint from an area
)

// Exclusion hides a subset of a content layer's features. The zero value
// excludes nothing.
type Exclusion struct {
	IDs      []int64           `json:"ids,omitempty"`
	Disjoint *geometry.Polygon `json:"disjoint,omitempty"`
}

// ExcludeIDs hides the features with the given object ids.
func ExcludeIDs(ids []int64) Exclusion {
	return Exclusion{IDs: append([]int64(nil), ids...)}
}

// ExcludeWhere keeps only the features disjoint from area.
func ExcludeWhere(area geometry.Polygon) Exclusion {
	return Exclusion{Disjoint: &area}
}

// IsZero reports whether the exclusion hides nothing.
func (e Exclusion) IsZero() bool {
	return len(e.IDs) == 0 && e.Disjoint == nil
}

// Expression renders the id form as a definition expression. It is empty
// for the zero exclusion and for the spatial form.
func (e Exclusion) Expression() string {
	if len(e.IDs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("OBJECTID NOT IN (")
	for i, id := range e.IDs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte(')')
	return b.String()
}
