package deck

import (
	"github.com/scenereveal/backend-go/internal/geometry"
	"github.com/scenereveal/backend-go/internal/graphic"
)

// Sample returns the built-in lower Manhattan presentation: three slides
// and the block whose buildings get replaced by the planned ones.
func Sample() *Deck {
	sr := geometry.WebMercator
	at := func(x, y, z float64) geometry.Point {
		return geometry.Point{X: x, Y: y, Z: z, HasZ: true, SR: sr}
	}

	return &Deck{
		Version:          "1.0",
		WebSceneID:       "8dd394c07205432bad112c21cbbc307f",
		SpatialReference: sr,
		Layers: []Layer{
			{ID: "buildings", Title: "Buildings", Kind: LayerKindScene, Visible: true, Opacity: 1},
			{ID: "streets", Title: "Streets", Kind: LayerKindFeature, URL: "https://services.arcgis.com/streets/FeatureServer/0", Visible: true, Opacity: 1},
			{ID: "trees", Title: "Trees", Kind: LayerKindFeature, URL: "https://services.arcgis.com/trees/FeatureServer/0", Visible: true, Opacity: 1},
			{ID: "zoning", Title: "Zoning", Kind: LayerKindFeature, URL: "https://services.arcgis.com/zoning/FeatureServer/0", Visible: false, Opacity: 1},
		},
		Slides: []Slide{
			{
				ID:            "intro",
				Title:         "Lower Manhattan",
				Viewpoint:     Viewpoint{Position: at(-8236850, 4966900, 1450), Heading: 30, Tilt: 62},
				VisibleLayers: []string{"buildings", "streets"},
			},
			{
				ID:            "before",
				Title:         "Today",
				Viewpoint:     Viewpoint{Position: at(-8236300, 4968250, 620), Heading: 38, Tilt: 68},
				VisibleLayers: []string{"buildings", "streets", "trees"},
			},
			{
				ID:            "after",
				Title:         "Planned",
				Viewpoint:     Viewpoint{Position: at(-8236250, 4968300, 540), Heading: 42, Tilt: 70},
				VisibleLayers: []string{"buildings", "trees", "zoning"},
			},
		},
		Mask: Mask{
			Area: [][2]float64{
				{-8235924.058660398, 4968738.274357371},
				{-8235409.000644938, 4968717.325404106},
				{-8235333.439527529, 4968898.289607817},
				{-8235295.877979361, 4969109.891441089},
				{-8236134.357229519, 4969027.878528339},
				{-8236138.632189713, 4968850.261903069},
				{-8235919.081131686, 4968836.806196137},
				{-8235924.058660398, 4968738.274357371},
			},
			ObjectIDs: []int64{
				158321, 106893, 158711, 158613, 158632, 159047, 158099, 158249, 147102, 106899, 107439, 158654, 158247, 158307,
				158610, 158963, 154542, 158869, 158814, 158900, 107340, 107395, 107172, 158336, 158784, 158571, 158600, 158348,
				158955, 158205, 158883, 158431, 158326, 158353, 158449, 158587, 158251, 158857, 159069, 158706,
			},
			Color:        graphic.Color{R: 226, G: 119, B: 40, A: 1},
			PathSize:     6,
			OutlineWidth: 6,
		},
	}
}
