package template

import "github.com/jackhunterking/beautycanvas/pkg/geometry"

// Builtin returns the bundled before/after template. The serve command falls
// back to it when no template directory is configured.
func Builtin() *Template {
	return &Template{
		ID:              "before-after",
		Name:            "Before / After",
		DesignWidth:     1080,
		DesignHeight:    1920,
		BackgroundColor: "#f5f0eb",
		Slots: []Slot{
			{ID: "before", Width: 500, Height: 890, XPercent: 2.0, YPercent: 24.0},
			{ID: "after", Width: 500, Height: 890, XPercent: 51.7, YPercent: 24.0},
		},
		Layers: []ThemeLayer{
			NewShapeLayer(geometry.Box{X: 62, Y: 1400, Width: 220, Height: 76}, 0, 1, ShapeFields{
				CornerRadius: 38,
			}),
			NewTextLayer(geometry.Box{X: 62, Y: 1400, Width: 220, Height: 76}, 0, 1, TextFields{
				Text:          "BEFORE",
				FontFamily:    "sans-bold",
				FontSize:      34,
				LetterSpacing: 3,
				Color:         "#ffffff",
			}),
			NewShapeLayer(geometry.Box{X: 598, Y: 1400, Width: 220, Height: 76}, 0, 1, ShapeFields{
				CornerRadius: 38,
			}),
			NewTextLayer(geometry.Box{X: 598, Y: 1400, Width: 220, Height: 76}, 0, 1, TextFields{
				Text:          "AFTER",
				FontFamily:    "sans-bold",
				FontSize:      34,
				LetterSpacing: 3,
				Color:         "#ffffff",
			}),
		},
	}
}
