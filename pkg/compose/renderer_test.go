package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode render output: %v", err)
	}
	return img
}

// pixelNear reports whether the pixel at (x, y) is within tolerance of want
// on every channel. Resampling bleeds a little at edges, so exact equality
// is only safe well inside a region.
func pixelNear(img image.Image, x, y int, want color.RGBA) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	wr, wg, wb, _ := want.RGBA()
	const tol = 0x0800
	diff := func(a, b uint32) uint32 {
		if a > b {
			return a - b
		}
		return b - a
	}
	return diff(r, wr) < tol && diff(g, wg) < tol && diff(b, wb) < tol
}

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// testTemplate is a 200x200 design with one centered 100x100 slot.
func testTemplate() *template.Template {
	return &template.Template{
		ID:              "before-after",
		Name:            "Before / After",
		DesignWidth:     200,
		DesignHeight:    200,
		BackgroundColor: "#ffffff",
		Slots: []template.Slot{
			{ID: "before", Width: 100, Height: 100, XPercent: 0.25, YPercent: 0.25},
		},
	}
}

func newTestRenderer(src ImageSource) *Renderer {
	return NewRenderer(src, log.New(io.Discard))
}

func TestRenderBackgroundOnly(t *testing.T) {
	r := newTestRenderer(NewMemorySource())
	out, err := r.Render(context.Background(), RenderInput{Template: testTemplate()})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Fatalf("output size = %v, want 200x200", img.Bounds())
	}
	for _, pt := range []image.Point{{5, 5}, {100, 100}, {195, 195}} {
		if !pixelNear(img, pt.X, pt.Y, white) {
			t.Errorf("pixel %v = %v, want white", pt, img.At(pt.X, pt.Y))
		}
	}
}

func TestRenderPhotoFillsFrame(t *testing.T) {
	src := NewMemorySource()
	src.Add("mem://photo", solidImage(400, 400, red))

	r := newTestRenderer(src)
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://photo", Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	// Frame spans [50,150) on both axes.
	if !pixelNear(img, 100, 100, red) {
		t.Errorf("frame center = %v, want red", img.At(100, 100))
	}
	if !pixelNear(img, 55, 55, red) {
		t.Errorf("frame interior = %v, want red", img.At(55, 55))
	}
	// Outside the frame the photo must be clipped away.
	if !pixelNear(img, 25, 25, white) {
		t.Errorf("outside frame = %v, want white", img.At(25, 25))
	}
	if !pixelNear(img, 175, 100, white) {
		t.Errorf("outside frame = %v, want white", img.At(175, 100))
	}
}

func TestRenderEmptySlotRendersNothing(t *testing.T) {
	r := newTestRenderer(NewMemorySource())
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Slots:    map[string]slot.SlotData{},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img := decodePNG(t, out)
	if !pixelNear(img, 100, 100, white) {
		t.Errorf("empty slot frame center = %v, want background", img.At(100, 100))
	}
}

func TestRenderWideImageCoverCrops(t *testing.T) {
	src := NewMemorySource()
	// Left half green, right half blue, twice as wide as tall. Cover-fit
	// into a square frame crops both sides, so the seam lands mid-frame.
	wide := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if x < 200 {
				wide.SetRGBA(x, y, green)
			} else {
				wide.SetRGBA(x, y, blue)
			}
		}
	}
	src.Add("mem://wide", wide)

	r := newTestRenderer(src)
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://wide", Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	if !pixelNear(img, 60, 100, green) {
		t.Errorf("left of seam = %v, want green", img.At(60, 100))
	}
	if !pixelNear(img, 140, 100, blue) {
		t.Errorf("right of seam = %v, want blue", img.At(140, 100))
	}
}

func TestRenderTranslatePansImage(t *testing.T) {
	src := NewMemorySource()
	wide := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if x < 200 {
				wide.SetRGBA(x, y, green)
			} else {
				wide.SetRGBA(x, y, blue)
			}
		}
	}
	src.Add("mem://wide", wide)

	r := newTestRenderer(src)
	// Full positive translate shifts the photo right by half the excess,
	// bringing the green half across the whole frame.
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://wide", Adjustments: geometry.Adjustments{Scale: 1, TranslateX: 0.5}},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	for _, x := range []int{60, 100, 140} {
		if !pixelNear(img, x, 100, green) {
			t.Errorf("pixel (%d,100) = %v, want green after pan", x, img.At(x, 100))
		}
	}
}

func TestRenderShapeLayerRequiresThemeColor(t *testing.T) {
	tpl := testTemplate()
	tpl.Layers = []template.ThemeLayer{
		template.NewShapeLayer(geometry.Box{X: 0, Y: 0, Width: 40, Height: 40}, 0, 1,
			template.ShapeFields{Color: "#000000"}),
	}

	r := newTestRenderer(NewMemorySource())

	// Without a theme color the shape is skipped entirely.
	out, err := r.Render(context.Background(), RenderInput{Template: tpl})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img := decodePNG(t, out)
	if !pixelNear(img, 20, 20, white) {
		t.Errorf("shape rendered without theme color: %v", img.At(20, 20))
	}

	// With a theme color it renders in that color, not its own.
	out, err = r.Render(context.Background(), RenderInput{Template: tpl, ThemeColor: "#ff0000"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img = decodePNG(t, out)
	if !pixelNear(img, 20, 20, red) {
		t.Errorf("themed shape = %v, want red", img.At(20, 20))
	}
}

func TestRenderTextLayerAlwaysRenders(t *testing.T) {
	tpl := testTemplate()
	tpl.Layers = []template.ThemeLayer{
		template.NewTextLayer(geometry.Box{X: 50, Y: 150, Width: 100, Height: 40}, 0, 1,
			template.TextFields{Text: "BEFORE", FontSize: 24, Color: "#0000ff"}),
	}

	r := newTestRenderer(NewMemorySource())
	out, err := r.Render(context.Background(), RenderInput{Template: tpl})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Some pixel in the text box must have taken the text color.
	img := decodePNG(t, out)
	found := false
	for y := 150; y < 190 && !found; y++ {
		for x := 50; x < 150 && !found; x++ {
			if pixelNear(img, x, y, blue) {
				found = true
			}
		}
	}
	if !found {
		t.Error("text layer left no blue pixels in its box")
	}
}

func TestRenderImageOverlayOnTop(t *testing.T) {
	src := NewMemorySource()
	src.Add("mem://photo", solidImage(200, 200, red))
	src.Add("mem://logo", solidImage(20, 20, green))

	r := newTestRenderer(src)
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://photo", Adjustments: geometry.DefaultAdjustments()},
		},
		Overlays: []Overlay{
			{Kind: OverlayImage, X: 90, Y: 90, Image: &ImageOverlay{URI: "mem://logo", Width: 20, Height: 20}},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	if !pixelNear(img, 100, 100, green) {
		t.Errorf("overlay pixel = %v, want green above the photo", img.At(100, 100))
	}
	if !pixelNear(img, 130, 100, red) {
		t.Errorf("beside overlay = %v, want red photo", img.At(130, 100))
	}
}

func TestRenderCustomOutputSizeScalesLayers(t *testing.T) {
	src := NewMemorySource()
	src.Add("mem://photo", solidImage(300, 300, red))

	r := newTestRenderer(src)
	out, err := r.Render(context.Background(), RenderInput{
		Template: testTemplate(),
		Width:    400,
		Height:   400,
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://photo", Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img := decodePNG(t, out)
	if img.Bounds().Dx() != 400 {
		t.Fatalf("output width = %d, want 400", img.Bounds().Dx())
	}
	// The frame doubles with the canvas: spans [100,300) now.
	if !pixelNear(img, 200, 200, red) {
		t.Errorf("scaled frame center = %v, want red", img.At(200, 200))
	}
	if !pixelNear(img, 50, 50, white) {
		t.Errorf("outside scaled frame = %v, want white", img.At(50, 50))
	}
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(NewMemorySource())
	ctx := context.Background()

	if _, err := r.Render(ctx, RenderInput{}); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("nil template error = %v, want VALIDATION", errors.GetCode(err))
	}

	_, err := r.Render(ctx, RenderInput{
		Template: testTemplate(),
		Slots: map[string]slot.SlotData{
			"before": {URI: "mem://missing", Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing image error = %v, want NOT_FOUND", errors.GetCode(err))
	}

	_, err = r.Render(ctx, RenderInput{
		Template: testTemplate(),
		Overlays: []Overlay{{Kind: OverlayText}}, // payload missing
	})
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("bad overlay error = %v, want VALIDATION", errors.GetCode(err))
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff0000", color.RGBA{R: 0xff, A: 0xff}, false},
		{"#00FF00", color.RGBA{G: 0xff, A: 0xff}, false},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{"#1a2b3c", color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, false},
		{"ff0000", color.RGBA{}, true},
		{"#ggg", color.RGBA{}, true},
		{"#12345", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
