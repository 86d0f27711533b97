// Package fonts provides the built-in typefaces used by the compositing
// renderer.
//
// The fonts ship with the binary, so rendering works without any external
// font files. Template authors reference them by family name; unknown
// families fall back to the regular face rather than erroring, because a
// missing font should never block a render.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Built-in font family names.
const (
	FamilyRegular = "sans"
	FamilyBold    = "sans-bold"
	FamilyItalic  = "sans-italic"
)

// DefaultFamily is used when a text layer names no family.
const DefaultFamily = FamilyRegular

var (
	parseOnce sync.Once
	parsed    map[string]*truetype.Font
	parseErr  error
)

func load() {
	parsed = make(map[string]*truetype.Font, 3)
	for family, ttf := range map[string][]byte{
		FamilyRegular: goregular.TTF,
		FamilyBold:    gobold.TTF,
		FamilyItalic:  goitalic.TTF,
	} {
		f, err := truetype.Parse(ttf)
		if err != nil {
			parseErr = err
			return
		}
		parsed[family] = f
	}
}

// Face returns a font face for the given family at the given point size.
// Unknown or empty family names resolve to the regular face.
func Face(family string, size float64) (font.Face, error) {
	parseOnce.Do(load)
	if parseErr != nil {
		return nil, parseErr
	}

	f, ok := parsed[family]
	if !ok {
		f = parsed[DefaultFamily]
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Families returns the built-in family names.
func Families() []string {
	return []string{FamilyRegular, FamilyBold, FamilyItalic}
}
