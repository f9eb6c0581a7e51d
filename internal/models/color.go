package models

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// Color is an opaque RGB color serialized as "#rrggbb"
type Color struct {
	R uint8
	G uint8
	B uint8
}

var (
	DefaultTextColor      = Color{0x00, 0x00, 0x00} // #000000
	DefaultHighlightColor = Color{0xff, 0xff, 0x00} // #ffff00
	DefaultDrawingColor   = Color{0xff, 0x00, 0x00} // #ff0000
)

// ParseColor accepts "#rrggbb", "#rgb" or the same without the leading '#'
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, Errorf(KindInvalidInput, "parse color", "invalid color %q", s)
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return Color{}, NewError(KindInvalidInput, "parse color", fmt.Errorf("invalid color %q: %w", s, err))
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

// ParseColorOr parses s, returning fallback when s is empty
func ParseColorOr(s string, fallback Color) (Color, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return ParseColor(s)
}

func (c Color) String() string {
	return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B})
}

// NRGBA returns the color with the given opacity in [0,1]
func (c Color) NRGBA(opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity*255 + 0.5)}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
