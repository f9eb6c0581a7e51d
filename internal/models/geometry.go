package models

import "math"

// Point is a position in page-local pixels at the reference render scale
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the offset from o to p
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Scale multiplies both coordinates by f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Rect is an axis-aligned rectangle. Width and Height are never negative
// when built through NormalizeRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizeRect returns the rectangle spanned by two drag points, independent of their order
func NormalizeRect(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Origin returns the top-left corner
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Contains reports whether p lies inside r (edges inclusive)
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Scale multiplies origin and size by f
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

// BoundingBox is the on-screen box of the page container, in client pixels
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageSize is the intrinsic size of a page in PDF points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rotated returns the size as seen after a clockwise rotation
func (s PageSize) Rotated(rotation int) PageSize {
	if NormalizeRotation(rotation)%180 != 0 {
		return PageSize{Width: s.Height, Height: s.Width}
	}
	return s
}

// NormalizeRotation folds any multiple of 90 into {0, 90, 180, 270}
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg - deg%90
}

// IsRightAngle reports whether deg is one of 0, 90, 180 or 270
func IsRightAngle(deg int) bool {
	return deg == 0 || deg == 90 || deg == 180 || deg == 270
}
