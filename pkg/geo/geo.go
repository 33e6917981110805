// Package geo provides the 2D primitives used by the layout engine.
//
// All coordinates are in a screen coordinate system: the origin is the
// top-left corner, X grows right and Y grows down. Angles are measured in
// radians with atan2 conventions over that system.
package geo

import "math"

// Epsilon is the tolerance used when comparing coordinates.
// Layout arithmetic is plain float64; anything closer than this is equal.
const Epsilon = 1e-6

// Point is a position or displacement in the diagram plane.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Eq reports whether p and q coincide within Epsilon.
func (p Point) Eq(q Point) bool {
	return math.Abs(p.X-q.X) < Epsilon && math.Abs(p.Y-q.Y) < Epsilon
}

// AngleTo returns the angle of the segment from p to q.
func (p Point) AngleTo(q Point) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X)
}

// Rect is an axis-aligned box identified by its top-left corner and size.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// RectAround returns the rect of the given size centered on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Right returns the X coordinate of r's right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of r's bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X-Epsilon && p.X <= r.Right()+Epsilon &&
		p.Y >= r.Y-Epsilon && p.Y <= r.Bottom()+Epsilon
}

// ContainsRect reports whether s lies entirely inside r.
func (r Rect) ContainsRect(s Rect) bool {
	return r.Contains(Point{X: s.X, Y: s.Y}) && r.Contains(Point{X: s.Right(), Y: s.Bottom()})
}

// Union returns the smallest rect covering both r and s.
// A zero-size rect at the origin is treated as empty and ignored.
func (r Rect) Union(s Rect) Rect {
	if r.IsZero() {
		return s
	}
	if s.IsZero() {
		return r
	}
	x := math.Min(r.X, s.X)
	y := math.Min(r.Y, s.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), s.Right()) - x,
		Height: math.Max(r.Bottom(), s.Bottom()) - y,
	}
}

// Inflate returns r grown by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Translate returns r shifted by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, Width: r.Width, Height: r.Height}
}

// IsZero reports whether r is the zero value.
func (r Rect) IsZero() bool {
	return r.X == 0 && r.Y == 0 && r.Width == 0 && r.Height == 0
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
