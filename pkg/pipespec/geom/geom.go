// Package geom provides the axis-aligned bounding-box and affine-transform
// primitives used by the visibility resolver.
package geom

import "math"

// Epsilon is the tolerance used by point-containment tests to absorb
// floating-point noise from transform round-trips.
const Epsilon = 1e-9

// FallbackHalfWidth is the half-width of the degenerate box synthesized
// around a representative point when an element has no readable geometry.
// Model units are millimeters.
const FallbackHalfWidth = 1.0

// Point is a point in a document's local 3D coordinate space.
type Point struct {
	X, Y, Z float64
}

// Box is an axis-aligned bounding box given by two corner points.
// Min and Max are not guaranteed pre-sorted per axis; consumers go
// through Normalized before comparing.
type Box struct {
	Min, Max Point
}

// Normalized returns the box with Min and Max swapped per axis so that
// Min <= Max holds on every axis.
func (b Box) Normalized() Box {
	return Box{
		Min: Point{
			X: math.Min(b.Min.X, b.Max.X),
			Y: math.Min(b.Min.Y, b.Max.Y),
			Z: math.Min(b.Min.Z, b.Max.Z),
		},
		Max: Point{
			X: math.Max(b.Min.X, b.Max.X),
			Y: math.Max(b.Min.Y, b.Max.Y),
			Z: math.Max(b.Min.Z, b.Max.Z),
		},
	}
}

// Corners returns the 8 corner points of the box: the Cartesian product
// of {Min.X, Max.X} x {Min.Y, Max.Y} x {Min.Z, Max.Z}.
func (b Box) Corners() [8]Point {
	return [8]Point{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Intersects reports whether two boxes overlap. The test is
// boundary-inclusive: touching faces, edges, or points count as overlap.
// Both boxes are normalized before comparison.
func (b Box) Intersects(o Box) bool {
	a, c := b.Normalized(), o.Normalized()
	if a.Max.X < c.Min.X || a.Min.X > c.Max.X {
		return false
	}
	if a.Max.Y < c.Min.Y || a.Min.Y > c.Max.Y {
		return false
	}
	if a.Max.Z < c.Min.Z || a.Min.Z > c.Max.Z {
		return false
	}
	return true
}

// Contains reports whether the point lies inside the normalized box,
// inclusive of the boundary within Epsilon.
func (b Box) Contains(p Point) bool {
	n := b.Normalized()
	return p.X >= n.Min.X-Epsilon && p.X <= n.Max.X+Epsilon &&
		p.Y >= n.Min.Y-Epsilon && p.Y <= n.Max.Y+Epsilon &&
		p.Z >= n.Min.Z-Epsilon && p.Z <= n.Max.Z+Epsilon
}

// DegenerateBox synthesizes a small box of the given half-width centered
// on a representative point. Used when true geometry is unavailable.
func DegenerateBox(center Point, halfWidth float64) Box {
	return Box{
		Min: Point{center.X - halfWidth, center.Y - halfWidth, center.Z - halfWidth},
		Max: Point{center.X + halfWidth, center.Y + halfWidth, center.Z + halfWidth},
	}
}

// BoxFromPoints returns the smallest axis-aligned box enclosing the given
// points. Returns a zero box for an empty slice.
func BoxFromPoints(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	box := Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Min.Z = math.Min(box.Min.Z, p.Z)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
		box.Max.Z = math.Max(box.Max.Z, p.Z)
	}
	return box
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}
