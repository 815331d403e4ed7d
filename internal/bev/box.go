package bev

import (
	"fmt"
	"math"
)

// OrientedBox is one detection or ground-truth box as stored in a frame file.
//
// Fields mirror the on-disk record layout:
//   - X/Y/Z: centre position
//   - DX/DY/DZ: full extents along the box's local axes
//   - Heading: rotation about the vertical axis (degrees)
//   - Class: semantic class id, stored as float32 for fixed-width records
//
// Only X, Y, DX, DY and Heading take part in the XY IOU. Z, DZ and Class are
// carried through untouched.
type OrientedBox struct {
	X       float32
	Y       float32
	Z       float32
	DX      float32
	DY      float32
	DZ      float32
	Heading float32
	Class   float32
}

// Area returns the XY footprint DX*DY. Zero or negative extents are not
// rejected; they propagate into the IOU denominator, which carries an epsilon.
func (b OrientedBox) Area() float64 {
	return float64(b.DX) * float64(b.DY)
}

// Corners returns the box outline in the XY plane as a counter-clockwise
// polygon. The rectangle is rotated by -Heading degrees (clockwise for a
// positive heading) and then translated by (X, Y).
//
// Extents are taken by absolute value for the outline, so a box with a
// negative DX covers the same region as one with a positive DX.
func (b OrientedBox) Corners() Polygon {
	hw := math.Abs(float64(b.DX)) / 2
	hh := math.Abs(float64(b.DY)) / 2

	theta := -float64(b.Heading) * math.Pi / 180
	sin, cos := math.Sincos(theta)
	cx, cy := float64(b.X), float64(b.Y)

	local := [4]Point{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
	}
	poly := make(Polygon, 0, 4)
	for _, p := range local {
		poly = append(poly, Point{
			X: p.X*cos - p.Y*sin + cx,
			Y: p.X*sin + p.Y*cos + cy,
		})
	}
	return poly
}

// BoundingRadius is half the XY diagonal: every corner lies within this
// distance of the centre.
func (b OrientedBox) BoundingRadius() float64 {
	return math.Hypot(float64(b.DX), float64(b.DY)) / 2
}

// Degenerate reports whether the XY footprint has no area.
func (b OrientedBox) Degenerate() bool {
	return b.DX == 0 || b.DY == 0
}

func (b OrientedBox) String() string {
	return fmt.Sprintf("box (%.2f, %.2f, %.2f) size (%.2f x %.2f x %.2f) heading %.1f° class %.0f",
		b.X, b.Y, b.Z, b.DX, b.DY, b.DZ, b.Heading, b.Class)
}
