package bev

import "math"

// IOUEpsilon keeps the IOU denominator non-zero for degenerate boxes.
const IOUEpsilon = 1e-9

// IntersectionArea returns the area of the XY overlap of a and b. It is zero
// when the boxes are disjoint or only touch along an edge or at a point.
func IntersectionArea(a, b OrientedBox) float64 {
	if a.Degenerate() || b.Degenerate() {
		return 0
	}

	// Boxes whose bounding circles do not meet cannot overlap.
	dx := float64(a.X) - float64(b.X)
	dy := float64(a.Y) - float64(b.Y)
	if math.Hypot(dx, dy) > a.BoundingRadius()+b.BoundingRadius() {
		return 0
	}

	// Clip in a fixed operand order so IntersectionArea(a, b) and
	// IntersectionArea(b, a) perform identical arithmetic.
	if lessBox(b, a) {
		a, b = b, a
	}
	area := ClipConvex(a.Corners(), b.Corners()).Area()
	if math.IsNaN(area) || math.IsInf(area, 0) || area < 0 {
		return 0
	}
	return area
}

func lessBox(a, b OrientedBox) bool {
	ka := [5]float32{a.X, a.Y, a.DX, a.DY, a.Heading}
	kb := [5]float32{b.X, b.Y, b.DX, b.DY, b.Heading}
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

// IOU is the XY intersection-over-union of two oriented boxes:
//
//	inter / (area(a) + area(b) - inter + IOUEpsilon)
//
// The result is in [0, 1] for non-degenerate boxes and 0 (not NaN) when
// either footprint is empty. IOU(a, b) == IOU(b, a).
func IOU(a, b OrientedBox) float64 {
	inter := IntersectionArea(a, b)
	if inter == 0 {
		return 0
	}
	return inter / (a.Area() + b.Area() - inter + IOUEpsilon)
}
