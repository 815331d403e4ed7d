package bev

// Point is a 2D point in the XY plane.
type Point struct {
	X, Y float64
}

// Polygon is a closed ring of vertices; the last vertex connects back to the
// first. Clipping expects convex, counter-clockwise rings.
type Polygon []Point

// Area returns the absolute area enclosed by the ring using the shoelace
// formula. Rings with fewer than three vertices have zero area.
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var twice float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		twice += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	if twice < 0 {
		twice = -twice
	}
	return twice / 2
}

// ClipConvex returns the part of subject that lies inside clip using
// Sutherland–Hodgman clipping. clip must be convex and counter-clockwise.
// The result may be empty, or collapse to fewer than three vertices when the
// overlap is only a point or an edge.
func ClipConvex(subject, clip Polygon) Polygon {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make(Polygon, len(subject))
	copy(output, subject)

	for i := range clip {
		if len(output) == 0 {
			return nil
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]

		input := output
		output = make(Polygon, 0, len(input)+2)

		prev := input[len(input)-1]
		prevIn := inside(a, b, prev)
		for _, cur := range input {
			curIn := inside(a, b, cur)
			switch {
			case curIn && prevIn:
				output = append(output, cur)
			case curIn && !prevIn:
				output = append(output, lineIntersection(prev, cur, a, b), cur)
			case !curIn && prevIn:
				output = append(output, lineIntersection(prev, cur, a, b))
			}
			prev, prevIn = cur, curIn
		}
	}
	return output
}

// inside reports whether p is on the left of (or on) the directed edge a→b.
func inside(a, b, p Point) bool {
	return cross(a, b, p) >= 0
}

func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// lineIntersection intersects segment p→q with the infinite line through a→b.
// Callers guarantee p and q straddle the line, so the denominator is non-zero.
func lineIntersection(p, q, a, b Point) Point {
	cp := cross(a, b, p)
	cq := cross(a, b, q)
	den := cp - cq
	if den == 0 {
		return p
	}
	t := cp / den
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}
