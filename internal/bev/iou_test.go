package bev

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOU_KnownOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     OrientedBox
		expected float64
	}{
		{
			name:     "identical axis aligned",
			a:        OrientedBox{DX: 4, DY: 2},
			b:        OrientedBox{DX: 4, DY: 2},
			expected: 1.0,
		},
		{
			name:     "shifted along x",
			a:        OrientedBox{DX: 4, DY: 2},
			b:        OrientedBox{X: 1, DX: 4, DY: 2},
			expected: 0.6, // 6 / (8 + 8 - 6)
		},
		{
			name:     "contained box",
			a:        OrientedBox{DX: 4, DY: 4},
			b:        OrientedBox{DX: 2, DY: 2},
			expected: 0.25,
		},
		{
			name:     "square against itself rotated 45 degrees",
			a:        OrientedBox{DX: 2, DY: 2},
			b:        OrientedBox{DX: 2, DY: 2, Heading: 45},
			expected: 1 / math.Sqrt2, // octagon 8(√2-1) over 8-8(√2-1)
		},
		{
			name:     "far apart",
			a:        OrientedBox{DX: 4, DY: 2},
			b:        OrientedBox{X: 10, DX: 4, DY: 2},
			expected: 0,
		},
		{
			name:     "touching edges",
			a:        OrientedBox{DX: 2, DY: 2},
			b:        OrientedBox{X: 2, DX: 2, DY: 2},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IOU(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-6)
			assert.Equal(t, got, IOU(tt.b, tt.a), "IOU should be symmetric")
		})
	}
}

func TestIOU_SelfOverlap(t *testing.T) {
	headings := []float32{0, 12.5, 37.5, 45, 90, 135, -60, 179.9, 270}
	for _, h := range headings {
		b := OrientedBox{X: 3.5, Y: -7.25, Z: 1, DX: 4.2, DY: 1.8, DZ: 1.5, Heading: h, Class: 2}
		if got := IOU(b, b); math.Abs(got-1) > 1e-6 {
			t.Errorf("IOU(b, b) with heading %.1f = %.9f, want 1", h, got)
		}
	}
}

func TestIOU_FullTurnIsSelfOverlap(t *testing.T) {
	b := OrientedBox{X: 1, Y: 2, DX: 4, DY: 2, Heading: 30}
	turned := b
	turned.Heading += 360

	assert.InDelta(t, 1.0, IOU(b, turned), 1e-5)
}

func TestIOU_ClockwiseHeading(t *testing.T) {
	// A long thin box at heading 45 points its long axis towards (+x, -y)
	// because positive headings rotate clockwise. A small box sitting on that
	// diagonal overlaps; the mirror position does not.
	long := OrientedBox{DX: 10, DY: 1, Heading: 45}
	below := OrientedBox{X: 2, Y: -2, DX: 1, DY: 1, Heading: 45}
	above := OrientedBox{X: 2, Y: 2, DX: 1, DY: 1, Heading: 45}

	assert.InDelta(t, 0.1, IOU(long, below), 1e-5)
	assert.Equal(t, 0.0, IOU(long, above))
}

func TestIOU_DisjointBoundingCircles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := randomBox(rng)
		b := randomBox(rng)
		// Push b far enough that the bounding circles cannot meet.
		gap := a.BoundingRadius() + b.BoundingRadius() + 0.01
		b.X = a.X + float32(gap) + 1
		b.Y = a.Y

		if got := IOU(a, b); got != 0 {
			t.Fatalf("IOU(%v, %v) = %f, want 0", a, b, got)
		}
	}
}

func TestIOU_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := randomBox(rng)
		b := randomBox(rng)
		ab := IOU(a, b)
		ba := IOU(b, a)
		require.Equal(t, ab, ba, "IOU(%v, %v)", a, b)
		require.GreaterOrEqual(t, ab, 0.0)
		require.LessOrEqual(t, ab, 1.0)
	}
}

func TestIOU_DegenerateBoxes(t *testing.T) {
	normal := OrientedBox{DX: 4, DY: 2, Heading: 15}
	tests := []struct {
		name string
		box  OrientedBox
	}{
		{"zero dx", OrientedBox{DX: 0, DY: 2}},
		{"zero dy", OrientedBox{DX: 4, DY: 0}},
		{"zero both", OrientedBox{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IOU(tt.box, normal)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, 0, got, 1e-9)
			assert.InDelta(t, 0, IOU(tt.box, tt.box), 1e-9)
		})
	}
}

func TestIntersectionArea_NeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		a := randomBox(rng)
		b := randomBox(rng)
		b.X = a.X + float32(rng.Float64()*2-1)
		b.Y = a.Y + float32(rng.Float64()*2-1)

		area := IntersectionArea(a, b)
		if area < 0 || math.IsNaN(area) || math.IsInf(area, 0) {
			t.Fatalf("IntersectionArea(%v, %v) = %f", a, b, area)
		}
		if limit := math.Min(a.Area(), b.Area()); area > limit+1e-6 {
			t.Fatalf("intersection %f exceeds smaller box area %f", area, limit)
		}
	}
}

func randomBox(rng *rand.Rand) OrientedBox {
	return OrientedBox{
		X:       float32(rng.Float64()*40 - 20),
		Y:       float32(rng.Float64()*40 - 20),
		DX:      float32(0.5 + rng.Float64()*5),
		DY:      float32(0.5 + rng.Float64()*3),
		Heading: float32(rng.Float64()*720 - 360),
	}
}
