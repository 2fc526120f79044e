package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_Overlaps(t *testing.T) {
	base := Rect{X: 100, Y: 100, W: 50, H: 50}

	for _, tc := range []struct {
		name     string
		other    Rect
		expected bool
	}{
		{"identical", base, true},
		{"inside", Rect{X: 110, Y: 110, W: 5, H: 5}, true},
		{"partial", Rect{X: 140, Y: 140, W: 50, H: 50}, true},
		{"touching right edge", Rect{X: 150, Y: 100, W: 10, H: 10}, false},
		{"touching left edge", Rect{X: 90, Y: 100, W: 10, H: 10}, false},
		{"touching bottom edge", Rect{X: 100, Y: 150, W: 10, H: 10}, false},
		{"touching top edge", Rect{X: 100, Y: 90, W: 10, H: 10}, false},
		{"far away", Rect{X: 500, Y: 500, W: 10, H: 10}, false},
		{"overlap on x only", Rect{X: 110, Y: 300, W: 10, H: 10}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, base.Overlaps(tc.other))
			assert.Equal(t, tc.expected, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestRect_ContainsPoint(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	assert.True(t, r.ContainsPoint(Vec{10, 20}))
	assert.True(t, r.ContainsPoint(Vec{40, 60}))
	assert.True(t, r.ContainsPoint(Vec{25, 30}))
	assert.False(t, r.ContainsPoint(Vec{9.9, 30}))
	assert.False(t, r.ContainsPoint(Vec{25, 60.1}))
}

func TestRect_helpers(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	assert.Equal(t, Vec{25, 40}, r.Center())
	assert.Equal(t, Rect{X: 12, Y: 22, W: 26, H: 36}, r.Inset(2))
	assert.Equal(t, Rect{X: 30, Y: -20, W: -10, H: 70}, r.Offset(20, -40, -40, 30))
}

func TestCollides(t *testing.T) {
	obstacles := []Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 100, Y: 100, W: 10, H: 10},
	}

	assert.True(t, Collides(Rect{X: 95, Y: 95, W: 10, H: 10}, obstacles, 0))
	assert.False(t, Collides(Rect{X: 50, Y: 50, W: 10, H: 10}, obstacles, 0))
	assert.False(t, Collides(Rect{X: 10, Y: 0, W: 5, H: 5}, obstacles, 0))
	assert.False(t, Collides(Rect{X: 50, Y: 50, W: 10, H: 10}, nil, 0))

	// a near miss is forgiven once obstacles are shrunk
	graze := Rect{X: 108, Y: 100, W: 10, H: 10}
	assert.True(t, Collides(graze, obstacles, 0))
	assert.False(t, Collides(graze, obstacles, 3))
}

func TestFacing(t *testing.T) {
	for _, tc := range []struct {
		facing Facing
		name   string
		dx, dy int
	}{
		{Up, "up", 0, -1},
		{Down, "down", 0, 1},
		{Left, "left", -1, 0},
		{Right, "right", 1, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dx, dy := tc.facing.Delta()
			assert.Equal(t, tc.dx, dx)
			assert.Equal(t, tc.dy, dy)
			assert.Equal(t, tc.name, tc.facing.String())

			parsed, err := ParseFacing(tc.name)
			assert.NoError(t, err)
			assert.Equal(t, tc.facing, parsed)
		})
	}

	_, err := ParseFacing("sideways")
	assert.Error(t, err)
}

func TestRNG_deterministic(t *testing.T) {
	a, b := NewRNG(7), NewRNG(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(4), b.Intn(4))
	}

	r := NewRNG(99)
	seen := make(map[int]bool)
	for i := 0; i < 400; i++ {
		v := r.Intn(4)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 4)
		seen[v] = true

		f := r.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
	assert.Len(t, seen, 4, "every direction should come up")
}
