package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-3

func TestDisplayedImageLetterboxed(t *testing.T) {
	r := DisplayedImage(Size{375, 812}, Size{1200, 800})
	assert.InDelta(t, 0, r.X, eps)
	assert.InDelta(t, 281, r.Y, eps)
	assert.InDelta(t, 375, r.Width, eps)
	assert.InDelta(t, 250, r.Height, eps)
}

func TestDisplayedImagePillarboxed(t *testing.T) {
	r := DisplayedImage(Size{1000, 500}, Size{400, 400})
	assert.InDelta(t, 250, r.X, eps)
	assert.InDelta(t, 0, r.Y, eps)
	assert.InDelta(t, 500, r.Width, eps)
	assert.InDelta(t, 500, r.Height, eps)
}

func TestNormalizeScenario(t *testing.T) {
	n := Normalize(Point{X: 100, Y: 300}, Size{375, 812}, Size{1200, 800})
	assert.InDelta(t, 0.2667, n.X, 1e-4)
	assert.InDelta(t, 0.076, n.Y, 1e-4)
}

func TestDisplayRectContainedAndAspectKept(t *testing.T) {
	sizes := []float32{1, 3, 50, 99.5, 375, 812, 1200, 4096}
	for _, cw := range sizes {
		for _, ch := range sizes {
			for _, iw := range sizes {
				for _, ih := range sizes {
					r := DisplayedImage(Size{cw, ch}, Size{iw, ih})
					require.GreaterOrEqual(t, r.X, float32(0))
					require.GreaterOrEqual(t, r.Y, float32(0))
					require.LessOrEqual(t, r.X+r.Width, cw*(1+1e-5))
					require.LessOrEqual(t, r.Y+r.Height, ch*(1+1e-5))
					ratio := float64(r.Width / r.Height)
					want := float64(iw / ih)
					require.InEpsilon(t, want, ratio, 1e-4, "container %vx%v image %vx%v", cw, ch, iw, ih)
				}
			}
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	container, img := Size{375, 812}, Size{1200, 800}
	r := DisplayedImage(container, img)
	for _, p := range []Point{
		{X: 0, Y: 281},
		{X: 375, Y: 531},
		{X: 100, Y: 300},
		{X: 187.5, Y: 406},
		{X: 12.25, Y: 500.75},
	} {
		require.Equal(t, p, r.Clamp(p), "point inside the display rect")
		back := Denormalize(Normalize(p, container, img), r)
		assert.InDelta(t, p.X, back.X, eps)
		assert.InDelta(t, p.Y, back.Y, eps)
	}
}

func TestNormalizeClampsOutside(t *testing.T) {
	container, img := Size{375, 812}, Size{1200, 800}
	cases := []struct {
		in   Point
		x, y float32
	}{
		{Point{X: -20, Y: 0}, 0, 0},
		{Point{X: 500, Y: 900}, 1, 1},
		{Point{X: 100, Y: 10}, 100.0 / 375, 0},
		{Point{X: 100, Y: 800}, 100.0 / 375, 1},
		{Point{X: 400, Y: 406}, 1, 0.5},
	}
	for _, tc := range cases {
		n := Normalize(tc.in, container, img)
		assert.InDelta(t, tc.x, n.X, 1e-6, "x for %+v", tc.in)
		assert.InDelta(t, tc.y, n.Y, 1e-6, "y for %+v", tc.in)
	}
}

func TestNormalizeImageNotLoadedUsesContainer(t *testing.T) {
	n := Normalize(Point{X: 50, Y: 100}, Size{100, 400}, Size{})
	assert.InDelta(t, 0.5, n.X, eps)
	assert.InDelta(t, 0.25, n.Y, eps)
}

func TestNormalizeDegenerateNeverNaN(t *testing.T) {
	inputs := []struct{ c, i Size }{
		{Size{0, 0}, Size{0, 0}},
		{Size{-10, 20}, Size{100, 100}},
		{Size{100, 0}, Size{100, 100}},
		{Size{100, 100}, Size{-1, 50}},
		{Size{float32(math.NaN()), 100}, Size{100, 100}},
	}
	for _, in := range inputs {
		n := Normalize(Point{X: 42, Y: 17}, in.c, in.i)
		assert.False(t, math.IsNaN(float64(n.X)) || math.IsNaN(float64(n.Y)), "%+v", in)
		assert.True(t, n.X >= 0 && n.X <= 1 && n.Y >= 0 && n.Y <= 1, "%+v -> %+v", in, n)
	}
}

func TestCanvasInfoFor(t *testing.T) {
	info := CanvasInfoFor(Size{375, 812}, Size{1200, 800})
	assert.InDelta(t, 375, info.Width, eps)
	assert.InDelta(t, 250, info.Height, eps)
	assert.Equal(t, float32(1200), info.ImageWidth)
	assert.Equal(t, float32(800), info.ImageHeight)
}
