package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	points []Point
	ends   int
}

func (r *recordingSink) AddPoint(p Point) { r.points = append(r.points, p) }
func (r *recordingSink) EndStroke()       { r.ends++ }

func newTestCapture() (*Capture, *Surface, *recordingSink) {
	clock := NewClock()
	surface := NewSurface(clock)
	sink := &recordingSink{}
	c := NewCapture(surface, clock, sink)
	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	c.SetLayout(Size{375, 812}, Size{1200, 800})
	return c, surface, sink
}

func TestCaptureTapCommitsSinglePointStroke(t *testing.T) {
	c, surface, sink := newTestCapture()
	var completed []StrokeComplete
	c.OnStrokeComplete = func(sc StrokeComplete) { completed = append(completed, sc) }

	c.Begin(Point{X: 100, Y: 300})
	require.Equal(t, Drawing, c.State())
	c.End()

	assert.Equal(t, Idle, c.State())
	strokes := surface.Strokes()
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 1)
	assert.Equal(t, float32(100), strokes[0].Points[0].X)
	assert.Equal(t, float32(1), strokes[0].Points[0].Pressure)

	require.Len(t, completed, 1)
	require.Len(t, completed[0].Stroke.Points, 1)
	assert.InDelta(t, 0.2667, completed[0].Stroke.Points[0].X, 1e-4)
	assert.InDelta(t, 250, completed[0].CanvasInfo.Height, 1e-3)
	assert.Len(t, sink.points, 1)
	assert.Equal(t, 1, sink.ends)
	assert.Empty(t, c.points)
}

func TestCaptureMoveAppendsAndForwardsNormalized(t *testing.T) {
	c, surface, sink := newTestCapture()
	c.Begin(Point{X: 0, Y: 281})
	c.Move(Point{X: 187.5, Y: 406})
	c.Move(Point{X: 375, Y: 1000})
	assert.Len(t, c.points, 3)
	c.End()

	require.Len(t, sink.points, 3)
	assert.InDelta(t, 0.5, sink.points[1].X, 1e-4)
	assert.InDelta(t, 0.5, sink.points[1].Y, 1e-4)
	assert.Equal(t, Point{X: 1, Y: 1, Pressure: 1, Timestamp: 1_700_000_000_000}, sink.points[2])

	strokes := surface.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, float32(1000), strokes[0].Points[2].Y, "committed stroke keeps raw points")
	assert.Equal(t, StrokePen, strokes[0].Type)
	assert.Equal(t, "#FF0000", strokes[0].Color)
}

func TestCaptureMoveWithoutBeginIgnored(t *testing.T) {
	c, surface, sink := newTestCapture()
	c.Move(Point{X: 1, Y: 1})
	c.End()
	assert.Zero(t, surface.Len())
	assert.Empty(t, sink.points)
	assert.Zero(t, sink.ends)
}

func TestCaptureCloseMidGesture(t *testing.T) {
	c, surface, sink := newTestCapture()
	fired := false
	c.OnStrokeComplete = func(StrokeComplete) { fired = true }

	c.Begin(Point{X: 10, Y: 300})
	c.Move(Point{X: 20, Y: 310})
	sent := len(sink.points)
	c.Close()

	c.Move(Point{X: 30, Y: 320})
	c.End()
	c.Begin(Point{X: 40, Y: 330})

	assert.Equal(t, Closed, c.State())
	assert.Zero(t, surface.Len())
	assert.False(t, fired)
	assert.Len(t, sink.points, sent)
	assert.Zero(t, sink.ends)
	assert.Empty(t, surface.Paths(c.Display()))
}

func TestCaptureSetLayoutReportsCanvasInfoChanges(t *testing.T) {
	clock := NewClock()
	c := NewCapture(NewSurface(clock), clock, nil)
	var infos []CanvasInfo
	c.OnCanvasInfo = func(ci CanvasInfo) { infos = append(infos, ci) }

	c.SetLayout(Size{375, 812}, Size{1200, 800})
	c.SetLayout(Size{375, 812}, Size{1200, 800})
	c.SetLayout(Size{812, 375}, Size{1200, 800})

	require.Len(t, infos, 2)
	assert.InDelta(t, 562.5, infos[1].Width, 1e-3)
	assert.InDelta(t, 375, infos[1].Height, 1e-3)
}

func TestCaptureUsesCurrentTool(t *testing.T) {
	c, surface, _ := newTestCapture()
	c.SetTool(Tool{Color: "#00FF00", Width: 12, Type: StrokeHighlighter, Params: &ToolParams{Opacity: 0.3, BlendMode: "multiply"}})
	c.Begin(Point{X: 5, Y: 300})
	c.End()

	st := surface.Strokes()[0]
	assert.Equal(t, StrokeHighlighter, st.Type)
	assert.Equal(t, float32(12), st.Width)
	assert.InDelta(t, 0.3, st.Opacity(), 1e-6)
	assert.Equal(t, c.clock.Site(), st.OwnerID)
}
