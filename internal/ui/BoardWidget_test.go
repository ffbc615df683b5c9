package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkNote/internal/media"
	"InkNote/internal/state"
)

type sinkRecorder struct {
	points []state.Point
	ends   int
}

func (r *sinkRecorder) AddPoint(p state.Point) { r.points = append(r.points, p) }
func (r *sinkRecorder) EndStroke()             { r.ends++ }

func newTestBoard(t *testing.T, natural state.Size) (*BoardWidget, *state.Surface, *sinkRecorder) {
	t.Helper()
	test.NewTempApp(t)
	clock := state.NewClock()
	surface := state.NewSurface(clock)
	sink := &sinkRecorder{}
	c := state.NewCapture(surface, clock, sink)
	img := &media.Image{Name: "test.png", Format: "png", Size: natural}
	return NewBoardWidget(c, surface, img, 0), surface, sink
}

func touch(x, y float32) *mobile.TouchEvent {
	return &mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestBoardTapMakesOneStroke(t *testing.T) {
	b, surface, sink := newTestBoard(t, state.Size{Width: 1200, Height: 800})
	b.Resize(fyne.NewSize(375, 812))

	b.TouchDown(touch(100, 300))
	b.TouchUp(touch(100, 300))

	require.Equal(t, 1, surface.Len())
	assert.Len(t, surface.Strokes()[0].Points, 1)
	assert.Equal(t, 1, sink.ends)
	require.Len(t, sink.points, 1)
	assert.InDelta(t, 0.2667, sink.points[0].X, 0.001)
	assert.InDelta(t, 0.076, sink.points[0].Y, 0.001)
}

func TestBoardLayoutSetsCanvasInfo(t *testing.T) {
	b, _, _ := newTestBoard(t, state.Size{Width: 1200, Height: 800})
	var infos []state.CanvasInfo
	b.capture.OnCanvasInfo = func(ci state.CanvasInfo) { infos = append(infos, ci) }

	b.Resize(fyne.NewSize(375, 812))

	require.NotEmpty(t, infos)
	last := infos[len(infos)-1]
	assert.InDelta(t, 375, last.Width, 0.01)
	assert.InDelta(t, 250, last.Height, 0.01)
	assert.Equal(t, float32(1200), last.ImageWidth)
	assert.Equal(t, float32(800), last.ImageHeight)

	r := b.capture.Display()
	assert.InDelta(t, 281, r.Y, 0.01)
}

func TestBoardMouseDrag(t *testing.T) {
	b, surface, sink := newTestBoard(t, state.Size{Width: 100, Height: 100})
	b.Resize(fyne.NewSize(200, 200))

	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)},
		Button:     desktop.MouseButtonPrimary,
	})
	for i := 1; i <= 5; i++ {
		pos := fyne.NewPos(10+float32(i)*10, 10)
		b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: pos}, Dragged: fyne.NewDelta(10, 0)})
	}
	b.DragEnd()
	b.MouseUp(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 10)},
		Button:     desktop.MouseButtonPrimary,
	})

	require.Equal(t, 1, surface.Len())
	assert.Len(t, surface.Strokes()[0].Points, 6)
	assert.Len(t, sink.points, 6)
	assert.Equal(t, 1, sink.ends)
}

func TestBoardSecondaryButtonIgnored(t *testing.T) {
	b, surface, _ := newTestBoard(t, state.Size{Width: 100, Height: 100})
	b.Resize(fyne.NewSize(100, 100))

	ev := &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 5)}, Button: desktop.MouseButtonSecondary}
	b.MouseDown(ev)
	b.MouseUp(ev)

	assert.Equal(t, 0, surface.Len())
}

func TestBoardCloseStopsCapture(t *testing.T) {
	b, surface, sink := newTestBoard(t, state.Size{Width: 100, Height: 100})
	b.Resize(fyne.NewSize(100, 100))
	closed := 0
	b.OnClosed = func() { closed++ }

	b.TouchDown(touch(10, 10))
	b.Close()
	b.Close()
	b.TouchDown(touch(20, 20))
	b.TouchUp(touch(20, 20))

	assert.Equal(t, 1, closed)
	assert.Equal(t, 0, surface.Len())
	assert.Len(t, sink.points, 1)
	assert.Equal(t, 0, sink.ends)
	assert.Equal(t, state.Closed, b.capture.State())
}

func TestBoardRendersStrokes(t *testing.T) {
	b, _, _ := newTestBoard(t, state.Size{Width: 100, Height: 100})
	b.Resize(fyne.NewSize(100, 100))

	b.TouchDown(touch(10, 10))
	b.TouchUp(touch(10, 10))
	b.TouchDown(touch(20, 20))
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 20)}, Dragged: fyne.NewDelta(10, 0)})
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 20)}, Dragged: fyne.NewDelta(10, 0)})
	b.TouchUp(touch(40, 20))

	r := test.WidgetRenderer(b)
	// background, image, one dot and two segments
	assert.Len(t, r.Objects(), 5)
}
