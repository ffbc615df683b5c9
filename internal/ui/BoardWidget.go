package ui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"InkNote/internal/media"
	"InkNote/internal/state"
)

// BoardWidget shows the image with the annotation overlay and feeds touch,
// mouse and drag input into the stroke capture.
type BoardWidget struct {
	widget.BaseWidget

	capture *state.Capture
	surface *state.Surface

	img     *media.Image
	natural state.Size

	measured     fyne.Size
	measureDelay time.Duration
	measureTimer *time.Timer
	closed       bool

	// OnClosed runs once when the board is unmounted.
	OnClosed func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

func NewBoardWidget(c *state.Capture, s *state.Surface, img *media.Image, measureDelay time.Duration) *BoardWidget {
	b := &BoardWidget{
		capture:      c,
		surface:      s,
		measureDelay: measureDelay,
	}
	b.setImage(img)
	c.OnChange = b.Refresh
	b.ExtendBaseWidget(b)
	b.scheduleMeasure()
	return b
}

// SetImage swaps the displayed image, e.g. after the file changed on disk.
func (b *BoardWidget) SetImage(img *media.Image) {
	if b.closed {
		return
	}
	b.setImage(img)
	b.capture.SetLayout(toSize(b.measured), b.natural)
	b.Refresh()
}

func (b *BoardWidget) setImage(img *media.Image) {
	b.img = img
	if img != nil {
		b.natural = img.Size
	} else {
		b.natural = state.Size{}
	}
}

// Image returns the image currently shown.
func (b *BoardWidget) Image() *media.Image { return b.img }

// Close unmounts the board: the gesture in progress is dropped, the
// measurement timer is stopped and OnClosed runs.
func (b *BoardWidget) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.measureTimer != nil {
		b.measureTimer.Stop()
	}
	b.capture.Close()
	if b.OnClosed != nil {
		b.OnClosed()
	}
}

// scheduleMeasure re-checks the container size once layout has settled.
// The first Layout can run before the window has its final size.
func (b *BoardWidget) scheduleMeasure() {
	if b.measureDelay <= 0 {
		return
	}
	if b.measureTimer != nil {
		b.measureTimer.Stop()
	}
	b.measureTimer = time.AfterFunc(b.measureDelay, func() {
		fyne.Do(b.remeasure)
	})
}

func (b *BoardWidget) remeasure() {
	if b.closed {
		return
	}
	b.layoutTo(b.Size())
}

func (b *BoardWidget) layoutTo(size fyne.Size) {
	if b.closed {
		return
	}
	b.measured = size
	b.capture.SetLayout(toSize(size), b.natural)
}

func toSize(s fyne.Size) state.Size {
	return state.Size{Width: s.Width, Height: s.Height}
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: p.X, Y: p.Y}
}

// Touch input

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.capture.Begin(toPoint(e.Position))
}

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) {
	b.capture.End()
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.capture.Cancel()
}

// Mouse input

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.capture.Begin(toPoint(e.Position))
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.capture.End()
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.capture.State() == state.Idle {
		// touch drivers may deliver the drag before TouchDown
		b.capture.Begin(toPoint(e.Position.Subtract(e.Dragged)))
	}
	b.capture.Move(toPoint(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.capture.End()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	r.image = canvas.NewImageFromResource(nil)
	r.image.FillMode = canvas.ImageFillContain
	r.rebuild()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	image      *canvas.Image
	shown      *media.Image
	strokes    []fyne.CanvasObject
	objects    []fyne.CanvasObject
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.image.Move(fyne.NewPos(0, 0))
	r.image.Resize(size)
	r.board.layoutTo(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *boardWidgetRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {}

func (r *boardWidgetRenderer) rebuild() {
	if img := r.board.img; img != r.shown {
		r.shown = img
		if img != nil {
			r.image.Resource = fyne.NewStaticResource(img.Name, img.Data)
		} else {
			r.image.Resource = nil
		}
		r.image.Refresh()
	}

	r.strokes = r.strokes[:0]
	for _, p := range r.board.surface.Paths(r.board.capture.Display()) {
		r.strokes = append(r.strokes, pathObjects(p)...)
	}
	r.objects = append([]fyne.CanvasObject{r.background, r.image}, r.strokes...)
}

// pathObjects draws one path as line segments; a lone point becomes a dot.
func pathObjects(p state.PathDescriptor) []fyne.CanvasObject {
	c := strokeColor(p)
	if len(p.Commands) == 1 {
		d := p.Width
		if d < 2 {
			d = 2
		}
		dot := canvas.NewCircle(c)
		dot.Move(fyne.NewPos(p.Commands[0].X-d/2, p.Commands[0].Y-d/2))
		dot.Resize(fyne.NewSize(d, d))
		return []fyne.CanvasObject{dot}
	}

	objs := make([]fyne.CanvasObject, 0, len(p.Commands))
	for i := 1; i < len(p.Commands); i++ {
		from, to := p.Commands[i-1], p.Commands[i]
		segment := canvas.NewLine(c)
		segment.StrokeWidth = p.Width
		segment.Position1 = fyne.NewPos(from.X, from.Y)
		segment.Position2 = fyne.NewPos(to.X, to.Y)
		objs = append(objs, segment)
	}
	return objs
}

func strokeColor(p state.PathDescriptor) color.Color {
	if p.Type == state.StrokeEraser {
		return color.White
	}
	c, _ := state.ParseColor(p.Color)
	c.A = uint8(float32(c.A) * p.Opacity)
	return c
}
