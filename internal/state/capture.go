package state

import (
	"time"
)

type CaptureState int

const (
	Idle CaptureState = iota
	Drawing
	Closed
)

func (s CaptureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// PointSink receives every captured point, already normalized, plus a
// notification when the gesture ends. The batching transport implements it.
type PointSink interface {
	AddPoint(p Point)
	EndStroke()
}

// Capture turns touch lifecycle events into strokes.
//
// It is owned by the UI goroutine and is not safe for concurrent use.
type Capture struct {
	surface *Surface
	clock   *Clock
	sink    PointSink
	owner   string
	tool    Tool

	container Size
	image     Size
	info      CanvasInfo

	points []Point
	state  CaptureState
	now    func() time.Time

	// OnStrokeComplete fires once per committed stroke, with normalized
	// points and the canvas info in effect when the gesture ended.
	OnStrokeComplete func(StrokeComplete)
	// OnCanvasInfo fires whenever the displayed image dimensions change.
	OnCanvasInfo func(CanvasInfo)
	// OnChange asks the view to redraw.
	OnChange func()
}

func NewCapture(surface *Surface, clock *Clock, sink PointSink) *Capture {
	return &Capture{
		surface: surface,
		clock:   clock,
		sink:    sink,
		owner:   clock.Site(),
		tool:    DefaultTool(),
		now:     time.Now,
	}
}

func (c *Capture) State() CaptureState { return c.state }

func (c *Capture) Tool() Tool { return c.tool }

// SetTool changes the tool used for the next stroke.
func (c *Capture) SetTool(t Tool) { c.tool = t }

// Display is the rect the image occupies right now.
func (c *Capture) Display() Rect { return DisplayedImage(c.container, c.image) }

// SetLayout records new container and/or natural image sizes.
func (c *Capture) SetLayout(container, image Size) {
	if c.state == Closed {
		return
	}
	c.container, c.image = container, image
	info := CanvasInfoFor(container, image)
	if info == c.info {
		return
	}
	c.info = info
	if c.OnCanvasInfo != nil && info.Width > 0 && info.Height > 0 {
		c.OnCanvasInfo(info)
	}
	c.changed()
}

// Begin handles touch-start.
func (c *Capture) Begin(p Point) {
	if c.state != Idle {
		return
	}
	p = c.stamp(p)
	c.state = Drawing
	c.points = []Point{p}
	c.surface.SetCurrent(c.points, c.tool)
	c.forward(p)
	c.changed()
}

// Move handles touch-move. Ignored unless a gesture is in progress.
func (c *Capture) Move(p Point) {
	if c.state != Drawing {
		return
	}
	p = c.stamp(p)
	c.points = append(c.points, p)
	c.surface.SetCurrent(c.points, c.tool)
	c.forward(p)
	c.changed()
}

// End handles touch-end and commits the stroke.
func (c *Capture) End() {
	if c.state != Drawing {
		return
	}
	c.state = Idle
	raw := c.points
	c.points = nil

	if len(raw) == 0 {
		c.surface.SetCurrent(nil, c.tool)
		c.changed()
		return
	}

	st := Stroke{
		ID:        c.clock.NextStrokeID(),
		OwnerID:   c.owner,
		Points:    append([]Point(nil), raw...),
		Color:     c.tool.Color,
		Width:     c.tool.Width,
		Type:      c.tool.Type,
		Tool:      c.tool.Params,
		CreatedAt: c.now(),
	}
	c.surface.Commit(st)
	if c.sink != nil {
		c.sink.EndStroke()
	}

	if c.OnStrokeComplete != nil {
		norm := st
		norm.Points = make([]Point, len(raw))
		for i, p := range raw {
			norm.Points[i] = Normalize(p, c.container, c.image)
		}
		c.OnStrokeComplete(StrokeComplete{Stroke: norm, CanvasInfo: c.info})
	}
	c.changed()
}

// Cancel handles touch-cancel. The gesture is finalized like End.
func (c *Capture) Cancel() { c.End() }

// Close drops any gesture in progress and detaches from the transport.
// Everything after Close is a no-op.
func (c *Capture) Close() {
	if c.state == Closed {
		return
	}
	c.state = Closed
	c.points = nil
	c.sink = nil
	c.surface.SetCurrent(nil, c.tool)
}

func (c *Capture) stamp(p Point) Point {
	if p.Pressure == 0 {
		p.Pressure = 1
	}
	if p.Timestamp == 0 {
		p.Timestamp = c.now().UnixMilli()
	}
	return p
}

func (c *Capture) forward(p Point) {
	if c.sink == nil {
		return
	}
	c.sink.AddPoint(Normalize(p, c.container, c.image))
}

func (c *Capture) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}
