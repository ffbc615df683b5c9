package net

import (
	"InkNote/internal/state"
)

const DefaultBatchSize = 10

// StrokeSender is what the batcher flushes into. Session implements it.
type StrokeSender interface {
	Connected() bool
	SendStrokeUpdate(p StrokePayload, ack AckFunc) error
	SendCanvasInfo(ci state.CanvasInfo) error
}

type BatcherOptions struct {
	BatchSize int
	// FlushOnStrokeEnd sends the partial buffer when a stroke ends. Off by
	// default: the buffer then waits for the next full batch.
	FlushOnStrokeEnd bool
}

// Batcher accumulates normalized points and ships them in fixed-size
// batches. It implements state.PointSink and is used from the UI goroutine
// only.
type Batcher struct {
	sender StrokeSender
	clock  *state.Clock
	opts   BatcherOptions

	buf      []DrawingEvent
	segments []StrokeSegment
	tool     state.Tool
	info     *state.CanvasInfo
	strokeID string
	// sent counts the points of strokeID buffered or sent so far.
	sent   int
	closed bool
}

var _ state.PointSink = (*Batcher)(nil)

func NewBatcher(sender StrokeSender, clock *state.Clock, opts BatcherOptions) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Batcher{
		sender: sender,
		clock:  clock,
		opts:   opts,
		tool:   state.DefaultTool(),
	}
}

func (b *Batcher) SetTool(t state.Tool) { b.tool = t }

// Pending is the number of buffered points.
func (b *Batcher) Pending() int { return len(b.buf) }

// AddPoint buffers one normalized point and flushes on a full batch.
func (b *Batcher) AddPoint(p state.Point) {
	if b.closed {
		return
	}
	if b.strokeID == "" {
		b.strokeID = b.clock.NextStrokeID()
		b.sent = 0
	}
	if n := len(b.segments); n == 0 || b.segments[n-1].StrokeID != b.strokeID {
		b.segments = append(b.segments, StrokeSegment{StrokeID: b.strokeID, Offset: b.sent})
	}
	b.segments[len(b.segments)-1].Count++
	b.sent++
	pressure := p.Pressure
	if pressure == 0 {
		pressure = 1
	}
	b.buf = append(b.buf, DrawingEvent{
		X:          p.X,
		Y:          p.Y,
		Pressure:   pressure,
		Timestamp:  p.Timestamp,
		Normalized: true,
	})
	if len(b.buf) >= b.opts.BatchSize {
		b.Flush()
	}
}

// EndStroke marks the end of a gesture. The next point starts a new stroke
// id; points still buffered keep the id they were captured under.
func (b *Batcher) EndStroke() {
	if b.closed {
		return
	}
	if b.opts.FlushOnStrokeEnd {
		b.Flush()
	}
	b.strokeID = ""
}

// Flush sends whatever is buffered. The buffer is emptied whether or not
// the send went through; nothing is queued for retry.
func (b *Batcher) Flush() {
	if b.closed || len(b.buf) == 0 {
		return
	}
	payload := StrokePayload{
		ID:         b.segments[0].StrokeID,
		OwnerID:    b.clock.Site(),
		Points:     b.buf,
		Color:      b.tool.Color,
		Width:      b.tool.Width,
		Type:       string(b.tool.Type),
		Tool:       b.tool.Params,
		CanvasInfo: b.info,
		Segments:   b.segments,
	}
	b.buf = nil
	b.segments = nil

	if !b.sender.Connected() {
		logger.Warnf("socket not connected, dropping stroke update of %d points", len(payload.Points))
		return
	}
	logger.Debugf("sending stroke update %s (%d points, %d strokes)", payload.ID, len(payload.Points), len(payload.Segments))
	err := b.sender.SendStrokeUpdate(payload, func(m Message) {
		logger.Debugf("stroke update %s acknowledged: %v", payload.ID, m.Args)
	})
	if err != nil {
		logger.Warnf("stroke update %s not sent: %v", payload.ID, err)
	}
}

// SetCanvasInfo records the mapping attached to later batches and sends it
// to the note.
func (b *Batcher) SetCanvasInfo(ci state.CanvasInfo) {
	if b.closed {
		return
	}
	b.info = &ci
	if err := b.sender.SendCanvasInfo(ci); err != nil {
		logger.Debugf("canvas info not sent yet: %v", err)
	}
}

// Close drops the buffer. Later calls are no-ops.
func (b *Batcher) Close() {
	b.closed = true
	b.buf = nil
	b.segments = nil
}
