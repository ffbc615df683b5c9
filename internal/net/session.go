package net

import (
	"sync"

	"InkNote/internal/state"
)

// Event names understood by the note server.
const (
	EventJoin         = "join-note"
	EventStrokeUpdate = "stroke-update"
	EventCanvasInfo   = "canvas-info"
)

// DrawingEvent is one normalized point on the wire.
type DrawingEvent struct {
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Pressure   float32 `json:"pressure"`
	Timestamp  int64   `json:"timestamp"`
	Normalized bool    `json:"normalized"`
}

// StrokeSegment marks a run of points in a batch that belong to one stroke.
// Offset is the index of the run's first point within that stroke.
type StrokeSegment struct {
	StrokeID string `json:"strokeId"`
	Offset   int    `json:"offset"`
	Count    int    `json:"count"`
}

// StrokePayload is one batch. A batch can span the end of one gesture and
// the start of the next; Segments says where. ID is the first segment's
// stroke id.
type StrokePayload struct {
	ID         string            `json:"id,omitempty"`
	OwnerID    string            `json:"ownerId,omitempty"`
	Points     []DrawingEvent    `json:"points"`
	Color      string            `json:"color"`
	Width      float32           `json:"width"`
	Type       string            `json:"type"`
	Tool       *state.ToolParams `json:"tool,omitempty"`
	CanvasInfo *state.CanvasInfo `json:"canvasInfo,omitempty"`
	Segments   []StrokeSegment   `json:"segments,omitempty"`
}

type StrokeUpdate struct {
	NoteID string        `json:"noteId"`
	Stroke StrokePayload `json:"stroke"`
}

type CanvasInfoUpdate struct {
	NoteID     string           `json:"noteId"`
	CanvasInfo state.CanvasInfo `json:"canvasInfo"`
}

// ToStrokes splits a received batch into normalized strokes, one per
// segment. Batches without usable segments become a single stroke under ID
// with an unknown offset.
func (p StrokePayload) ToStrokes() []state.Stroke {
	pts := make([]state.Point, len(p.Points))
	for i, e := range p.Points {
		pts[i] = state.Point{X: e.X, Y: e.Y, Pressure: e.Pressure, Timestamp: e.Timestamp}
	}
	if !p.segmentsValid() {
		if len(p.Segments) > 0 {
			logger.Warnf("stroke batch %s: segments do not cover %d points, ignoring them", p.ID, len(pts))
		}
		st := p.stroke(p.ID, pts)
		st.Offset = -1
		return []state.Stroke{st}
	}

	out := make([]state.Stroke, 0, len(p.Segments))
	at := 0
	for _, seg := range p.Segments {
		st := p.stroke(seg.StrokeID, pts[at:at+seg.Count])
		st.Offset = seg.Offset
		out = append(out, st)
		at += seg.Count
	}
	return out
}

func (p StrokePayload) segmentsValid() bool {
	if len(p.Segments) == 0 {
		return false
	}
	total := 0
	for _, seg := range p.Segments {
		if seg.Count <= 0 || seg.Offset < 0 || seg.StrokeID == "" {
			return false
		}
		total += seg.Count
	}
	return total == len(p.Points)
}

func (p StrokePayload) stroke(id string, pts []state.Point) state.Stroke {
	return state.Stroke{
		ID:      id,
		OwnerID: p.OwnerID,
		Points:  pts,
		Color:   p.Color,
		Width:   p.Width,
		Type:    state.StrokeType(p.Type),
		Tool:    p.Tool,
	}
}

// Channel is the part of Conn a Session needs.
type Channel interface {
	Connected() bool
	Emit(event string, args ...any) error
	EmitWithAck(event string, ack AckFunc, args ...any) error
	On(event string, fn func(Message))
	OnConnect(fn func())
}

// Session binds a connection to one note. Every message it sends carries
// the note id it was created with.
type Session struct {
	ch     Channel
	noteID string

	mu     sync.Mutex
	info   *state.CanvasInfo
	remote []func(StrokeUpdate)
	closed bool
}

func NewSession(ch Channel, noteID string) *Session {
	s := &Session{ch: ch, noteID: noteID}
	ch.OnConnect(s.onConnect)
	ch.On(EventStrokeUpdate, s.onStrokeUpdate)
	return s
}

func (s *Session) NoteID() string { return s.noteID }

func (s *Session) Connected() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	return !closed && s.ch.Connected()
}

// Join announces this client on the note. It is repeated after every
// reconnect.
func (s *Session) Join() error {
	if err := s.usable(); err != nil {
		return err
	}
	logger.Infof("joining note %s", s.noteID)
	return s.ch.Emit(EventJoin, s.noteID)
}

// SendStrokeUpdate emits one batch. ack may be nil.
func (s *Session) SendStrokeUpdate(p StrokePayload, ack AckFunc) error {
	if err := s.usable(); err != nil {
		return err
	}
	msg := StrokeUpdate{NoteID: s.noteID, Stroke: p}
	if ack == nil {
		return s.ch.Emit(EventStrokeUpdate, msg)
	}
	return s.ch.EmitWithAck(EventStrokeUpdate, func(m Message) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			ack(m)
		}
	}, msg)
}

// SendCanvasInfo remembers the latest canvas info and emits it when
// connected. It is resent after reconnects.
func (s *Session) SendCanvasInfo(ci state.CanvasInfo) error {
	s.mu.Lock()
	s.info = &ci
	s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	return s.ch.Emit(EventCanvasInfo, CanvasInfoUpdate{NoteID: s.noteID, CanvasInfo: ci})
}

// CanvasInfo returns the last canvas info handed to SendCanvasInfo.
func (s *Session) CanvasInfo() (state.CanvasInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return state.CanvasInfo{}, false
	}
	return *s.info, true
}

// OnRemoteStroke subscribes to stroke batches other peers send on this note.
func (s *Session) OnRemoteStroke(fn func(StrokeUpdate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = append(s.remote, fn)
}

// Close detaches the session. Later sends fail with ErrClosed and late acks
// are ignored. The underlying connection is left to its owner.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.remote = nil
}

func (s *Session) usable() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !s.ch.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (s *Session) onConnect() {
	if err := s.Join(); err != nil {
		logger.Warnf("join note %s: %v", s.noteID, err)
		return
	}
	if ci, ok := s.CanvasInfo(); ok {
		if err := s.SendCanvasInfo(ci); err != nil {
			logger.Warnf("resend canvas info: %v", err)
		}
	}
}

func (s *Session) onStrokeUpdate(m Message) {
	var upd StrokeUpdate
	if err := m.Decode(0, &upd); err != nil {
		logger.Warnf("bad stroke-update: %v", err)
		return
	}
	if upd.NoteID != s.noteID {
		return
	}
	s.mu.Lock()
	handlers := append([]func(StrokeUpdate){}, s.remote...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(upd)
	}
}
