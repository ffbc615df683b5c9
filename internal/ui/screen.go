package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/kataras/golog"

	"InkNote/internal/config"
	"InkNote/internal/export"
	"InkNote/internal/media"
	inknet "InkNote/internal/net"
	"InkNote/internal/state"
)

var logger = golog.Child("[ui]")

// Connection is the socket the screen drives. *inknet.Conn implements it.
type Connection interface {
	inknet.Channel
	OnDisconnect(fn func(error))
	Open(ctx context.Context) error
	Close() error
}

// Screen is one mounted annotation session: the board over an image, bound
// to a note on the server. It lives until Unmount.
type Screen struct {
	cfg config.Config

	clock   *state.Clock
	surface *state.Surface
	capture *state.Capture
	board   *BoardWidget
	status  *widget.Label

	conn    Connection
	session *inknet.Session
	batcher *inknet.Batcher

	ctx     context.Context
	cancel  context.CancelFunc
	mounted bool
}

// NewScreen wires capture, batching and the note session together. Nothing
// is sent before Mount.
func NewScreen(cfg config.Config, img *media.Image, conn Connection) *Screen {
	s := &Screen{
		cfg:    cfg,
		clock:  state.NewClock(),
		conn:   conn,
		status: widget.NewLabel("Connecting..."),
	}
	s.surface = state.NewSurface(s.clock)
	s.session = inknet.NewSession(conn, cfg.NoteID)
	s.batcher = inknet.NewBatcher(s.session, s.clock, inknet.BatcherOptions{
		BatchSize:        cfg.BatchSize,
		FlushOnStrokeEnd: cfg.FlushOnStrokeEnd,
	})
	s.capture = state.NewCapture(s.surface, s.clock, s.batcher)
	s.SetTool(cfg.StrokeTool())

	s.capture.OnCanvasInfo = s.batcher.SetCanvasInfo
	s.capture.OnStrokeComplete = func(sc state.StrokeComplete) {
		logger.Debugf("stroke %s complete: %d points on %gx%g", sc.Stroke.ID, len(sc.Stroke.Points),
			sc.CanvasInfo.Width, sc.CanvasInfo.Height)
	}
	s.board = NewBoardWidget(s.capture, s.surface, img, cfg.MeasureDelay)
	s.board.OnClosed = s.teardown

	s.session.OnRemoteStroke(s.onRemoteStroke)
	conn.OnConnect(func() { fyne.Do(func() { s.setStatus("Connected to " + s.session.NoteID()) }) })
	conn.OnDisconnect(func(err error) {
		fyne.Do(func() { s.setStatus(fmt.Sprintf("Disconnected: %v", err)) })
	})
	return s
}

// Mount opens the connection. It returns immediately; the join happens once
// the socket is up.
func (s *Screen) Mount(ctx context.Context) error {
	if s.mounted || s.board.closed {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mounted = true
	if err := s.conn.Open(s.ctx); err != nil {
		s.setStatus(fmt.Sprintf("Connection failed: %v", err))
		return err
	}
	return nil
}

// Context is cancelled on Unmount.
func (s *Screen) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Unmount stops capturing and tears the session down. Nothing is emitted
// afterwards.
func (s *Screen) Unmount() {
	s.board.Close()
}

// teardown runs once, when the board closes.
func (s *Screen) teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.batcher.Close()
	s.session.Close()
	if !s.mounted {
		return
	}
	s.mounted = false
	conn := s.conn
	go func() {
		if err := conn.Close(); err != nil {
			logger.Warnf("close connection: %v", err)
		}
	}()
}

func (s *Screen) Board() *BoardWidget { return s.board }

func (s *Screen) Surface() *state.Surface { return s.surface }

func (s *Screen) Capture() *state.Capture { return s.capture }

func (s *Screen) Status() *widget.Label { return s.status }

func (s *Screen) Tool() state.Tool { return s.capture.Tool() }

// SetTool switches the tool for the next stroke on both the capture and the
// outgoing batches.
func (s *Screen) SetTool(t state.Tool) {
	s.capture.SetTool(t)
	s.batcher.SetTool(t)
}

// ClearOwn removes this client's strokes.
func (s *Screen) ClearOwn() {
	s.surface.Clear(s.clock.Site())
	s.board.Refresh()
}

// ClearAll removes every stroke, ours and the peers'.
func (s *Screen) ClearAll() {
	s.surface.Clear(state.AllOwners)
	s.board.Refresh()
}

// SetImage replaces the image, e.g. when the file changes on disk.
func (s *Screen) SetImage(img *media.Image) {
	s.board.SetImage(img)
}

// Document snapshots what an export should contain.
func (s *Screen) Document() export.Document {
	return export.Document{
		Image:   s.board.Image(),
		Local:   s.surface.Strokes(),
		Display: s.capture.Display(),
		Remote:  s.surface.RemoteStrokes(),
	}
}

func (s *Screen) setStatus(text string) {
	s.status.SetText(text)
}

// onRemoteStroke runs on the connection goroutine.
func (s *Screen) onRemoteStroke(u inknet.StrokeUpdate) {
	if u.Stroke.OwnerID == s.clock.Site() {
		return
	}
	strokes := u.Stroke.ToStrokes()
	fyne.Do(func() {
		if s.capture.State() == state.Closed {
			return
		}
		changed := false
		for _, st := range strokes {
			if s.surface.AddRemote(st) {
				changed = true
			}
		}
		if changed {
			s.board.Refresh()
		}
	})
}
