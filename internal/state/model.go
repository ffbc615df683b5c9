package state

import (
	"time"
)

// Point is a single sample of a stroke. Depending on where it lives it is
// either in canvas-local pixels or normalized to [0,1] image space.
type Point struct {
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Pressure  float32 `json:"pressure,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"` // unix millis
}

type StrokeType string

const (
	StrokePen         StrokeType = "pen"
	StrokeHighlighter StrokeType = "highlighter"
	StrokeEraser      StrokeType = "eraser"
)

// ToolParams are optional per-tool rendering parameters.
type ToolParams struct {
	Opacity   float32 `json:"opacity,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
}

// Tool is what the user currently draws with.
type Tool struct {
	Color  string
	Width  float32
	Type   StrokeType
	Params *ToolParams
}

// DefaultTool matches the red pen the app starts with.
func DefaultTool() Tool {
	return Tool{Color: "#FF0000", Width: 2, Type: StrokePen}
}

// Stroke is one finished gesture. It is never modified after commit.
type Stroke struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id,omitempty"`
	Points    []Point     `json:"points"`
	Color     string      `json:"color"`
	Width     float32     `json:"width"`
	Type      StrokeType  `json:"type"`
	Tool      *ToolParams `json:"tool,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	// Offset is the index of Points[0] within the whole stroke when the
	// points arrive in pieces. Negative means unknown.
	Offset int `json:"-"`
}

// Opacity resolves the effective opacity of a stroke.
func (s Stroke) Opacity() float32 {
	if s.Tool != nil && s.Tool.Opacity > 0 {
		return s.Tool.Opacity
	}
	if s.Type == StrokeHighlighter {
		return 0.4
	}
	return 1
}

type Size struct {
	Width  float32
	Height float32
}

// Rect is the area the image actually occupies inside its container after
// aspect-fit scaling. Always derived from sizes, never mutated.
type Rect struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// CanvasInfo lets a remote peer reproduce our normalized-to-pixel mapping.
// Width/Height are the displayed image size, ImageWidth/ImageHeight the
// natural one.
type CanvasInfo struct {
	Width       float32 `json:"width"`
	Height      float32 `json:"height"`
	ImageWidth  float32 `json:"imageWidth"`
	ImageHeight float32 `json:"imageHeight"`
}

func (c CanvasInfo) IsZero() bool {
	return c == CanvasInfo{}
}

// StrokeComplete is emitted once per committed stroke.
type StrokeComplete struct {
	Stroke     Stroke // normalized points
	CanvasInfo CanvasInfo
}
