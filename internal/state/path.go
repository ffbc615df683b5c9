package state

import (
	"strconv"
	"strings"
)

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
)

type PathCommand struct {
	Op PathOp
	X  float32
	Y  float32
}

// PathDescriptor is what the renderer draws: an unfilled coloured polyline.
type PathDescriptor struct {
	StrokeID string
	Commands []PathCommand
	Color    string
	Width    float32
	Opacity  float32
	Type     StrokeType
}

// BuildPath turns a point list into move-to/line-to commands.
func BuildPath(points []Point) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	cmds := make([]PathCommand, 0, len(points))
	cmds = append(cmds, PathCommand{Op: MoveTo, X: points[0].X, Y: points[0].Y})
	for _, p := range points[1:] {
		cmds = append(cmds, PathCommand{Op: LineTo, X: p.X, Y: p.Y})
	}
	return cmds
}

// SVG renders the commands as path data, e.g. "M 1 2 L 3 4".
func (d PathDescriptor) SVG() string {
	var sb strings.Builder
	for i, c := range d.Commands {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if c.Op == MoveTo {
			sb.WriteString("M ")
		} else {
			sb.WriteString("L ")
		}
		sb.WriteString(strconv.FormatFloat(float64(c.X), 'f', -1, 32))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(float64(c.Y), 'f', -1, 32))
	}
	return sb.String()
}

func descriptorFor(s Stroke, points []Point) PathDescriptor {
	return PathDescriptor{
		StrokeID: s.ID,
		Commands: BuildPath(points),
		Color:    s.Color,
		Width:    s.Width,
		Opacity:  s.Opacity(),
		Type:     s.Type,
	}
}
