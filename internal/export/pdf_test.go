package export

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkNote/internal/media"
	"InkNote/internal/state"
)

func testImage(t *testing.T) *media.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 120, 80))))
	img, err := media.Decode("bg.png", buf.Bytes())
	require.NoError(t, err)
	return img
}

func TestWritePDF(t *testing.T) {
	doc := Document{
		Image:   testImage(t),
		Display: state.Rect{X: 0, Y: 281, Width: 375, Height: 250},
		Local: []state.Stroke{
			{ID: "a", Color: "#FF0000", Width: 2, Type: state.StrokePen, Points: []state.Point{{X: 10, Y: 300}, {X: 200, Y: 400}}},
			{ID: "b", Color: "yellow", Width: 12, Type: state.StrokeHighlighter, Points: []state.Point{{X: 50, Y: 350}, {X: 60, Y: 360}}},
			{ID: "c", Width: 20, Type: state.StrokeEraser, Points: []state.Point{{X: 5, Y: 290}}},
		},
		Remote: []state.Stroke{
			{ID: "r", Color: "#00f", Width: 3, Type: state.StrokePen, Points: []state.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		},
	}
	var out bytes.Buffer
	require.NoError(t, WritePDF(&out, doc))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
}

func TestWritePDFWithoutImage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WritePDF(&out, Document{}))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
}

func TestBlendMode(t *testing.T) {
	assert.Equal(t, "Multiply", blendMode(state.Stroke{Type: state.StrokeHighlighter}))
	assert.Equal(t, "Screen", blendMode(state.Stroke{Tool: &state.ToolParams{BlendMode: "screen"}}))
	assert.Equal(t, "Normal", blendMode(state.Stroke{}))
}
