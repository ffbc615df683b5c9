package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkNote/internal/state"
)

var palette = []string{"#000000", "#FF0000", "#00FF00", "#0000FF", "#FFFF00"}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(c string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	fill, _ := state.ParseColor(s.Color)
	rect := canvas.NewRectangle(fill)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolPicker remembers the pen colour while the eraser is active.
type toolPicker struct {
	screen    *Screen
	lastColor string
}

func (p *toolPicker) pen() {
	t := p.screen.Tool()
	t.Type = state.StrokePen
	t.Color = p.lastColor
	t.Params = nil
	if t.Width > 10 {
		t.Width = 2
	}
	p.screen.SetTool(t)
}

func (p *toolPicker) highlighter() {
	t := p.screen.Tool()
	t.Type = state.StrokeHighlighter
	t.Color = p.lastColor
	t.Params = &state.ToolParams{Opacity: 0.4, BlendMode: "multiply"}
	if t.Width < 8 {
		t.Width = 12
	}
	p.screen.SetTool(t)
}

func (p *toolPicker) eraser() {
	t := p.screen.Tool()
	t.Type = state.StrokeEraser
	t.Color = "#FFFFFF"
	t.Params = nil
	t.Width = 20
	p.screen.SetTool(t)
}

func (p *toolPicker) color(c string) {
	p.lastColor = c
	t := p.screen.Tool()
	if t.Type == state.StrokeEraser {
		t.Type = state.StrokePen
		t.Width = 2
	}
	t.Color = c
	p.screen.SetTool(t)
}

func (p *toolPicker) width(w float64) {
	t := p.screen.Tool()
	t.Width = float32(w)
	p.screen.SetTool(t)
}

// --- The Main Toolbar ---
func NewToolbar(s *Screen, onExport, onCloseImage func()) fyne.CanvasObject {
	picker := &toolPicker{screen: s, lastColor: s.Tool().Color}
	if s.Tool().Type == state.StrokeEraser {
		picker.lastColor = "#000000"
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), picker.pen),       // Pen
		widget.NewToolbarAction(theme.ColorPaletteIcon(), picker.highlighter), // Highlighter
		widget.NewToolbarAction(theme.DeleteIcon(), picker.eraser),            // Eraser
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), s.ClearOwn),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), s.ClearAll),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
		widget.NewToolbarAction(theme.CancelIcon(), onCloseImage),
	)

	// --- Color Palette ---
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, picker.color))
	}

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 50.0)
	strokeSlider.SetValue(float64(s.Tool().Width))
	strokeSlider.OnChanged = picker.width
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
		s.Status(),
	)
}
