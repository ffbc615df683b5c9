// Package export renders an annotated image to PDF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"InkNote/internal/media"
	"InkNote/internal/state"
)

// Document is everything that ends up on the page.
type Document struct {
	Image *media.Image
	// Local strokes are in canvas pixels; Display is the rect the image
	// occupied when they were drawn.
	Local   []state.Stroke
	Display state.Rect
	// Remote strokes are already normalized.
	Remote []state.Stroke
}

// defaultPage (A4 in points) is used when no image is attached.
var defaultPage = state.Size{Width: 595, Height: 842}

// WritePDF draws the image and the strokes on one page sized to the image.
func WritePDF(w io.Writer, doc Document) error {
	page := defaultPage
	if doc.Image != nil && doc.Image.Size.Width > 0 && doc.Image.Size.Height > 0 {
		page = doc.Image.Size
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(page.Width), Ht: float64(page.Height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if doc.Image != nil {
		if typ := imageType(doc.Image.Format); typ != "" {
			opts := gofpdf.ImageOptions{ImageType: typ}
			pdf.RegisterImageOptionsReader(doc.Image.Name, opts, bytes.NewReader(doc.Image.Data))
			pdf.ImageOptions(doc.Image.Name, 0, 0, float64(page.Width), float64(page.Height), false, opts, 0, "")
		}
	}

	pageRect := state.Rect{Width: page.Width, Height: page.Height}
	for _, st := range doc.Local {
		pts := make([]state.Point, len(st.Points))
		for i, p := range st.Points {
			pts[i] = state.Denormalize(doc.Display.Normalize(p), pageRect)
		}
		drawStroke(pdf, st, pts, scaleFor(doc.Display, page))
	}
	for _, st := range doc.Remote {
		pts := make([]state.Point, len(st.Points))
		for i, p := range st.Points {
			pts[i] = state.Denormalize(p, pageRect)
		}
		drawStroke(pdf, st, pts, 1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func drawStroke(pdf *gofpdf.Fpdf, st state.Stroke, pts []state.Point, scale float32) {
	if len(pts) == 0 {
		return
	}
	c, _ := state.ParseColor(st.Color)
	r, g, b := int(c.R), int(c.G), int(c.B)
	if st.Type == state.StrokeEraser {
		r, g, b = 255, 255, 255
	}
	pdf.SetDrawColor(r, g, b)
	pdf.SetFillColor(r, g, b)
	width := float64(st.Width * scale)
	if width <= 0 {
		width = 1
	}
	pdf.SetLineWidth(width)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	if op := st.Opacity(); op < 1 {
		pdf.SetAlpha(float64(op), blendMode(st))
		defer pdf.SetAlpha(1, "Normal")
	}

	if len(pts) == 1 {
		pdf.Circle(float64(pts[0].X), float64(pts[0].Y), width/2, "F")
		return
	}
	pdf.MoveTo(float64(pts[0].X), float64(pts[0].Y))
	for _, p := range pts[1:] {
		pdf.LineTo(float64(p.X), float64(p.Y))
	}
	pdf.DrawPath("D")
}

// scaleFor converts widths in canvas pixels to page units.
func scaleFor(display state.Rect, page state.Size) float32 {
	if display.Width <= 0 {
		return 1
	}
	return page.Width / display.Width
}

func blendMode(st state.Stroke) string {
	if st.Tool != nil && st.Tool.BlendMode != "" {
		// pdf blend mode names are capitalized
		return strings.ToUpper(st.Tool.BlendMode[:1]) + strings.ToLower(st.Tool.BlendMode[1:])
	}
	if st.Type == state.StrokeHighlighter {
		return "Multiply"
	}
	return "Normal"
}

func imageType(format string) string {
	switch format {
	case "png":
		return "PNG"
	case "jpeg":
		return "JPG"
	case "gif":
		return "GIF"
	}
	return ""
}
