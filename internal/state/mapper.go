package state

// DisplayedImage computes where an image of natural size img ends up inside
// a container when scaled to fit while keeping its aspect ratio.
func DisplayedImage(container, img Size) Rect {
	cw, ch := nonNegative(container.Width), nonNegative(container.Height)
	full := Rect{Width: cw, Height: ch}
	if cw == 0 || ch == 0 || img.Width <= 0 || img.Height <= 0 {
		return full
	}

	containerRatio := cw / ch
	imageRatio := img.Width / img.Height

	var r Rect
	if containerRatio > imageRatio {
		// height-constrained, pillarboxed
		r.Height = ch
		r.Width = r.Height * imageRatio
		r.X = (cw - r.Width) / 2
	} else {
		// width-constrained, letterboxed
		r.Width = cw
		r.Height = r.Width / imageRatio
		r.Y = (ch - r.Height) / 2
	}

	if r.Width <= 0 || r.Height <= 0 {
		return full
	}
	return r
}

// Normalize maps a canvas-local point into [0,1] image space. Points outside
// the displayed image are clamped to its nearest edge.
func Normalize(p Point, container, img Size) Point {
	return DisplayedImage(container, img).Normalize(p)
}

// Normalize maps p, clamped into r, to [0,1] relative to r.
func (r Rect) Normalize(p Point) Point {
	c := r.Clamp(p)
	return Point{
		X:         normalizeAxis(c.X-r.X, r.Width),
		Y:         normalizeAxis(c.Y-r.Y, r.Height),
		Pressure:  p.Pressure,
		Timestamp: p.Timestamp,
	}
}

// Denormalize is the inverse of Normalize for a given display rect.
func Denormalize(p Point, r Rect) Point {
	return Point{
		X:         r.X + clamp01(p.X)*r.Width,
		Y:         r.Y + clamp01(p.Y)*r.Height,
		Pressure:  p.Pressure,
		Timestamp: p.Timestamp,
	}
}

// CanvasInfoFor describes the current mapping for remote peers.
func CanvasInfoFor(container, img Size) CanvasInfo {
	r := DisplayedImage(container, img)
	return CanvasInfo{
		Width:       r.Width,
		Height:      r.Height,
		ImageWidth:  nonNegative(img.Width),
		ImageHeight: nonNegative(img.Height),
	}
}

// Clamp moves p onto the closest point of r.
func (r Rect) Clamp(p Point) Point {
	p.X = clamp(p.X, r.X, r.X+r.Width)
	p.Y = clamp(p.Y, r.Y, r.Y+r.Height)
	return p
}

func normalizeAxis(v, span float32) float32 {
	if span <= 0 {
		return 0
	}
	return clamp01(v / span)
}

func clamp(v, lo, hi float32) float32 {
	// NaN input collapses to lo
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp01 bounds a float to the [0..1] range.
func clamp01(v float32) float32 {
	return clamp(v, 0, 1)
}

func nonNegative(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	return v
}
