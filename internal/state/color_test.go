package state

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#FF0000", color.NRGBA{R: 255, A: 255}, true},
		{"#00f", color.NRGBA{B: 255, A: 255}, true},
		{"Blue", color.NRGBA{B: 255, A: 255}, true},
		{"#12ab34", color.NRGBA{R: 0x12, G: 0xab, B: 0x34, A: 255}, true},
		{"junk", color.NRGBA{A: 255}, false},
		{"", color.NRGBA{A: 255}, false},
	}
	for _, tc := range cases {
		got, ok := ParseColor(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#FF0000", HexColor(color.NRGBA{R: 255, A: 255}))
	assert.Equal(t, "#12AB34", HexColor(color.RGBA{R: 0x12, G: 0xab, B: 0x34, A: 255}))
}
