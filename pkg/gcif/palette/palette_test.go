package palette_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/palette"
)

func roundTrip(t *testing.T, rgba []uint8, width, height int) []uint8 {
	t.Helper()
	p, err := palette.Detect(rgba, width, height)
	require.NoError(t, err)

	bw := bitio.NewWriter()
	require.NoError(t, palette.Write(bw, p))
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)
	got, err := palette.Read(br, width, height)
	require.NoError(t, err)
	return got.ToRGBA()
}

func TestDetectRejectsTooManyColors(t *testing.T) {
	w, h := 8, 8
	rgba := make([]uint8, w*h*4)
	for i := 0; i < w*h; i++ {
		rgba[i*4] = uint8(i) // 64 distinct colors, one per pixel
		rgba[i*4+3] = 255
	}
	_, err := palette.Detect(rgba, w, h)
	assert.ErrorIs(t, err, palette.ErrTooManyColors)
}

func TestSingleColorFastPath(t *testing.T) {
	w, h := 16, 16
	rgba := make([]uint8, w*h*4)
	for i := 0; i < w*h; i++ {
		copy(rgba[i*4:], []uint8{10, 20, 30, 255})
	}
	p, err := palette.Detect(rgba, w, h)
	require.NoError(t, err)
	assert.True(t, p.IsSingleColor())

	got := roundTrip(t, rgba, w, h)
	assert.Equal(t, rgba, got)
}

func TestCheckerboardRoundTrip(t *testing.T) {
	w, h := 16, 16
	rgba := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if (x+y)%2 == 0 {
				copy(rgba[i:], []uint8{0, 0, 0, 255})
			} else {
				copy(rgba[i:], []uint8{255, 255, 255, 255})
			}
		}
	}
	p, err := palette.Detect(rgba, w, h)
	require.NoError(t, err)
	require.Len(t, p.Colors, 2)
	// Black and white cover 128 cells each; the stable frequency sort
	// keeps black, first seen at (0,0), at index 0.
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, p.Colors[0])

	got := roundTrip(t, rgba, w, h)
	assert.Equal(t, rgba, got)
}

func TestSixteenColorRoundTrip(t *testing.T) {
	w, h := 20, 20
	rgba := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			idx := uint8((x + y*3) % 16)
			rgba[i] = idx * 16
			rgba[i+1] = idx
			rgba[i+2] = 255 - idx
			rgba[i+3] = 255
		}
	}
	p, err := palette.Detect(rgba, w, h)
	require.NoError(t, err)
	require.LessOrEqual(t, len(p.Colors), 16)

	got := roundTrip(t, rgba, w, h)
	assert.Equal(t, rgba, got)
}
