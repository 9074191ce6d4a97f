package gcif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif"
)

func roundTrip(t *testing.T, rgba []uint8, width, height int, knobs gcif.Knobs) (got []uint8, stats gcif.Stats) {
	t.Helper()
	data, encStats, err := gcif.Encode(rgba, width, height, knobs)
	require.NoError(t, err)

	got, gw, gh, decStats, err := gcif.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, width, gw)
	assert.Equal(t, height, gh)
	assert.Equal(t, encStats.RunID, decStats.RunID)
	return got, encStats
}

func TestAllTransparent64x64(t *testing.T) {
	w, h := 64, 64
	rgba := make([]uint8, w*h*4)

	got, stats := roundTrip(t, rgba, w, h, gcif.Knobs{})
	assert.Equal(t, rgba, got)
	assert.False(t, stats.PaletteUsed, "single color must go through mask/CM, not palette")
	assert.True(t, stats.MaskPresent)
	assert.LessOrEqual(t, stats.Bytes, 256)
}

func TestTwoColorCheckerboard16x16(t *testing.T) {
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

	got, stats := roundTrip(t, rgba, w, h, gcif.Knobs{})
	assert.Equal(t, rgba, got)
	assert.True(t, stats.PaletteUsed)
	assert.Equal(t, 2, stats.PaletteSize)
}

func TestHorizontalGradient256x8(t *testing.T) {
	w, h := 256, 8
	rgba := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			rgba[i] = uint8(x)
			rgba[i+1] = uint8(x)
			rgba[i+2] = uint8(x)
			rgba[i+3] = 255
		}
	}

	got, stats := roundTrip(t, rgba, w, h, gcif.Knobs{})
	assert.Equal(t, rgba, got)
	assert.False(t, stats.PaletteUsed)
}

func TestSolidTileLZ(t *testing.T) {
	w, h := 128, 8
	rgba := make([]uint8, w*h*4)
	for i := range rgba {
		rgba[i] = uint8((i*53 + 7) % 256)
	}
	putTile := func(x0 int) {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				i := (y*w + x0 + x) * 4
				copy(rgba[i:], []uint8{255, 0, 255, 255})
			}
		}
	}
	putTile(0)
	putTile(64)

	got, stats := roundTrip(t, rgba, w, h, gcif.Knobs{})
	assert.Equal(t, rgba, got)
	assert.GreaterOrEqual(t, stats.LZMatches, 1)
}

func TestPathologicalNoise8x8(t *testing.T) {
	w, h := 8, 8
	rgba := make([]uint8, w*h*4)
	for i := range rgba {
		rgba[i] = uint8((i*193 + 29) % 256)
	}

	got, _ := roundTrip(t, rgba, w, h, gcif.Knobs{})
	assert.Equal(t, rgba, got)
}

func TestCorruptionRejected(t *testing.T) {
	w, h := 256, 8
	rgba := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			rgba[i], rgba[i+1], rgba[i+2], rgba[i+3] = uint8(x), uint8(x), uint8(x), 255
		}
	}
	data, _, err := gcif.Encode(rgba, w, h, gcif.Knobs{})
	require.NoError(t, err)

	corrupt := append([]uint8(nil), data...)
	corrupt[17] ^= 0x01

	_, _, _, _, err = gcif.Decode(corrupt)
	require.Error(t, err)
	assert.ErrorIs(t, err, gcif.ErrCorruptBitstream)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	w, h := 4, 4
	rgba := make([]uint8, w*h*4)
	data, _, err := gcif.Encode(rgba, w, h, gcif.Knobs{})
	require.NoError(t, err)

	corrupt := append([]uint8(nil), data...)
	corrupt[6] ^= 0xFF // version's low byte, in the word right after the magic word

	_, _, _, _, err = gcif.Decode(corrupt)
	require.Error(t, err)
}

func TestDisablePaletteForcesMaskLZCMPath(t *testing.T) {
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

	got, stats := roundTrip(t, rgba, w, h, gcif.Knobs{DisablePalette: true})
	assert.Equal(t, rgba, got)
	assert.False(t, stats.PaletteUsed)
}

func TestEncodeRejectsMismatchedBufferLength(t *testing.T) {
	_, _, err := gcif.Encode(make([]uint8, 10), 4, 4, gcif.Knobs{})
	assert.ErrorIs(t, err, gcif.ErrBadDimensions)
}

// TestArbitraryDimensionsRoundTrip covers spec.md §8's "round-trip for
// every (W,H) in {1..512}" property for sizes that are neither a
// multiple of 8 nor small-palette eligible, exercising the CM layer's
// zoneBounds edge-clipping rather than the original encoder's stricter
// multiple-of-8 requirement (see the "CM path dimensions" entry in
// DESIGN.md's Open Questions resolved).
func TestArbitraryDimensionsRoundTrip(t *testing.T) {
	sizes := [][2]int{{1, 1}, {13, 7}, {7, 13}, {1, 37}, {37, 1}, {300, 181}}
	for _, wh := range sizes {
		w, h := wh[0], wh[1]
		rgba := make([]uint8, w*h*4)
		for i := 0; i < w*h; i++ {
			rgba[i*4] = uint8(i * 41)
			rgba[i*4+1] = uint8(i*41 + 97)
			rgba[i*4+2] = uint8(i * 193)
			rgba[i*4+3] = 255
		}

		got, _ := roundTrip(t, rgba, w, h, gcif.Knobs{})
		assert.Equal(t, rgba, got, "size %dx%d", w, h)
	}
}
