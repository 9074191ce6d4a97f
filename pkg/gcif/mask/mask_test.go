package mask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/mask"
)

func solidRGBA(w, h int, c [4]uint8) []uint8 {
	out := make([]uint8, w*h*4)
	for i := 0; i < w*h; i++ {
		copy(out[i*4:], c[:])
	}
	return out
}

func TestDetectAllTransparentNeedsNoRealEncoding(t *testing.T) {
	w, h := 64, 64
	rgba := solidRGBA(w, h, [4]uint8{0, 0, 0, 0})
	m := mask.Detect(rgba, w, h, 1)
	require.True(t, m.Present)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.False(t, m.HasRGB(x, y))
		}
	}
}

func TestDetectBelowThresholdIsAbsent(t *testing.T) {
	w, h := 4, 4
	rgba := make([]uint8, w*h*4)
	for i := 0; i < w*h; i++ {
		rgba[i*4] = uint8(i) // every pixel distinct red channel
	}
	m := mask.Detect(rgba, w, h, 2)
	assert.False(t, m.Present)
}

func TestWriteReadRoundTripMixedMask(t *testing.T) {
	w, h := 20, 11
	rgba := make([]uint8, w*h*4)
	bg := [4]uint8{10, 20, 30, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if (x+y)%5 == 0 {
				copy(rgba[i:], []uint8{uint8(x), uint8(y), 1, 255})
				continue
			}
			copy(rgba[i:], bg[:])
		}
	}

	m := mask.Detect(rgba, w, h, 1)
	require.True(t, m.Present)

	bw := bitio.NewWriter()
	mask.Write(bw, m)
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)
	got, err := mask.Read(br, w, h)
	require.NoError(t, err)
	require.True(t, got.Present)
	assert.Equal(t, m.Color, got.Color)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, m.HasRGB(x, y), got.HasRGB(x, y), "(%d,%d)", x, y)
		}
	}
}

func TestWriteReadRoundTripAbsentMask(t *testing.T) {
	bw := bitio.NewWriter()
	m := mask.Detect(make([]uint8, 4*4*4), 4, 4, 100)
	mask.Write(bw, m)
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)
	got, err := mask.Read(br, 4, 4)
	require.NoError(t, err)
	assert.False(t, got.Present)
}
