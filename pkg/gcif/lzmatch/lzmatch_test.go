package lzmatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/lzmatch"
)

func tileRGBA(w, h, tileW, tileH int, colorFor func(tx, ty int) [4]uint8) []uint8 {
	out := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := colorFor(x/tileW, y/tileH)
			i := (y*w + x) * 4
			copy(out[i:], c[:])
		}
	}
	return out
}

func TestFindDetectsRepeated8x8SolidTile(t *testing.T) {
	// Two identical 8x8 solid tiles side by side: the second should be
	// found as an exact match of the first.
	w, h := 16, 8
	rgba := tileRGBA(w, h, 8, 8, func(tx, ty int) [4]uint8 {
		return [4]uint8{200, 100, 50, 255}
	})

	res := lzmatch.Find(rgba, w, h, lzmatch.DefaultConfig())
	require.NotEmpty(t, res.Matches)

	m := res.TriggerAt(8, 0)
	require.NotNil(t, m)
	assert.Equal(t, 8, m.W)
	assert.True(t, m.SrcX < m.DstX)
}

func TestFindNoMatchesOnNoise(t *testing.T) {
	w, h := 8, 8
	rgba := make([]uint8, w*h*4)
	for i := range rgba {
		rgba[i] = uint8((i*97 + 13) % 256)
	}
	res := lzmatch.Find(rgba, w, h, lzmatch.DefaultConfig())
	assert.Empty(t, res.Matches)
}

func TestWriteReadRoundTrip(t *testing.T) {
	w, h := 24, 16
	rgba := tileRGBA(w, h, 4, 4, func(tx, ty int) [4]uint8 {
		return [4]uint8{1, 2, 3, 255}
	})
	res := lzmatch.Find(rgba, w, h, lzmatch.DefaultConfig())

	bw := bitio.NewWriter()
	lzmatch.Write(bw, res)
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)
	got, err := lzmatch.Read(br, w, h)
	require.NoError(t, err)

	require.Equal(t, len(res.Matches), len(got.Matches))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, res.Visited(x, y), got.Visited(x, y), "(%d,%d)", x, y)
		}
	}
	for _, m := range res.Matches {
		gm := got.TriggerAt(m.DstX, m.DstY)
		require.NotNil(t, gm)
		assert.Equal(t, m, *gm)
	}
}

func TestWriteReadRoundTripNoMatches(t *testing.T) {
	// Smaller than one hash tile: Find bails out before ever looking
	// for a match, so the stream carries a bare zero count.
	w, h := 2, 2
	res := lzmatch.Find(make([]uint8, w*h*4), w, h, lzmatch.DefaultConfig())

	bw := bitio.NewWriter()
	lzmatch.Write(bw, res)
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)
	got, err := lzmatch.Read(br, w, h)
	require.NoError(t, err)
	assert.Empty(t, got.Matches)
}
