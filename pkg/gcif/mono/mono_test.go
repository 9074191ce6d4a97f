package mono_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/mono"
)

func TestRoundTripFlatPlane(t *testing.T) {
	roundTrip(t, 32, 32, 2, flatPlane(32, 32, 1))
}

func TestRoundTripCheckerboard(t *testing.T) {
	plane := make([]uint8, 16*16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			plane[y*16+x] = uint8((x + y) % 2)
		}
	}
	roundTrip(t, 16, 16, 2, plane)
}

func TestRoundTripRandomSmallAlphabet(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	w, h, n := 24, 24, 5
	plane := make([]uint8, w*h)
	for i := range plane {
		plane[i] = uint8(rng.Intn(n))
	}
	roundTrip(t, w, h, n, plane)
}

func flatPlane(w, h int, v uint8) []uint8 {
	p := make([]uint8, w*h)
	for i := range p {
		p[i] = v
	}
	return p
}

func roundTrip(t *testing.T, w, h, n int, plane []uint8) {
	t.Helper()
	params := mono.Params{Width: w, Height: h, NumSyms: n, MinTileBits: 2, MaxTileBits: 3}

	enc, err := mono.NewEncoder(params, plane)
	require.NoError(t, err)

	bw := bitio.NewWriter()
	enc.WriteTables(bw)
	for y := 0; y < h; y++ {
		enc.WriteRow(y, bw, plane)
	}
	data := bw.Finalize(0)

	br, err := bitio.NewReader(data)
	require.NoError(t, err)

	dec, err := mono.NewDecoder(params)
	require.NoError(t, err)
	require.NoError(t, dec.ReadTables(br))

	for y := 0; y < h; y++ {
		require.NoError(t, dec.ReadRowHeader(y, br))
		for x := 0; x < w; x++ {
			got, err := dec.Read(x, y, br)
			require.NoError(t, err)
			if got != plane[y*w+x] {
				t.Fatalf("mismatch at (%d,%d): got %d want %d", x, y, got, plane[y*w+x])
			}
		}
	}
}
