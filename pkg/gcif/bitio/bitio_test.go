package bitio_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcif/gcif/pkg/gcif/bitio"
)

func TestWriteReadBitsRoundTrip(t *testing.T) {
	type entry struct {
		code uint32
		n    uint8
	}
	rng := rand.New(rand.NewSource(1))
	var entries []entry
	w := bitio.NewWriter()
	for i := 0; i < 2000; i++ {
		n := uint8(1 + rng.Intn(32))
		var code uint32
		if n == 32 {
			code = rng.Uint32()
		} else {
			code = rng.Uint32() & ((1 << n) - 1)
		}
		entries = append(entries, entry{code, n})
		w.WriteBits(code, n)
	}

	data := w.Finalize(0xC0FFEE)
	r, err := bitio.NewReader(data)
	require.NoError(t, err)
	require.NoError(t, r.VerifyHash(0xC0FFEE))

	for _, e := range entries {
		got, err := r.ReadBits(e.n)
		require.NoError(t, err)
		assert.Equal(t, e.code, got, "n=%d", e.n)
	}
}

func TestWriteReadBitRoundTrip(t *testing.T) {
	w := bitio.NewWriter()
	bits := []bool{true, false, false, true, true, true, false, false, true, false}
	for _, b := range bits {
		w.WriteBit(b)
	}
	data := w.Finalize(1)
	r, err := bitio.NewReader(data)
	require.NoError(t, err)
	for i, want := range bits {
		got, err := r.ReadBit()
		require.NoError(t, err)
		assert.Equal(t, want, got, "bit %d", i)
	}
}

func TestHashMismatchOnCorruption(t *testing.T) {
	w := bitio.NewWriter()
	w.WriteWord(0xDEADBEEF)
	w.WriteBits(0xABCD, 16)
	data := w.Finalize(42)

	// Flip a single bit in the middle of the payload.
	data[2] ^= 0x01

	r, err := bitio.NewReader(data)
	require.NoError(t, err)
	assert.ErrorIs(t, r.VerifyHash(42), bitio.ErrHashMismatch)
}

func TestReadPastEndIsTruncated(t *testing.T) {
	w := bitio.NewWriter()
	w.WriteBits(1, 1)
	data := w.Finalize(0)
	r, err := bitio.NewReader(data)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		if _, err := r.ReadBit(); err != nil {
			assert.ErrorIs(t, err, bitio.ErrTruncated)
			return
		}
	}
	t.Fatal("expected truncation error before 40 bits")
}

func TestWordAlignedReadWrite(t *testing.T) {
	w := bitio.NewWriter()
	words := []uint32{0x11223344, 0xAABBCCDD, 0x00000000, 0xFFFFFFFF}
	for _, word := range words {
		w.WriteWord(word)
	}
	data := w.Finalize(7)
	r, err := bitio.NewReader(data)
	require.NoError(t, err)
	for _, want := range words {
		got, err := r.ReadWord()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
