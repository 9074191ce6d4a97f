// Package bitio implements the bit-level container used by every GCIF
// layer: an MSB-first bit writer/reader over 32-bit little-endian words,
// plus the Murmur3-based integrity trailer.
//
// Grounded on pkg/compress/jpeg2k/bitstream.go's BitWriter/BitReader
// (buffer-and-flush bit packing over a bufio stream), generalized to the
// growable word rope spec.md §4.A calls for so a single encode never
// forces one giant contiguous allocation up front.
package bitio

// wordChunkMinLen is the size, in words, of the first rope chunk.
const wordChunkMinLen = 64

// Writer appends bits MSB-first within 32-bit little-endian words. It
// keeps its backing storage as a rope of doubling chunks: each new chunk
// is twice the length of the previous one, so total appends are
// amortized O(1) without ever copying the whole stream to grow it.
type Writer struct {
	chunks   [][]uint32 // completed chunks, each full
	cur      []uint32   // chunk currently being filled
	curUsed  int        // words used in cur
	totalLen int         // total words across chunks + cur (completed words only)

	acc     uint64 // bit accumulator, MSB-aligned within bitN bits
	bitN    uint8  // number of valid bits currently in acc (0..31)
}

// NewWriter returns an empty Writer ready to accept bits.
func NewWriter() *Writer {
	w := &Writer{}
	w.cur = make([]uint32, wordChunkMinLen)
	return w
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(bit bool) {
	var v uint64
	if bit {
		v = 1
	}
	w.acc = (w.acc << 1) | v
	w.bitN++
	if w.bitN == 32 {
		w.emitWord(uint32(w.acc))
		w.acc = 0
		w.bitN = 0
	}
}

// WriteBits appends the low len bits of code, MSB first within those
// len bits. 1 <= len <= 32 and code must fit in len bits.
func (w *Writer) WriteBits(code uint32, length uint8) {
	if length == 0 || length > 32 {
		panic("bitio: WriteBits length out of range")
	}
	if length < 32 && code>>length != 0 {
		panic("bitio: WriteBits code does not fit in length bits")
	}
	// Move as many bits as fit in the current word per pass, emitting
	// the word each time it fills.
	remaining := length
	for remaining > 0 {
		free := 32 - w.bitN
		take := remaining
		if take > free {
			take = free
		}
		shift := remaining - take
		chunk := (code >> shift) & ((1 << take) - 1)
		w.acc = (w.acc << take) | uint64(chunk)
		w.bitN += take
		remaining -= take
		if w.bitN == 32 {
			w.emitWord(uint32(w.acc))
			w.acc = 0
			w.bitN = 0
		}
	}
}

// WriteWord appends a full aligned 32-bit word, bypassing the bit
// accumulator. The caller must ensure the stream is currently
// word-aligned (bitN == 0); used only for the fixed header fields.
func (w *Writer) WriteWord(word uint32) {
	if w.bitN != 0 {
		panic("bitio: WriteWord requires word alignment")
	}
	w.emitWord(word)
}

// BitLen returns the total number of bits written so far (including
// any partially-filled trailing word), for bit-accounting in tests and
// stats.
func (w *Writer) BitLen() int {
	return w.totalLen*32 + int(w.bitN)
}

func (w *Writer) emitWord(word uint32) {
	if w.curUsed == len(w.cur) {
		w.chunks = append(w.chunks, w.cur)
		w.cur = make([]uint32, len(w.cur)*2)
		w.curUsed = 0
	}
	w.cur[w.curUsed] = word
	w.curUsed++
	w.totalLen++
}

// words flattens the rope into a single contiguous slice. Only called
// once, at Finalize time.
func (w *Writer) words() []uint32 {
	out := make([]uint32, 0, w.totalLen+1)
	for _, c := range w.chunks {
		out = append(out, c...)
	}
	out = append(out, w.cur[:w.curUsed]...)
	return out
}

// Finalize flushes any partial trailing word (zero-padded), computes the
// Murmur3 hash of the logical word stream seeded by seed, appends the
// hash as the final word, and returns the whole stream as bytes
// (little-endian words).
func (w *Writer) Finalize(seed uint32) []byte {
	if w.bitN != 0 {
		pad := 32 - w.bitN
		w.emitWord(uint32(w.acc << pad))
		w.acc = 0
		w.bitN = 0
	}
	words := w.words()
	hash := Murmur3Words(words, seed)
	out := make([]byte, (len(words)+1)*4)
	for i, word := range words {
		putWordLE(out[i*4:], word)
	}
	putWordLE(out[len(words)*4:], hash)
	return out
}

func putWordLE(dst []byte, word uint32) {
	dst[0] = byte(word)
	dst[1] = byte(word >> 8)
	dst[2] = byte(word >> 16)
	dst[3] = byte(word >> 24)
}
