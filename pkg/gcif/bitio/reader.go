package bitio

import "errors"

// ErrTruncated is returned when a read runs past the end of the stream.
var ErrTruncated = errors.New("bitio: truncated stream")

// ErrHashMismatch is returned by Reader.VerifyHash when the trailing
// Murmur3 word does not match the recomputed hash.
var ErrHashMismatch = errors.New("bitio: hash trailer mismatch")

// Reader provides random-access, branch-light bit reading over a loaded
// byte slice. Unlike Writer it does not own its storage: the caller
// loads the whole stream (e.g. from disk) and hands it to NewReader.
type Reader struct {
	words []uint32 // excludes the trailing hash word
	hash  uint32   // trailing hash word, verified by VerifyHash

	wordPos int   // index of the next word to read bits from
	acc     uint64 // 64-bit peek window: words[wordPos] in the high 32 bits, words[wordPos+1] in the low 32
	bitPos  uint8  // bits already consumed out of acc's top 32
}

// NewReader loads data (little-endian words, Murmur3 trailer last) and
// positions the cursor at the first bit of the first word.
func NewReader(data []byte) (*Reader, error) {
	if len(data)%4 != 0 || len(data) < 4 {
		return nil, ErrTruncated
	}
	nWords := len(data)/4 - 1
	words := make([]uint32, nWords)
	for i := 0; i < nWords; i++ {
		words[i] = wordLE(data[i*4:])
	}
	hash := wordLE(data[nWords*4:])
	r := &Reader{words: words, hash: hash}
	r.fill()
	return r, nil
}

func wordLE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// VerifyHash recomputes the Murmur3 hash over the word stream (seeded by
// seed) and compares it against the trailer. Decoders must call this
// before trusting any decoded content, per spec.md §4.A.
func (r *Reader) VerifyHash(seed uint32) error {
	if Murmur3Words(r.words, seed) != r.hash {
		return ErrHashMismatch
	}
	return nil
}

// fill loads words[wordPos] and words[wordPos+1] (or zero past the end)
// into the 64-bit peek window.
func (r *Reader) fill() {
	var hi, lo uint32
	if r.wordPos < len(r.words) {
		hi = r.words[r.wordPos]
	}
	if r.wordPos+1 < len(r.words) {
		lo = r.words[r.wordPos+1]
	}
	r.acc = uint64(hi)<<32 | uint64(lo)
}

// ReadBit reads and consumes a single bit.
func (r *Reader) ReadBit() (bool, error) {
	if r.wordPos >= len(r.words) {
		return false, ErrTruncated
	}
	bit := (r.acc >> (63 - r.bitPos)) & 1
	r.advance(1)
	return bit != 0, nil
}

// ReadBits reads length (1..32) bits and returns them right-justified.
// It peeks across the two-word window so any unaligned read is a single
// shift-and-mask, no branch on the word boundary.
func (r *Reader) ReadBits(length uint8) (uint32, error) {
	if length == 0 || length > 32 {
		panic("bitio: ReadBits length out of range")
	}
	if r.wordPos >= len(r.words) {
		return 0, ErrTruncated
	}
	// Need length bits starting at bitPos out of a 64-bit window. With
	// bitPos < 32 and length <= 32 the window always holds them; this
	// check only guards that invariant.
	if uint16(r.bitPos)+uint16(length) > 64 {
		return 0, ErrTruncated
	}
	shift := 64 - uint16(r.bitPos) - uint16(length)
	val := uint32((r.acc >> shift) & ((1 << uint(length)) - 1))
	r.advance(length)
	return val, nil
}

// PeekBits returns the next length bits without consuming them, for
// table-driven decoders that need to look up a symbol before knowing
// how many bits it actually occupies. bitPos is always < 32, so the
// 64-bit window always holds enough bits for any length <= 32.
func (r *Reader) PeekBits(length uint8) (uint32, error) {
	if length == 0 || length > 32 {
		panic("bitio: PeekBits length out of range")
	}
	if r.wordPos >= len(r.words) {
		return 0, ErrTruncated
	}
	shift := 64 - uint16(r.bitPos) - uint16(length)
	val := uint32((r.acc >> shift) & ((1 << uint(length)) - 1))
	return val, nil
}

// ReadWord reads one full aligned word. The caller must ensure the
// stream is currently word-aligned.
func (r *Reader) ReadWord() (uint32, error) {
	if r.bitPos != 0 {
		panic("bitio: ReadWord requires word alignment")
	}
	if r.wordPos >= len(r.words) {
		return 0, ErrTruncated
	}
	w := r.words[r.wordPos]
	r.wordPos++
	r.fill()
	return w, nil
}

func (r *Reader) advance(n uint8) {
	newPos := uint16(r.bitPos) + uint16(n)
	if newPos >= 32 {
		r.wordPos++
		newPos -= 32
		r.fill()
	}
	r.bitPos = uint8(newPos)
}

// BitsRemaining reports how many bits are left to read (for bounds
// checks in higher layers, e.g. LZ source-in-range validation).
func (r *Reader) BitsRemaining() int {
	return (len(r.words)-r.wordPos)*32 - int(r.bitPos)
}
