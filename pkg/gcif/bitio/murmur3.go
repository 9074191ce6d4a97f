package bitio

// Murmur3Words computes the 32-bit Murmur3 (x86) hash of a word stream,
// treating each uint32 as four little-endian input bytes. This is the
// algorithm spec.md §4.A pins as the bit-exact trailer contract: encoder
// and decoder must derive byte-identical hashes from the same seed, so
// it is reproduced directly rather than pulled from a third-party
// package (see DESIGN.md for why this one component stays stdlib-only).
func Murmur3Words(words []uint32, seed uint32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	h := seed
	for _, k := range words {
		k *= c1
		k = rotl32(k, 15)
		k *= c2

		h ^= k
		h = rotl32(h, 13)
		h = h*5 + 0xe6546b64
	}

	// Every word is a full 4-byte block (the writer always zero-pads the
	// final partial word before hashing), so there is no tail to mix in
	// separately; only the length finalizer remains.
	h ^= uint32(len(words)) * 4
	h = fmix32(h)
	return h
}

func rotl32(x uint32, r uint8) uint32 {
	return (x << r) | (x >> (32 - r))
}

func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
