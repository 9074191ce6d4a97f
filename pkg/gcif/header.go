package gcif

import "github.com/gcif/gcif/pkg/gcif/bitio"

// magic identifies a GCIF stream; version is the bitstream format
// revision this package reads/writes.
const (
	magic   uint32 = 0x47434946 // "GCIF" big-endian-looking constant, written as a plain word
	version uint16 = 1
)

// Flag bits per spec.md §6: which optional blocks follow the header.
const (
	flagPalette = 1 << iota
	flagMask
	flagLZ
	flagCM
)

type header struct {
	version uint16
	flags   uint16
	width   int
	height  int
	seed    uint32
}

func writeHeader(w *bitio.Writer, h header) {
	w.WriteWord(magic)
	w.WriteBits(uint32(h.version), 16)
	w.WriteBits(uint32(h.flags), 16)
	w.WriteWord(uint32(h.width))
	w.WriteWord(uint32(h.height))
	w.WriteWord(h.seed)
}

func readHeader(r *bitio.Reader) (header, error) {
	var h header
	m, err := r.ReadWord()
	if err != nil {
		return h, err
	}
	if m != magic {
		return h, ErrUnsupported
	}
	v, err := r.ReadBits(16)
	if err != nil {
		return h, err
	}
	f, err := r.ReadBits(16)
	if err != nil {
		return h, err
	}
	w, err := r.ReadWord()
	if err != nil {
		return h, err
	}
	ht, err := r.ReadWord()
	if err != nil {
		return h, err
	}
	seed, err := r.ReadWord()
	if err != nil {
		return h, err
	}
	h = header{version: uint16(v), flags: uint16(f), width: int(w), height: int(ht), seed: seed}
	if h.version != version {
		return h, ErrUnsupported
	}
	return h, nil
}
