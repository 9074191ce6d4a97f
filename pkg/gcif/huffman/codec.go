package huffman

import "github.com/gcif/gcif/pkg/gcif/bitio"

// WriteSymbol emits sym's canonical code to w. sym must have a nonzero
// length in the table (i.e. it was present in the frequency table
// Build was called with).
func (t *Table) WriteSymbol(w *bitio.Writer, sym int) {
	l := t.lens[sym]
	if l == 0 {
		panic("huffman: WriteSymbol on unused symbol")
	}
	w.WriteBits(uint32(t.codes[sym]), l)
}

// NextSymbol decodes one symbol from r using the flat lookup table.
func (t *Table) NextSymbol(r *bitio.Reader) (int, error) {
	peek, err := r.PeekBits(t.tableBits)
	if err != nil {
		return 0, err
	}
	l := t.decodeLen[peek]
	if l == 0 {
		return 0, bitio.ErrTruncated
	}
	if _, err := r.ReadBits(l); err != nil {
		return 0, err
	}
	return int(t.decodeSym[peek]), nil
}

// lenFieldBits is the fixed width of each serialized code length:
// lengths are 0..MaxCodeLen (17 possible values), so 5 bits per entry
// always suffice. This mirrors the original
// codec's practice of writing a small fixed-width prelude ahead of
// the per-symbol lengths rather than inventing a second Huffman pass
// for the lengths themselves.
const lenFieldBits = 5

// WriteTable serializes the code length of every symbol 0..numSyms-1
// (5 bits each, 0 meaning unused) so a decoder can rebuild the same
// canonical table via ReadTable.
func WriteTable(w *bitio.Writer, t *Table) {
	w.WriteBits(uint32(t.numSyms), 16)
	for sym := 0; sym < t.numSyms; sym++ {
		w.WriteBits(uint32(t.lens[sym]), lenFieldBits)
	}
}

// ReadTable reads back a table written by WriteTable and rebuilds the
// canonical codes and decode table from the recovered lengths.
func ReadTable(r *bitio.Reader) (*Table, error) {
	n32, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	n := int(n32)
	lens := make([]uint8, n)
	for i := 0; i < n; i++ {
		v, err := r.ReadBits(lenFieldBits)
		if err != nil {
			return nil, err
		}
		if v > MaxCodeLen {
			return nil, ErrBadTable
		}
		lens[i] = uint8(v)
	}
	return fromLengths(lens)
}
