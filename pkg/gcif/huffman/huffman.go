// Package huffman implements the canonical, length-limited Huffman codec
// shared by every higher GCIF layer (mono tiles, mask runs, LZ offsets,
// CM residuals, zone maps). Codes never exceed MaxCodeLen bits so a
// one-level table lookup is always enough to decode a symbol.
//
// The build side follows the shape of DaanV2-go-webp's
// pkg/huffman/build.go (histogram -> canonical lengths -> sorted code
// assignment), generalized from WebP's two-level root/secondary table
// to a single flat table sized 1<<(longest code length actually used),
// never more than 1<<MaxCodeLen entries: GCIF alphabets are small
// enough (at most a few hundred symbols) that a second level buys
// nothing but complexity.
package huffman

import (
	"container/heap"
	"errors"
	"sort"
)

// MaxCodeLen is the hard limit on canonical code length. spec.md §4.B
// requires every code fit in 16 table-lookup bits.
const MaxCodeLen = 16

// ErrBadTable is returned when a set of code lengths fails the Kraft
// inequality or otherwise cannot form a valid prefix code.
var ErrBadTable = errors.New("huffman: bad code length table")

// Table is a canonical Huffman code: one (code, length) pair per
// symbol, plus a flat decode table built once from those lengths.
type Table struct {
	numSyms int
	lens    []uint8
	codes   []uint16

	decodeLen []uint8  // indexed by tableBits-bit code prefix
	decodeSym []uint16 // indexed by tableBits-bit code prefix
	tableBits uint8    // longest code length actually used (<= MaxCodeLen)
}

type heapNode struct {
	freq uint64
	sym  int // leaf symbol, or -1 for an internal node
	l, r *heapNode
}

type nodeHeap []*heapNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].sym < h[j].sym
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*heapNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Build constructs a canonical Huffman table from symbol frequencies.
// freqs[i] is the count for symbol i; a zero frequency means the
// symbol is unused and gets no code. Resulting code lengths are
// limited to MaxCodeLen via Kraft-based reassignment, matching the
// scale-and-limit approach of generateHuffmanCodes in the original
// encoder (limit_max_code_size after generate_huffman_codes).
func Build(freqs []uint64) (*Table, error) {
	n := len(freqs)
	if n == 0 {
		return nil, ErrBadTable
	}

	used := 0
	for _, f := range freqs {
		if f > 0 {
			used++
		}
	}
	if used == 0 {
		return nil, ErrBadTable
	}

	lens := make([]uint8, n)
	if used == 1 {
		for i, f := range freqs {
			if f > 0 {
				lens[i] = 1
			}
		}
		return fromLengths(lens)
	}

	h := &nodeHeap{}
	heap.Init(h)
	for sym, f := range freqs {
		if f > 0 {
			heap.Push(h, &heapNode{freq: f, sym: sym})
		}
	}
	nextInternal := n
	for h.Len() > 1 {
		a := heap.Pop(h).(*heapNode)
		b := heap.Pop(h).(*heapNode)
		heap.Push(h, &heapNode{freq: a.freq + b.freq, sym: nextInternal, l: a, r: b})
		nextInternal++
	}
	root := heap.Pop(h).(*heapNode)
	walkDepth(root, 0, lens)

	limitLengths(lens, MaxCodeLen)

	return fromLengths(lens)
}

func walkDepth(n *heapNode, depth int, lens []uint8) {
	if n.l == nil && n.r == nil {
		lens[n.sym] = uint8(depth)
		return
	}
	walkDepth(n.l, depth+1, lens)
	walkDepth(n.r, depth+1, lens)
}

// limitLengths caps every length at maxLen, redistributing the Kraft
// deficit the way a length-limited Package-Merge substitute does: push
// overlong leaves up to maxLen, then trim the Kraft surplus this
// creates by lengthening the cheapest codes until the inequality holds
// exactly again.
func limitLengths(lens []uint8, maxLen uint8) {
	overflow := false
	for _, l := range lens {
		if l > maxLen {
			overflow = true
			break
		}
	}
	if !overflow {
		return
	}

	for i, l := range lens {
		if l > maxLen {
			lens[i] = maxLen
		}
	}

	for {
		var kraft uint64 // in units of 1/2^maxLen
		for _, l := range lens {
			if l > 0 {
				kraft += uint64(1) << (maxLen - l)
			}
		}
		full := uint64(1) << maxLen
		if kraft <= full {
			break
		}
		// Find the symbol with the longest current code (cheapest to
		// lengthen further, since it costs the smallest Kraft unit) that
		// still has room to grow.
		best := -1
		for i, l := range lens {
			if l > 0 && l < maxLen {
				if best == -1 || lens[best] < l {
					best = i
				}
			}
		}
		if best == -1 {
			break
		}
		lens[best]++
	}
}

// fromLengths assigns canonical codes to a fixed set of lengths and
// builds the flat decode table.
func fromLengths(lens []uint8) (*Table, error) {
	n := len(lens)
	var maxLen uint8
	var kraft uint64
	for _, l := range lens {
		if l > MaxCodeLen {
			return nil, ErrBadTable
		}
		if l > maxLen {
			maxLen = l
		}
		if l > 0 {
			kraft += uint64(1) << (MaxCodeLen - l)
		}
	}
	if maxLen == 0 {
		return nil, ErrBadTable
	}
	if kraft > uint64(1)<<MaxCodeLen {
		return nil, ErrBadTable
	}

	type bySymbol struct {
		sym int
		len uint8
	}
	order := make([]bySymbol, 0, n)
	for sym, l := range lens {
		if l > 0 {
			order = append(order, bySymbol{sym, l})
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].len != order[j].len {
			return order[i].len < order[j].len
		}
		return order[i].sym < order[j].sym
	})

	codes := make([]uint16, n)
	var code uint32
	prevLen := uint8(0)
	for _, e := range order {
		code <<= uint(e.len - prevLen)
		codes[e.sym] = uint16(code)
		code++
		prevLen = e.len
	}

	t := &Table{numSyms: n, lens: lens, codes: codes}
	t.buildDecodeTable(maxLen)
	return t, nil
}

func (t *Table) buildDecodeTable(maxLen uint8) {
	size := 1 << maxLen
	t.decodeLen = make([]uint8, size)
	t.decodeSym = make([]uint16, size)
	for sym := 0; sym < t.numSyms; sym++ {
		l := t.lens[sym]
		if l == 0 {
			continue
		}
		code := t.codes[sym]
		shift := maxLen - l
		base := int(code) << shift
		span := 1 << shift
		for i := 0; i < span; i++ {
			idx := base + i
			t.decodeLen[idx] = l
			t.decodeSym[idx] = uint16(sym)
		}
	}
	t.tableBits = maxLen
}

// NumSyms returns the alphabet size the table was built for.
func (t *Table) NumSyms() int { return t.numSyms }

// Len returns the code length in bits for symbol sym, or 0 if unused.
func (t *Table) Len(sym int) uint8 { return t.lens[sym] }

// Code returns the canonical code for symbol sym.
func (t *Table) Code(sym int) uint16 { return t.codes[sym] }
