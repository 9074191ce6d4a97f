// Package mono implements GCIF's recursive monochrome tile coder: a
// single-plane, N-symbol raster coder used by the small-palette
// layer's index plane (package palette). Grounded on the
// row-at-a-time state machine implied by
// original_source/decoder/SmallPaletteReader.cpp's
// MonoReader contract (size_x/size_y/min_bits/max_bits/num_syms,
// readRowHeader+read) and on the chaos-indexed entropy coding shared
// with the CM layer (package chaos / ImageCMWriter.cpp's
// chaosScore/CHAOS_TABLE). The writer side of the original
// (MonoWriter's tile-filter machinery) was not present in the
// retrieved source tree, so the tile-filter-map recursion below is an
// original design built to the contract spec.md §4.C spells out: the
// map is split in half and each half coded the same way until it is
// small enough to flat-Huffman directly, guaranteeing the recursion
// terminates regardless of the raster's shape.
package mono

import (
	"errors"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/chaos"
	"github.com/gcif/gcif/pkg/gcif/huffman"
)

// ErrBadParams is returned when Configure receives an inconsistent
// raster/tile geometry.
var ErrBadParams = errors.New("mono: bad parameters")

// minRecursionCells is the tile-filter-map base case threshold: maps
// with fewer cells than this are always written as a flat Huffman
// stream instead of recursing one more level.
const minRecursionCells = 16

// Params configures a Coder: the raster's dimensions, its symbol
// alphabet size, and the tile size range tile selection may pick from.
type Params struct {
	Width, Height int
	NumSyms       int // N in spec.md §4.C, N <= 256
	MinTileBits   int // tile side = 1 << bits, smallest allowed
	MaxTileBits   int // largest allowed
}

func (p Params) validate() error {
	if p.Width <= 0 || p.Height <= 0 || p.NumSyms <= 0 || p.NumSyms > 256 {
		return ErrBadParams
	}
	if p.MinTileBits < 0 || p.MaxTileBits < p.MinTileBits || p.MaxTileBits > 8 {
		return ErrBadParams
	}
	return nil
}

// monoFilter is the small menu of monochrome spatial predictors a
// tile can choose: left, above, or zero (always predicts 0). Left and
// above also predict 0 where their neighbor does not exist.
const (
	filterLeft = iota
	filterAbove
	filterZero
	numMonoFilters
)

// Coder is a stateful single-plane encoder/decoder. Callers drive it
// row by row: WriteRow/ReadRowHeader+Read for the data plane,
// WriteTables/ReadTables once up front for the recursive tile-filter
// map and per-context Huffman tables.
type Coder struct {
	p Params

	tileBits   int // chosen tile size for this raster
	tilesX     int
	tilesY     int
	tileFilter []uint8 // tilesX*tilesY, one of the monoFilter consts

	tables [chaos.NumContexts]*huffman.Table

	// rows of residuals, needed by chaosContext's causal window; only
	// the previous row and the current row-so-far are kept.
	prevRow []uint8
	curRow  []uint8

	// rows of reconstructed symbol values, needed by Read's predict
	// step (filterLeft/filterAbove must predict from the actual
	// decoded pixel, not its residual -- the encoder's predict has the
	// whole plane to read from, so only the decoder needs this second
	// buffer).
	prevVal []uint8
	curVal  []uint8

	rowY int
}

// NewEncoder builds a Coder ready to compress plane (row-major,
// p.Width*p.Height bytes, each < p.NumSyms) according to p.
func NewEncoder(p Params, plane []uint8) (*Coder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(plane) != p.Width*p.Height {
		return nil, ErrBadParams
	}
	c := &Coder{p: p}
	c.chooseTileSize(plane)
	c.selectTileFilters(plane)
	c.buildTables(plane)
	c.prevRow = make([]uint8, p.Width)
	c.curRow = make([]uint8, p.Width)
	return c, nil
}

// NewDecoder prepares a Coder to decode a plane previously written
// with the same Params; call ReadTables before ReadRowHeader/Read.
func NewDecoder(p Params) (*Coder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c := &Coder{p: p}
	c.prevRow = make([]uint8, p.Width)
	c.curRow = make([]uint8, p.Width)
	c.prevVal = make([]uint8, p.Width)
	c.curVal = make([]uint8, p.Width)
	return c, nil
}

func (c *Coder) chooseTileSize(plane []uint8) {
	// A flat heuristic: prefer the largest allowed tile, since the
	// palette index planes this coder serves are already restricted to
	// small alphabets dominated by one or two values per region.
	c.tileBits = c.p.MaxTileBits
	if c.tileBits < c.p.MinTileBits {
		c.tileBits = c.p.MinTileBits
	}
	tileSize := 1 << c.tileBits
	c.tilesX = (c.p.Width + tileSize - 1) / tileSize
	c.tilesY = (c.p.Height + tileSize - 1) / tileSize
}

func (c *Coder) selectTileFilters(plane []uint8) {
	tileSize := 1 << c.tileBits
	c.tileFilter = make([]uint8, c.tilesX*c.tilesY)
	for ty := 0; ty < c.tilesY; ty++ {
		for tx := 0; tx < c.tilesX; tx++ {
			x0, y0 := tx*tileSize, ty*tileSize
			x1, y1 := min(x0+tileSize, c.p.Width), min(y0+tileSize, c.p.Height)
			c.tileFilter[ty*c.tilesX+tx] = bestMonoFilter(plane, c.p.Width, x0, y0, x1, y1)
		}
	}
}

// bestMonoFilter scores left/above/zero prediction over one tile and
// returns whichever leaves the fewest nonzero residuals.
func bestMonoFilter(plane []uint8, width, x0, y0, x1, y1 int) uint8 {
	counts := [numMonoFilters]int{}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := plane[y*width+x]
			if x > 0 && plane[y*width+x-1] != v {
				counts[filterLeft]++
			}
			if y > 0 && plane[(y-1)*width+x] != v {
				counts[filterAbove]++
			}
			if v != 0 {
				counts[filterZero]++
			}
		}
	}
	best := uint8(filterLeft)
	bestCount := counts[filterLeft]
	for f := 1; f < numMonoFilters; f++ {
		if counts[f] < bestCount {
			bestCount = counts[f]
			best = uint8(f)
		}
	}
	return best
}

func (c *Coder) predict(plane []uint8, width, x, y int) uint8 {
	tileSize := 1 << c.tileBits
	tf := c.tileFilter[(y/tileSize)*c.tilesX+(x/tileSize)]
	switch tf {
	case filterLeft:
		if x > 0 {
			return plane[y*width+x-1]
		}
	case filterAbove:
		if y > 0 {
			return plane[(y-1)*width+x]
		}
	}
	return 0
}

func (c *Coder) buildTables(plane []uint8) {
	var freqs [chaos.NumContexts][256]uint64
	width := c.p.Width
	prevResidual := make([]uint8, width)
	curResidual := make([]uint8, width)
	for y := 0; y < c.p.Height; y++ {
		for x := 0; x < width; x++ {
			actual := plane[y*width+x]
			pred := c.predict(plane, width, x, y)
			residual := uint8(int(actual) - int(pred))
			ctx := chaosContext(prevResidual, curResidual, x)
			freqs[ctx][residual]++
			curResidual[x] = residual
		}
		prevResidual, curResidual = curResidual, prevResidual
	}
	for ctx := range c.tables {
		f := freqs[ctx][:]
		nonZero := false
		for _, v := range f {
			if v > 0 {
				nonZero = true
				break
			}
		}
		if !nonZero {
			f[0] = 1
		}
		tbl, err := huffman.Build(f)
		if err != nil {
			tbl, _ = huffman.Build(append([]uint64{}, uniformFreqs(c.p.NumSyms)...))
		}
		c.tables[ctx] = tbl
	}
}

func uniformFreqs(n int) []uint64 {
	f := make([]uint64, 256)
	for i := 0; i < n; i++ {
		f[i] = 1
	}
	return f
}

func chaosContext(prev, cur []uint8, x int) int {
	var left, above int
	if x > 0 {
		left = chaos.Score(cur[x-1])
	}
	above = chaos.Score(prev[x])
	return chaos.Context(left + above)
}

// WriteTables emits the recursive tile-filter map and the per-context
// Huffman tables, returning the number of bits written.
func (c *Coder) WriteTables(w *bitio.Writer) int {
	start := w.BitLen()
	w.WriteBits(uint32(c.tileBits), 4)
	writeTileFilterMap(w, c.tileFilter)
	for _, t := range c.tables {
		huffman.WriteTable(w, t)
	}
	return w.BitLen() - start
}

// writeTileFilterMap recurses on the tile-filter map the way spec.md
// §4.C describes: below minRecursionCells it is a flat Huffman
// stream (the base case); otherwise it is split in half and each half
// is coded the same way. The split strictly shrinks the problem by
// half every level, so recursion always terminates within
// O(log2(len(m))) levels regardless of m's shape.
func writeTileFilterMap(w *bitio.Writer, m []uint8) {
	if len(m) < minRecursionCells {
		writeFlatHuffman(w, m, numMonoFilters)
		return
	}
	mid := len(m) / 2
	writeTileFilterMap(w, m[:mid])
	writeTileFilterMap(w, m[mid:])
}

// writeFlatHuffman is the base case: build one Huffman table over
// vals' own histogram (alphabet size alphabet), write the table, then
// the symbol stream.
func writeFlatHuffman(w *bitio.Writer, vals []uint8, alphabet int) {
	freqs := make([]uint64, alphabet)
	for _, v := range vals {
		freqs[v]++
	}
	nonZero := false
	for _, f := range freqs {
		if f > 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		freqs[0] = 1
	}
	tbl, err := huffman.Build(freqs)
	if err != nil {
		tbl, _ = huffman.Build(uniformFreqs(alphabet)[:alphabet])
	}
	huffman.WriteTable(w, tbl)
	for _, v := range vals {
		tbl.WriteSymbol(w, int(v))
	}
}

// ReadTables is the decoder counterpart of WriteTables; it must be
// called once before ReadRowHeader/Read.
func (c *Coder) ReadTables(r *bitio.Reader) error {
	bits, err := r.ReadBits(4)
	if err != nil {
		return err
	}
	c.tileBits = int(bits)
	tileSize := 1 << c.tileBits
	c.tilesX = (c.p.Width + tileSize - 1) / tileSize
	c.tilesY = (c.p.Height + tileSize - 1) / tileSize

	m, err := readTileFilterMap(r, c.tilesX*c.tilesY)
	if err != nil {
		return err
	}
	c.tileFilter = m

	for i := range c.tables {
		t, err := huffman.ReadTable(r)
		if err != nil {
			return err
		}
		c.tables[i] = t
	}
	return nil
}

// readTileFilterMap mirrors writeTileFilterMap's half-split recursion.
func readTileFilterMap(r *bitio.Reader, n int) ([]uint8, error) {
	if n < minRecursionCells {
		return readFlatHuffman(r, n, numMonoFilters)
	}
	mid := n / 2
	left, err := readTileFilterMap(r, mid)
	if err != nil {
		return nil, err
	}
	right, err := readTileFilterMap(r, n-mid)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func readFlatHuffman(r *bitio.Reader, n, alphabet int) ([]uint8, error) {
	tbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}
	vals := make([]uint8, n)
	for i := range vals {
		sym, err := tbl.NextSymbol(r)
		if err != nil {
			return nil, err
		}
		vals[i] = uint8(sym)
	}
	return vals, nil
}

// WriteRow emits row y of plane using the already-built tables.
func (c *Coder) WriteRow(y int, w *bitio.Writer, plane []uint8) {
	width := c.p.Width
	for x := 0; x < width; x++ {
		actual := plane[y*width+x]
		pred := c.predict(plane, width, x, y)
		residual := uint8(int(actual) - int(pred))
		ctx := chaosContext(c.prevRow, c.curRow, x)
		c.tables[ctx].WriteSymbol(w, int(residual))
		c.curRow[x] = residual
	}
	c.prevRow, c.curRow = c.curRow, c.prevRow
	c.rowY = y + 1
}

// ReadRowHeader advances internal row-tracking state ahead of Read
// calls for row y. WriteRow writes no per-row header bits, so nothing
// is read here; the call is kept for parity with spec.md §4.C's
// row-oriented API.
func (c *Coder) ReadRowHeader(y int, r *bitio.Reader) error {
	c.rowY = y
	return nil
}

// Read decodes and returns the symbol at (x, y). The caller must call
// Read for every x in scan order within a row (predict depends on
// already-produced left/above neighbors).
func (c *Coder) Read(x, y int, r *bitio.Reader) (uint8, error) {
	width := c.p.Width

	tileSize := 1 << c.tileBits
	tf := c.tileFilter[(y/tileSize)*c.tilesX+(x/tileSize)]
	var pred uint8
	switch tf {
	case filterLeft:
		if x > 0 {
			pred = c.curVal[x-1]
		}
	case filterAbove:
		if y > 0 {
			pred = c.prevVal[x]
		}
	}

	ctx := chaosContext(c.prevRow, c.curRow, x)
	sym, err := c.tables[ctx].NextSymbol(r)
	if err != nil {
		return 0, err
	}
	residual := uint8(sym)
	actual := uint8(int(pred) + int(residual))
	c.curRow[x] = residual
	c.curVal[x] = actual

	if x == width-1 {
		c.prevRow, c.curRow = c.curRow, c.prevRow
		c.prevVal, c.curVal = c.curVal, c.prevVal
	}
	return actual, nil
}

// Zero forces a context-zero update for a cell the caller is skipping
// (e.g. masked-out or LZ-covered pixels in the CM layer's host plane),
// keeping the chaos context stream aligned between encoder and
// decoder even where this coder never actually wrote a symbol there.
func (c *Coder) Zero(x int) {
	c.curRow[x] = 0
	c.curVal[x] = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
