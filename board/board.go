package board

import (
	"math/rand/v2"
	"strings"
)

const (
	DefaultHeight = 20
	DefaultWidth  = 10
)

// Board is a fixed height x width grid of cell values: 0 is empty, 1..7 a
// piece type and LockedType a settled block. Board has value semantics;
// every mutating operation returns a new Board and leaves the receiver
// untouched.
type Board struct {
	height int
	width  int
	cells  []int
}

// New returns an empty board of the given size.
func New(height, width int) Board {
	if height <= 0 || width <= 0 {
		panic("board: dimensions must be positive")
	}
	return Board{height: height, width: width, cells: make([]int, height*width)}
}

// Default returns an empty 20x10 board.
func Default() Board { return New(DefaultHeight, DefaultWidth) }

// FromRows builds a board from rows of '.' (empty), '#' (locked) or a
// digit 1..7 (piece type). All rows must have the same width.
func FromRows(rows ...string) Board {
	b := New(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != b.width {
			panic("board: ragged rows")
		}
		for c, ch := range row {
			switch {
			case ch == '#':
				b.cells[r*b.width+c] = LockedType
			case ch >= '1' && ch <= '7':
				b.cells[r*b.width+c] = int(ch - '0')
			}
		}
	}
	return b
}

// Height is the number of rows.
func (b Board) Height() int { return b.height }

// Width is the number of columns.
func (b Board) Width() int { return b.width }

// SpawnPosition is where new pieces enter the board.
func (b Board) SpawnPosition() Position {
	return Position{Row: 0, Col: b.width/2 - 2}
}

// At returns the cell value at (row, col). Out-of-range cells read as 0.
func (b Board) At(row, col int) int {
	if !b.inBounds(row, col) {
		return 0
	}
	return b.cells[row*b.width+col]
}

// Row returns a copy of one row.
func (b Board) Row(row int) []int {
	out := make([]int, b.width)
	copy(out, b.cells[row*b.width:(row+1)*b.width])
	return out
}

// Rows returns a copy of the whole grid, top row first.
func (b Board) Rows() [][]int {
	out := make([][]int, b.height)
	for r := range out {
		out[r] = b.Row(r)
	}
	return out
}

// FilledCells counts non-zero cells.
func (b Board) FilledCells() int {
	n := 0
	for _, v := range b.cells {
		if v != 0 {
			n++
		}
	}
	return n
}

func (b Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.height && col >= 0 && col < b.width
}

func (b Board) clone() Board {
	cells := make([]int, len(b.cells))
	copy(cells, b.cells)
	return Board{height: b.height, width: b.width, cells: cells}
}

// ValidPosition reports whether every occupied cell of piece at pos lies
// on the board and over an empty cell. The null piece is never valid.
func (b Board) ValidPosition(piece Piece, pos Position) bool {
	if piece.IsNull() {
		return false
	}

	for cell := range piece.Cells() {
		row := pos.Row + cell.Row
		col := pos.Col + cell.Col

		if !b.inBounds(row, col) {
			return false
		}
		if b.cells[row*b.width+col] != 0 {
			return false
		}
	}

	return true
}

// Settled drops every cell that is not LockedType, turning a display board
// back into the board of settled blocks.
func (b Board) Settled() Board {
	out := b.clone()
	for i, v := range out.cells {
		if v != LockedType {
			out.cells[i] = 0
		}
	}
	return out
}

// ColumnHeights returns, per column, the distance from the bottom to the
// top filled cell, 0 for an empty column.
func (b Board) ColumnHeights() []int {
	heights := make([]int, b.width)
	for c := range b.width {
		for r := range b.height {
			if b.cells[r*b.width+c] != 0 {
				heights[c] = b.height - r
				break
			}
		}
	}
	return heights
}

// Holes counts empty cells with a filled cell somewhere above them.
func (b Board) Holes() int {
	holes := 0
	for c := range b.width {
		covered := false
		for r := range b.height {
			switch {
			case b.cells[r*b.width+c] != 0:
				covered = true
			case covered:
				holes++
			}
		}
	}
	return holes
}

// Lock settles piece at pos: each occupied shape cell becomes LockedType.
// Cells falling outside the board are skipped.
func (b Board) Lock(piece Piece, pos Position) Board {
	return b.paint(piece, pos, LockedType)
}

// Composite overlays the falling piece with its type value. The result is
// for display only and must never be fed back as game state.
func (b Board) Composite(piece Piece, pos Position) Board {
	if piece.IsNull() {
		return b.clone()
	}
	return b.paint(piece, pos, piece.Type())
}

func (b Board) paint(piece Piece, pos Position, value int) Board {
	out := b.clone()
	for cell := range piece.Cells() {
		row := pos.Row + cell.Row
		col := pos.Col + cell.Col
		if out.inBounds(row, col) {
			out.cells[row*out.width+col] = value
		}
	}
	return out
}

// ClearFilledRows removes every row whose cells are all non-zero. Rows
// above a removed row shift down and the top is refilled with empty rows.
// Scanning runs bottom-up and re-checks the same row index after a removal
// since new content has moved into it.
func (b Board) ClearFilledRows() (Board, int) {
	out := b.clone()
	cleared := 0

	row := out.height - 1
	for row >= 0 {
		if !out.rowFilled(row) {
			row--
			continue
		}

		copy(out.cells[out.width:(row+1)*out.width], out.cells[:row*out.width])
		clear(out.cells[:out.width])
		cleared++
	}

	return out, cleared
}

func (b Board) rowFilled(row int) bool {
	for _, v := range b.cells[row*b.width : (row+1)*b.width] {
		if v == 0 {
			return false
		}
	}
	return true
}

// WithGarbageRows fills the bottom n rows with locked cells, leaving one
// random hole in each so no garbage row starts out filled. Existing content
// in those rows is overwritten.
func (b Board) WithGarbageRows(n int, rng *rand.Rand) Board {
	out := b.clone()
	n = min(n, out.height)
	for i := range n {
		row := out.height - 1 - i
		hole := rng.IntN(out.width)
		for col := range out.width {
			if col == hole {
				out.cells[row*out.width+col] = 0
			} else {
				out.cells[row*out.width+col] = LockedType
			}
		}
	}
	return out
}

// Equal reports whether both boards have the same size and cells.
func (b Board) Equal(other Board) bool {
	if b.height != other.height || b.width != other.width {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

func (b Board) String() string {
	var sb strings.Builder
	for r := range b.height {
		for c := range b.width {
			switch v := b.cells[r*b.width+c]; v {
			case 0:
				sb.WriteByte('.')
			case LockedType:
				sb.WriteByte('#')
			default:
				sb.WriteByte(byte('0' + v))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
