// Package board models the playfield: tetrimino pieces, the settled-block
// grid, collision checks, locking and line clears.
package board

import (
	"iter"
	"strings"
)

// LockedType is the cell value written for every settled block. Per-type
// colors of locked blocks are a display concern and never stored.
const LockedType = 8

// TypeCount is the number of distinct piece types (1..TypeCount).
const TypeCount = 7

// Rotation selects the direction of a 90 degree piece rotation.
type Rotation int

const (
	Clockwise Rotation = iota
	CounterClockwise
)

// WallKickOffsets are the lateral column offsets tried, in order, when a
// rotated piece does not fit at its current position.
var WallKickOffsets = []int{-1, 1, -2, 2}

// Position is the board offset of a piece's shape origin (top-left cell).
type Position struct {
	Row int
	Col int
}

// Down returns the position one row below p.
func (p Position) Down() Position { return Position{Row: p.Row + 1, Col: p.Col} }

// Shift returns p moved by cols columns.
func (p Position) Shift(cols int) Position { return Position{Row: p.Row, Col: p.Col + cols} }

// Piece is an immutable tetrimino: a type in 1..TypeCount and a shape mask.
// The zero Piece is the null piece and is never a valid placement.
type Piece struct {
	kind  int
	shape [][]bool
}

var shapes = [TypeCount][]string{
	{ // I
		"....",
		"####",
		"....",
		"....",
	},
	{ // O
		"##",
		"##",
	},
	{ // T
		".#.",
		"###",
		"...",
	},
	{ // L
		"..#",
		"###",
		"...",
	},
	{ // J
		"#..",
		"###",
		"...",
	},
	{ // S
		".##",
		"##.",
		"...",
	},
	{ // Z
		"##.",
		".##",
		"...",
	},
}

// NewPiece returns the canonical spawn orientation of the given type.
// It panics if pieceType is outside 1..TypeCount.
func NewPiece(pieceType int) Piece {
	if pieceType < 1 || pieceType > TypeCount {
		panic("board: piece type out of range")
	}
	return parsePiece(pieceType, shapes[pieceType-1])
}

// Pieces returns one canonical piece of every type, ordered by type.
func Pieces() []Piece {
	pieces := make([]Piece, 0, TypeCount)
	for t := 1; t <= TypeCount; t++ {
		pieces = append(pieces, NewPiece(t))
	}
	return pieces
}

// ParsePiece builds a piece from rows of '#' (filled) and '.' (empty).
// It exists for tests and variant shapes.
func ParsePiece(pieceType int, rows ...string) Piece {
	return parsePiece(pieceType, rows)
}

func parsePiece(pieceType int, rows []string) Piece {
	shape := make([][]bool, len(rows))
	for r, row := range rows {
		shape[r] = make([]bool, len(row))
		for c, ch := range row {
			shape[r][c] = ch == '#'
		}
	}
	return Piece{kind: pieceType, shape: shape}
}

// Type returns the piece type, 0 for the null piece.
func (p Piece) Type() int { return p.kind }

// IsNull reports whether p is the zero Piece.
func (p Piece) IsNull() bool { return p.kind == 0 || len(p.shape) == 0 }

// Rows returns the height of the shape mask.
func (p Piece) Rows() int { return len(p.shape) }

// Cols returns the width of the shape mask.
func (p Piece) Cols() int {
	if len(p.shape) == 0 {
		return 0
	}
	return len(p.shape[0])
}

// Filled reports whether the mask cell (row, col) is occupied.
func (p Piece) Filled(row, col int) bool {
	if row < 0 || row >= len(p.shape) || col < 0 || col >= len(p.shape[row]) {
		return false
	}
	return p.shape[row][col]
}

// Cells yields the offset of every occupied mask cell.
func (p Piece) Cells() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for r, row := range p.shape {
			for c, filled := range row {
				if filled && !yield(Position{Row: r, Col: c}) {
					return
				}
			}
		}
	}
}

// Rotate returns a new piece with the shape transposed 90 degrees in the
// given direction. The type is preserved.
func (p Piece) Rotate(direction Rotation) Piece {
	rows, cols := p.Rows(), p.Cols()
	rotated := make([][]bool, cols)
	for i := range rotated {
		rotated[i] = make([]bool, rows)
	}

	for r := range rows {
		for c := range cols {
			switch direction {
			case Clockwise:
				rotated[c][rows-1-r] = p.shape[r][c]
			case CounterClockwise:
				rotated[cols-1-c][r] = p.shape[r][c]
			}
		}
	}

	return Piece{kind: p.kind, shape: rotated}
}

// Equal compares type and shape mask.
func (p Piece) Equal(other Piece) bool {
	if p.kind != other.kind || len(p.shape) != len(other.shape) {
		return false
	}
	for r := range p.shape {
		if len(p.shape[r]) != len(other.shape[r]) {
			return false
		}
		for c := range p.shape[r] {
			if p.shape[r][c] != other.shape[r][c] {
				return false
			}
		}
	}
	return true
}

// Key returns a string that is equal for two pieces iff Equal holds, so a
// Piece can be used as a map key through it.
func (p Piece) Key() string {
	var b strings.Builder
	b.WriteByte(byte('0' + p.kind))
	for _, row := range p.shape {
		b.WriteByte('/')
		for _, filled := range row {
			if filled {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

func (p Piece) String() string { return p.Key() }
