package board_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/plus3/menoback/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPositionEmptyBoard(t *testing.T) {
	b := board.Default()
	o := board.NewPiece(2)

	assert.True(t, b.ValidPosition(o, board.Position{Row: 0, Col: 0}))
	assert.True(t, b.ValidPosition(o, board.Position{Row: 18, Col: 8}))
	assert.False(t, b.ValidPosition(o, board.Position{Row: 19, Col: 0}), "bottom overflow")
	assert.False(t, b.ValidPosition(o, board.Position{Row: 0, Col: 9}), "right overflow")
	assert.False(t, b.ValidPosition(o, board.Position{Row: -1, Col: 0}), "top overflow")
	assert.False(t, b.ValidPosition(o, board.Position{Row: 0, Col: -1}), "left overflow")
}

func TestValidPositionIgnoresEmptyMaskCells(t *testing.T) {
	b := board.Default()
	i := board.NewPiece(1)

	// The I piece occupies only mask row 1, so mask rows 0, 2 and 3 may hang
	// off the board.
	assert.True(t, b.ValidPosition(i, board.Position{Row: -1, Col: 0}))
	assert.True(t, b.ValidPosition(i, board.Position{Row: 18, Col: 6}))
	assert.False(t, b.ValidPosition(i, board.Position{Row: 19, Col: 6}))
}

func TestValidPositionNullPiece(t *testing.T) {
	assert.False(t, board.Default().ValidPosition(board.Piece{}, board.Position{}))
}

// Exhaustive check of the collision rule against a brute-force oracle on
// a synthetic board.
func TestValidPositionExhaustive(t *testing.T) {
	b := board.FromRows(
		"......",
		"..#...",
		"......",
		"#....#",
		"##.###",
	)

	for _, base := range board.Pieces() {
		for _, piece := range []board.Piece{base, base.Rotate(board.Clockwise), base.Rotate(board.CounterClockwise)} {
			for row := -4; row <= b.Height()+1; row++ {
				for col := -4; col <= b.Width()+1; col++ {
					pos := board.Position{Row: row, Col: col}

					want := true
					for cell := range piece.Cells() {
						r, c := row+cell.Row, col+cell.Col
						if r < 0 || r >= b.Height() || c < 0 || c >= b.Width() || b.At(r, c) != 0 {
							want = false
							break
						}
					}

					require.Equal(t, want, b.ValidPosition(piece, pos), "piece %s at %v", piece, pos)
				}
			}
		}
	}
}

func TestLockIsValueSemantics(t *testing.T) {
	b := board.Default()
	piece := board.NewPiece(3)
	pos := board.Position{Row: 5, Col: 4}

	locked := b.Lock(piece, pos)

	assert.Equal(t, 0, b.FilledCells(), "original board must be untouched")
	assert.Equal(t, 4, locked.FilledCells())
	assert.Equal(t, board.LockedType, locked.At(5, 5))
	assert.Equal(t, board.LockedType, locked.At(6, 4))
	assert.Equal(t, board.LockedType, locked.At(6, 5))
	assert.Equal(t, board.LockedType, locked.At(6, 6))
}

func TestLockOnlyChangesFootprint(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	b := board.Default().WithGarbageRows(6, rng)

	for _, piece := range board.Pieces() {
		for row := -2; row < b.Height(); row++ {
			for col := -2; col < b.Width(); col++ {
				pos := board.Position{Row: row, Col: col}
				if !b.ValidPosition(piece, pos) {
					continue
				}

				footprint := map[board.Position]bool{}
				for cell := range piece.Cells() {
					footprint[board.Position{Row: row + cell.Row, Col: col + cell.Col}] = true
				}

				locked := b.Lock(piece, pos)
				require.GreaterOrEqual(t, locked.FilledCells(), b.FilledCells())

				for r := range b.Height() {
					for c := range b.Width() {
						if footprint[board.Position{Row: r, Col: c}] {
							require.Equal(t, board.LockedType, locked.At(r, c))
						} else {
							require.Equal(t, b.At(r, c), locked.At(r, c))
						}
					}
				}
			}
		}
	}
}

func TestClearFilledRowsTwoSeparatedRows(t *testing.T) {
	b := board.FromRows(
		"1.........",
		"..2.......",
		"##########",
		"...3......",
		"....4.....",
		"##########",
		"#########.",
	)

	cleared, lines := b.ClearFilledRows()

	require.Equal(t, 2, lines)
	assert.True(t, cleared.Equal(board.FromRows(
		"..........",
		"..........",
		"1.........",
		"..2.......",
		"...3......",
		"....4.....",
		"#########.",
	)), "got:\n%s", cleared)

	assert.Equal(t, board.LockedType, b.At(2, 0), "original unchanged")
}

func TestClearFilledRowsAdjacentRows(t *testing.T) {
	b := board.FromRows(
		".#....",
		"######",
		"######",
		"######",
		"######",
	)

	cleared, lines := b.ClearFilledRows()

	require.Equal(t, 4, lines)
	assert.True(t, cleared.Equal(board.FromRows(
		"......",
		"......",
		"......",
		"......",
		".#....",
	)), "got:\n%s", cleared)
}

func TestClearFilledRowsNothingToClear(t *testing.T) {
	b := board.FromRows(
		"#.#",
		".##",
	)
	cleared, lines := b.ClearFilledRows()
	assert.Equal(t, 0, lines)
	assert.True(t, cleared.Equal(b))
}

func TestCompositeDoesNotLock(t *testing.T) {
	b := board.Default()
	piece := board.NewPiece(5)
	view := b.Composite(piece, b.SpawnPosition())

	assert.Equal(t, 0, b.FilledCells())
	assert.Equal(t, 4, view.FilledCells())
	assert.Equal(t, 5, view.At(0, 3))
}

func TestWithGarbageRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	b := board.Default().WithGarbageRows(4, rng)

	for row := range b.Height() {
		filled := 0
		for _, v := range b.Row(row) {
			if v != 0 {
				filled++
			}
		}
		if row >= b.Height()-4 {
			assert.Equal(t, b.Width()-1, filled, "row %d", row)
		} else {
			assert.Zero(t, filled, "row %d", row)
		}
	}

	_, lines := b.ClearFilledRows()
	assert.Zero(t, lines)
}

func TestSettledStripsFallingPiece(t *testing.T) {
	b := board.FromRows(
		"...",
		"#..",
		"##.",
	)
	view := b.Composite(board.ParsePiece(2, "#"), board.Position{Row: 0, Col: 2})
	require.Equal(t, 4, view.FilledCells())
	assert.True(t, b.Equal(view.Settled()))
}

func TestColumnHeightsAndHoles(t *testing.T) {
	b := board.FromRows(
		"....",
		".#..",
		"....",
		"#.#.",
	)
	assert.Equal(t, []int{1, 3, 1, 0}, b.ColumnHeights())
	assert.Equal(t, 2, b.Holes())
	assert.Zero(t, board.Default().Holes())
}

func TestSpawnPosition(t *testing.T) {
	assert.Equal(t, board.Position{Row: 0, Col: 3}, board.Default().SpawnPosition())
}

func ExampleBoard_ClearFilledRows() {
	b := board.FromRows(
		"..#",
		"###",
		"#.#",
	)
	cleared, lines := b.ClearFilledRows()
	fmt.Println(lines)
	fmt.Print(cleared)
	// Output:
	// 1
	// ...
	// ..#
	// #.#
}

func BenchmarkClearFilledRows(b *testing.B) {
	rows := make([]string, board.DefaultHeight)
	for i := range rows {
		if i%2 == 0 {
			rows[i] = "##########"
		} else {
			rows[i] = "#########."
		}
	}
	full := board.FromRows(rows...)

	b.ResetTimer()
	for b.Loop() {
		full.ClearFilledRows()
	}
}
