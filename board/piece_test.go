package board_test

import (
	"testing"

	"github.com/plus3/menoback/board"
	"github.com/stretchr/testify/assert"
)

func TestRotatePreservesType(t *testing.T) {
	for _, piece := range board.Pieces() {
		assert.Equal(t, piece.Type(), piece.Rotate(board.Clockwise).Type())
		assert.Equal(t, piece.Type(), piece.Rotate(board.CounterClockwise).Type())
	}
}

func TestRotateRoundTrip(t *testing.T) {
	for _, piece := range board.Pieces() {
		assert.True(t, piece.Equal(piece.Rotate(board.Clockwise).Rotate(board.CounterClockwise)), "piece %d", piece.Type())

		full := piece
		for range 4 {
			full = full.Rotate(board.Clockwise)
		}
		assert.True(t, piece.Equal(full), "piece %d after four turns", piece.Type())
	}
}

func TestRotateClockwise(t *testing.T) {
	tPiece := board.NewPiece(3)
	want := board.ParsePiece(3,
		".#.",
		".##",
		".#.",
	)
	assert.True(t, want.Equal(tPiece.Rotate(board.Clockwise)), "got %s", tPiece.Rotate(board.Clockwise))

	wantCCW := board.ParsePiece(3,
		".#.",
		"##.",
		".#.",
	)
	assert.True(t, wantCCW.Equal(tPiece.Rotate(board.CounterClockwise)), "got %s", tPiece.Rotate(board.CounterClockwise))
}

func TestRotateRectangular(t *testing.T) {
	bar := board.ParsePiece(1, "###")
	rotated := bar.Rotate(board.Clockwise)
	assert.Equal(t, 3, rotated.Rows())
	assert.Equal(t, 1, rotated.Cols())
}

func TestPieceEqualityAndKey(t *testing.T) {
	a := board.NewPiece(4)
	b := board.NewPiece(4)
	c := board.NewPiece(5)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())

	rotated := a.Rotate(board.Clockwise)
	assert.False(t, a.Equal(rotated))
	assert.NotEqual(t, a.Key(), rotated.Key())
}

func TestNewPiecePanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { board.NewPiece(0) })
	assert.Panics(t, func() { board.NewPiece(board.TypeCount + 1) })
}

func TestNullPiece(t *testing.T) {
	var p board.Piece
	assert.True(t, p.IsNull())
	assert.Zero(t, p.Type())
	assert.False(t, board.NewPiece(1).IsNull())
}

func TestPieceCellCount(t *testing.T) {
	for _, piece := range board.Pieces() {
		n := 0
		for range piece.Cells() {
			n++
		}
		assert.Equal(t, 4, n, "piece %d", piece.Type())
	}
}
