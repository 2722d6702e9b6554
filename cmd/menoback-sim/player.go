package main

import (
	"errors"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/nback"
)

var errStalled = errors.New("engine loops did not settle")

// Weights of the placement heuristic.
const (
	heightWeight = -0.51
	linesWeight  = 0.76
	holesWeight  = -0.36
	bumpyWeight  = -0.18
)

// placement is a target orientation and column for the falling piece.
type placement struct {
	Turns int
	Col   int
	Score float64
}

// evaluate scores a settled board after clearing lines.
func evaluate(b board.Board, lines int) float64 {
	heights := b.ColumnHeights()
	total, bumps := 0, 0
	for i, h := range heights {
		total += h
		if i > 0 {
			bumps += abs(h - heights[i-1])
		}
	}
	return heightWeight*float64(total) + linesWeight*float64(lines) +
		holesWeight*float64(b.Holes()) + bumpyWeight*float64(bumps)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// plan tries every rotation and column from the current row and keeps the
// placement that leaves the best board. ok is false when the piece fits
// nowhere.
func plan(settled board.Board, piece board.Piece, from board.Position) (best placement, ok bool) {
	best.Score = math.Inf(-1)
	seen := make(map[string]bool, 4)
	for turns := range 4 {
		if !seen[piece.Key()] {
			seen[piece.Key()] = true
			for col := -piece.Cols(); col <= settled.Width(); col++ {
				pos := board.Position{Row: from.Row, Col: col}
				if !settled.ValidPosition(piece, pos) {
					continue
				}
				for settled.ValidPosition(piece, pos.Down()) {
					pos = pos.Down()
				}
				cleared, lines := settled.Lock(piece, pos).ClearFilledRows()
				if score := evaluate(cleared, lines); score > best.Score {
					best, ok = placement{Turns: turns, Col: col, Score: score}, true
				}
			}
		}
		piece = piece.Rotate(board.Clockwise)
	}
	return best, ok
}

// Player is a scripted opponent. It tracks the spawned pieces itself from
// snapshots and answers every enabled stimulus, correctly with probability
// Accuracy. Each piece is steered to the best placement found by plan,
// then hard dropped after Think simulated seconds.
type Player struct {
	Accuracy float64
	Think    int
	Rand     *rand.Rand

	history nback.History
	seen    int
}

// observe handles a newly spawned piece. It reports false when the
// current piece was already handled.
func (p *Player) observe(e *game.Engine) bool {
	snap := e.Snapshot()
	if snap.Pieces == p.seen {
		return false
	}
	p.seen = snap.Pieces
	p.history.Add(snap.Current.Piece, snap.Current.Color)

	for _, t := range snap.Stimuli.Types() {
		truth := p.history.IsMatch(snap.Level, t)
		if correct := p.Rand.Float64() < p.Accuracy; correct == truth {
			e.MatchChoice(t)
		} else {
			e.NoMatchChoice(t)
		}
	}

	p.steer(e, snap)
	return true
}

func (p *Player) steer(e *game.Engine, snap game.Snapshot) {
	target, ok := plan(snap.Board.Settled(), snap.Current.Piece, snap.Position)
	if !ok {
		return
	}
	for range target.Turns {
		e.Rotate(board.Clockwise)
	}

	// rotation can kick the piece sideways, so read the column back
	delta := target.Col - e.Snapshot().Position.Col
	for ; delta < 0; delta++ {
		e.MoveLeft()
	}
	for ; delta > 0; delta-- {
		e.MoveRight()
	}
}

// Play drives one started game to its end on a manual clock.
func (p *Player) Play(e *game.Engine, clock *game.ManualClock) error {
	p.history.Reset()
	p.seen = 0

	thought := 0
	for e.State() == game.Running {
		if p.observe(e) {
			thought = 0
		}
		if thought >= p.Think {
			e.Drop()
			continue
		}

		if err := settle(e, clock); err != nil {
			return err
		}
		clock.Advance(time.Second)
		if err := settle(e, clock); err != nil {
			return err
		}
		thought++
	}
	return nil
}

// settle waits until both engine loops are asleep on the clock, or the
// game has stopped running.
func settle(e *game.Engine, clock *game.ManualClock) error {
	deadline := time.Now().Add(5 * time.Second)
	for clock.Pending() != 2 {
		if e.State() != game.Running && clock.Pending() == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errStalled
		}
		runtime.Gosched()
	}
	return nil
}
