package game

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/stimulus"
)

// session is the mutable state of one game. It is only touched under the
// engine lock.
type session struct {
	id        string
	duration  int
	set       nback.StimulusSet
	blind     bool
	dig       bool
	board     board.Board
	current   nback.Entry
	pos       board.Position
	history   nback.History
	scheduler *stimulus.Scheduler
	eval      *nback.Evaluator
	score     int64
	combo     int
	lines     int
	pieces    int
	speed     time.Duration
	remaining time.Duration
	highScore int64
	maxLevel  int
	cause     Cause
	newHigh   bool
	unlocked  bool
}

func newSession(s Settings, rng *rand.Rand) *session {
	set := s.Stimuli()
	sess := &session{
		id:        uuid.NewString(),
		duration:  s.DurationSeconds(),
		set:       set,
		blind:     s.Blind(),
		dig:       s.Dig(),
		board:     board.Default(),
		scheduler: stimulus.New(set, rng),
		eval:      nback.NewEvaluator(set, BaseMultiplier(s.Blind(), s.Dig())),
		speed:     InitialSpeed,
		remaining: time.Duration(s.DurationSeconds()) * time.Second,
		maxLevel:  set.Level(),
	}
	if sess.dig {
		sess.board = sess.board.WithGarbageRows(DigRows, rng)
	}
	return sess
}

// spawn makes the next queued entry the falling piece. It reports false
// when the spawn position is blocked.
func (s *session) spawn() bool {
	s.current = s.scheduler.Spawn(&s.history)
	s.pos = s.board.SpawnPosition()
	s.pieces++
	return s.board.ValidPosition(s.current.Piece, s.pos)
}

func (s *session) fits(piece board.Piece, pos board.Position) bool {
	return s.board.ValidPosition(piece, pos)
}

// Frame carries one descent step through the pipeline.
type Frame struct {
	s *session

	// HardDrop moves the piece all the way down before locking.
	HardDrop bool
	// Landed is set once the piece can no longer move down.
	Landed bool
	// Missed holds the decisions auto-scored when the piece locked.
	Missed []nback.Outcome
	Lines  int
	Points int64
	// BoardFull is set when the next piece cannot spawn.
	BoardFull bool
	// Halt stops the pipeline after the current system.
	Halt bool
}

type gravitySystem struct{}

func (gravitySystem) Execute(f *Frame) {
	s := f.s
	if f.HardDrop {
		for s.fits(s.current.Piece, s.pos.Down()) {
			s.pos = s.pos.Down()
		}
		f.Landed = true
		return
	}

	if s.fits(s.current.Piece, s.pos.Down()) {
		s.pos = s.pos.Down()
		f.Halt = true
		return
	}
	f.Landed = true
}

type lockSystem struct{}

func (lockSystem) Execute(f *Frame) {
	s := f.s
	f.Missed = s.eval.AutoMiss()
	s.eval.NextPiece()

	s.board, f.Lines = s.board.Lock(s.current.Piece, s.pos).ClearFilledRows()
	s.lines += f.Lines
}

type scoreSystem struct{}

func (scoreSystem) Execute(f *Frame) {
	s := f.s
	if f.Lines > 0 {
		s.combo++
	} else {
		s.combo = 0
	}
	f.Points = LockScore(f.Lines, s.combo, s.eval.Multiplier())
	s.score += f.Points
}

type spawnSystem struct{}

func (spawnSystem) Execute(f *Frame) {
	if !f.s.spawn() {
		f.BoardFull = true
	}
}

func newDescentPipeline() *Pipeline {
	return NewPipeline(gravitySystem{}, lockSystem{}, scoreSystem{}, spawnSystem{})
}
