package game

import (
	"time"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/nback"
)

// Snapshot is an immutable copy of everything observers may show. Board
// already has the falling piece composited onto it.
type Snapshot struct {
	SessionID string
	State     State
	Cause     Cause

	Board    board.Board
	Current  nback.Entry
	Position board.Position
	Next     nback.Entry
	HasNext  bool

	Score          int64
	HighScore      int64
	Streak         int
	MaxStreak      int
	Combo          int
	Multiplier     float64
	MultiplierText string
	Lines          int
	Pieces         int

	Speed         time.Duration
	TimeRemaining time.Duration
	Duration      int

	Stimuli   nback.StimulusSet
	Level     int
	MaxLevel  int
	Decisions nback.Decisions
	Shape     nback.MatchStats
	Color     nback.MatchStats
	Overall   nback.MatchStats

	NewHighScore  bool
	LevelUnlocked bool
	Blind         bool
	Dig           bool
}

// Stats returns the counters of one stimulus type.
func (s Snapshot) Stats(t nback.StimulusType) nback.MatchStats {
	switch t {
	case nback.Shape:
		return s.Shape
	case nback.Color:
		return s.Color
	}
	return nback.MatchStats{}
}

func (s *session) snapshot(state State) Snapshot {
	snap := Snapshot{
		SessionID:      s.id,
		State:          state,
		Cause:          s.cause,
		Board:          s.board.Composite(s.current.Piece, s.pos),
		Current:        s.current,
		Position:       s.pos,
		Score:          s.score,
		HighScore:      max(s.highScore, s.score),
		Streak:         s.eval.Streak(),
		MaxStreak:      s.eval.MaxStreak(),
		Combo:          s.combo,
		Multiplier:     s.eval.Multiplier(),
		MultiplierText: nback.FormatMultiplier(s.eval.Multiplier()),
		Lines:          s.lines,
		Pieces:         s.pieces,
		Speed:          s.speed,
		TimeRemaining:  s.remaining,
		Duration:       s.duration,
		Stimuli:        s.set,
		Level:          s.set.Level(),
		MaxLevel:       s.maxLevel,
		Decisions:      s.eval.Decisions(),
		Shape:          s.eval.Stats(nback.Shape),
		Color:          s.eval.Stats(nback.Color),
		Overall:        s.eval.Overall(),
		NewHighScore:   s.newHigh,
		LevelUnlocked:  s.unlocked,
		Blind:          s.blind,
		Dig:            s.dig,
	}
	snap.Next, snap.HasNext = s.scheduler.Peek()
	return snap
}

// subscribers fan snapshots out to buffered channels of size one. A slow
// reader only ever sees the latest snapshot.
type subscribers struct {
	next int
	chs  map[int]chan Snapshot
}

func (s *subscribers) add() (int, chan Snapshot) {
	if s.chs == nil {
		s.chs = make(map[int]chan Snapshot)
	}
	s.next++
	ch := make(chan Snapshot, 1)
	s.chs[s.next] = ch
	return s.next, ch
}

func (s *subscribers) remove(id int) {
	if ch, ok := s.chs[id]; ok {
		delete(s.chs, id)
		close(ch)
	}
}

func (s *subscribers) publish(snap Snapshot) {
	for _, ch := range s.chs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	for id := range s.chs {
		s.remove(id)
	}
}
