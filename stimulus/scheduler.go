// Package stimulus decides which piece and color tag every upcoming slot
// gets, injecting deliberate n-back matches at an adaptive rate so matches
// neither dry up nor cluster.
package stimulus

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/nback"
)

// Match-probability tuning. A long drought raises the chance, a streak
// lowers it.
const (
	BaseMatchChance = 0.2
	GrowthFactor    = 0.1
	DecayFactor     = 0.05
	MaxMatchChance  = 0.95
	MinMatchChance  = 0.05

	// QueueBase plus the n-back level is the minimum look-ahead kept queued.
	QueueBase = 14
)

// Scheduler owns the queue of not-yet-spawned pieces and the 7-bag they
// are drawn from. It reads the game History but never writes the board.
type Scheduler struct {
	set   nback.StimulusSet
	rng   *rand.Rand
	bag   []int
	queue []nback.Entry
}

// New returns an empty scheduler. Call Fill before the first Spawn.
func New(set nback.StimulusSet, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Scheduler{set: set, rng: rng}
}

// MinQueue is the number of entries kept queued ahead of the current piece.
func (s *Scheduler) MinQueue() int { return QueueBase + s.set.Level() }

// Len is the number of queued entries.
func (s *Scheduler) Len() int { return len(s.queue) }

// Peek returns the next piece to spawn.
func (s *Scheduler) Peek() (nback.Entry, bool) {
	if len(s.queue) == 0 {
		return nback.Entry{}, false
	}
	return s.queue[0], true
}

// Upcoming returns a copy of the queue, next piece first.
func (s *Scheduler) Upcoming() []nback.Entry { return slices.Clone(s.queue) }

// Reset drops the queue and the bag.
func (s *Scheduler) Reset() {
	s.queue = nil
	s.bag = nil
}

// Fill tops the queue up to MinQueue entries.
func (s *Scheduler) Fill(h *nback.History) {
	for len(s.queue) < s.MinQueue() {
		s.queue = append(s.queue, s.next(h))
	}
}

// Spawn pops the next entry, appends it to the history as the current
// piece and refills the queue. An empty queue is a refill-policy bug and
// panics.
func (s *Scheduler) Spawn(h *nback.History) nback.Entry {
	if len(s.queue) == 0 {
		panic("stimulus: spawn from empty queue")
	}

	entry := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	h.Add(entry.Piece, entry.Color)
	s.Fill(h)

	return entry
}

// recent returns queue and history newest first: the last queued entry is
// at index 0 and the oldest history entry is last.
func (s *Scheduler) recent(h *nback.History) []nback.Entry {
	out := make([]nback.Entry, 0, len(s.queue)+h.Len())
	for i := len(s.queue) - 1; i >= 0; i-- {
		out = append(out, s.queue[i])
	}
	for i := h.Len() - 1; i >= 0; i-- {
		out = append(out, h.At(i))
	}
	return out
}

// LastMatchDistance is how many slots ago the most recent organic n-back
// match occurred, counting back from the newest queued slot. ok is false
// when no match exists in the scanned window.
func (s *Scheduler) LastMatchDistance(h *nback.History) (int, bool) {
	seq := s.recent(h)
	level := s.set.Level()
	for i := range seq {
		j := i + level
		if j >= len(seq) {
			return 0, false
		}
		if seq[i].MatchesAny(seq[j], s.set) {
			return i, true
		}
	}
	return 0, false
}

// MatchStreakLength counts consecutive matches ending at the newest slot.
func (s *Scheduler) MatchStreakLength(h *nback.History) int {
	seq := s.recent(h)
	level := s.set.Level()
	streak := 0
	for i := range seq {
		j := i + level
		if j >= len(seq) || !seq[i].MatchesAny(seq[j], s.set) {
			break
		}
		streak++
	}
	return streak
}

// MatchChance is the probability that the next slot is a forced match.
func (s *Scheduler) MatchChance(h *nback.History) float64 {
	distance, ok := s.LastMatchDistance(h)
	switch {
	case !ok:
		window := float64(len(s.queue) + h.Len())
		return math.Min(MaxMatchChance, BaseMatchChance+math.Sqrt(window)*GrowthFactor)
	case distance == 0:
		streak := float64(s.MatchStreakLength(h))
		return math.Max(MinMatchChance, BaseMatchChance-math.Sqrt(streak)*DecayFactor)
	default:
		return math.Min(MaxMatchChance, BaseMatchChance+math.Sqrt(float64(distance))*GrowthFactor)
	}
}

func (s *Scheduler) next(h *nback.History) nback.Entry {
	level := s.set.Level()
	if level < len(s.queue) && s.rng.Float64() < s.MatchChance(h) {
		return s.forcedMatch(s.queue[len(s.queue)-level])
	}
	return s.fresh()
}

func (s *Scheduler) fresh() nback.Entry {
	t := s.draw()
	return nback.Entry{Piece: board.NewPiece(t), Color: s.colorFor(t)}
}

// forcedMatch replays ref on the enabled axes and draws the remaining
// fields fresh.
func (s *Scheduler) forcedMatch(ref nback.Entry) nback.Entry {
	shape, color := s.set.Has(nback.Shape), s.set.Has(nback.Color)
	if shape && color {
		switch s.rng.IntN(3) {
		case 0:
			color = false
		case 1:
			shape = false
		}
	}

	var t int
	if shape {
		t = ref.Piece.Type()
		s.take(t)
	} else {
		t = s.draw()
	}

	c := s.colorFor(t)
	if color {
		c = ref.Color
	}

	return nback.Entry{Piece: board.NewPiece(t), Color: c}
}

func (s *Scheduler) colorFor(pieceType int) nback.ColorTag {
	if s.set.Has(nback.Color) {
		return nback.RandomColor(s.rng)
	}
	return nback.ColorForType(pieceType)
}

// draw takes a type from the bag, refilling and shuffling it when empty.
func (s *Scheduler) draw() int {
	if len(s.bag) == 0 {
		s.bag = make([]int, board.TypeCount)
		for i := range s.bag {
			s.bag[i] = i + 1
		}
		s.rng.Shuffle(len(s.bag), func(i, j int) {
			s.bag[i], s.bag[j] = s.bag[j], s.bag[i]
		})
	}
	t := s.bag[len(s.bag)-1]
	s.bag = s.bag[:len(s.bag)-1]
	return t
}

// take removes a replayed type from the bag so it does not immediately
// come up again.
func (s *Scheduler) take(pieceType int) {
	if i := slices.Index(s.bag, pieceType); i >= 0 {
		s.bag = slices.Delete(s.bag, i, i+1)
	}
}
