package nback

import (
	"slices"

	"github.com/plus3/menoback/board"
)

// Entry is one spawned piece together with its color stimulus.
type Entry struct {
	Piece board.Piece
	Color ColorTag
}

// Matches reports whether e and other agree on the given axis.
func (e Entry) Matches(other Entry, t StimulusType) bool {
	switch t {
	case Shape:
		return e.Piece.Type() == other.Piece.Type()
	case Color:
		return e.Color == other.Color
	}
	return false
}

// MatchesAny reports whether e and other agree on any type of the set.
func (e Entry) MatchesAny(other Entry, set StimulusSet) bool {
	for _, t := range set.types {
		if e.Matches(other, t) {
			return true
		}
	}
	return false
}

// History is the append-only log of spawned pieces, oldest first. The
// most recent entry is the piece currently falling.
type History struct {
	entries []Entry
}

// Add appends a spawned piece as the newest entry.
func (h *History) Add(piece board.Piece, color ColorTag) {
	h.entries = append(h.entries, Entry{Piece: piece, Color: color})
}

// Len is the number of recorded pieces.
func (h *History) Len() int { return len(h.entries) }

// At returns entry i, oldest first.
func (h *History) At(i int) Entry { return h.entries[i] }

// Last returns the current piece's entry.
func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// NBack returns the entry level positions before the current one, at index
// Len()-level-1. ok is false when the history is too short.
func (h *History) NBack(level int) (Entry, bool) {
	i := len(h.entries) - level - 1
	if level < 0 || i < 0 {
		return Entry{}, false
	}
	return h.entries[i], true
}

// IsMatch reports whether the current piece matches its n-back reference on
// axis t. It is false whenever the history is too short.
func (h *History) IsMatch(level int, t StimulusType) bool {
	current, ok := h.Last()
	if !ok {
		return false
	}
	ref, ok := h.NBack(level)
	if !ok {
		return false
	}
	return current.Matches(ref, t)
}

// Entries returns a copy of the log.
func (h *History) Entries() []Entry { return slices.Clone(h.entries) }

// Reset empties the log for a new game.
func (h *History) Reset() { h.entries = nil }
