// Package nback holds the working-memory half of the game: stimulus
// configuration, the spawned-piece history and the evaluator that judges
// match/no-match decisions and keeps the score multiplier.
package nback

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/plus3/menoback/board"
)

const (
	MinLevel = 1
	MaxLevel = 15
)

// StimulusType is an axis on which pieces are compared.
type StimulusType int

const (
	Shape StimulusType = iota
	Color

	stimulusTypeCount
)

// StimulusTypes lists every known stimulus type in canonical order.
var StimulusTypes = []StimulusType{Shape, Color}

func (t StimulusType) String() string {
	switch t {
	case Shape:
		return "shape"
	case Color:
		return "color"
	default:
		return fmt.Sprintf("StimulusType(%d)", int(t))
	}
}

// ParseStimulusType is the inverse of String.
func ParseStimulusType(s string) (StimulusType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shape", "block":
		return Shape, nil
	case "color", "colour":
		return Color, nil
	}
	return 0, fmt.Errorf("unknown stimulus type %q", s)
}

// Stimulus pairs a type with how many pieces back it compares against.
type Stimulus struct {
	Type  StimulusType
	Level int
}

func (s Stimulus) String() string { return fmt.Sprintf("%s:%d", s.Type, s.Level) }

// StimulusSet is the enabled stimuli of a game. All members share one
// level. Types are kept sorted and unique so two sets with the same members
// compare equal regardless of construction order.
type StimulusSet struct {
	types []StimulusType
	level int
}

// NewStimulusSet validates and normalizes a stimulus configuration.
func NewStimulusSet(level int, types ...StimulusType) (StimulusSet, error) {
	if level < MinLevel || level > MaxLevel {
		return StimulusSet{}, fmt.Errorf("n-back level %d outside %d..%d", level, MinLevel, MaxLevel)
	}
	if len(types) == 0 {
		return StimulusSet{}, fmt.Errorf("at least one stimulus type must be enabled")
	}

	sorted := slices.Clone(types)
	for _, t := range sorted {
		if t < 0 || t >= stimulusTypeCount {
			return StimulusSet{}, fmt.Errorf("unknown stimulus type %d", int(t))
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	return StimulusSet{types: sorted, level: level}, nil
}

// MustStimulusSet is NewStimulusSet for static configurations.
func MustStimulusSet(level int, types ...StimulusType) StimulusSet {
	set, err := NewStimulusSet(level, types...)
	if err != nil {
		panic(err)
	}
	return set
}

// Level is the n-back distance shared by every enabled type.
func (s StimulusSet) Level() int { return s.level }

// Len is the number of enabled types.
func (s StimulusSet) Len() int { return len(s.types) }

// Types returns a copy of the sorted enabled types.
func (s StimulusSet) Types() []StimulusType { return slices.Clone(s.types) }

// Has reports whether t is enabled.
func (s StimulusSet) Has(t StimulusType) bool { return slices.Contains(s.types, t) }

// WithLevel returns the same types at another level, clamped to range.
func (s StimulusSet) WithLevel(level int) StimulusSet {
	return StimulusSet{types: s.types, level: min(MaxLevel, max(MinLevel, level))}
}

// Stimuli expands the set into one Stimulus per type.
func (s StimulusSet) Stimuli() []Stimulus {
	out := make([]Stimulus, len(s.types))
	for i, t := range s.types {
		out[i] = Stimulus{Type: t, Level: s.level}
	}
	return out
}

// Mask is a bit set of the enabled types, stable across releases.
func (s StimulusSet) Mask() uint8 {
	var m uint8
	for _, t := range s.types {
		m |= 1 << uint(t)
	}
	return m
}

func (s StimulusSet) String() string {
	parts := make([]string, len(s.types))
	for i, t := range s.types {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s@%d", strings.Join(parts, "+"), s.level)
}

// ColorTag is the color stimulus attached to a spawned piece, 1..7.
type ColorTag int

const ColorCount = board.TypeCount

// ColorForType is the fixed 1:1 mapping used when the color stimulus is
// disabled, so color carries no information independent of shape.
func ColorForType(pieceType int) ColorTag { return ColorTag(pieceType) }

// RandomColor draws a palette color uniformly.
func RandomColor(rng *rand.Rand) ColorTag { return ColorTag(rng.IntN(ColorCount) + 1) }
