// Package progress persists what outlives a single game: high scores and
// unlocked n-back levels per (duration, stimulus set) key, level
// achievements and the record of finished games.
package progress

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plus3/menoback/nback"
)

const (
	// DefaultUnlockedLevel is the max level of a key nobody has played yet.
	DefaultUnlockedLevel = 2
	// AccuracyThreshold is the minimum accuracy, in percent, to unlock the
	// next level.
	AccuracyThreshold = 85.0
	MaxLevel          = nback.MaxLevel
)

// Key identifies a progression track. Stimuli is sorted so the key does not
// depend on the order types were enabled in.
type Key struct {
	DurationSeconds int
	Stimuli         []nback.StimulusType
}

// NewKey builds the key of a game played for durationSeconds with set.
func NewKey(durationSeconds int, set nback.StimulusSet) Key {
	return Key{DurationSeconds: durationSeconds, Stimuli: set.Types()}
}

// Mask is the stimulus set as a bit set.
func (k Key) Mask() uint8 {
	var m uint8
	for _, t := range k.Stimuli {
		m |= 1 << uint(t)
	}
	return m
}

// Packed folds the key into one integer, duration in the high bits and the
// stimulus mask in the low byte.
func (k Key) Packed() uint64 {
	return uint64(k.DurationSeconds)<<8 | uint64(k.Mask())
}

// UnpackKey is the inverse of Packed.
func UnpackKey(packed uint64) Key {
	k := Key{DurationSeconds: int(packed >> 8)}
	mask := uint8(packed)
	for _, t := range nback.StimulusTypes {
		if mask&(1<<uint(t)) != 0 {
			k.Stimuli = append(k.Stimuli, t)
		}
	}
	return k
}

func (k Key) Equal(o Key) bool {
	return k.DurationSeconds == o.DurationSeconds && k.Mask() == o.Mask()
}

func (k Key) String() string {
	sorted := slices.Clone(k.Stimuli)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%ds/%s", k.DurationSeconds, strings.Join(parts, "+"))
}

// MinDecisions is how many decisions a game of the given length must record
// before it can unlock a level.
func MinDecisions(durationSeconds int) int { return durationSeconds / 3 }
