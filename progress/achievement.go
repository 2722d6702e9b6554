package progress

import (
	"fmt"
	"time"

	"github.com/plus3/menoback/nback"
)

// AchievementID names a level achievement: reaching Level with at least
// Stimuli stimulus types enabled.
type AchievementID struct {
	Level   int
	Stimuli int
}

func (id AchievementID) Packed() uint64 { return uint64(id.Stimuli)<<8 | uint64(id.Level) }

func (id AchievementID) String() string {
	if id.Stimuli > 1 {
		return fmt.Sprintf("dual_level_%d", id.Level)
	}
	return fmt.Sprintf("level_%d", id.Level)
}

// ParseAchievementID is the inverse of String.
func ParseAchievementID(s string) (AchievementID, error) {
	var id AchievementID
	if _, err := fmt.Sscanf(s, "dual_level_%d", &id.Level); err == nil {
		id.Stimuli = 2
		return id, nil
	}
	if _, err := fmt.Sscanf(s, "level_%d", &id.Level); err == nil {
		id.Stimuli = 1
		return id, nil
	}
	return AchievementID{}, fmt.Errorf("malformed achievement id %q", s)
}

// Achievement is a catalog entry together with its unlock state.
type Achievement struct {
	ID          AchievementID
	Title       string
	Description string
	Unlocked    bool
	UnlockedAt  time.Time
}

var (
	singleLevels = []int{3, 4, 5, 6, 7, 8, 9, 10}
	dualLevels   = []int{3, 4, 5, 6}
)

// Catalog lists every level achievement, all locked.
func Catalog() []Achievement {
	out := make([]Achievement, 0, len(singleLevels)+len(dualLevels))
	for _, level := range singleLevels {
		out = append(out, Achievement{
			ID:          AchievementID{Level: level, Stimuli: 1},
			Title:       fmt.Sprintf("N-back Master Level %d", level),
			Description: fmt.Sprintf("Unlock the %d-back level for any game mode", level),
		})
	}
	for _, level := range dualLevels {
		out = append(out, Achievement{
			ID:          AchievementID{Level: level, Stimuli: 2},
			Title:       fmt.Sprintf("Dual N-back Master Level %d", level),
			Description: fmt.Sprintf("Unlock the %d-back level with two stimuli enabled", level),
		})
	}
	return out
}

// earned reports whether unlocking the level after set's level satisfies a.
func (a Achievement) earned(set nback.StimulusSet) bool {
	return set.Level() == a.ID.Level-1 && set.Len() >= a.ID.Stimuli
}
