package progress

import (
	"context"
	"time"

	"github.com/plus3/menoback/nback"
	"go.uber.org/zap"
)

// Session is the part of a finished game the tracker judges.
type Session struct {
	Key   Key
	Set   nback.StimulusSet
	Stats nback.MatchStats
	Score int64
}

// Tracker applies the unlock rule and records results. Store failures never
// reach the caller: a failed read falls back to the default and a failed
// write is logged while the value stays visible in memory for the rest of
// the process.
type Tracker struct {
	store        Store
	achievements AchievementStore
	overlay      *MemoryStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewTracker wires a tracker to its stores. Nil stores fall back to a
// MemoryStore.
func NewTracker(store Store, achievements AchievementStore, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if achievements == nil {
		achievements = NewMemoryStore()
	}
	return &Tracker{
		store:        store,
		achievements: achievements,
		overlay:      NewMemoryStore(),
		now:          time.Now,
		logger:       logger,
	}
}

// MaxUnlockedLevel is the highest playable level for key.
func (t *Tracker) MaxUnlockedLevel(ctx context.Context, key Key) int {
	if t.overlay.hasLevel(key) {
		level, _ := t.overlay.UnlockedLevel(ctx, key)
		return level
	}

	level, err := t.store.UnlockedLevel(ctx, key)
	if err != nil {
		t.logger.Warn("read unlocked level, using default",
			zap.Stringer("key", key), zap.Error(err))
		return DefaultUnlockedLevel
	}
	_ = t.overlay.SetUnlockedLevel(ctx, key, level)
	return level
}

// IsLevelUnlocked reports whether level may be selected for key.
func (t *Tracker) IsLevelUnlocked(ctx context.Context, key Key, level int) bool {
	if level <= DefaultUnlockedLevel {
		return true
	}
	return level <= t.MaxUnlockedLevel(ctx, key)
}

func (t *Tracker) HighScore(ctx context.Context, key Key) HighScore {
	if t.overlay.hasHighScore(key) {
		hs, _ := t.overlay.HighScore(ctx, key)
		return hs
	}

	hs, err := t.store.HighScore(ctx, key)
	if err != nil {
		t.logger.Warn("read high score, using zero",
			zap.Stringer("key", key), zap.Error(err))
		return HighScore{}
	}
	_ = t.overlay.SetHighScore(ctx, key, hs)
	return hs
}

// RecordHighScore stores score if it beats the current high score for key
// and reports whether it did.
func (t *Tracker) RecordHighScore(ctx context.Context, key Key, score int64, level int) bool {
	if score <= t.HighScore(ctx, key).Score {
		return false
	}

	hs := HighScore{Score: score, Level: level}
	_ = t.overlay.SetHighScore(ctx, key, hs)
	if err := t.store.SetHighScore(ctx, key, hs); err != nil {
		t.logger.Error("write high score", zap.Stringer("key", key), zap.Int64("score", score), zap.Error(err))
	}
	return true
}

// CheckLevelProgression unlocks the next level of s.Key when the game
// recorded enough decisions at a high enough accuracy while being played at
// the stored max level. It reports whether a level was unlocked; on false
// nothing is written.
func (t *Tracker) CheckLevelProgression(ctx context.Context, s Session) bool {
	level := s.Set.Level()
	log := t.logger.With(zap.Stringer("key", s.Key), zap.Int("level", level))

	if level >= MaxLevel {
		return false
	}
	if total := s.Stats.Total(); total < MinDecisions(s.Key.DurationSeconds) {
		log.Debug("not enough decisions to progress", zap.Int("decisions", total))
		return false
	}
	if acc := s.Stats.Accuracy(); acc < AccuracyThreshold {
		log.Debug("accuracy below threshold", zap.Float64("accuracy", acc))
		return false
	}
	stored := t.MaxUnlockedLevel(ctx, s.Key)
	if level != stored {
		log.Debug("not playing at max unlocked level", zap.Int("max_level", stored))
		return false
	}

	next := stored + 1
	_ = t.overlay.SetUnlockedLevel(ctx, s.Key, next)
	if err := t.store.SetUnlockedLevel(ctx, s.Key, next); err != nil {
		log.Error("write unlocked level", zap.Int("unlocked", next), zap.Error(err))
	}
	log.Info("level unlocked", zap.Int("unlocked", next))
	return true
}

// UnlockAchievements grants every level achievement earned by unlocking
// the level after set's and returns the newly granted ones.
func (t *Tracker) UnlockAchievements(ctx context.Context, set nback.StimulusSet) []Achievement {
	var granted []Achievement
	for _, a := range Catalog() {
		if !a.earned(set) {
			continue
		}
		_, ok, err := t.achievements.AchievedAt(ctx, a.ID)
		if err != nil {
			t.logger.Warn("read achievement", zap.Stringer("achievement", a.ID), zap.Error(err))
		}
		if ok {
			continue
		}

		a.Unlocked, a.UnlockedAt = true, t.now()
		if err := t.achievements.SetAchieved(ctx, a.ID, a.UnlockedAt); err != nil {
			t.logger.Error("write achievement", zap.Stringer("achievement", a.ID), zap.Error(err))
		}
		t.logger.Info("achievement unlocked", zap.Stringer("achievement", a.ID))
		granted = append(granted, a)
	}
	return granted
}

// Achievements returns the catalog with unlock state filled in.
func (t *Tracker) Achievements(ctx context.Context) []Achievement {
	all := Catalog()
	for i := range all {
		at, ok, err := t.achievements.AchievedAt(ctx, all[i].ID)
		if err != nil {
			t.logger.Warn("read achievement", zap.Stringer("achievement", all[i].ID), zap.Error(err))
			continue
		}
		all[i].Unlocked, all[i].UnlockedAt = ok, at
	}
	return all
}

// RecordGame appends rec to the finished-game log and returns the number
// of games played so far, or -1 when the count is unavailable.
func (t *Tracker) RecordGame(ctx context.Context, rec GameRecord) int {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = t.now()
	}
	if err := t.achievements.RecordGame(ctx, rec); err != nil {
		t.logger.Error("record game", zap.String("session_id", rec.ID), zap.Error(err))
	}

	n, err := t.achievements.GamesPlayed(ctx)
	if err != nil {
		t.logger.Warn("count games", zap.Error(err))
		return -1
	}
	return n
}
