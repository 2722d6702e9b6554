package game

import (
	"context"
	"time"

	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/progress"
)

// Settings is the configuration collaborator. The engine reads it once per
// Start; changes take effect with the next game.
type Settings interface {
	DurationSeconds() int
	Stimuli() nback.StimulusSet
	Blind() bool
	Dig() bool
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	Duration  int
	Set       nback.StimulusSet
	BlindMode bool
	DigMode   bool
}

func (s StaticSettings) DurationSeconds() int       { return s.Duration }
func (s StaticSettings) Stimuli() nback.StimulusSet { return s.Set }
func (s StaticSettings) Blind() bool                { return s.BlindMode }
func (s StaticSettings) Dig() bool                  { return s.DigMode }

// Progress is the persistence collaborator consulted at start and game
// over. *progress.Tracker implements it.
type Progress interface {
	MaxUnlockedLevel(ctx context.Context, key progress.Key) int
	HighScore(ctx context.Context, key progress.Key) progress.HighScore
	RecordHighScore(ctx context.Context, key progress.Key, score int64, level int) bool
	CheckLevelProgression(ctx context.Context, s progress.Session) bool
}

// Result summarizes a finished game for GameOverListeners.
type Result struct {
	SessionID     string
	Cause         Cause
	Stimuli       nback.StimulusSet
	Duration      int
	Score         int64
	HighScore     int64
	NewHighScore  bool
	LevelUnlocked bool
	Stats         nback.MatchStats
	Shape         nback.MatchStats
	Color         nback.MatchStats
	MaxStreak     int
	Lines         int
	Pieces        int
	FinishedAt    time.Time
}

// StatsFor returns the counters of one stimulus type.
func (r Result) StatsFor(t nback.StimulusType) nback.MatchStats {
	switch t {
	case nback.Shape:
		return r.Shape
	case nback.Color:
		return r.Color
	}
	return nback.MatchStats{}
}

// GameOverListener is notified during the game-over transition, after the
// high score and level progression were recorded and before the loops
// stop. It runs under the engine lock and must not call back into the
// engine.
type GameOverListener interface {
	OnGameOver(r Result)
}

// GameOverFunc adapts a function to GameOverListener.
type GameOverFunc func(Result)

func (f GameOverFunc) OnGameOver(r Result) { f(r) }

// ProgressRecorder logs finished games and grants level achievements
// through a tracker. OnUnlock, when set, receives the achievements a game
// newly unlocked.
type ProgressRecorder struct {
	Tracker  *progress.Tracker
	OnUnlock func(r Result, unlocked []progress.Achievement)
}

func (p ProgressRecorder) OnGameOver(r Result) {
	ctx := context.Background()
	p.Tracker.RecordGame(ctx, progress.GameRecord{
		ID:         r.SessionID,
		FinishedAt: r.FinishedAt,
		Key:        progress.NewKey(r.Duration, r.Stimuli),
		Level:      r.Stimuli.Level(),
		Score:      r.Score,
		Stats:      r.Stats,
		Cause:      r.Cause.String(),
	})
	if !r.LevelUnlocked {
		return
	}
	unlocked := p.Tracker.UnlockAchievements(ctx, r.Stimuli)
	if p.OnUnlock != nil && len(unlocked) > 0 {
		p.OnUnlock(r, unlocked)
	}
}
