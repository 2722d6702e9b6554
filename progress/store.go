package progress

import (
	"context"
	"errors"
	"time"

	"github.com/plus3/menoback/nback"
)

// ErrClosed is returned by store operations after Close.
var ErrClosed = errors.New("progress: store closed")

// HighScore is the best result of one key and the level it was set at.
type HighScore struct {
	Score int64
	Level int
}

// Store is the key/value persistence of scores and unlocked levels. A
// missing key reads as the zero HighScore and DefaultUnlockedLevel.
type Store interface {
	HighScore(ctx context.Context, key Key) (HighScore, error)
	SetHighScore(ctx context.Context, key Key, hs HighScore) error
	UnlockedLevel(ctx context.Context, key Key) (int, error)
	SetUnlockedLevel(ctx context.Context, key Key, level int) error
}

// GameRecord is the summary of one finished game.
type GameRecord struct {
	ID         string
	FinishedAt time.Time
	Key        Key
	Level      int
	Score      int64
	Stats      nback.MatchStats
	Cause      string
}

// AchievementStore keeps unlocked achievements and the finished-game log.
type AchievementStore interface {
	AchievedAt(ctx context.Context, id AchievementID) (time.Time, bool, error)
	SetAchieved(ctx context.Context, id AchievementID, at time.Time) error
	RecordGame(ctx context.Context, rec GameRecord) error
	GamesPlayed(ctx context.Context) (int, error)
}
