package game

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	engine   *Engine
	clock    *ManualClock
	store    *progress.MemoryStore
	results  []Result
	unlocked []progress.Achievement
	mu       sync.Mutex
}

func newFixture(t *testing.T, settings StaticSettings) *fixture {
	t.Helper()
	f := &fixture{
		clock: NewManualClock(time.Unix(0, 0)),
		store: progress.NewMemoryStore(),
	}
	logger := zaptest.NewLogger(t)
	tracker := progress.NewTracker(f.store, f.store, logger)

	f.engine = NewEngine(Options{
		Settings: settings,
		Progress: tracker,
		Listeners: []GameOverListener{
			ProgressRecorder{Tracker: tracker, OnUnlock: func(_ Result, list []progress.Achievement) {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.unlocked = append(f.unlocked, list...)
			}},
			GameOverFunc(func(r Result) {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.results = append(f.results, r)
			}),
		},
		Clock:  f.clock,
		Rand:   rand.New(rand.NewPCG(7, 11)),
		Logger: logger,
	})
	t.Cleanup(f.engine.Close)
	return f
}

func shapeOnly(duration, level int) StaticSettings {
	return StaticSettings{Duration: duration, Set: nback.MustStimulusSet(level, nback.Shape)}
}

// waitLoops blocks until exactly n loop timers are pending, which means
// every woken loop finished its step and went back to sleep.
func (f *fixture) waitLoops(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.clock.Pending() == n }, 2*time.Second, time.Millisecond)
}

func (f *fixture) step(t *testing.T, d time.Duration) {
	t.Helper()
	f.waitLoops(t, 2)
	f.clock.Advance(d)
}

func (f *fixture) gameResults() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Result(nil), f.results...)
}

// with runs fn under the engine lock for direct state setup.
func (f *fixture) with(fn func(s *session)) {
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	fn(f.engine.s)
}

// answer enters a decision for the current piece that is correct or not
// as requested.
func (f *fixture) answer(t *testing.T, st nback.StimulusType, correct bool) {
	t.Helper()
	var isMatch bool
	f.with(func(s *session) { isMatch = s.history.IsMatch(s.set.Level(), st) })

	var (
		out nback.Outcome
		ok  bool
	)
	if correct == isMatch {
		out, ok = f.engine.MatchChoice(st)
	} else {
		out, ok = f.engine.NoMatchChoice(st)
	}
	require.True(t, ok)
	require.Equal(t, correct, out.Correct)
}

func TestStartSpawnsFirstPiece(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))

	snap := f.engine.Snapshot()
	assert.Equal(t, NotStarted, snap.State)
	assert.Equal(t, 60*time.Second, snap.TimeRemaining)
	assert.Zero(t, snap.Pieces)

	f.engine.Start()
	snap = f.engine.Snapshot()
	assert.Equal(t, Running, snap.State)
	assert.Equal(t, 1, snap.Pieces)
	assert.True(t, snap.HasNext)
	assert.Equal(t, board.Position{Row: 0, Col: 3}, snap.Position)
	assert.Equal(t, 4, snap.Board.FilledCells(), "falling piece composited")
	assert.Equal(t, 2, snap.MaxLevel)
	assert.Equal(t, "1.0x", snap.MultiplierText)
	assert.NotEmpty(t, snap.SessionID)

	f.with(func(s *session) {
		assert.Equal(t, 1, s.history.Len())
		assert.Equal(t, 16, s.scheduler.Len())
		assert.Zero(t, s.board.FilledCells(), "locked board stays empty")
	})
	f.waitLoops(t, 2)

	f.engine.Start()
	assert.Equal(t, snap.SessionID, f.engine.Snapshot().SessionID, "start while running is ignored")
}

func TestIntentsIgnoredUnlessRunning(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	before := f.engine.Snapshot()

	f.engine.MoveLeft()
	f.engine.MoveRight()
	f.engine.Rotate(board.Clockwise)
	f.engine.Drop()
	assert.False(t, f.engine.SoftDrop())
	_, ok := f.engine.MatchChoice(nback.Shape)
	assert.False(t, ok)
	f.engine.Pause()
	f.engine.Resume()

	after := f.engine.Snapshot()
	assert.Equal(t, NotStarted, after.State)
	assert.Equal(t, before.Pieces, after.Pieces)
	assert.Equal(t, before.Overall, after.Overall)
	assert.Zero(t, f.clock.Pending())
}

func TestMoveStopsAtWalls(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	f.engine.MoveLeft()
	assert.Equal(t, 2, f.engine.Snapshot().Position.Col)

	for range 20 {
		f.engine.MoveLeft()
	}
	left := f.engine.Snapshot()
	f.engine.MoveLeft()
	assert.Equal(t, left.Position, f.engine.Snapshot().Position)
	f.with(func(s *session) { assert.True(t, s.fits(s.current.Piece, s.pos)) })

	for range 20 {
		f.engine.MoveRight()
	}
	right := f.engine.Snapshot()
	assert.Greater(t, right.Position.Col, left.Position.Col)
	f.with(func(s *session) { assert.True(t, s.fits(s.current.Piece, s.pos)) })
}

func TestRotateWallKick(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	f.with(func(s *session) {
		s.current.Piece = board.NewPiece(1).Rotate(board.Clockwise)
		s.pos = board.Position{Row: 5, Col: -2}
		require.True(t, s.fits(s.current.Piece, s.pos))
	})

	f.engine.Rotate(board.Clockwise)
	snap := f.engine.Snapshot()
	assert.Equal(t, 0, snap.Position.Col, "kicked two columns right")
	assert.Equal(t, 4, snap.Current.Piece.Cols())
	assert.Equal(t, board.NewPiece(1).Type(), snap.Current.Piece.Type())
}

func TestRotateBlockedKeepsPiece(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	var before board.Piece
	f.with(func(s *session) {
		// a vertical I in a one-column shaft cannot turn anywhere
		s.board = board.FromRows(
			"####.#####", "####.#####", "####.#####", "####.#####", "####.#####",
			"####.#####", "####.#####", "####.#####", "####.#####", "####.#####",
			"####.#####", "####.#####", "####.#####", "####.#####", "####.#####",
			"####.#####", "####.#####", "####.#####", "####.#####", "####.#####",
		)
		s.current.Piece = board.NewPiece(1).Rotate(board.Clockwise)
		s.pos = board.Position{Row: 0, Col: 2}
		before = s.current.Piece
		require.True(t, s.fits(s.current.Piece, s.pos))
	})

	f.engine.Rotate(board.CounterClockwise)
	snap := f.engine.Snapshot()
	assert.True(t, before.Equal(snap.Current.Piece))
	assert.Equal(t, board.Position{Row: 0, Col: 2}, snap.Position)
}

func TestDropLocksScoresAndSpawns(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.engine.Drop()

	snap := f.engine.Snapshot()
	assert.Equal(t, 2, snap.Pieces)
	assert.Equal(t, int64(20), snap.Score)
	assert.Equal(t, 1, snap.Shape.MissedMatches, "undecided stimulus auto-missed")
	assert.Zero(t, snap.Combo)
	f.with(func(s *session) { assert.Equal(t, 4, s.board.FilledCells()) })
}

func TestAutoMissDoesNotDoubleCount(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	_, ok := f.engine.NoMatchChoice(nback.Shape)
	require.True(t, ok)
	_, ok = f.engine.MatchChoice(nback.Shape)
	assert.False(t, ok, "one decision per piece")

	f.engine.Drop()
	snap := f.engine.Snapshot()
	assert.Equal(t, 1, snap.Shape.Total())
	assert.Equal(t, 1, snap.Shape.CorrectNonMatches)
	assert.Zero(t, snap.Shape.MissedMatches)

	_, ok = f.engine.NoMatchChoice(nback.Shape)
	assert.True(t, ok, "next piece accepts a new decision")
}

func TestDisabledStimulusIgnored(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	_, ok := f.engine.MatchChoice(nback.Color)
	assert.False(t, ok)
}

func TestSoftDrop(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	row := f.engine.Snapshot().Position.Row
	assert.True(t, f.engine.SoftDrop())
	assert.Equal(t, row+1, f.engine.Snapshot().Position.Row)

	for f.engine.SoftDrop() {
	}
	snap := f.engine.Snapshot()
	assert.Equal(t, 1, snap.Pieces, "soft drop never locks")
}

func TestSpeedUpEveryFiveStreak(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	for i := range 10 {
		f.answer(t, nback.Shape, true)
		f.with(func(s *session) { s.board = board.Default() })
		f.engine.Drop()

		speed := f.engine.Snapshot().Speed
		switch {
		case i < 4:
			assert.Equal(t, InitialSpeed, speed)
		case i < 9:
			assert.Equal(t, NextSpeed(InitialSpeed), speed)
		default:
			assert.Equal(t, NextSpeed(NextSpeed(InitialSpeed)), speed)
		}
	}
	assert.Equal(t, 10, f.engine.Snapshot().Streak)
}

func TestDescentLoopMovesPiece(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	row := f.engine.Snapshot().Position.Row

	f.step(t, time.Second)
	f.waitLoops(t, 2)

	snap := f.engine.Snapshot()
	assert.Equal(t, row+1, snap.Position.Row)
	assert.Equal(t, 59*time.Second, snap.TimeRemaining)
}

func TestDescentLoopLocksAtBottom(t *testing.T) {
	f := newFixture(t, shapeOnly(600, 2))
	f.engine.Start()

	for f.engine.Snapshot().Pieces == 1 {
		f.step(t, time.Second)
		f.waitLoops(t, 2)
	}

	snap := f.engine.Snapshot()
	assert.Equal(t, 2, snap.Pieces)
	assert.Equal(t, board.Position{Row: 0, Col: 3}, snap.Position)
	assert.Equal(t, 1, snap.Shape.MissedMatches)
}

func TestCountdownEndsGame(t *testing.T) {
	f := newFixture(t, shapeOnly(3, 2))
	f.engine.Start()

	for range 3 {
		f.step(t, time.Second)
	}
	require.Eventually(t, func() bool { return f.engine.State() == GameOver }, 2*time.Second, time.Millisecond)
	f.waitLoops(t, 0)

	snap := f.engine.Snapshot()
	assert.Equal(t, TimeElapsed, snap.Cause)
	assert.Zero(t, snap.TimeRemaining)
	assert.False(t, snap.LevelUnlocked, "too few decisions")

	results := f.gameResults()
	require.Len(t, results, 1)
	assert.Equal(t, TimeElapsed, results[0].Cause)
	assert.Equal(t, snap.SessionID, results[0].SessionID)

	n, err := f.store.GamesPlayed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// nothing fires after game over
	f.clock.Advance(time.Minute)
	assert.Equal(t, snap.Position, f.engine.Snapshot().Position)
}

func TestCountdownCorrectsDrift(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.waitLoops(t, 2)

	// a late wake-up is absorbed by the next wait
	f.clock.Advance(1300 * time.Millisecond)
	f.waitLoops(t, 2)
	assert.Equal(t, 59*time.Second, f.engine.Snapshot().TimeRemaining)

	next, ok := f.clock.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, time.Unix(0, 0).Add(2*time.Second), next)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.waitLoops(t, 2)

	f.engine.Pause()
	f.waitLoops(t, 0)
	paused := f.engine.Snapshot()
	assert.Equal(t, Paused, paused.State)

	f.clock.Advance(10 * time.Second)
	f.engine.Drop()
	f.engine.MoveLeft()
	still := f.engine.Snapshot()
	assert.Equal(t, paused.Position, still.Position)
	assert.Equal(t, paused.TimeRemaining, still.TimeRemaining)
	assert.Equal(t, paused.Pieces, still.Pieces)

	f.engine.Pause()
	f.engine.Resume()
	assert.Equal(t, Running, f.engine.State())

	f.step(t, time.Second)
	f.waitLoops(t, 2)
	snap := f.engine.Snapshot()
	assert.Equal(t, paused.TimeRemaining-time.Second, snap.TimeRemaining)
	assert.Equal(t, paused.Position.Row+1, snap.Position.Row)
	assert.Equal(t, paused.SessionID, snap.SessionID)
}

func TestQuitResets(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.engine.Drop()
	f.engine.Quit()
	f.waitLoops(t, 0)

	snap := f.engine.Snapshot()
	assert.Equal(t, NotStarted, snap.State)
	assert.Zero(t, snap.Score)
	assert.Zero(t, snap.Pieces)
	assert.Zero(t, snap.Overall.Total())
	assert.Equal(t, 60*time.Second, snap.TimeRemaining)
	f.with(func(s *session) {
		assert.Zero(t, s.history.Len())
		assert.Zero(t, s.scheduler.Len())
	})
	assert.Empty(t, f.gameResults(), "quit is not a game over")

	f.engine.Quit()
	assert.Equal(t, NotStarted, f.engine.State())
}

func blockedBoard() board.Board {
	rows := []string{".........."}
	for range 19 {
		rows = append(rows, "."+strings.Repeat("#", 9))
	}
	return board.FromRows(rows...)
}

func TestBoardFullEndsGame(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.with(func(s *session) { s.board = blockedBoard() })

	f.engine.Drop()
	f.waitLoops(t, 0)

	snap := f.engine.Snapshot()
	assert.Equal(t, GameOver, snap.State)
	assert.Equal(t, BoardFull, snap.Cause)
	assert.True(t, snap.NewHighScore)
	assert.False(t, snap.LevelUnlocked)

	hs, err := f.store.HighScore(context.Background(), progress.NewKey(60, nback.MustStimulusSet(2, nback.Shape)))
	require.NoError(t, err)
	assert.Equal(t, snap.Score, hs.Score)

	f.engine.Drop()
	assert.Equal(t, snap.Pieces, f.engine.Snapshot().Pieces, "intents ignored after game over")

	f.engine.Start()
	restarted := f.engine.Snapshot()
	assert.Equal(t, Running, restarted.State)
	assert.NotEqual(t, snap.SessionID, restarted.SessionID)
	assert.Equal(t, snap.Score, restarted.HighScore)
	assert.False(t, restarted.NewHighScore)
}

func TestBoardFullNeverUnlocks(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()

	for range 30 {
		f.answer(t, nback.Shape, true)
		f.with(func(s *session) { s.board = board.Default() })
		f.engine.Drop()
	}
	f.answer(t, nback.Shape, true)
	f.with(func(s *session) { s.board = blockedBoard() })
	f.engine.Drop()

	snap := f.engine.Snapshot()
	require.Equal(t, BoardFull, snap.Cause)
	assert.Equal(t, 100.0, snap.Overall.Accuracy())
	assert.False(t, snap.LevelUnlocked)
	level, err := f.store.UnlockedLevel(context.Background(), progress.NewKey(60, nback.MustStimulusSet(2, nback.Shape)))
	require.NoError(t, err)
	assert.Equal(t, 2, level)
}

func TestEndToEndUnlocksNextLevel(t *testing.T) {
	f := newFixture(t, shapeOnly(300, 2))
	f.engine.Start()

	for i := range 150 {
		f.answer(t, nback.Shape, i < 130)
		f.with(func(s *session) { s.board = board.Default() })
		f.engine.Drop()
	}

	f.with(func(*session) {
		for f.engine.state == Running {
			f.engine.secondElapsedLocked()
		}
	})
	f.waitLoops(t, 0)

	snap := f.engine.Snapshot()
	assert.Equal(t, GameOver, snap.State)
	assert.Equal(t, TimeElapsed, snap.Cause)
	assert.Equal(t, 150, snap.Overall.Total())
	assert.Equal(t, 130, snap.Overall.Correct())
	assert.InDelta(t, 86.67, snap.Overall.Accuracy(), 0.01)
	assert.Equal(t, "86.6%", snap.Overall.FormatAccuracy())
	assert.True(t, snap.LevelUnlocked)
	assert.Equal(t, 3, snap.MaxLevel)

	key := progress.NewKey(300, nback.MustStimulusSet(2, nback.Shape))
	level, err := f.store.UnlockedLevel(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 3, level)

	_, achieved, err := f.store.AchievedAt(context.Background(), progress.AchievementID{Level: 3, Stimuli: 1})
	require.NoError(t, err)
	assert.True(t, achieved)

	results := f.gameResults()
	require.Len(t, results, 1)
	assert.True(t, results[0].LevelUnlocked)

	f.mu.Lock()
	require.Len(t, f.unlocked, 1)
	assert.Equal(t, progress.AchievementID{Level: 3, Stimuli: 1}, f.unlocked[0].ID)
	f.mu.Unlock()

	// the notice clears when the next game starts
	f.engine.Start()
	assert.False(t, f.engine.Snapshot().LevelUnlocked)
	assert.Equal(t, 3, f.engine.Snapshot().MaxLevel)
}

func TestDigModeSeedsGarbage(t *testing.T) {
	settings := shapeOnly(60, 2)
	settings.DigMode = true
	f := newFixture(t, settings)
	f.engine.Start()

	f.with(func(s *session) {
		assert.Equal(t, DigRows*(board.DefaultWidth-1), s.board.FilledCells())
	})
	snap := f.engine.Snapshot()
	assert.True(t, snap.Dig)
	assert.Equal(t, 1.5, snap.Multiplier)
}

func TestBlindModeRaisesBaseMultiplier(t *testing.T) {
	settings := shapeOnly(60, 2)
	settings.BlindMode = true
	f := newFixture(t, settings)
	f.engine.Start()

	assert.Equal(t, 1.25, f.engine.Snapshot().Multiplier)
	f.engine.Drop()
	assert.Equal(t, 1.25, f.engine.Snapshot().Multiplier, "miss never drops below base")
}

func TestSubscribeLatestWins(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	ch, unsubscribe := f.engine.Subscribe()

	first := <-ch
	assert.Equal(t, NotStarted, first.State)

	f.engine.Start()
	f.engine.MoveLeft()
	f.engine.MoveLeft()

	latest := <-ch
	assert.Equal(t, f.engine.Snapshot().Position, latest.Position)
	assert.Equal(t, Running, latest.State)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestCloseStopsEverything(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	ch, _ := f.engine.Subscribe()
	f.engine.Start()
	f.waitLoops(t, 2)

	f.engine.Close()
	f.engine.Close()
	assert.Zero(t, f.clock.Pending())

	for range ch {
	}
	f.engine.Start()
	assert.Equal(t, NotStarted, f.engine.State())

	late, _ := f.engine.Subscribe()
	_, open := <-late
	assert.False(t, open)
}

func TestPipelineStatsCountSteps(t *testing.T) {
	f := newFixture(t, shapeOnly(60, 2))
	f.engine.Start()
	f.engine.Drop()
	f.engine.Drop()

	stats := f.engine.PipelineStats()
	require.Equal(t, 4, stats.SystemCount)
	names := make([]string, len(stats.Systems))
	for i, s := range stats.Systems {
		names[i] = s.Name
		assert.Equal(t, int64(2), s.ExecutionCount, s.Name)
	}
	assert.Equal(t, []string{"gravitySystem", "lockSystem", "scoreSystem", "spawnSystem"}, names)
}
