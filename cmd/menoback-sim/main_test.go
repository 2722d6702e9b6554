package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func testOptions() options {
	return options{
		Duration: 60,
		Level:    2,
		Stimuli:  "shape",
		Games:    2,
		Accuracy: 1,
		Think:    1,
		Seed:     3,
		Climb:    true,
	}
}

func TestSimulate(t *testing.T) {
	report, err := simulate(testOptions(), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.Len(t, report.Games, 2)
	assert.Equal(t, 2, report.GamesPlayed)
	for _, g := range report.Games {
		assert.Equal(t, "100.0%", g.Result.Stats.FormatAccuracy())
		assert.Positive(t, g.Result.Pieces)
		if g.Result.Cause == game.TimeElapsed {
			assert.True(t, g.Result.LevelUnlocked, "game %d", g.Number)
		}
	}
	if first := report.Games[0]; first.Result.LevelUnlocked {
		assert.Equal(t, 3, report.Games[1].Result.Stimuli.Level(), "climbs after an unlock")
	}
	assert.NotEmpty(t, report.Pipeline.Systems)

	var buf bytes.Buffer
	require.NoError(t, report.Generate(&buf))
	assert.Contains(t, buf.String(), "# menoback Simulation Report")
	assert.Contains(t, buf.String(), "| gravitySystem |")
}

func TestSimulateWithSQLite(t *testing.T) {
	opts := testOptions()
	opts.Games = 1
	opts.Stimuli = "shape,color"
	opts.DB = filepath.Join(t.TempDir(), "sim.db")

	report, err := simulate(opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, report.GamesPlayed)
	assert.True(t, report.Games[0].HasColor)
	assert.Positive(t, report.Games[0].Color.Total())
}

func TestSimulateLogsEachGame(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	opts := testOptions()
	opts.Climb = false

	_, err := simulate(opts, zap.New(core))
	require.NoError(t, err)

	finished := logs.FilterMessage("game finished").All()
	require.Len(t, finished, 2)
	assert.Equal(t, int64(1), finished[0].ContextMap()["game"])
	assert.Equal(t, int64(2), finished[1].ContextMap()["game"])
}

func TestSimulateRejectsOptions(t *testing.T) {
	opts := testOptions()
	opts.Think = 0
	_, err := simulate(opts, zaptest.NewLogger(t))
	assert.Error(t, err)

	opts = testOptions()
	opts.Duration = 45
	_, err = simulate(opts, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPlanFillsWell(t *testing.T) {
	settled := board.FromRows(
		"....",
		"....",
		"....",
		"##.#",
	)
	vertical := board.ParsePiece(1, "#", "#")

	best, ok := plan(settled, vertical, board.Position{})
	require.True(t, ok)
	assert.Equal(t, 2, best.Col)
	assert.Zero(t, best.Turns)
}

func TestPlanRotatesIntoGap(t *testing.T) {
	settled := board.FromRows(
		"...",
		"...",
		"#.#",
	)
	horizontal := board.ParsePiece(1, "##")

	best, ok := plan(settled, horizontal, board.Position{})
	require.True(t, ok)
	assert.Equal(t, 1, best.Turns%2, "turned upright")
}

func TestPlanNoRoom(t *testing.T) {
	_, ok := plan(board.FromRows("##", "##"), board.ParsePiece(1, "#"), board.Position{})
	assert.False(t, ok)
}

func TestEvaluatePrefersFlat(t *testing.T) {
	flat := board.FromRows("...", "...", "###")
	tower := board.FromRows("#..", "#..", "#..")
	assert.Greater(t, evaluate(flat, 0), evaluate(tower, 0))
}
