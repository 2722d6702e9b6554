package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/menoback/config"
	"github.com/plus3/menoback/debugui"
	debugui_ebiten "github.com/plus3/menoback/debugui/ebiten"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/progress"
	"go.uber.org/zap"
)

const (
	screenWidth  = 720
	screenHeight = 680
)

func main() {
	configPath := flag.String("config", "menoback.yaml", "Settings file, created on the first change.")
	dbPath := flag.String("db", "", "Progress database path. Overrides the settings file.")
	debug := flag.Bool("debug", false, "Show the Dear ImGui engine inspector (toggle with F1).")
	jsonLogs := flag.Bool("json", false, "Log JSON lines instead of console output.")
	flag.Parse()

	if err := run(*configPath, *dbPath, *debug, *jsonLogs); err != nil {
		fmt.Fprintln(os.Stderr, "menoback:", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string, debug, jsonLogs bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	cfg.Log.JSON = cfg.Log.JSON || jsonLogs

	logger, err := cfg.Log.Build()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := progress.OpenSQLite(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if n, err := store.GamesPlayed(context.Background()); err == nil {
		logger.Info("progress loaded", zap.String("db", cfg.Database), zap.Int("games_played", n))
	}

	settings, err := config.NewSettings(cfg, configPath, logger)
	if err != nil {
		return err
	}
	tracker := progress.NewTracker(store, store, logger)

	app := &App{settings: settings, tracker: tracker, logger: logger}
	settings.ClampLevel(app.maxLevel())

	app.engine = game.NewEngine(game.Options{
		Settings: settings,
		Progress: tracker,
		Listeners: []game.GameOverListener{
			game.ProgressRecorder{
				Tracker:  tracker,
				OnUnlock: func(_ game.Result, list []progress.Achievement) { app.setUnlocked(list) },
			},
		},
		Logger: logger.Named("engine"),
	})
	defer app.engine.Close()

	ebiten.SetWindowTitle("menoback")
	if debug {
		app.inspector = debugui_ebiten.NewImguiBackend("menoback", 1280, 800, newInspector(app.engine, tracker))
	} else {
		ebiten.SetWindowSize(screenWidth, screenHeight)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(app); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}

func newInspector(engine *game.Engine, tracker *progress.Tracker) *debugui.Overlay {
	var (
		achievements []progress.Achievement
		refreshed    int
	)
	list := func() []progress.Achievement {
		// the store is read at most once a second
		if refreshed%60 == 0 {
			achievements = tracker.Achievements(context.Background())
		}
		refreshed++
		return achievements
	}

	return debugui.NewOverlay(
		debugui.SnapshotWindow(engine.Snapshot),
		debugui.ControlWindow(engine),
		debugui.AchievementsWindow(list),
		debugui.PerformanceWindow(engine.PipelineStats, debugui.NewFrameTimer(), debugui.NewFrameHistory(120)),
	)
}
