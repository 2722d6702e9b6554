package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/plus3/menoback/config"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/progress"
	"go.uber.org/zap"
)

type options struct {
	Duration int
	Level    int
	Stimuli  string
	Blind    bool
	Dig      bool
	Games    int
	Accuracy float64
	Think    int
	Seed     uint64
	Climb    bool
	DB       string
}

func main() {
	var opts options
	flag.IntVar(&opts.Duration, "duration", 300, "Game length in seconds (60, 120, 300, 600 or 1800).")
	flag.IntVar(&opts.Level, "level", 2, "Starting n-back level.")
	flag.StringVar(&opts.Stimuli, "stimuli", "shape", "Comma separated stimuli: shape, color.")
	flag.BoolVar(&opts.Blind, "blind", false, "Play in blind mode.")
	flag.BoolVar(&opts.Dig, "dig", false, "Play in dig mode.")
	flag.IntVar(&opts.Games, "games", 1, "Number of games to play back to back.")
	flag.Float64Var(&opts.Accuracy, "accuracy", 0.9, "Probability that the scripted player answers correctly.")
	flag.IntVar(&opts.Think, "think", 2, "Simulated seconds the player waits before dropping each piece.")
	flag.Uint64Var(&opts.Seed, "seed", 1, "Random seed for pieces and player.")
	flag.BoolVar(&opts.Climb, "climb", false, "Move to the next level whenever one is unlocked.")
	flag.StringVar(&opts.DB, "db", "", "SQLite progress database. Progress stays in memory when empty.")
	verbose := flag.Bool("v", false, "Log engine debug events.")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, err := (config.Log{Level: level}).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting menoback simulation", zap.Int("games", opts.Games), zap.Uint64("seed", opts.Seed))
	report, err := simulate(opts, logger)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	logger.Info("simulation finished", zap.Duration("wall_time", report.WallTime))

	fmt.Println("\n\n--- Simulation Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

func openStore(path string) (progress.Store, progress.AchievementStore, io.Closer, error) {
	if path == "" {
		m := progress.NewMemoryStore()
		return m, m, m, nil
	}
	s, err := progress.OpenSQLite(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, s, s, nil
}

func simulate(opts options, logger *zap.Logger) (*Report, error) {
	if opts.Think < 1 {
		return nil, fmt.Errorf("think must be at least 1 second, got %d", opts.Think)
	}

	cfg := config.Default()
	cfg.Duration = opts.Duration
	cfg.Level = opts.Level
	cfg.Stimuli = strings.Split(opts.Stimuli, ",")
	cfg.Blind, cfg.Dig = opts.Blind, opts.Dig

	settings, err := config.NewSettings(cfg, "", logger)
	if err != nil {
		return nil, err
	}

	store, achievements, closer, err := openStore(opts.DB)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	tracker := progress.NewTracker(store, achievements, logger)
	clock := game.NewManualClock(time.Unix(0, 0))
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var results []game.Result
	engine := game.NewEngine(game.Options{
		Settings: settings,
		Progress: tracker,
		Listeners: []game.GameOverListener{
			game.ProgressRecorder{Tracker: tracker},
			game.GameOverFunc(func(r game.Result) { results = append(results, r) }),
		},
		Clock:  clock,
		Rand:   rng,
		Logger: logger,
	})
	defer engine.Close()

	report := &Report{
		Duration: opts.Duration,
		Stimuli:  settings.Stimuli().String(),
		Accuracy: opts.Accuracy,
		Think:    opts.Think,
		Seed:     opts.Seed,
		Climb:    opts.Climb,
	}
	player := &Player{Accuracy: opts.Accuracy, Think: opts.Think, Rand: rng}

	start := time.Now()
	for i := range opts.Games {
		engine.Start()
		if err := player.Play(engine, clock); err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}
		logger.Info("game finished",
			zap.Int("game", i+1),
			zap.Stringer("state", engine.State()),
			zap.Int64("score", engine.Snapshot().Score))

		if snap := engine.Snapshot(); opts.Climb && snap.LevelUnlocked && snap.Level < nback.MaxLevel {
			if err := settings.Update(func(c config.Config) config.Config {
				c.Level++
				return c
			}); err != nil {
				return nil, err
			}
		}
	}
	report.WallTime = time.Since(start)
	report.Pipeline = engine.PipelineStats()

	for i, r := range results {
		report.Games = append(report.Games, GameRow{
			Number:    i + 1,
			Result:    r,
			Shape:     r.StatsFor(nback.Shape),
			Color:     r.StatsFor(nback.Color),
			HasShape:  r.Stimuli.Has(nback.Shape),
			HasColor:  r.Stimuli.Has(nback.Color),
			NextLevel: r.Stimuli.Level() + 1,
		})
	}

	n, err := achievements.GamesPlayed(context.Background())
	if err != nil {
		return nil, err
	}
	report.GamesPlayed = n
	return report, nil
}
