package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists progress in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS high_scores (
			duration INTEGER NOT NULL,
			stimuli INTEGER NOT NULL,
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (duration, stimuli)
		);`,
		`CREATE TABLE IF NOT EXISTS unlocked_levels (
			duration INTEGER NOT NULL,
			stimuli INTEGER NOT NULL,
			level INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (duration, stimuli)
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id TEXT PRIMARY KEY,
			unlocked_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			finished_at INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			stimuli INTEGER NOT NULL,
			level INTEGER NOT NULL,
			score INTEGER NOT NULL,
			correct_matches INTEGER NOT NULL,
			incorrect_matches INTEGER NOT NULL,
			correct_non_matches INTEGER NOT NULL,
			missed_matches INTEGER NOT NULL,
			cause TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_finished_at ON games(finished_at);`,
	}

	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *SQLiteStore) HighScore(ctx context.Context, key Key) (HighScore, error) {
	if err := s.check(); err != nil {
		return HighScore{}, err
	}

	var hs HighScore
	err := s.db.QueryRowContext(ctx,
		`SELECT score, level FROM high_scores WHERE duration = ? AND stimuli = ?`,
		key.DurationSeconds, key.Mask(),
	).Scan(&hs.Score, &hs.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return HighScore{}, nil
	}
	if err != nil {
		return HighScore{}, fmt.Errorf("read high score %s: %w", key, err)
	}
	return hs, nil
}

func (s *SQLiteStore) SetHighScore(ctx context.Context, key Key, hs HighScore) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO high_scores (duration, stimuli, score, level, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(duration, stimuli) DO UPDATE SET
			score=excluded.score,
			level=excluded.level,
			updated_at=excluded.updated_at
	`, key.DurationSeconds, key.Mask(), hs.Score, hs.Level, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write high score %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) UnlockedLevel(ctx context.Context, key Key) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var level int
	err := s.db.QueryRowContext(ctx,
		`SELECT level FROM unlocked_levels WHERE duration = ? AND stimuli = ?`,
		key.DurationSeconds, key.Mask(),
	).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultUnlockedLevel, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read unlocked level %s: %w", key, err)
	}
	return level, nil
}

func (s *SQLiteStore) SetUnlockedLevel(ctx context.Context, key Key, level int) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unlocked_levels (duration, stimuli, level, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(duration, stimuli) DO UPDATE SET
			level=excluded.level,
			updated_at=excluded.updated_at
	`, key.DurationSeconds, key.Mask(), level, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write unlocked level %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AchievedAt(ctx context.Context, id AchievementID) (time.Time, bool, error) {
	if err := s.check(); err != nil {
		return time.Time{}, false, err
	}

	var ms int64
	err := s.db.QueryRowContext(ctx,
		`SELECT unlocked_at FROM achievements WHERE id = ?`, id.String(),
	).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read achievement %s: %w", id, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (s *SQLiteStore) SetAchieved(ctx context.Context, id AchievementID, at time.Time) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO achievements (id, unlocked_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id.String(), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write achievement %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) RecordGame(ctx context.Context, rec GameRecord) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, finished_at, duration, stimuli, level, score,
			correct_matches, incorrect_matches, correct_non_matches, missed_matches, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.FinishedAt.UnixMilli(), rec.Key.DurationSeconds, rec.Key.Mask(), rec.Level, rec.Score,
		rec.Stats.CorrectMatches, rec.Stats.IncorrectMatches, rec.Stats.CorrectNonMatches, rec.Stats.MissedMatches,
		rec.Cause,
	)
	if err != nil {
		return fmt.Errorf("record game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GamesPlayed(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

// RecentGames returns up to limit finished games, newest first.
func (s *SQLiteStore) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, finished_at, duration, stimuli, level, score,
			correct_matches, incorrect_matches, correct_non_matches, missed_matches, cause
		FROM games ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var (
			rec      GameRecord
			finished int64
			duration int
			mask     uint8
		)
		err := rows.Scan(
			&rec.ID, &finished, &duration, &mask, &rec.Level, &rec.Score,
			&rec.Stats.CorrectMatches, &rec.Stats.IncorrectMatches, &rec.Stats.CorrectNonMatches, &rec.Stats.MissedMatches,
			&rec.Cause,
		)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.FinishedAt = time.UnixMilli(finished)
		rec.Key = UnpackKey(uint64(duration)<<8 | uint64(mask))
		games = append(games, rec)
	}
	return games, rows.Err()
}

// Close releases the database. Later operations return ErrClosed.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
