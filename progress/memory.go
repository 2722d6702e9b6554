package progress

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kamstrup/intmap"
)

// MemoryStore is a Store and AchievementStore held in process memory. It is
// the default when no database is configured and the overlay the Tracker
// keeps in front of a persistent store.
type MemoryStore struct {
	mu         sync.Mutex
	closed     bool
	highScores *intmap.Map[uint64, HighScore]
	levels     *intmap.Map[uint64, int]
	achieved   *intmap.Map[uint64, time.Time]
	games      []GameRecord
}

// NewMemoryStore returns an empty open store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		highScores: intmap.New[uint64, HighScore](16),
		levels:     intmap.New[uint64, int](16),
		achieved:   intmap.New[uint64, time.Time](16),
	}
}

func (m *MemoryStore) HighScore(_ context.Context, key Key) (HighScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return HighScore{}, ErrClosed
	}
	hs, _ := m.highScores.Get(key.Packed())
	return hs, nil
}

func (m *MemoryStore) SetHighScore(_ context.Context, key Key, hs HighScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.highScores.Put(key.Packed(), hs)
	return nil
}

func (m *MemoryStore) UnlockedLevel(_ context.Context, key Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	if level, ok := m.levels.Get(key.Packed()); ok {
		return level, nil
	}
	return DefaultUnlockedLevel, nil
}

func (m *MemoryStore) SetUnlockedLevel(_ context.Context, key Key, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.levels.Put(key.Packed(), level)
	return nil
}

func (m *MemoryStore) AchievedAt(_ context.Context, id AchievementID) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return time.Time{}, false, ErrClosed
	}
	at, ok := m.achieved.Get(id.Packed())
	return at, ok, nil
}

func (m *MemoryStore) SetAchieved(_ context.Context, id AchievementID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if !m.achieved.Has(id.Packed()) {
		m.achieved.Put(id.Packed(), at)
	}
	return nil
}

func (m *MemoryStore) RecordGame(_ context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.games = append(m.games, rec)
	return nil
}

func (m *MemoryStore) GamesPlayed(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.games), nil
}

// Games returns a copy of the finished-game log, oldest first.
func (m *MemoryStore) Games() []GameRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.games)
}

// hasLevel reports whether an unlocked level was ever written for key.
func (m *MemoryStore) hasLevel(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels.Has(key.Packed())
}

func (m *MemoryStore) hasHighScore(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highScores.Has(key.Packed())
}

// Close makes every later operation fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.highScores.Clear()
	m.levels.Clear()
	m.achieved.Clear()
	m.games = nil
	return nil
}
