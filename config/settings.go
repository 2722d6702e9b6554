package config

import (
	"sync"

	"github.com/plus3/menoback/nback"
	"go.uber.org/zap"
)

// Settings holds the live configuration shared between a front end, which
// edits it between games, and the engine, which reads it on every start.
// Edits are validated and, when a path is set, written back to disk.
type Settings struct {
	mu     sync.RWMutex
	cfg    Config
	set    nback.StimulusSet
	path   string
	logger *zap.Logger
}

// NewSettings wraps a validated config. path may be empty to keep edits in
// memory only.
func NewSettings(cfg Config, path string, logger *zap.Logger) (*Settings, error) {
	set, err := cfg.StimulusSet()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{cfg: cfg, set: set, path: path, logger: logger}, nil
}

// Config returns a copy of the current configuration.
func (s *Settings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Update applies fn to the current configuration. An edit that fails
// validation is rejected and the previous configuration kept.
func (s *Settings) Update(fn func(Config) Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.cfg.clone())
	if err := next.Validate(); err != nil {
		return err
	}
	set, err := next.StimulusSet()
	if err != nil {
		return err
	}
	s.cfg, s.set = next, set

	if s.path != "" {
		if err := next.Save(s.path); err != nil {
			s.logger.Warn("settings not saved", zap.String("path", s.path), zap.Error(err))
		}
	}
	return nil
}

// ClampLevel lowers the configured level to at most maxLevel.
func (s *Settings) ClampLevel(maxLevel int) {
	s.mu.RLock()
	over := s.cfg.Level > maxLevel
	s.mu.RUnlock()
	if !over {
		return
	}
	_ = s.Update(func(c Config) Config {
		c.Level = max(nback.MinLevel, maxLevel)
		return c
	})
}

func (s *Settings) DurationSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Duration
}

func (s *Settings) Stimuli() nback.StimulusSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Settings) Blind() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Blind
}

func (s *Settings) Dig() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Dig
}
