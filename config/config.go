// Package config loads the player's game settings from a YAML file and
// adapts them to the engine's settings port.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/plus3/menoback/nback"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Durations are the selectable game lengths in seconds, shortest first.
var Durations = []int{60, 120, 300, 600, 1800}

const DefaultDuration = 300

// Config is the on-disk settings document.
type Config struct {
	Duration int      `yaml:"duration"`
	Level    int      `yaml:"level"`
	Stimuli  []string `yaml:"stimuli"`
	Blind    bool     `yaml:"blind"`
	Dig      bool     `yaml:"dig"`

	Database string `yaml:"database"`
	Log      Log    `yaml:"log"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a five minute, 2-back, shape-only configuration.
func Default() Config {
	return Config{
		Duration: DefaultDuration,
		Level:    2,
		Stimuli:  []string{nback.Shape.String()},
		Database: "menoback.db",
		Log:      Log{Level: "info"},
	}
}

func (c Config) clone() Config {
	c.Stimuli = slices.Clone(c.Stimuli)
	return c
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings a game can start with.
func (c Config) Validate() error {
	if !slices.Contains(Durations, c.Duration) {
		return fmt.Errorf("%w: duration %d not one of %v", ErrInvalid, c.Duration, Durations)
	}
	if c.Blind && c.Dig {
		return fmt.Errorf("%w: blind and dig modes are exclusive", ErrInvalid)
	}
	if _, err := c.StimulusSet(); err != nil {
		return err
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// StimulusSet builds the enabled stimulus set at the configured level.
func (c Config) StimulusSet() (nback.StimulusSet, error) {
	if len(c.Stimuli) == 0 {
		return nback.StimulusSet{}, fmt.Errorf("%w: no stimulus enabled", ErrInvalid)
	}

	types := make([]nback.StimulusType, 0, len(c.Stimuli))
	for _, name := range c.Stimuli {
		t, err := nback.ParseStimulusType(strings.TrimSpace(name))
		if err != nil {
			return nback.StimulusSet{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		types = append(types, t)
	}

	set, err := nback.NewStimulusSet(c.Level, types...)
	if err != nil {
		return nback.StimulusSet{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return set, nil
}

// WithStimulus toggles t, refusing to disable the last enabled stimulus.
func (c Config) WithStimulus(t nback.StimulusType, enabled bool) Config {
	names := slices.DeleteFunc(slices.Clone(c.Stimuli), func(s string) bool {
		parsed, err := nback.ParseStimulusType(s)
		return err == nil && parsed == t
	})
	if enabled {
		names = append(names, t.String())
	} else if len(names) == 0 {
		return c
	}
	c.Stimuli = names
	return c
}

// WithBlind sets blind mode, clearing dig mode when enabling it.
func (c Config) WithBlind(on bool) Config {
	c.Blind = on
	if on {
		c.Dig = false
	}
	return c
}

// WithDig sets dig mode, clearing blind mode when enabling it.
func (c Config) WithDig(on bool) Config {
	c.Dig = on
	if on {
		c.Blind = false
	}
	return c
}

// LongerDuration steps to the next longer selectable duration, staying put
// at the longest.
func (c Config) LongerDuration() Config {
	for _, d := range Durations {
		if d > c.Duration {
			c.Duration = d
			return c
		}
	}
	return c
}

// ShorterDuration steps to the next shorter selectable duration.
func (c Config) ShorterDuration() Config {
	for _, d := range slices.Backward(Durations) {
		if d < c.Duration {
			c.Duration = d
			return c
		}
	}
	return c
}

// FormatDuration renders seconds as "45s", "5m" or "2m 30s". A minute or
// less is always shown in seconds.
func FormatDuration(seconds int) string {
	switch {
	case seconds <= 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
}
