// Package config loads proctop settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/report"
	"github.com/srodi/proctop/pkg/types"
)

const (
	DefaultInterval       = 2 * time.Second
	DefaultRefreshTimeout = 5 * time.Second
	DefaultDetailRedraw   = 300 * time.Millisecond
	DefaultIdleRedraw     = 500 * time.Millisecond
	DefaultTerminateGrace = 500 * time.Millisecond
	DefaultMessagePause   = time.Second
	DefaultLogLevel       = "info"
)

// Config holds every tunable. Durations are written as Go duration strings
// ("2s", "300ms").
type Config struct {
	Interval       time.Duration `yaml:"interval"`
	TopK           int           `yaml:"top_k"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
	DetailRedraw   time.Duration `yaml:"detail_redraw"`
	IdleRedraw     time.Duration `yaml:"idle_redraw"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	TerminateGrace time.Duration `yaml:"terminate_grace"`
	MessagePause   time.Duration `yaml:"message_pause"`
	LogFile        string        `yaml:"log_file"`
	LogLevel       string        `yaml:"log_level"`
	Classifier     Classifier    `yaml:"classifier"`
}

// Classifier lists the multi-process applications whose roles are labelled.
type Classifier struct {
	Applications []report.Application `yaml:"applications"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Interval:       DefaultInterval,
		TopK:           types.DefaultTopK,
		RefreshTimeout: DefaultRefreshTimeout,
		DetailRedraw:   DefaultDetailRedraw,
		IdleRedraw:     DefaultIdleRedraw,
		PollInterval:   lineedit.MaxPollInterval,
		TerminateGrace: DefaultTerminateGrace,
		MessagePause:   DefaultMessagePause,
		LogFile:        filepath.Join(os.TempDir(), "proctop.log"),
		LogLevel:       DefaultLogLevel,
		Classifier:     Classifier{Applications: report.DefaultApplications()},
	}
}

// Load reads path over the defaults and normalizes the result. Unknown keys
// are rejected so typos do not pass silently. An empty file yields defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and normalizes the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg.Normalize(), nil
}

// Normalize replaces invalid values with defaults. The poll interval is capped
// at lineedit.MaxPollInterval and top_k at types.DefaultTopK.
func (c Config) Normalize() Config {
	def := Default()
	positive := func(v *time.Duration, fallback time.Duration) {
		if *v <= 0 {
			*v = fallback
		}
	}
	positive(&c.Interval, def.Interval)
	positive(&c.RefreshTimeout, def.RefreshTimeout)
	positive(&c.DetailRedraw, def.DetailRedraw)
	positive(&c.IdleRedraw, def.IdleRedraw)
	positive(&c.PollInterval, def.PollInterval)
	positive(&c.TerminateGrace, def.TerminateGrace)
	positive(&c.MessagePause, def.MessagePause)
	c.PollInterval = min(c.PollInterval, lineedit.MaxPollInterval)

	if c.TopK <= 0 {
		c.TopK = def.TopK
	}
	c.TopK = min(c.TopK, types.DefaultTopK)
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = def.LogFile
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = def.LogLevel
	}

	apps := make([]report.Application, 0, len(c.Classifier.Applications))
	for _, app := range c.Classifier.Applications {
		if strings.TrimSpace(app.Name) == "" || len(app.Match) == 0 {
			continue
		}
		apps = append(apps, app)
	}
	c.Classifier.Applications = apps
	return c
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
