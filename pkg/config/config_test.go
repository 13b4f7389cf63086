package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Interval != 2*time.Second || cfg.TopK != 20 || cfg.RefreshTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DetailRedraw != 300*time.Millisecond || cfg.IdleRedraw != 500*time.Millisecond {
		t.Fatalf("unexpected redraw defaults: %+v", cfg)
	}
	if cfg.PollInterval != lineedit.MaxPollInterval {
		t.Fatalf("expected poll interval %v, got %v", lineedit.MaxPollInterval, cfg.PollInterval)
	}
	if len(cfg.Classifier.Applications) == 0 {
		t.Fatalf("expected default classifier applications")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
interval: 1s
top_k: 5
refresh_timeout: 10s
log_level: debug
classifier:
  applications:
    - name: firefox
      match: [firefox]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interval != time.Second || cfg.TopK != 5 || cfg.RefreshTimeout != 10*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IdleRedraw != DefaultIdleRedraw {
		t.Fatalf("unset keys must keep defaults, got %v", cfg.IdleRedraw)
	}
	if len(cfg.Classifier.Applications) != 1 || cfg.Classifier.Applications[0].Name != "firefox" {
		t.Fatalf("unexpected applications: %+v", cfg.Classifier.Applications)
	}
}

func TestParseNormalizesInvalidValues(t *testing.T) {
	cfg, err := Parse([]byte(`
interval: -1s
top_k: 0
poll_interval: 2s
log_level: loud
log_file: "  "
classifier:
  applications:
    - name: ""
      match: [x]
    - name: nomatch
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := Default()
	if cfg.Interval != def.Interval || cfg.TopK != def.TopK {
		t.Fatalf("invalid values not replaced: %+v", cfg)
	}
	if cfg.PollInterval != lineedit.MaxPollInterval {
		t.Fatalf("poll interval must be capped, got %v", cfg.PollInterval)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.LogFile != def.LogFile {
		t.Fatalf("logging settings not normalized: %+v", cfg)
	}
	if len(cfg.Classifier.Applications) != 0 {
		t.Fatalf("incomplete applications must be dropped: %+v", cfg.Classifier.Applications)
	}
}

func TestParseCapsTopK(t *testing.T) {
	cfg, err := Parse([]byte("top_k: 50\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.TopK != types.DefaultTopK {
		t.Fatalf("top_k must be capped at %d, got %d", types.DefaultTopK, cfg.TopK)
	}
}

func TestParseEmptyAndUnknownKeys(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if cfg.Interval != DefaultInterval {
		t.Fatalf("expected defaults for empty input")
	}
	if _, err := Parse([]byte("intervall: 3s\n")); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	if _, err := Parse([]byte("interval: soon\n")); err == nil {
		t.Fatalf("expected bad duration to be rejected")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proctop.yaml")
	if err := os.WriteFile(path, []byte("top_k: 7\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TopK != 7 {
		t.Fatalf("expected top_k 7, got %d", cfg.TopK)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
