package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reverb-labs/encore/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Quiz.Rounds != 5 {
		t.Errorf("Rounds: got %d, want 5", cfg.Quiz.Rounds)
	}
	if cfg.Quiz.PreviewClipSeconds != 15 {
		t.Errorf("PreviewClipSeconds: got %d, want 15", cfg.Quiz.PreviewClipSeconds)
	}
	if cfg.Quiz.Calibration != "classic" {
		t.Errorf("Calibration: got %q, want classic", cfg.Quiz.Calibration)
	}
	if cfg.Live.PollIntervalSeconds != 2 {
		t.Errorf("PollIntervalSeconds: got %d, want 2", cfg.Live.PollIntervalSeconds)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr: got %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encore.yaml")
	data := []byte(`
quiz:
  rounds: 10
  preview_clip_seconds: 20
  calibration: title_heavy
live:
  poll_interval_seconds: 5
logging:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Quiz.Rounds != 10 {
		t.Errorf("Rounds: got %d, want 10", cfg.Quiz.Rounds)
	}
	if cfg.Quiz.PreviewClipSeconds != 20 {
		t.Errorf("PreviewClipSeconds: got %d, want 20", cfg.Quiz.PreviewClipSeconds)
	}
	if cfg.Quiz.Calibration != "title_heavy" {
		t.Errorf("Calibration: got %q", cfg.Quiz.Calibration)
	}
	if cfg.Live.PollIntervalSeconds != 5 {
		t.Errorf("PollIntervalSeconds: got %d, want 5", cfg.Live.PollIntervalSeconds)
	}
	// Untouched sections keep their defaults.
	if cfg.Quiz.RoundTimeoutSeconds != 30 {
		t.Errorf("RoundTimeoutSeconds: got %d, want 30", cfg.Quiz.RoundTimeoutSeconds)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encore.yaml")
	if err := os.WriteFile(path, []byte("quiz:\n  rounds: 10\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ENCORE_ROUNDS", "3")
	t.Setenv("ENCORE_SPOTIFY_CLIENT_ID", "env-client")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Quiz.Rounds != 3 {
		t.Errorf("Rounds: got %d, want 3 (env wins)", cfg.Quiz.Rounds)
	}
	if cfg.Spotify.ClientID != "env-client" {
		t.Errorf("ClientID: got %q", cfg.Spotify.ClientID)
	}
}

func TestMissingFileIsFine(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Quiz.Rounds != 5 {
		t.Errorf("Rounds: got %d, want default 5", cfg.Quiz.Rounds)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero rounds", map[string]string{"ENCORE_ROUNDS": "0"}},
		{"clip too long", map[string]string{"ENCORE_CLIP_SECONDS": "45"}},
		{"bad source", map[string]string{"ENCORE_SOURCE": "shuffle"}},
		{"bad log format", map[string]string{"ENCORE_LOG_FORMAT": "xml"}},
		{"zero poll interval", map[string]string{"ENCORE_POLL_INTERVAL_SECONDS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := config.Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
