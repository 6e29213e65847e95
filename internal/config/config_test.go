package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigMatchesGame(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Game.NextThreshold != 7000 {
		t.Errorf("Game.NextThreshold = %d, want 7000", cfg.Game.NextThreshold)
	}
	if cfg.Game.ResetThreshold != 15000 {
		t.Errorf("Game.ResetThreshold = %d, want 15000", cfg.Game.ResetThreshold)
	}
	if cfg.Draw.Bits != 7 {
		t.Errorf("Draw.Bits = %d, want 7", cfg.Draw.Bits)
	}
	if cfg.Bus.Namespace != "esys/cringo" {
		t.Errorf("Bus.Namespace = %q, want esys/cringo", cfg.Bus.Namespace)
	}
	if cfg.Hardware.SensorAddr != 0x13 || cfg.Hardware.OLEDAddr != 0x3D {
		t.Errorf("addresses = %#x, %#x", cfg.Hardware.SensorAddr, cfg.Hardware.OLEDAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
game:
  next_threshold: 6000
  restart_samples: 3
draw:
  max_resamples: 200
bus:
  broker: "tcp://broker.local:1883"
  malformed_policy: fail
  retry:
    initial: 250ms
    max_attempts: 5
hardware:
  oled_addr: 0x3C
server:
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Game.NextThreshold != 6000 {
		t.Errorf("Game.NextThreshold = %d, want 6000", cfg.Game.NextThreshold)
	}
	if cfg.Game.RestartSamples != 3 {
		t.Errorf("Game.RestartSamples = %d, want 3", cfg.Game.RestartSamples)
	}
	if cfg.Draw.MaxResamples != 200 {
		t.Errorf("Draw.MaxResamples = %d, want 200", cfg.Draw.MaxResamples)
	}
	if cfg.Bus.Broker != "tcp://broker.local:1883" {
		t.Errorf("Bus.Broker = %q", cfg.Bus.Broker)
	}
	if cfg.MalformedPolicy() != session.MalformedFail {
		t.Errorf("MalformedPolicy() = %q, want fail", cfg.MalformedPolicy())
	}
	if cfg.Bus.Retry.Initial != 250*time.Millisecond || cfg.Bus.Retry.MaxAttempts != 5 {
		t.Errorf("Bus.Retry = %+v", cfg.Bus.Retry)
	}
	if cfg.Hardware.OLEDAddr != 0x3C {
		t.Errorf("Hardware.OLEDAddr = %#x, want 0x3c", cfg.Hardware.OLEDAddr)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Game.ResetThreshold != 15000 {
		t.Errorf("Game.ResetThreshold = %d, want default 15000", cfg.Game.ResetThreshold)
	}
	if cfg.Bus.Retry.Max != 30*time.Second {
		t.Errorf("Bus.Retry.Max = %v, want default 30s", cfg.Bus.Retry.Max)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() on missing file should return error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, "127.0.0.1")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, ":::not valid yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with invalid YAML should return error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "bus:\n  broker: tcp://file:1883\n")
	t.Setenv("CRINGO_BUS_BROKER", "tcp://env:1883")
	t.Setenv("CRINGO_GAME_DEBOUNCE", "250ms")
	t.Setenv("CRINGO_SERVER_ALLOWED_ORIGINS", "http://a.local,http://b.local")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Bus.Broker != "tcp://env:1883" {
		t.Errorf("Bus.Broker = %q, want env value", cfg.Bus.Broker)
	}
	if cfg.Game.Debounce != 250*time.Millisecond {
		t.Errorf("Game.Debounce = %v, want 250ms", cfg.Game.Debounce)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CRINGO_LOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRINGO_LOG_LEVEL", "")
	os.Unsetenv("CRINGO_LOG_LEVEL")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"reset not above next", func(c *Config) { c.Game.ResetThreshold = c.Game.NextThreshold }},
		{"too few bits", func(c *Config) { c.Draw.Bits = 6 }},
		{"bits leave gaps", func(c *Config) { c.Draw.Bits = 8 }},
		{"max bits", func(c *Config) { c.Draw.Bits = draw.MaxBits }},
		{"negative resample cap", func(c *Config) { c.Draw.MaxResamples = -1 }},
		{"empty namespace", func(c *Config) { c.Bus.Namespace = "/" }},
		{"unknown policy", func(c *Config) { c.Bus.MalformedPolicy = "panic" }},
		{"bad qos", func(c *Config) { c.Bus.QoS = 3 }},
		{"no restart samples", func(c *Config) { c.Game.RestartSamples = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSessionMapping(t *testing.T) {
	cfg := defaultConfig()
	cfg.Draw.MaxResamples = 10
	cfg.Game.RestartSamples = 4

	s := cfg.Session()
	if s.NextThreshold != session.DefaultNextThreshold || s.ResetThreshold != session.DefaultResetThreshold {
		t.Errorf("thresholds = %d/%d", s.NextThreshold, s.ResetThreshold)
	}
	if s.Draw.Bits != 7 || s.Draw.MaxResamples != 10 {
		t.Errorf("Draw = %+v", s.Draw)
	}
	if s.RestartSamples != 4 {
		t.Errorf("RestartSamples = %d, want 4", s.RestartSamples)
	}

	topics := cfg.Topics()
	if topics.Subscribe != "esys/cringo/samples/subscribe" {
		t.Errorf("Topics().Subscribe = %q", topics.Subscribe)
	}
	if m := cfg.MQTT(); len(m.Subscribe) != 1 || m.Subscribe[0] != topics.Subscribe {
		t.Errorf("MQTT().Subscribe = %v", m.Subscribe)
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if len(tok) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("token length = %d, want 32", len(tok))
	}

	tok2, _ := GenerateToken()
	if tok == tok2 {
		t.Error("two generated tokens should not be identical")
	}
}
