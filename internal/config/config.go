package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cringo/cringo/internal/bus"
	"github.com/cringo/cringo/internal/display"
	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/retry"
	"github.com/cringo/cringo/internal/session"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. CRINGO_BUS_BROKER.
const EnvPrefix = "CRINGO_"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game     GameConfig     `yaml:"game"`
	Draw     DrawConfig     `yaml:"draw"`
	Bus      BusConfig      `yaml:"bus"`
	Hardware HardwareConfig `yaml:"hardware"`
	Server   ServerConfig   `yaml:"server"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

type GameConfig struct {
	NextThreshold   int           `yaml:"next_threshold" env:"GAME_NEXT_THRESHOLD"`
	ResetThreshold  int           `yaml:"reset_threshold" env:"GAME_RESET_THRESHOLD"`
	PollInterval    time.Duration `yaml:"poll_interval" env:"GAME_POLL_INTERVAL"`
	Debounce        time.Duration `yaml:"debounce" env:"GAME_DEBOUNCE"`
	Settle          time.Duration `yaml:"settle" env:"GAME_SETTLE"`
	RestartInterval time.Duration `yaml:"restart_interval" env:"GAME_RESTART_INTERVAL"`
	RestartSamples  int           `yaml:"restart_samples" env:"GAME_RESTART_SAMPLES"`
	Flashes         int           `yaml:"flashes" env:"GAME_FLASHES"`
	FlashInterval   time.Duration `yaml:"flash_interval" env:"GAME_FLASH_INTERVAL"`
}

type DrawConfig struct {
	Bits         uint `yaml:"bits" env:"DRAW_BITS"`
	MaxResamples int  `yaml:"max_resamples" env:"DRAW_MAX_RESAMPLES"`
}

type BusConfig struct {
	Broker          string        `yaml:"broker" env:"BUS_BROKER"`
	ClientID        string        `yaml:"client_id" env:"BUS_CLIENT_ID"`
	Namespace       string        `yaml:"namespace" env:"BUS_NAMESPACE"`
	QoS             byte          `yaml:"qos" env:"BUS_QOS"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"BUS_CONNECT_TIMEOUT"`
	InboxSize       int           `yaml:"inbox_size" env:"BUS_INBOX_SIZE"`
	MalformedPolicy string        `yaml:"malformed_policy" env:"BUS_MALFORMED_POLICY"`
	Retry           retry.Policy  `yaml:"retry"`
}

type HardwareConfig struct {
	I2CBus         string        `yaml:"i2c_bus" env:"HW_I2C_BUS"`
	SensorAddr     uint16        `yaml:"sensor_addr" env:"HW_SENSOR_ADDR"`
	OLEDAddr       uint16        `yaml:"oled_addr" env:"HW_OLED_ADDR"`
	OLEDResetPin   string        `yaml:"oled_reset_pin" env:"HW_OLED_RESET_PIN"`
	OLEDResetPulse time.Duration `yaml:"oled_reset_pulse" env:"HW_OLED_RESET_PULSE"`
	Simulate       bool          `yaml:"simulate" env:"HW_SIMULATE"`
	SimAmbient     int           `yaml:"sim_ambient" env:"HW_SIM_AMBIENT"`
	SimTapInterval time.Duration `yaml:"sim_tap_interval" env:"HW_SIM_TAP_INTERVAL"`
}

type ServerConfig struct {
	Enabled           bool          `yaml:"enabled" env:"SERVER_ENABLED"`
	Host              string        `yaml:"host" env:"SERVER_HOST"`
	Port              int           `yaml:"port" env:"SERVER_PORT"`
	AuthToken         string        `yaml:"auth_token" env:"SERVER_AUTH_TOKEN"`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" envSeparator:","`
	MaxConnections    int           `yaml:"max_connections" env:"SERVER_MAX_CONNECTIONS"`
	BroadcastThrottle time.Duration `yaml:"broadcast_throttle" env:"SERVER_BROADCAST_THROTTLE"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval" env:"SERVER_SNAPSHOT_INTERVAL"`
}

type HistoryConfig struct {
	Path  string `yaml:"path" env:"HISTORY_PATH"`
	Limit int    `yaml:"limit" env:"HISTORY_LIMIT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

func defaultConfig() *Config {
	sess := session.DefaultConfig()
	disp := display.DefaultOptions()
	return &Config{
		Game: GameConfig{
			NextThreshold:   int(sess.NextThreshold),
			ResetThreshold:  int(sess.ResetThreshold),
			PollInterval:    sess.PollInterval,
			Debounce:        sess.Debounce,
			Settle:          sess.Settle,
			RestartInterval: sess.RestartInterval,
			RestartSamples:  sess.RestartSamples,
			Flashes:         disp.Flashes,
			FlashInterval:   disp.FlashInterval,
		},
		Draw: DrawConfig{
			Bits: draw.DefaultBits,
		},
		Bus: BusConfig{
			Broker:          "tcp://192.168.0.10:1883",
			Namespace:       bus.DefaultNamespace,
			ConnectTimeout:  10 * time.Second,
			InboxSize:       16,
			MalformedPolicy: string(session.MalformedIgnore),
			Retry:           retry.DefaultPolicy(),
		},
		Hardware: HardwareConfig{
			SensorAddr:     0x13,
			OLEDAddr:       0x3D,
			OLEDResetPin:   "GPIO16",
			OLEDResetPulse: 200 * time.Millisecond,
			SimAmbient:     412,
			SimTapInterval: 3 * time.Second,
		},
		Server: ServerConfig{
			Enabled:           true,
			Host:              "127.0.0.1",
			Port:              8080,
			MaxConnections:    64,
			BroadcastThrottle: 100 * time.Millisecond,
			SnapshotInterval:  5 * time.Second,
		},
		History: HistoryConfig{
			Path:  defaultHistoryPath(),
			Limit: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Default returns the built-in configuration with environment overrides.
func Default() (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Load reads a YAML file over the defaults, then applies CRINGO_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

// LoadDotEnv exports variables from the given .env files, or ./.env when
// none are given. Missing files are skipped and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects configurations the game cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Game.NextThreshold > 0, "game.next_threshold must be positive")
	check(c.Game.ResetThreshold > c.Game.NextThreshold,
		"game.reset_threshold (%d) must exceed game.next_threshold (%d)", c.Game.ResetThreshold, c.Game.NextThreshold)
	check(c.Game.RestartSamples >= 1, "game.restart_samples must be at least 1")
	check(c.Game.Flashes >= 0, "game.flashes must not be negative")
	if err := draw.CheckBits(c.Draw.Bits); err != nil {
		check(false, "draw.bits: %v", err)
	}
	check(c.Draw.MaxResamples >= 0, "draw.max_resamples must not be negative")
	check(strings.TrimSpace(c.Bus.Broker) != "", "bus.broker is required")
	check(strings.Trim(c.Bus.Namespace, "/ ") != "", "bus.namespace is required")
	check(c.Bus.QoS <= 2, "bus.qos must be 0, 1 or 2")
	check(session.MalformedPolicy(c.Bus.MalformedPolicy).Valid(),
		"bus.malformed_policy must be ignore or fail, got %q", c.Bus.MalformedPolicy)
	check(c.Bus.Retry.MaxAttempts >= 0, "bus.retry.max_attempts must not be negative")
	if c.Server.Enabled {
		check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port out of range: %d", c.Server.Port)
	}
	check(c.Log.Format == "json" || c.Log.Format == "console", "log.format must be json or console")

	return errors.Join(errs...)
}

// Session maps the game settings onto the controller's configuration.
func (c *Config) Session() session.Config {
	return session.Config{
		NextThreshold:  session.Intensity(c.Game.NextThreshold),
		ResetThreshold: session.Intensity(c.Game.ResetThreshold),
		Draw: draw.Options{
			Bits:         c.Draw.Bits,
			MaxResamples: c.Draw.MaxResamples,
		},
		PollInterval:    c.Game.PollInterval,
		Debounce:        c.Game.Debounce,
		Settle:          c.Game.Settle,
		RestartInterval: c.Game.RestartInterval,
		RestartSamples:  c.Game.RestartSamples,
		Connect:         c.Bus.Retry,
	}
}

func (c *Config) Display() display.Options {
	opts := display.DefaultOptions()
	opts.Flashes = c.Game.Flashes
	opts.FlashInterval = c.Game.FlashInterval
	return opts
}

func (c *Config) Topics() bus.Topics {
	return bus.NewTopics(c.Bus.Namespace)
}

func (c *Config) MalformedPolicy() session.MalformedPolicy {
	return session.MalformedPolicy(c.Bus.MalformedPolicy)
}

func (c *Config) MQTT() bus.MQTTOptions {
	return bus.MQTTOptions{
		Broker:         c.Bus.Broker,
		ClientID:       c.Bus.ClientID,
		Subscribe:      []string{c.Topics().Subscribe},
		QoS:            c.Bus.QoS,
		ConnectTimeout: c.Bus.ConnectTimeout,
		InboxSize:      c.Bus.InboxSize,
	}
}

func (c *Config) OLED() display.OLEDConfig {
	return display.OLEDConfig{
		Addr:     c.Hardware.OLEDAddr,
		ResetPin: c.Hardware.OLEDResetPin,
		ResetLow: c.Hardware.OLEDResetPulse,
	}
}

// GenerateToken returns a random 128-bit hex token for the spectator API.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// defaultHistoryPath is $XDG_STATE_HOME/cringo/history.db.
func defaultHistoryPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "cringo-history.db"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "cringo", "history.db")
}
