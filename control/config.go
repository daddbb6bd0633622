// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Program configuration: defaults, then an optional YAML file, then
// environment overrides with the POLLWS prefix.

package control

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/protocol"
)

// EnvPrefix prefixes every environment variable, e.g. POLLWS_NET_PORT or
// POLLWS_BUFFERS_MAX_GROW.
const EnvPrefix = "POLLWS"

// Transport kinds.
const (
	TransportTCP = "tcp"
	TransportShm = "shm"
)

// Config holds all program configuration.
type Config struct {
	Net      NetConfig     `yaml:"net"`
	Shm      ShmConfig     `yaml:"shm"`
	Buffers  BufferConfig  `yaml:"buffers"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Log      LogConfig     `yaml:"log"`
	Chat     ChatConfig    `yaml:"chat"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// NetConfig selects the peer address and transport.
type NetConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"`
}

// ShmConfig places the shared-memory region files.
type ShmConfig struct {
	Dir  string `yaml:"dir"`
	Size int    `yaml:"size"`
}

// BufferConfig sizes connection buffers.
type BufferConfig struct {
	Transmit  uint32 `yaml:"transmit"`
	Receive   uint32 `yaml:"receive"`
	MaxGrow   uint32 `yaml:"max_grow" split_words:"true"`
	ReadChunk uint32 `yaml:"read_chunk" split_words:"true"`
}

// TimeoutConfig holds connection timers.
type TimeoutConfig struct {
	Handshake  time.Duration `yaml:"handshake"`
	CloseGrace time.Duration `yaml:"close_grace" split_words:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	TrafficFile string `yaml:"traffic_file" split_words:"true"`
}

// ChatConfig limits how fast a single chat client may post.
type ChatConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" split_words:"true"`
	Burst         int     `yaml:"burst"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Net: NetConfig{
			Host:      "127.0.0.1",
			Port:      3009,
			Transport: TransportTCP,
		},
		Shm: ShmConfig{
			Dir:  os.TempDir(),
			Size: 16 * 1024,
		},
		Buffers: BufferConfig{
			Transmit:  protocol.DefaultTransmitSize,
			Receive:   protocol.DefaultReceiveSize,
			MaxGrow:   protocol.DefaultMaxBufferSize,
			ReadChunk: protocol.DefaultReadChunk,
		},
		Timeouts: TimeoutConfig{
			Handshake:  protocol.DefaultHandshakeTimeout,
			CloseGrace: protocol.DefaultCloseGrace,
		},
		Log: LogConfig{
			Level: "info",
		},
		Chat: ChatConfig{
			RatePerSecond: 20,
			Burst:         40,
		},
	}
}

// Load returns the defaults overridden by the environment.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults and then applies the
// environment. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads from the environment or returns the defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values no connection could run with.
func (c *Config) Validate() error {
	invalid := func(field string, value any) error {
		return api.NewError(api.ErrCodeInvalidArgument, "invalid configuration").
			WithContext("field", field).
			WithContext("value", value)
	}
	switch {
	case c.Net.Port <= 0 || c.Net.Port > 65535:
		return invalid("net.port", c.Net.Port)
	case c.Net.Transport != TransportTCP && c.Net.Transport != TransportShm:
		return invalid("net.transport", c.Net.Transport)
	case c.Shm.Size <= 0:
		return invalid("shm.size", c.Shm.Size)
	case c.Buffers.MaxGrow == 0:
		return invalid("buffers.max_grow", c.Buffers.MaxGrow)
	case c.Buffers.ReadChunk == 0:
		return invalid("buffers.read_chunk", c.Buffers.ReadChunk)
	case c.Timeouts.Handshake <= 0:
		return invalid("timeouts.handshake", c.Timeouts.Handshake)
	case c.Chat.RatePerSecond < 0 || c.Chat.Burst < 0:
		return invalid("chat", c.Chat)
	}
	return nil
}

// ConnOptions maps the configuration onto connection options.
func (c *Config) ConnOptions(logger *zap.Logger) []protocol.Option {
	return []protocol.Option{
		protocol.WithLogger(logger),
		protocol.WithBufferSizes(c.Buffers.Transmit, c.Buffers.Receive, c.Buffers.MaxGrow),
		protocol.WithReadChunk(c.Buffers.ReadChunk),
		protocol.WithHandshakeTimeout(c.Timeouts.Handshake),
		protocol.WithCloseGrace(c.Timeouts.CloseGrace),
	}
}
