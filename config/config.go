package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration for a roundberry application node.
type Config struct {
	Node    NodeConfig    `toml:"node"`
	Period  PeriodConfig  `toml:"period"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

// NodeConfig contains node identity and chain configuration.
type NodeConfig struct {
	// ChainID is the unique identifier for the ledger; it scopes
	// signature verification so payloads cannot be replayed across
	// chains.
	ChainID string `toml:"chain_id"`

	// ProtocolVersion is the protocol version supported by this node.
	ProtocolVersion int32 `toml:"protocol_version"`
}

// PeriodConfig contains the round state machine configuration.
type PeriodConfig struct {
	// MaxParticipants is the participant count the Byzantine quorum is
	// derived from.
	MaxParticipants int `toml:"max_participants"`

	// Participants are the participant account addresses. May be left
	// empty when the participant set is supplied at runtime (e.g. by a
	// registration round).
	Participants []string `toml:"participants"`

	// EventTimeouts maps round event names to block-time timeout
	// durations.
	EventTimeouts map[string]Duration `toml:"event_timeouts"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled determines whether metrics collection is active.
	Enabled bool `toml:"enabled"`

	// Namespace is the Prometheus metrics namespace prefix.
	Namespace string `toml:"namespace"`

	// ListenAddr is the address to serve metrics on (e.g., ":9090").
	ListenAddr string `toml:"listen_addr"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// Format is the log output format ("text" or "json").
	Format string `toml:"format"`

	// Output is the log output destination ("stdout", "stderr", or a file path).
	Output string `toml:"output"`
}

// Duration is a wrapper around time.Duration for TOML unmarshaling.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ChainID:         "roundberry-testnet-1",
			ProtocolVersion: 1,
		},
		Period: PeriodConfig{
			MaxParticipants: 4,
			Participants:    []string{},
			EventTimeouts: map[string]Duration{
				"TIMEOUT": Duration(30 * time.Second),
			},
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Namespace:  "roundberry",
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadConfig loads configuration from a TOML file.
// Missing values are filled with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a TOML file.
func SaveConfig(cfg *Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Validation errors.
var (
	ErrEmptyChainID           = errors.New("chain_id cannot be empty")
	ErrInvalidProtocolVersion = errors.New("protocol_version must be positive")
	ErrInvalidMaxParticipants = errors.New("max_participants must be at least 4")
	ErrTooManyParticipants    = errors.New("participants exceed max_participants")
	ErrDuplicateParticipant   = errors.New("participants must be unique")
	ErrInvalidEventTimeout    = errors.New("event timeout must be positive")
	ErrEmptyEventTimeoutName  = errors.New("event timeout name cannot be empty")
	ErrEmptyMetricsNamespace  = errors.New("metrics namespace cannot be empty when enabled")
	ErrEmptyMetricsListenAddr = errors.New("metrics listen_addr cannot be empty when enabled")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("log format must be 'text' or 'json'")
	ErrEmptyLogOutput         = errors.New("log output cannot be empty")
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node config: %w", err)
	}
	if err := c.Period.Validate(); err != nil {
		return fmt.Errorf("period config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate checks the node configuration for errors.
func (c *NodeConfig) Validate() error {
	if c.ChainID == "" {
		return ErrEmptyChainID
	}
	if c.ProtocolVersion <= 0 {
		return ErrInvalidProtocolVersion
	}
	return nil
}

// Validate checks the period configuration for errors.
func (c *PeriodConfig) Validate() error {
	if c.MaxParticipants < 4 {
		return ErrInvalidMaxParticipants
	}
	if len(c.Participants) > c.MaxParticipants {
		return ErrTooManyParticipants
	}
	seen := make(map[string]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p)
		}
		seen[p] = struct{}{}
	}
	for name, d := range c.EventTimeouts {
		if name == "" {
			return ErrEmptyEventTimeoutName
		}
		if d.Duration() <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidEventTimeout, name)
		}
	}
	return nil
}

// Validate checks the metrics configuration for errors.
func (c *MetricsConfig) Validate() error {
	if c.Enabled {
		if c.Namespace == "" {
			return ErrEmptyMetricsNamespace
		}
		if c.ListenAddr == "" {
			return ErrEmptyMetricsListenAddr
		}
	}
	return nil
}

// Validate checks the logging configuration for errors.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	if c.Format != "text" && c.Format != "json" {
		return ErrInvalidLogFormat
	}
	if c.Output == "" {
		return ErrEmptyLogOutput
	}
	return nil
}

// EventTimeoutDurations converts the configured event timeouts into
// plain time.Durations keyed by event name.
func (c *PeriodConfig) EventTimeoutDurations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.EventTimeouts))
	for name, d := range c.EventTimeouts {
		out[name] = d.Duration()
	}
	return out
}
