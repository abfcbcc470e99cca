package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "roundberry-testnet-1", cfg.Node.ChainID)
	assert.Equal(t, int32(1), cfg.Node.ProtocolVersion)
	assert.Equal(t, 4, cfg.Period.MaxParticipants)
	assert.Equal(t, 30*time.Second, cfg.Period.EventTimeouts["TIMEOUT"].Duration())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	content := `
[node]
chain_id = "my-chain"
protocol_version = 2

[period]
max_participants = 7
participants = ["0xaaaa", "0xbbbb", "0xcccc", "0xdddd"]

[period.event_timeouts]
TIMEOUT = "45s"
VALIDATE_TIMEOUT = "1m"

[logging]
level = "debug"
format = "json"
output = "stdout"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "my-chain", cfg.Node.ChainID)
	assert.Equal(t, int32(2), cfg.Node.ProtocolVersion)
	assert.Equal(t, 7, cfg.Period.MaxParticipants)
	assert.Len(t, cfg.Period.Participants, 4)
	assert.Equal(t, 45*time.Second, cfg.Period.EventTimeouts["TIMEOUT"].Duration())
	assert.Equal(t, time.Minute, cfg.Period.EventTimeouts["VALIDATE_TIMEOUT"].Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Node.ChainID = "saved-chain"
	cfg.Period.Participants = []string{"0xaaaa", "0xbbbb", "0xcccc", "0xdddd"}

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Node.ChainID, loaded.Node.ChainID)
	assert.Equal(t, cfg.Period.Participants, loaded.Period.Participants)
	assert.Equal(t, cfg.Period.EventTimeouts["TIMEOUT"], loaded.Period.EventTimeouts["TIMEOUT"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty chain id", func(c *Config) { c.Node.ChainID = "" }, ErrEmptyChainID},
		{"bad protocol version", func(c *Config) { c.Node.ProtocolVersion = 0 }, ErrInvalidProtocolVersion},
		{"too few participants", func(c *Config) { c.Period.MaxParticipants = 3 }, ErrInvalidMaxParticipants},
		{"too many participants", func(c *Config) {
			c.Period.Participants = []string{"a", "b", "c", "d", "e"}
		}, ErrTooManyParticipants},
		{"duplicate participant", func(c *Config) {
			c.Period.Participants = []string{"a", "b", "a"}
		}, ErrDuplicateParticipant},
		{"zero timeout", func(c *Config) {
			c.Period.EventTimeouts = map[string]Duration{"TIMEOUT": 0}
		}, ErrInvalidEventTimeout},
		{"empty timeout name", func(c *Config) {
			c.Period.EventTimeouts = map[string]Duration{"": Duration(time.Second)}
		}, ErrEmptyEventTimeoutName},
		{"metrics enabled without namespace", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Namespace = ""
		}, ErrEmptyMetricsNamespace},
		{"metrics enabled without listen addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddr = ""
		}, ErrEmptyMetricsListenAddr},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
		{"empty log output", func(c *Config) { c.Logging.Output = "" }, ErrEmptyLogOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration(90 * time.Second)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	var parsed Duration
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, d, parsed)

	assert.Error(t, parsed.UnmarshalText([]byte("not-a-duration")))
}

func TestEventTimeoutDurations(t *testing.T) {
	cfg := DefaultConfig()
	durations := cfg.Period.EventTimeoutDurations()
	assert.Equal(t, 30*time.Second, durations["TIMEOUT"])
}
