package cli

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, env map[string]string, args ...string) (*Config, error) {
	t.Helper()
	return Parse(context.Background(), args, envconfig.MapLookuper(env), io.Discard)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "console", cfg.Sink)
	assert.Equal(t, "chaindbg", cfg.SyslogTag)
	assert.Empty(t, cfg.Listen)
	assert.False(t, cfg.Advertise)
	assert.True(t, cfg.IPv6)
	assert.True(t, cfg.Replay)
	assert.Equal(t, 5*time.Second, cfg.ReconcileInterval)
	assert.False(t, cfg.ShowVersion)
}

func TestParse_Environment(t *testing.T) {
	cfg, err := parse(t, map[string]string{
		"CHAINDBG_LOG_LEVEL":          "debug",
		"CHAINDBG_SINK":               "file",
		"CHAINDBG_OUTPUT":             "/var/log/chaindbg.log",
		"CHAINDBG_IPV6":               "false",
		"CHAINDBG_RECONCILE_INTERVAL": "30s",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file", cfg.Sink)
	assert.Equal(t, "/var/log/chaindbg.log", cfg.SinkTarget())
	assert.False(t, cfg.IPv6)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
}

func TestParse_FlagsOverrideEnvironment(t *testing.T) {
	cfg, err := parse(t,
		map[string]string{"CHAINDBG_LOG_LEVEL": "debug", "CHAINDBG_REPLAY": "false"},
		"-log-level", "trace", "-replay=true", "-listen", "127.0.0.1:60106", "-advertise")
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.Replay)
	assert.Equal(t, "127.0.0.1:60106", cfg.Listen)
	assert.True(t, cfg.Advertise)
}

func TestParse_Version(t *testing.T) {
	cfg, err := parse(t, nil, "-version")
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"file sink without output", nil, []string{"-sink", "file"}},
		{"advertise without listen", nil, []string{"-advertise"}},
		{"zero reconcile interval", nil, []string{"-reconcile-interval", "0s"}},
		{"unknown flag", nil, []string{"-bogus"}},
		{"bad environment value", map[string]string{"CHAINDBG_IPV6": "maybe"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.env, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SinkTarget(t *testing.T) {
	cfg := &Config{Sink: "syslog", SyslogTag: "netdbg", Output: "/tmp/x"}
	assert.Equal(t, "netdbg", cfg.SinkTarget())

	cfg.Sink = "file"
	assert.Equal(t, "/tmp/x", cfg.SinkTarget())
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{LogLevel: "info", Sink: "console", IPv6: true, ReconcileInterval: time.Second}
	assert.Contains(t, cfg.String(), "Sink: console")
	assert.Contains(t, cfg.String(), "ReconcileInterval: 1s")
}
