package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/dmdmdm-nz/chaindbg/pkg/version"
)

// Config holds the application configuration. Defaults come from CHAINDBG_*
// environment variables; command line flags override them.
type Config struct {
	LogLevel          string        `env:"CHAINDBG_LOG_LEVEL, default=info"`
	LogFormat         string        `env:"CHAINDBG_LOG_FORMAT, default=text"`
	Sink              string        `env:"CHAINDBG_SINK, default=console"`
	Output            string        `env:"CHAINDBG_OUTPUT"`
	SyslogTag         string        `env:"CHAINDBG_SYSLOG_TAG, default=chaindbg"`
	Listen            string        `env:"CHAINDBG_LISTEN"`
	Advertise         bool          `env:"CHAINDBG_ADVERTISE, default=false"`
	IPv6              bool          `env:"CHAINDBG_IPV6, default=true"`
	Replay            bool          `env:"CHAINDBG_REPLAY, default=true"`
	ReconcileInterval time.Duration `env:"CHAINDBG_RECONCILE_INTERVAL, default=5s"`

	ShowVersion bool
}

// ParseFlags parses the environment and command line arguments and returns
// a Config. It exits on -version and on invalid input.
func ParseFlags() *Config {
	cfg, err := Parse(context.Background(), os.Args[1:], envconfig.OsLookuper(), os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chaindbg: %v\n", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("chaindbg version %s (commit: %s, built at: %s)\n",
			version.Version,
			version.CommitHash,
			version.BuildTime)
		os.Exit(0)
	}

	return cfg
}

// Parse builds a Config from lookuper and args.
func Parse(ctx context.Context, args []string, lookuper envconfig.Lookuper, output io.Writer) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	fs := flag.NewFlagSet("chaindbg", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	fs.StringVar(&cfg.Sink, "sink", cfg.Sink, "Where event lines go (console, file, syslog)")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Output file for the file sink")
	fs.StringVar(&cfg.SyslogTag, "syslog-tag", cfg.SyslogTag, "Tag for the syslog sink")
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "Address for the line stream API, e.g. 127.0.0.1:60106 (empty disables)")
	fs.BoolVar(&cfg.Advertise, "advertise", cfg.Advertise, "Advertise the line stream API over mDNS")
	fs.BoolVar(&cfg.IPv6, "ipv6", cfg.IPv6, "Report IPv6 address events")
	fs.BoolVar(&cfg.Replay, "replay", cfg.Replay, "Report devices that exist at startup as registered")
	fs.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", cfg.ReconcileInterval, "How often links are re-listed to detect feature changes")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations.
func (c *Config) Validate() error {
	if c.Sink == "file" && c.Output == "" {
		return fmt.Errorf("-sink=file requires -output")
	}
	if c.Advertise && c.Listen == "" {
		return fmt.Errorf("-advertise requires -listen")
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("-reconcile-interval must be positive, got %s", c.ReconcileInterval)
	}
	return nil
}

// SinkTarget is the argument handed to the sink factory for the selected sink.
func (c *Config) SinkTarget() string {
	if c.Sink == "syslog" {
		return c.SyslogTag
	}
	return c.Output
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("LogLevel: %s, LogFormat: %s, Sink: %s, Output: %s, Listen: %s, Advertise: %t, IPv6: %t, Replay: %t, ReconcileInterval: %s",
		c.LogLevel, c.LogFormat, c.Sink, c.Output, c.Listen, c.Advertise, c.IPv6, c.Replay, c.ReconcileInterval)
}
