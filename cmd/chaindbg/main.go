package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/chaindbg/internal/api"
	"github.com/dmdmdm-nz/chaindbg/internal/netmon"
	"github.com/dmdmdm-nz/chaindbg/internal/reporter"
	"github.com/dmdmdm-nz/chaindbg/internal/runtime"
	"github.com/dmdmdm-nz/chaindbg/internal/sink"
	"github.com/dmdmdm-nz/chaindbg/pkg/cli"
)

func main() {
	// Parse environment and command line flags
	cfg := cli.ParseFlags()

	// Configure logging. Diagnostic logs go to stderr so they never mix
	// with event lines on the console sink.
	setLogLevel(cfg.LogLevel)
	setLogFormat(cfg.LogFormat)
	log.SetOutput(os.Stderr)

	log.Infof("Config: %s", cfg)

	if os.Geteuid() != 0 {
		log.Warn("Not running as root; feature reads may fail on some interfaces.")
	}

	out, err := sink.Open(cfg.Sink, cfg.SinkTarget())
	if err != nil {
		log.WithError(err).Fatal("Failed to open sink")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	netmonSvc := netmon.NewService(netmon.NewWatcher(cfg.ReconcileInterval), netmon.Options{
		IPv6:   cfg.IPv6,
		Replay: cfg.Replay,
	})

	var apiSvc *api.Service
	if cfg.Listen != "" {
		apiSvc = api.NewService(cfg.Listen, cfg.Advertise)
		out = sink.Multi{out, apiSvc}
	}
	rep := reporter.NewReporter(out)

	// Wire subscriptions BEFORE starting producers to avoid missing anything.
	recCh, recUnsub := netmonSvc.Subscribe()
	rep.AttachNetmon(recCh, recUnsub)

	// A failing worker stops the whole process.
	stopOnError := func(run func(context.Context) error) func(context.Context) error {
		return func(ctx context.Context) error {
			err := run(ctx)
			if err != nil {
				cancel()
			}
			return err
		}
	}

	// Consumers start before the producer: api → reporter → netmon
	super := runtime.NewSupervisor()
	if apiSvc != nil {
		super.Add("api", stopOnError(apiSvc.Start), apiSvc.Close)
	}
	super.Add("reporter", stopOnError(rep.Start), rep.Close)
	super.Add("netmon", stopOnError(netmonSvc.Start), netmonSvc.Close)

	exitCode := 0
	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("supervisor start failed")
		exitCode = 1
	} else if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("supervisor wait failed")
		exitCode = 1
	}

	if err := out.Close(); err != nil {
		log.WithError(err).Warn("Failed to close sink")
	}
	cancel()
	os.Exit(exitCode)
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func setLogFormat(format string) {
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})
}
