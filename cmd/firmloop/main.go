// Command firmloop runs the firmware runtime on a host, with a simulated
// Bluetooth stack and the demo components.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	firmloop "github.com/joeycumines/go-firmloop"
	"github.com/joeycumines/go-firmloop/clock"
	"github.com/joeycumines/go-firmloop/internal/config"
	"github.com/joeycumines/go-firmloop/internal/demo"
	"github.com/joeycumines/go-firmloop/internal/logging"
	"github.com/joeycumines/go-firmloop/scheduler"
	"github.com/joeycumines/go-firmloop/watchdog"
)

// exitReboot asks a supervisor to restart the process.
const exitReboot = 75

func main() {
	configPath := flag.String("config", ``, "path to a YAML config file")
	flag.Parse()

	code, err := run(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "firmloop: %v\n", err)
	}
	os.Exit(code)
}

func run(configPath string) (int, error) {
	cfg := config.Default()
	if configPath != `` {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return 1, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return 1, err
	}

	backend, _ := logging.ParseBackend(cfg.Logging.Backend)
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger, err := logging.New(os.Stderr, backend, level)
	if err != nil {
		return 1, err
	}

	var wd *watchdog.Soft
	if cfg.Watchdog.Timeout > 0 {
		wd = watchdog.NewSoft(cfg.Watchdog.Timeout, func() {
			logger.Crit().Dur("timeout", cfg.Watchdog.Timeout).Log("watchdog expired, main loop is stuck")
			os.Exit(exitReboot)
		})
	}

	clk := clock.System{}
	sched := scheduler.New(clk, logger)
	opts := []firmloop.Option{
		firmloop.WithLogger(logger),
		firmloop.WithClock(clk),
		firmloop.WithScheduler(sched),
		firmloop.WithName(cfg.Name),
		firmloop.WithFriendlyName(cfg.FriendlyName),
		firmloop.WithNameAddMACSuffix(cfg.NameAddMACSuffix),
		firmloop.WithLoopInterval(cfg.Loop.Interval),
		firmloop.WithBlockingThreshold(cfg.Loop.BlockingThreshold),
		firmloop.WithWatchdogFeedInterval(cfg.Watchdog.FeedInterval),
	}
	if wd != nil {
		opts = append(opts, firmloop.WithWatchdog(wd))
	}
	app, err := firmloop.New(opts...)
	if err != nil {
		return 1, err
	}
	if _, err := demo.Install(app, sched, cfg); err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		select {
		case <-hup:
			logger.Notice().Log("SIGHUP received, rebooting")
			app.RequestReboot(true)
		case <-ctx.Done():
		}
	}()

	if wd != nil {
		wd.Start()
		defer wd.Stop()
	}

	err = app.Run(ctx)
	switch {
	case errors.Is(err, firmloop.ErrRebootRequested):
		return exitReboot, nil
	case errors.Is(err, context.Canceled):
		logger.Info().Log("stopped")
		return 0, nil
	default:
		return 1, err
	}
}
