// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package firmloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-firmloop/clock"
	"github.com/joeycumines/logiface"
)

const (
	defaultLoopInterval      = 16 * time.Millisecond
	defaultBlockingThreshold = 50 * time.Millisecond
	defaultFeedInterval      = 3 * time.Millisecond
)

// appOptions holds configuration options for Application creation.
type appOptions struct {
	logger            *logiface.Logger[logiface.Event]
	clock             clock.Clock
	scheduler         Scheduler
	watchdog          Watchdog
	blockingLimiter   *catrate.Limiter
	name              string
	friendlyName      string
	version           string
	loopInterval      time.Duration
	blockingThreshold time.Duration
	feedInterval      time.Duration
	nameAddMACSuffix  bool
}

// Option configures an Application.
type Option interface {
	applyApp(*appOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyAppFunc func(*appOptions) error
}

func (o *optionImpl) applyApp(opts *appOptions) error {
	return o.applyAppFunc(opts)
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock sets the time source, clock.System by default.
func WithClock(c clock.Clock) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.clock = c
		return nil
	}}
}

// WithScheduler replaces the default scheduler.Scheduler.
func WithScheduler(s Scheduler) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.scheduler = s
		return nil
	}}
}

// WithWatchdog sets the watchdog fed by the main loop.
func WithWatchdog(w Watchdog) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.watchdog = w
		return nil
	}}
}

// WithLoopInterval sets the tick interval, 16ms by default.
func WithLoopInterval(d time.Duration) Option {
	return &optionImpl{func(opts *appOptions) error {
		if d <= 0 {
			return fmt.Errorf("%w: loop interval %v", ErrInvalidOption, d)
		}
		opts.loopInterval = d
		return nil
	}}
}

// WithBlockingThreshold sets how long a single component call may take
// before a warning is logged, 50ms by default.
func WithBlockingThreshold(d time.Duration) Option {
	return &optionImpl{func(opts *appOptions) error {
		if d <= 0 {
			return fmt.Errorf("%w: blocking threshold %v", ErrInvalidOption, d)
		}
		opts.blockingThreshold = d
		return nil
	}}
}

// WithBlockingWarnRates limits how often each component may log a blocking
// warning, using catrate sliding windows.
func WithBlockingWarnRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *appOptions) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: blocking warn rates: %v", ErrInvalidOption, r)
			}
		}()
		opts.blockingLimiter = catrate.NewLimiter(rates)
		return nil
	}}
}

// WithWatchdogFeedInterval sets the minimum time between watchdog feeds,
// 3ms by default. Zero feeds on every opportunity.
func WithWatchdogFeedInterval(d time.Duration) Option {
	return &optionImpl{func(opts *appOptions) error {
		if d < 0 {
			return fmt.Errorf("%w: watchdog feed interval %v", ErrInvalidOption, d)
		}
		opts.feedInterval = d
		return nil
	}}
}

// WithName sets the device name.
func WithName(name string) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.name = name
		return nil
	}}
}

// WithFriendlyName sets the human-readable device name.
func WithFriendlyName(name string) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.friendlyName = name
		return nil
	}}
}

// WithNameAddMACSuffix requests that network-visible names carry a suffix
// derived from the device address.
func WithNameAddMACSuffix(enabled bool) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.nameAddMACSuffix = enabled
		return nil
	}}
}

// WithVersion sets the version reported at the start of each config dump.
func WithVersion(version string) Option {
	return &optionImpl{func(opts *appOptions) error {
		opts.version = version
		return nil
	}}
}

// resolveOptions applies Option instances to appOptions.
func resolveOptions(opts []Option) (*appOptions, error) {
	cfg := &appOptions{
		name:              "firmloop",
		version:           "dev",
		loopInterval:      defaultLoopInterval,
		blockingThreshold: defaultBlockingThreshold,
		feedInterval:      defaultFeedInterval,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyApp(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = clock.System{}
	}
	if cfg.blockingLimiter == nil {
		cfg.blockingLimiter = catrate.NewLimiter(map[time.Duration]int{
			10 * time.Second: 1,
			5 * time.Minute:  10,
		})
	}
	return cfg, nil
}
