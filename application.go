package firmloop

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-firmloop/clock"
	"github.com/joeycumines/go-firmloop/component"
	"github.com/joeycumines/go-firmloop/scheduler"
	"github.com/joeycumines/logiface"
)

// Scheduler is the subset of scheduler.Scheduler the main loop depends on.
type Scheduler interface {
	// ProcessToAdd moves pending registrations into the active set.
	ProcessToAdd()
	// Call runs every callback due at the current time.
	Call()
	// NextScheduleIn reports the time until the earliest callback, if any.
	NextScheduleIn() (time.Duration, bool)
}

// Watchdog is fed by the main loop, see watchdog.Soft.
type Watchdog interface {
	Feed()
}

var _ Scheduler = (*scheduler.Scheduler)(nil)

// Application owns the registered components and runs them from a single
// goroutine. It must be constructed with New.
type Application struct {
	loopComponentStart time.Time
	lastLoop           time.Time
	lastFeed           time.Time
	clock              clock.Clock
	scheduler          Scheduler
	watchdog           Watchdog
	current            component.Component
	waiter             socketWaiter
	logger             *logiface.Logger[logiface.Event]
	blockingLimiter    *catrate.Limiter
	diagLimiter        *catrate.Limiter
	name               string
	friendlyName       string
	version            string
	components         []component.Component
	order              []component.Component
	looping            []component.Component
	registered         map[*component.Base]struct{}
	phase              phaseState
	loopInterval       time.Duration
	blockingThreshold  time.Duration
	feedInterval       time.Duration
	dumpAt             int
	highFrequency      atomic.Int32
	reboot             atomic.Uint32
	running            atomic.Bool
	appState           component.Status
	nameAddMACSuffix   bool
}

// New creates an Application. Options are applied in order, nil options are
// skipped.
func New(opts ...Option) (*Application, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	a := &Application{
		clock:             cfg.clock,
		scheduler:         cfg.scheduler,
		watchdog:          cfg.watchdog,
		logger:            cfg.logger,
		blockingLimiter:   cfg.blockingLimiter,
		name:              cfg.name,
		friendlyName:      cfg.friendlyName,
		version:           cfg.version,
		loopInterval:      cfg.loopInterval,
		blockingThreshold: cfg.blockingThreshold,
		feedInterval:      cfg.feedInterval,
		nameAddMACSuffix:  cfg.nameAddMACSuffix,
		registered:        make(map[*component.Base]struct{}),
		dumpAt:            -1,
		diagLimiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		}),
	}
	if a.scheduler == nil {
		a.scheduler = scheduler.New(a.clock, a.logger)
	}
	return a, nil
}

// RegisterComponent adds c to the application. Registration is only
// possible before Setup; nil and duplicate components are ignored with a
// warning. It returns c, for chaining.
func (a *Application) RegisterComponent(c component.Component) component.Component {
	if c == nil {
		a.logger.Warning().Log("ignoring nil component")
		return nil
	}
	if p := a.phase.load(); p != PhaseConstructed {
		a.logger.Err().
			Str("component", component.Source(c)).
			Stringer("phase", p).
			Log("cannot register component after setup has started")
		return c
	}
	b := c.ComponentBase()
	if _, ok := a.registered[b]; ok {
		a.logger.Warning().
			Str("component", component.Source(c)).
			Log("component already registered")
		return c
	}
	a.registered[b] = struct{}{}
	a.components = append(a.components, c)
	return c
}

// FeedWatchdog feeds the watchdog, unless it was fed within the feed
// interval of now.
func (a *Application) FeedWatchdog(now time.Time) {
	if a.watchdog == nil {
		return
	}
	if a.feedInterval > 0 && !a.lastFeed.IsZero() && now.Sub(a.lastFeed) <= a.feedInterval {
		return
	}
	a.lastFeed = now
	a.watchdog.Feed()
}

// Phase returns the current lifecycle phase. It is safe for concurrent use.
func (a *Application) Phase() Phase { return a.phase.load() }

// AppState is the union of every component status flag observed during the
// last loop iteration or bring-up retry cycle. A retry cycle always includes
// component.StatusWarning.
func (a *Application) AppState() component.Status { return a.appState }

// LoopComponentStartTime is when the component currently being called began.
func (a *Application) LoopComponentStartTime() time.Time { return a.loopComponentStart }

// LastLoopStart returns when the most recent loop iteration began, or when
// setup completed if no iteration has run.
func (a *Application) LastLoopStart() time.Time { return a.lastLoop }

// CurrentComponent returns the component being called, or nil.
func (a *Application) CurrentComponent() component.Component { return a.current }

// Components returns the registered components, in registration order.
func (a *Application) Components() []component.Component { return slices.Clone(a.components) }

// Name returns the device name.
func (a *Application) Name() string { return a.name }

// FriendlyName returns the human-readable device name, which may be empty.
func (a *Application) FriendlyName() string { return a.friendlyName }

// NameAddMACSuffix reports whether network-visible names should carry an
// address suffix.
func (a *Application) NameAddMACSuffix() bool { return a.nameAddMACSuffix }

// Version returns the configured version string.
func (a *Application) Version() string { return a.version }

// Logger returns the application logger, which may be nil.
func (a *Application) Logger() *logiface.Logger[logiface.Event] { return a.logger }

// Scheduler returns the scheduler driven by the main loop.
func (a *Application) Scheduler() Scheduler { return a.scheduler }

// Clock returns the application time source.
func (a *Application) Clock() clock.Clock { return a.clock }

// LoopInterval returns the tick interval.
func (a *Application) LoopInterval() time.Duration { return a.loopInterval }
