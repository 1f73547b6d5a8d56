package firmloop

// HighFrequencyRequester asks the main loop to skip its wait while started.
// Requesters are counted, so the loop runs at full speed while any of them
// is started. Start and Stop are safe for concurrent use with the loop, but
// a single requester must not be started and stopped concurrently.
type HighFrequencyRequester struct {
	app     *Application
	started bool
}

// NewHighFrequencyRequester returns a stopped requester bound to a.
func (a *Application) NewHighFrequencyRequester() *HighFrequencyRequester {
	return &HighFrequencyRequester{app: a}
}

// Start requests a high frequency loop. Repeated calls have no effect.
func (r *HighFrequencyRequester) Start() {
	if r.started {
		return
	}
	r.started = true
	r.app.highFrequency.Add(1)
}

// Stop withdraws the request. Repeated calls have no effect.
func (r *HighFrequencyRequester) Stop() {
	if !r.started {
		return
	}
	r.started = false
	r.app.highFrequency.Add(-1)
}

// Started reports whether the request is active.
func (r *HighFrequencyRequester) Started() bool { return r.started }

// HighFrequency reports whether any requester is started.
func (a *Application) HighFrequency() bool { return a.highFrequency.Load() > 0 }
