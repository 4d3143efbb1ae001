package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/namezys/hass-home-script/bus"
	"github.com/namezys/hass-home-script/dispatch"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/metric"
	"github.com/namezys/hass-home-script/schema"
	"github.com/namezys/hass-home-script/script"
)

// Options configures a new engine.
type Options struct {
	// Bus is the source of state-change notifications. Required.
	Bus bus.Bus
	// Registry resolves effectors for rule actions. Optional; rules that
	// never look up effectors run without one.
	Registry entity.Registry
	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metric.Registry
}

// Engine owns the scripts and the dispatch table of one rule set.
//
// Usage is two-phase: Register every script's schema first, then Start.
// Registration after Start is rejected; the dispatch table is read without
// locking once notifications flow.
type Engine struct {
	logger   *slog.Logger
	eventBus bus.Bus
	registry entity.Registry
	scripts  *script.Manager
	dispatch *dispatch.Manager

	started     bool
	stopped     bool
	unsubscribe func()
}

// New creates an engine with no registered rules.
func New(opts Options) (*Engine, error) {
	if opts.Bus == nil {
		return nil, errors.Invalid(errors.ErrMissingConfig, "engine requires a bus")
	}
	return &Engine{
		logger:   slog.Default().With("component", "engine"),
		eventBus: opts.Bus,
		registry: opts.Registry,
		scripts:  script.NewManager(),
		dispatch: dispatch.NewManager(opts.Metrics),
	}, nil
}

// Registry returns the effector registry, or nil when none was configured.
func (e *Engine) Registry() entity.Registry {
	return e.registry
}

// Script returns the named script context, creating it on first use. Tests
// and embedding hosts use it to observe task state.
func (e *Engine) Script(name string) *script.Script {
	return e.scripts.Get(name)
}

// Register normalizes the schema and installs its entries under the named
// script. Any invalid rule rejects the whole schema; a partially installed
// script never exists.
func (e *Engine) Register(scriptName string, s schema.Schema) error {
	if scriptName == "" {
		return errors.Invalid(errors.ErrInvalidConfig, "script name is required")
	}
	if e.started {
		return errors.Invalid(errors.ErrAlreadyStarted, "cannot register %s after start", scriptName)
	}

	entries, err := schema.Normalize(s)
	if err != nil {
		return errors.WrapInvalid(err, "engine", "Register", "schema normalization failed")
	}

	sc := e.scripts.Get(scriptName)
	regs := make([]dispatch.Registration, 0, len(entries))
	for _, entry := range entries {
		for _, act := range entry.Actions {
			regs = append(regs, dispatch.Registration{Event: entry.Event, Script: sc, Action: act})
		}
	}
	// All entries commit together; a bad one installs nothing.
	if err := e.dispatch.AddAll(regs); err != nil {
		return errors.WrapInvalid(err, "engine", "Register", "registration failed")
	}
	e.logger.Info("registered script", "script", scriptName, "entries", len(entries))
	return nil
}

// Start subscribes to the bus and begins dispatching notifications. A
// stopped engine cannot be restarted: its scripts are drained for good, so a
// new rule set needs a new engine.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return errors.Invalid(errors.ErrAlreadyStarted, "engine is already started")
	}
	if e.stopped {
		return errors.Invalid(errors.ErrAlreadyStopped, "engine is stopped and cannot be restarted")
	}

	unsubscribe, err := e.eventBus.Subscribe(ctx, func(ctx context.Context, change entity.StateChange) {
		e.dispatch.HandleStateChange(ctx, change)
	})
	if err != nil {
		return errors.WrapTransient(err, "engine", "Start", "bus subscription failed")
	}
	e.unsubscribe = unsubscribe
	e.started = true
	e.logger.Info("engine started", "registrations", e.dispatch.Registrations(), "scripts", len(e.scripts.Names()))
	return nil
}

// Stop unsubscribes from the bus, stops every script and waits up to the
// timeout for in-flight tasks to drain. It reports a fatal error when tasks
// are still running after the timeout.
func (e *Engine) Stop(timeout time.Duration) error {
	if !e.started {
		return errors.Invalid(errors.ErrNotStarted, "engine is not started")
	}
	e.started = false
	e.stopped = true

	e.unsubscribe()
	e.unsubscribe = nil

	e.scripts.StopAll()
	if !e.scripts.Wait(timeout) {
		return errors.Fatal("engine", "Stop", "tasks still running after shutdown timeout")
	}
	e.logger.Info("engine stopped")
	return nil
}
