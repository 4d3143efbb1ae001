package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
	"github.com/namezys/hass-home-script/metric"
	"github.com/namezys/hass-home-script/script"
)

// Registration is one routing triple: when the event matches a notification,
// the action runs in the script's execution context.
type Registration struct {
	Event  event.StateEvent
	Script *script.Script
	Action action.Action
}

// Manager routes entity state changes to registered actions.
//
// Registrations are indexed by entity id. HandleStateChange reads the index
// without locking; all Add calls must complete before the first notification
// is delivered.
type Manager struct {
	logger   *slog.Logger
	metrics  *Metrics
	triggers map[string][]Registration
	count    int
}

// NewManager creates an empty dispatch manager. A nil registry disables
// metrics.
func NewManager(registry *metric.Registry) *Manager {
	return &Manager{
		logger:   slog.Default().With("component", "dispatch"),
		metrics:  newMetrics(registry),
		triggers: make(map[string][]Registration),
	}
}

// Add registers a routing triple. Registration order is preserved per entity
// and determines action launch order on a match.
func (m *Manager) Add(ev event.StateEvent, sc *script.Script, act action.Action) error {
	reg := Registration{Event: ev, Script: sc, Action: act}
	if err := validateRegistration(reg); err != nil {
		return err
	}
	m.install(reg)
	return nil
}

// AddAll registers the triples as one unit: every triple is validated before
// any is installed, so a bad triple leaves the index untouched.
func (m *Manager) AddAll(regs []Registration) error {
	for _, reg := range regs {
		if err := validateRegistration(reg); err != nil {
			return err
		}
	}
	for _, reg := range regs {
		m.install(reg)
	}
	return nil
}

func validateRegistration(reg Registration) error {
	if reg.Event.EntityID() == "" {
		return errors.Invalid(errors.ErrConditionIncompatible, "event without entity id: %s", reg.Event)
	}
	if reg.Script == nil {
		return errors.Invalid(errors.ErrConditionIncompatible, "missing script for %s", reg.Event)
	}
	return nil
}

func (m *Manager) install(reg Registration) {
	m.triggers[reg.Event.EntityID()] = append(m.triggers[reg.Event.EntityID()], reg)
	m.count++
	if m.metrics != nil {
		m.metrics.registrations.Set(float64(m.count))
	}
	m.logger.Debug("add registration",
		"event", reg.Event.String(), "script", reg.Script.Name(), "action", reg.Action.String())
}

// Registrations returns the number of registered triples.
func (m *Manager) Registrations() int {
	return m.count
}

// planEntry groups the matched actions of one script, in registration order.
type planEntry struct {
	script  *script.Script
	actions []action.Action
}

// HandleStateChange delivers one notification. Matching registrations are
// grouped by script; each involved script has its in-flight tasks cancelled
// once, then its matched actions launched in registration order.
func (m *Manager) HandleStateChange(ctx context.Context, change entity.StateChange) {
	started := time.Now()
	if m.metrics != nil {
		m.metrics.notificationsTotal.Inc()
	}

	regs := m.triggers[change.EntityID]
	if len(regs) == 0 {
		return
	}
	m.logger.Debug("handle state change", "change", change.String(), "registrations", len(regs))

	var plan []planEntry
	index := make(map[*script.Script]int)
	for _, reg := range regs {
		matched, err := reg.Event.Match(change)
		if err != nil {
			m.logger.Error("condition evaluation failed, skip registration",
				"event", reg.Event.String(), "script", reg.Script.Name(), "error", err)
			if m.metrics != nil {
				m.metrics.evalErrorsTotal.Inc()
			}
			continue
		}
		if !matched {
			continue
		}
		if m.metrics != nil {
			m.metrics.matchesTotal.WithLabelValues(reg.Script.Name()).Inc()
		}
		pos, ok := index[reg.Script]
		if !ok {
			pos = len(plan)
			index[reg.Script] = pos
			plan = append(plan, planEntry{script: reg.Script})
		}
		plan[pos].actions = append(plan[pos].actions, reg.Action)
	}

	for _, entry := range plan {
		if m.metrics != nil {
			m.metrics.preemptionsTotal.WithLabelValues(entry.script.Name()).Inc()
		}
		entry.script.CancelAll()
		for _, act := range entry.actions {
			entry.script.RunAction(ctx, act)
		}
	}

	if m.metrics != nil {
		m.metrics.matchDuration.Observe(time.Since(started).Seconds())
	}
}
