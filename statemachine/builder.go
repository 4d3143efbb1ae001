package statemachine

import (
	"log/slog"
	"strings"

	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
	"github.com/namezys/hass-home-script/schema"
)

// Builder resolves the state dependency graph into per-state event lists and
// renders them as a rule schema.
type Builder struct {
	logger  *slog.Logger
	manager *Manager

	events   map[*State][]event.StateEvent
	resolved bool
}

// NewBuilder creates a builder over the manager's current states.
func NewBuilder(manager *Manager) *Builder {
	return &Builder{
		logger:  slog.Default().With("component", "statemachine-builder"),
		manager: manager,
		events:  make(map[*State][]event.StateEvent),
	}
}

// Resolve computes the triggering events of every state. States are resolved
// in passes; a pass that resolves nothing while states remain means the
// dependency graph has a cycle or references an unregistered base state.
func (b *Builder) Resolve() error {
	if b.resolved {
		return nil
	}

	pending := b.manager.States()
	remainingBases := make(map[*State][][]*State)
	for _, s := range pending {
		if len(s.DependOn) > 0 {
			bases := make([][]*State, len(s.DependOn))
			copy(bases, s.DependOn)
			remainingBases[s] = bases
		}
	}

	for len(pending) > 0 {
		progress := false
		next := pending[:0]
		for _, s := range pending {
			done, err := b.tryResolve(s, remainingBases)
			if err != nil {
				return err
			}
			if done {
				progress = true
				continue
			}
			next = append(next, s)
		}
		pending = next
		if !progress {
			names := make([]string, 0, len(pending))
			for _, s := range pending {
				names = append(names, s.Name)
			}
			return errors.Invalid(errors.ErrInvalidConfig,
				"cannot resolve states %s: dependency cycle or unregistered base",
				strings.Join(names, ", "))
		}
	}

	b.resolved = true
	return nil
}

// tryResolve attempts one state. Direct activation wins over condition-gated
// events, which win over base-state dependencies.
func (b *Builder) tryResolve(s *State, remainingBases map[*State][][]*State) (bool, error) {
	if len(s.ActivatedBy) > 0 {
		b.logger.Debug("state is activated by events", "state", s.Name, "events", len(s.ActivatedBy))
		b.events[s] = append(b.events[s], s.ActivatedBy...)
		return true, nil
	}

	if len(s.AffectedBy) > 0 {
		for _, ev := range s.AffectedBy {
			gated, err := ev.Filter(s.Condition)
			if err != nil {
				return false, errors.WrapInvalid(err, "statemachine", "Resolve",
					"gate event of state "+s.Name)
			}
			b.logger.Debug("state is gated by condition", "state", s.Name, "event", gated.String())
			b.events[s] = append(b.events[s], gated)
		}
		return true, nil
	}

	bases, ok := remainingBases[s]
	if !ok {
		// Standalone state, nothing triggers it.
		return true, nil
	}
	next := bases[:0]
	for _, alternative := range bases {
		done, err := b.tryBaseStates(s, alternative)
		if err != nil {
			return false, err
		}
		if !done {
			next = append(next, alternative)
		}
	}
	if len(next) > 0 {
		remainingBases[s] = next
		return false, nil
	}
	delete(remainingBases, s)
	return true, nil
}

// tryBaseStates expands one base-state alternative: every base state must
// already have its events; each of those events is gated by the conjunction
// of the other base states' conditions.
func (b *Builder) tryBaseStates(s *State, baseStates []*State) (bool, error) {
	for _, base := range baseStates {
		if _, ok := b.events[base]; !ok {
			return false, nil
		}
	}

	for idx, base := range baseStates {
		var gate condition.Condition
		for otherIdx, other := range baseStates {
			if otherIdx == idx || other.Condition.IsZero() {
				continue
			}
			if gate.IsZero() {
				gate = other.Condition
				continue
			}
			combined, err := gate.And(other.Condition)
			if err != nil {
				return false, errors.WrapInvalid(err, "statemachine", "Resolve",
					"combine base conditions of state "+s.Name)
			}
			gate = combined
		}

		for _, ev := range b.events[base] {
			final := ev
			if !gate.IsZero() {
				gated, err := ev.Filter(gate)
				if err != nil {
					return false, errors.WrapInvalid(err, "statemachine", "Resolve",
						"gate base event of state "+s.Name)
				}
				final = gated
			}
			b.logger.Debug("state inherits event from base",
				"state", s.Name, "base", base.Name, "event", final.String())
			b.events[s] = append(b.events[s], final)
		}
	}
	return true, nil
}

// Events returns the resolved triggering events of a state.
func (b *Builder) Events(s *State) []event.StateEvent {
	return append([]event.StateEvent(nil), b.events[s]...)
}

// EventSchema resolves the graph and renders the states with side effects as
// a rule schema. With a filter given, only the listed states contribute.
func (b *Builder) EventSchema(filter ...*State) (schema.Schema, error) {
	if err := b.Resolve(); err != nil {
		return nil, err
	}

	var wanted map[*State]struct{}
	if len(filter) > 0 {
		wanted = make(map[*State]struct{}, len(filter))
		for _, s := range filter {
			wanted[s] = struct{}{}
		}
	}

	var result schema.Schema
	for _, s := range b.manager.States() {
		if wanted != nil {
			if _, ok := wanted[s]; !ok {
				continue
			}
		}
		if len(s.SideEffects) == 0 {
			continue
		}
		for _, ev := range b.events[s] {
			result = append(result, schema.Rule{On: ev, Do: schema.Act(s.SideEffects...)})
		}
	}
	return result, nil
}
