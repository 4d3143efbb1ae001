package event

import (
	"fmt"
	"sort"
	"strings"

	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
)

// Fixed argument names a state-event condition is evaluated with.
const (
	ArgEntityID = "entity_id"
	ArgOldState = "old"
	ArgNewState = "new"
)

// StateArgs is the argument set of state-event conditions.
var StateArgs = condition.NewArgSet(ArgEntityID, ArgOldState, ArgNewState)

// StateEvent describes a state change of one entity, optionally narrowed by
// a condition over the fixed state arguments. The value is immutable; Filter
// returns new events.
type StateEvent struct {
	entityID string
	cond     condition.Condition
}

// StateChange creates an unconditioned state event for the entity.
func StateChange(entityID string) StateEvent {
	return StateEvent{entityID: entityID}
}

// EntityID returns the target entity identifier.
func (e StateEvent) EntityID() string {
	return e.entityID
}

// Condition returns the attached condition; ok is false when the event is
// unconditioned.
func (e StateEvent) Condition() (cond condition.Condition, ok bool) {
	return e.cond, !e.cond.IsZero()
}

// Key identifies the event for normalization: entity plus condition identity.
func (e StateEvent) Key() string {
	if e.cond.IsZero() {
		return e.entityID
	}
	return e.entityID + "/" + e.cond.ID()
}

func (e StateEvent) String() string {
	result := fmt.Sprintf("state event of %s", e.entityID)
	if !e.cond.IsZero() {
		return fmt.Sprintf("%s with %s", result, e.cond)
	}
	return result
}

// Filter attaches a condition, conjoining it with any existing one. The
// condition must be unconstrained or declare exactly the state arguments.
func (e StateEvent) Filter(cond condition.Condition) (StateEvent, error) {
	if cond.IsZero() {
		return StateEvent{}, errors.Invalid(errors.ErrConditionIncompatible, "absent condition on %s", e)
	}
	if !cond.Compatible(StateArgs) {
		return StateEvent{}, errors.Invalid(errors.ErrConditionIncompatible,
			"%s is not compatible with state event arguments %s",
			cond, strings.Join(StateArgs.Names(), ", "))
	}
	if e.cond.IsZero() {
		e.cond = cond
		return e, nil
	}
	combined, err := e.cond.And(cond)
	if err != nil {
		return StateEvent{}, err
	}
	e.cond = combined
	return e, nil
}

// Old narrows the event to transitions whose old state is in the given set.
func (e StateEvent) Old(state string, more ...string) (StateEvent, error) {
	return e.Filter(stateSetCondition("old_states", ArgOldState, state, more))
}

// New narrows the event to transitions whose new state is in the given set.
func (e StateEvent) New(state string, more ...string) (StateEvent, error) {
	return e.Filter(stateSetCondition("new_states", ArgNewState, state, more))
}

// Match evaluates the event against one notification. An unconditioned event
// always matches.
func (e StateEvent) Match(change entity.StateChange) (bool, error) {
	if e.cond.IsZero() {
		return true, nil
	}
	return e.cond.Evaluate(condition.Args{
		ArgEntityID: change.EntityID,
		ArgOldState: change.Old,
		ArgNewState: change.New,
	})
}

// StateCondition builds a condition over the fixed state arguments from a
// typed predicate.
func StateCondition(name string, fn func(entityID string, old, newState entity.State) (bool, error)) condition.Condition {
	return condition.New(name, StateArgs, func(args condition.Args) (bool, error) {
		entityID, _ := args[ArgEntityID].(string)
		old, _ := args[ArgOldState].(entity.State)
		newState, _ := args[ArgNewState].(entity.State)
		return fn(entityID, old, newState)
	})
}

func stateSetCondition(kind, arg, state string, more []string) condition.Condition {
	states := make(map[string]struct{}, len(more)+1)
	states[state] = struct{}{}
	for _, item := range more {
		states[item] = struct{}{}
	}
	names := make([]string, 0, len(states))
	for item := range states {
		names = append(names, item)
	}
	sort.Strings(names)
	name := fmt.Sprintf("%s[%s]", kind, strings.Join(names, ", "))

	return condition.New(name, StateArgs, func(args condition.Args) (bool, error) {
		value, _ := args[arg].(entity.State)
		_, ok := states[value.Value]
		return ok, nil
	})
}
