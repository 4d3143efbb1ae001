package event

import (
	"fmt"
	"strings"

	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
)

// ArgEvent is the fixed argument name a bus-event condition is evaluated with.
const ArgEvent = "event"

// BusArgs is the argument set of bus-event conditions.
var BusArgs = condition.NewArgSet(ArgEvent)

// BusEvent describes a generic host bus event identified by type, optionally
// narrowed by a condition over the single event argument.
type BusEvent struct {
	eventType string
	cond      condition.Condition
}

// OnBus creates an unconditioned bus event of the given type.
func OnBus(eventType string) BusEvent {
	return BusEvent{eventType: eventType}
}

// Type returns the event type string.
func (e BusEvent) Type() string {
	return e.eventType
}

// Condition returns the attached condition; ok is false when the event is
// unconditioned.
func (e BusEvent) Condition() (cond condition.Condition, ok bool) {
	return e.cond, !e.cond.IsZero()
}

func (e BusEvent) String() string {
	result := fmt.Sprintf("bus event %s", e.eventType)
	if !e.cond.IsZero() {
		return fmt.Sprintf("%s with filter %s", result, e.cond)
	}
	return result
}

// Filter attaches a condition, conjoining it with any existing one. The
// condition must be unconstrained or declare exactly the event argument.
func (e BusEvent) Filter(cond condition.Condition) (BusEvent, error) {
	if cond.IsZero() {
		return BusEvent{}, errors.Invalid(errors.ErrConditionIncompatible, "absent condition on %s", e)
	}
	if !cond.Compatible(BusArgs) {
		return BusEvent{}, errors.Invalid(errors.ErrConditionIncompatible,
			"%s is not compatible with bus event argument %s",
			cond, strings.Join(BusArgs.Names(), ", "))
	}
	if e.cond.IsZero() {
		e.cond = cond
		return e, nil
	}
	combined, err := e.cond.And(cond)
	if err != nil {
		return BusEvent{}, err
	}
	e.cond = combined
	return e, nil
}

// Match evaluates the event's condition against one bus event payload. An
// unconditioned event always matches.
func (e BusEvent) Match(payload any) (bool, error) {
	if e.cond.IsZero() {
		return true, nil
	}
	return e.cond.Evaluate(condition.Args{ArgEvent: payload})
}

// BusCondition builds a condition over the fixed event argument from a typed
// predicate.
func BusCondition(name string, fn func(payload any) (bool, error)) condition.Condition {
	return condition.New(name, BusArgs, func(args condition.Args) (bool, error) {
		return fn(args[ArgEvent])
	})
}
