package statemachine

import (
	"log/slog"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
)

// State is one declarative situation of the home. Exactly one of ActivatedBy,
// AffectedBy or DependOn describes how the situation is detected:
//
//   - ActivatedBy: the listed events activate the state directly.
//   - AffectedBy: the listed events activate the state when Condition holds.
//   - DependOn: the state activates when a base state activates while the
//     other states of the same alternative hold. Each alternative is one
//     base-state set.
//
// SideEffects are the actions launched on activation; states without side
// effects exist only as bases for other states.
type State struct {
	Name        string
	Condition   condition.Condition
	SideEffects []action.Action
	ActivatedBy []event.StateEvent
	AffectedBy  []event.StateEvent
	DependOn    [][]*State
}

func (s *State) String() string {
	return "#" + s.Name + "#"
}

// Manager collects the states of one rule set in registration order.
type Manager struct {
	logger *slog.Logger
	states []*State
	known  map[*State]struct{}
}

// NewManager creates an empty state manager.
func NewManager() *Manager {
	return &Manager{
		logger: slog.Default().With("component", "statemachine"),
		known:  make(map[*State]struct{}),
	}
}

// Add registers a state. A state activated directly by events cannot also be
// affected by events; the two describe incompatible activation semantics.
func (m *Manager) Add(s *State) error {
	if s == nil {
		return errors.Invalid(errors.ErrInvalidConfig, "state is nil")
	}
	if s.Name == "" {
		return errors.Invalid(errors.ErrInvalidConfig, "state without a name")
	}
	if _, ok := m.known[s]; ok {
		return errors.Invalid(errors.ErrInvalidConfig, "state %s is already registered", s)
	}
	if len(s.ActivatedBy) > 0 && len(s.AffectedBy) > 0 {
		return errors.Invalid(errors.ErrInvalidConfig,
			"state %s is both activated by and affected by events", s)
	}
	if len(s.AffectedBy) > 0 && s.Condition.IsZero() {
		return errors.Invalid(errors.ErrInvalidConfig,
			"state %s is affected by events but has no condition", s)
	}
	for _, alternative := range s.DependOn {
		if len(alternative) == 0 {
			return errors.Invalid(errors.ErrInvalidConfig, "state %s has an empty base set", s)
		}
	}

	m.logger.Debug("add state", "state", s.Name)
	m.states = append(m.states, s)
	m.known[s] = struct{}{}
	return nil
}

// Not derives and registers the negation of a state. Only states without
// side effects can be negated; the negation shares the original's events and
// bases with the condition inverted.
func (m *Manager) Not(s *State) (*State, error) {
	if len(s.SideEffects) > 0 {
		return nil, errors.Invalid(errors.ErrInvalidConfig,
			"state %s has side effects and cannot be negated", s)
	}
	if s.Condition.IsZero() {
		return nil, errors.Invalid(errors.ErrInvalidConfig,
			"state %s has no condition to negate", s)
	}
	inverted := &State{
		Name:        "NOT " + s.Name,
		Condition:   s.Condition.Not(),
		ActivatedBy: s.ActivatedBy,
		AffectedBy:  s.AffectedBy,
		DependOn:    s.DependOn,
	}
	if err := m.Add(inverted); err != nil {
		return nil, err
	}
	return inverted, nil
}

// States returns the registered states in registration order.
func (m *Manager) States() []*State {
	return append([]*State(nil), m.states...)
}
