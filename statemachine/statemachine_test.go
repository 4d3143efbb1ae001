package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
	"github.com/namezys/hass-home-script/schema"
)

func noopAction(name string) action.Action {
	return action.New(action.NewFunc(name, nil, func([]any) error { return nil }))
}

func motionOn(t *testing.T) event.StateEvent {
	t.Helper()
	ev, err := event.StateChange("binary_sensor.motion").New("on")
	require.NoError(t, err)
	return ev
}

func TestManagerAddValidation(t *testing.T) {
	manager := NewManager()

	assert.ErrorIs(t, manager.Add(nil), errors.ErrInvalidConfig)
	assert.ErrorIs(t, manager.Add(&State{}), errors.ErrInvalidConfig)

	both := &State{
		Name:        "both",
		Condition:   condition.NewFunc("dark", func() bool { return true }),
		ActivatedBy: []event.StateEvent{motionOn(t)},
		AffectedBy:  []event.StateEvent{event.StateChange("sun.sun")},
	}
	assert.ErrorIs(t, manager.Add(both), errors.ErrInvalidConfig)

	gatedWithoutCondition := &State{
		Name:       "gated",
		AffectedBy: []event.StateEvent{event.StateChange("sun.sun")},
	}
	assert.ErrorIs(t, manager.Add(gatedWithoutCondition), errors.ErrInvalidConfig)

	duplicate := &State{Name: "once", ActivatedBy: []event.StateEvent{motionOn(t)}}
	require.NoError(t, manager.Add(duplicate))
	assert.ErrorIs(t, manager.Add(duplicate), errors.ErrInvalidConfig)
}

func TestManagerNot(t *testing.T) {
	manager := NewManager()

	dark := &State{
		Name:       "dark",
		Condition:  condition.NewFunc("dark", func() bool { return true }),
		AffectedBy: []event.StateEvent{event.StateChange("sun.sun")},
	}
	require.NoError(t, manager.Add(dark))

	light, err := manager.Not(dark)
	require.NoError(t, err)
	assert.Equal(t, "NOT dark", light.Name)
	assert.True(t, light.Condition.Inverted())
	assert.Len(t, manager.States(), 2)

	withEffects := &State{
		Name:        "acts",
		ActivatedBy: []event.StateEvent{motionOn(t)},
		SideEffects: []action.Action{noopAction("noop")},
	}
	require.NoError(t, manager.Add(withEffects))
	_, err = manager.Not(withEffects)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestBuilderResolvesDependencies(t *testing.T) {
	manager := NewManager()

	isDark := true
	darkCond := condition.NewFunc("dark", func() bool { return isDark })

	occupied := &State{Name: "occupied", ActivatedBy: []event.StateEvent{motionOn(t)}}
	dark := &State{
		Name:       "dark",
		Condition:  darkCond,
		AffectedBy: []event.StateEvent{event.StateChange("sun.sun")},
	}
	lightOn := &State{
		Name:        "light on",
		SideEffects: []action.Action{noopAction("turn_on")},
		DependOn:    [][]*State{{occupied, dark}},
	}
	// Registration order does not matter; the builder iterates to a fixpoint.
	require.NoError(t, manager.Add(lightOn))
	require.NoError(t, manager.Add(occupied))
	require.NoError(t, manager.Add(dark))

	builder := NewBuilder(manager)
	require.NoError(t, builder.Resolve())

	assert.Len(t, builder.Events(occupied), 1)
	assert.Len(t, builder.Events(dark), 1)

	// One event inherited from each base state.
	events := builder.Events(lightOn)
	require.Len(t, events, 2)

	// The motion event is gated by the darkness condition of the other base.
	motion := events[0]
	assert.Equal(t, "binary_sensor.motion", motion.EntityID())
	matched, err := motion.Match(entity.StateChange{
		EntityID: "binary_sensor.motion",
		Old:      entity.State{Value: "off"},
		New:      entity.State{Value: "on"},
	})
	require.NoError(t, err)
	assert.True(t, matched)

	isDark = false
	matched, err = motion.Match(entity.StateChange{
		EntityID: "binary_sensor.motion",
		Old:      entity.State{Value: "off"},
		New:      entity.State{Value: "on"},
	})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestBuilderEventSchema(t *testing.T) {
	manager := NewManager()

	occupied := &State{Name: "occupied", ActivatedBy: []event.StateEvent{motionOn(t)}}
	greet := &State{
		Name:        "greet",
		SideEffects: []action.Action{noopAction("greet")},
		DependOn:    [][]*State{{occupied}},
	}
	require.NoError(t, manager.Add(occupied))
	require.NoError(t, manager.Add(greet))

	builder := NewBuilder(manager)
	s, err := builder.EventSchema()
	require.NoError(t, err)
	require.Len(t, s, 1)

	entries, err := schema.Normalize(s)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "binary_sensor.motion", entries[0].Event.EntityID())
	assert.Len(t, entries[0].Actions, 1)
}

func TestBuilderEventSchemaFilter(t *testing.T) {
	manager := NewManager()

	occupied := &State{Name: "occupied", ActivatedBy: []event.StateEvent{motionOn(t)}}
	wanted := &State{
		Name:        "wanted",
		SideEffects: []action.Action{noopAction("wanted")},
		DependOn:    [][]*State{{occupied}},
	}
	ignored := &State{
		Name:        "ignored",
		SideEffects: []action.Action{noopAction("ignored")},
		DependOn:    [][]*State{{occupied}},
	}
	require.NoError(t, manager.Add(occupied))
	require.NoError(t, manager.Add(wanted))
	require.NoError(t, manager.Add(ignored))

	builder := NewBuilder(manager)
	s, err := builder.EventSchema(wanted)
	require.NoError(t, err)
	require.Len(t, s, 1)
	actions, ok := s[0].Do.(schema.Actions)
	require.True(t, ok)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].String(), "wanted")
}

func TestBuilderDetectsCycle(t *testing.T) {
	manager := NewManager()

	first := &State{Name: "first"}
	second := &State{Name: "second"}
	first.DependOn = [][]*State{{second}}
	second.DependOn = [][]*State{{first}}
	require.NoError(t, manager.Add(first))
	require.NoError(t, manager.Add(second))

	builder := NewBuilder(manager)
	err := builder.Resolve()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "first")
}

func TestBuilderAlternativeBases(t *testing.T) {
	manager := NewManager()

	motion := &State{Name: "motion", ActivatedBy: []event.StateEvent{motionOn(t)}}
	doorEvent, err := event.StateChange("binary_sensor.door").New("on")
	require.NoError(t, err)
	door := &State{Name: "door", ActivatedBy: []event.StateEvent{doorEvent}}
	presence := &State{
		Name:        "presence",
		SideEffects: []action.Action{noopAction("announce")},
		DependOn:    [][]*State{{motion}, {door}},
	}
	require.NoError(t, manager.Add(motion))
	require.NoError(t, manager.Add(door))
	require.NoError(t, manager.Add(presence))

	builder := NewBuilder(manager)
	require.NoError(t, builder.Resolve())

	events := builder.Events(presence)
	require.Len(t, events, 2)
	assert.Equal(t, "binary_sensor.motion", events[0].EntityID())
	assert.Equal(t, "binary_sensor.door", events[1].EntityID())
}
