package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
)

func noopAction(name string) action.Action {
	return action.New(action.NewFunc(name, nil, func([]any) error { return nil }))
}

func change(entityID, old, new string) entity.StateChange {
	return entity.StateChange{
		EntityID: entityID,
		Old:      entity.State{Value: old},
		New:      entity.State{Value: new},
	}
}

func TestNormalize_PlainActionList(t *testing.T) {
	turnOn := noopAction("turn_on")
	turnOff := noopAction("turn_off")

	entries, err := Normalize(Schema{
		{On: event.StateChange("switch.hall"), Do: Act(turnOn, turnOff)},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "switch.hall", entries[0].Event.EntityID())
	assert.Len(t, entries[0].Actions, 2)

	ok, err := entries[0].Event.Match(change("switch.hall", "off", "on"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNormalize_NestedConditionsConjoin(t *testing.T) {
	dark := false
	home := false
	isDark := condition.NewFunc("dark", func() bool { return dark })
	isHome := condition.NewFunc("home", func() bool { return home })
	act := noopAction("turn_on")

	entries, err := Normalize(Schema{
		{
			On: event.StateChange("sensor.motion"),
			Do: Branches{
				{When: isDark, Then: Branches{
					{When: isHome, Then: Act(act)},
				}},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Both conditions must hold for the event to match.
	motion := change("sensor.motion", "off", "on")
	ok, err := entries[0].Event.Match(motion)
	require.NoError(t, err)
	assert.False(t, ok)

	dark = true
	ok, err = entries[0].Event.Match(motion)
	require.NoError(t, err)
	assert.False(t, ok)

	home = true
	ok, err = entries[0].Event.Match(motion)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNormalize_FlatteningLaw(t *testing.T) {
	// {cond1: {cond2: action}} is equivalent to {cond1 AND cond2: action}.
	dark := true
	home := false
	isDark := condition.NewFunc("dark", func() bool { return dark })
	isHome := condition.NewFunc("home", func() bool { return home })
	act := noopAction("turn_on")

	nested, err := Normalize(Schema{
		{On: event.StateChange("sensor.motion"), Do: Branches{
			{When: isDark, Then: Branches{{When: isHome, Then: Act(act)}}},
		}},
	})
	require.NoError(t, err)

	combined, err := isDark.And(isHome)
	require.NoError(t, err)
	flat, err := Normalize(Schema{
		{On: event.StateChange("sensor.motion"), Do: Branches{
			{When: combined, Then: Act(act)},
		}},
	})
	require.NoError(t, err)

	require.Len(t, nested, 1)
	require.Len(t, flat, 1)
	assert.Len(t, nested[0].Actions, 1)
	assert.Len(t, flat[0].Actions, 1)

	motion := change("sensor.motion", "off", "on")
	for _, c := range []struct{ dark, home, expected bool }{
		{false, false, false}, {true, false, false}, {false, true, false}, {true, true, true},
	} {
		dark, home = c.dark, c.home
		nestedOk, err := nested[0].Event.Match(motion)
		require.NoError(t, err)
		flatOk, err := flat[0].Event.Match(motion)
		require.NoError(t, err)
		assert.Equal(t, c.expected, nestedOk)
		assert.Equal(t, nestedOk, flatOk)
	}
}

func TestNormalize_MergesIdenticalPaths(t *testing.T) {
	cond := condition.NewFunc("same", func() bool { return true })
	first := noopAction("first")
	second := noopAction("second")

	entries, err := Normalize(Schema{
		{On: event.StateChange("switch.hall"), Do: Branches{
			{When: cond, Then: Act(first)},
			{When: cond, Then: Act(second)},
		}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1, "identical condition paths merge into one entry")
	assert.Len(t, entries[0].Actions, 2)
}

func TestNormalize_SameEventMerges(t *testing.T) {
	ev := event.StateChange("switch.hall")
	entries, err := Normalize(Schema{
		{On: ev, Do: Act(noopAction("first"))},
		{On: ev, Do: Act(noopAction("second"))},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Actions, 2)
}

func TestNormalize_CheckFailureAborts(t *testing.T) {
	good := noopAction("good")
	bad := action.New(action.NewFunc("bad", []string{"missing"}, func([]any) error { return nil }))

	_, err := Normalize(Schema{
		{On: event.StateChange("switch.a"), Do: Act(good)},
		{On: event.StateChange("switch.b"), Do: Act(bad)},
	})
	assert.ErrorIs(t, err, errors.ErrArgumentsIncompatible,
		"a single failing action aborts the whole schema")
}

func TestNormalize_EmptyLeafYieldsNothing(t *testing.T) {
	entries, err := Normalize(Schema{
		{On: event.StateChange("switch.hall"), Do: Act()},
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalize_BranchWithoutCondition(t *testing.T) {
	_, err := Normalize(Schema{
		{On: event.StateChange("switch.hall"), Do: Branches{
			{Then: Act(noopAction("act"))},
		}},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestFormat(t *testing.T) {
	cond := condition.NewFunc("dark", func() bool { return true })
	s := Schema{
		{On: event.StateChange("sensor.motion"), Do: Branches{
			{When: cond, Then: Act(noopAction("turn_on"), noopAction("log"))},
		}},
	}

	text := Format(s)
	assert.Contains(t, text, "state event of sensor.motion")
	assert.Contains(t, text, "dark")
	assert.Contains(t, text, "turn_on")
}
