package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
)

// recorder collects the argument values of every invocation.
type recorder struct {
	calls [][]any
}

func (r *recorder) fn(name string, params ...string) Function {
	return NewFunc(name, params, func(args []any) error {
		r.calls = append(r.calls, args)
		return nil
	})
}

func TestAction_ArgumentBinding(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("move", "x", "y")).With([]any{1}, map[string]any{"y": 2})

	require.NoError(t, act.Check())
	require.NoError(t, act.Run())
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []any{1, 2}, rec.calls[0])
}

func TestAction_CheckMissingKeyword(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("move", "x", "y")).With([]any{1}, nil)

	err := act.Check()
	assert.ErrorIs(t, err, errors.ErrArgumentsIncompatible)
	assert.Contains(t, err.Error(), "y")
}

func TestAction_CheckExcessPositional(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("ping")).With([]any{1}, nil)

	err := act.Check()
	assert.ErrorIs(t, err, errors.ErrArgumentsIncompatible)
}

func TestAction_ExtraKeywordsIgnored(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("set", "value")).With(nil, map[string]any{"value": 10, "unused": true})

	require.NoError(t, act.Check())
	require.NoError(t, act.Run())
	assert.Equal(t, []any{10}, rec.calls[0])
}

func TestAction_WithIsAdditive(t *testing.T) {
	rec := &recorder{}
	base := New(rec.fn("move", "x", "y", "z"))

	first := base.With([]any{1}, map[string]any{"y": 2, "z": 3})
	second := first.With(nil, map[string]any{"z": 30})

	require.NoError(t, second.Run())
	assert.Equal(t, []any{1, 2, 30}, rec.calls[0])

	// first is untouched
	require.NoError(t, first.Run())
	assert.Equal(t, []any{1, 2, 3}, rec.calls[1])
}

func TestAction_WithNothingReturnsSame(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("noop"))
	got := act.With(nil, nil)
	assert.True(t, &got.functions[0] == &act.functions[0], "empty bind returns the same value")
	assert.Nil(t, got.args)
	assert.Nil(t, got.kwargs)
}

func TestAction_ParameterDefaults(t *testing.T) {
	rec := &recorder{}
	fn := rec.fn("dim", "brightness", "transition").WithDefaults(map[string]any{"transition": 2})

	act := New(fn).With(nil, map[string]any{"brightness": 100})
	require.NoError(t, act.Check())
	require.NoError(t, act.Run())
	assert.Equal(t, []any{100, 2}, rec.calls[0])

	// Bound arguments override defaults.
	override := New(fn).With(nil, map[string]any{"brightness": 100, "transition": 5})
	require.NoError(t, override.Run())
	assert.Equal(t, []any{100, 5}, rec.calls[1])
}

func TestAction_SequencePreservesRightDefaults(t *testing.T) {
	rec := &recorder{}
	right := New(rec.fn("right", "mode").WithDefaults(map[string]any{"mode": "soft"}))

	seq, err := New(rec.fn("left")).Then(right)
	require.NoError(t, err)
	require.NoError(t, seq.Check())
	require.NoError(t, seq.Run())
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []any{"soft"}, rec.calls[1])
}

func TestAction_RunRefusesAsync(t *testing.T) {
	act := Sleep(time.Millisecond)
	err := act.Run()
	assert.ErrorIs(t, err, errors.ErrAsyncAction)
}

func TestAction_RunContextMixedSequence(t *testing.T) {
	var order []string
	syncFn := NewFunc("sync", nil, func([]any) error {
		order = append(order, "sync")
		return nil
	})
	asyncFn := NewAsyncFunc("async", nil, func(context.Context, []any) error {
		order = append(order, "async")
		return nil
	})

	seq, err := New(syncFn).Then(New(asyncFn))
	require.NoError(t, err)
	assert.True(t, seq.IsAsync())

	require.NoError(t, seq.RunContext(context.Background()))
	assert.Equal(t, []string{"sync", "async"}, order)
}

func TestAction_SequenceRightPositionalForbidden(t *testing.T) {
	rec := &recorder{}
	left := New(rec.fn("left"))
	right := New(rec.fn("right", "x")).With([]any{1}, nil)

	_, err := left.Then(right)
	assert.ErrorIs(t, err, errors.ErrArgumentsIncompatible)
}

func TestAction_SequenceCommonKeywordsForbidden(t *testing.T) {
	rec := &recorder{}
	left := New(rec.fn("left", "x")).With(nil, map[string]any{"x": 1})
	right := New(rec.fn("right", "x")).With(nil, map[string]any{"x": 2})

	_, err := left.Then(right)
	assert.ErrorIs(t, err, errors.ErrArgumentsIncompatible)
	assert.Contains(t, err.Error(), "x")
}

func TestAction_SequenceSharesLeftArguments(t *testing.T) {
	rec := &recorder{}
	left := New(rec.fn("left", "x"))
	right := New(rec.fn("right", "x"))

	seq, err := left.Then(right)
	require.NoError(t, err)
	seq = seq.With(nil, map[string]any{"x": 7})

	require.NoError(t, seq.Run())
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []any{7}, rec.calls[0])
	assert.Equal(t, []any{7}, rec.calls[1])
}

func TestAction_ConditionValueResolvedPerCall(t *testing.T) {
	dark := false
	value := condition.NewValue(condition.NewFunc("dark", func() bool { return dark }), 255, 40)

	rec := &recorder{}
	act := New(rec.fn("dim", "brightness")).With(nil, map[string]any{"brightness": value})
	require.NoError(t, act.Check())

	require.NoError(t, act.Run())
	dark = true
	require.NoError(t, act.Run())

	require.Len(t, rec.calls, 2)
	assert.Equal(t, []any{40}, rec.calls[0])
	assert.Equal(t, []any{255}, rec.calls[1], "value resolves against current state at each run")
}

func TestAction_CheckDoesNotResolveValues(t *testing.T) {
	calls := 0
	value := condition.NewValue(condition.NewFunc("counted", func() bool {
		calls++
		return true
	}), 1, 2)

	rec := &recorder{}
	act := New(rec.fn("set", "value")).With(nil, map[string]any{"value": value})

	require.NoError(t, act.Check())
	assert.Zero(t, calls, "check must not evaluate conditions")
}

func TestAction_RunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(time.Minute).RunContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	start := time.Now()
	err := Sleep(10 * time.Millisecond).RunContext(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestAction_ErrorNamesFunction(t *testing.T) {
	failing := NewFunc("broken", nil, func([]any) error {
		return assert.AnError
	})

	err := New(failing).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAction_String(t *testing.T) {
	rec := &recorder{}
	act := New(rec.fn("turn_on", "value")).With(nil, map[string]any{"value": 100})
	assert.Equal(t, "action turn_on(value=100)", act.String())

	assert.Contains(t, Sleep(time.Second).String(), "async action sleep[1s]")
}

func TestSequenceVariadic(t *testing.T) {
	rec := &recorder{}
	seq, err := Sequence(New(rec.fn("a")), New(rec.fn("b")), New(rec.fn("c")))
	require.NoError(t, err)

	require.NoError(t, seq.Run())
	assert.Len(t, rec.calls, 3)
}
