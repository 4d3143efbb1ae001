package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Evaluate(t *testing.T) {
	dark := false
	cond := NewFunc("dark", func() bool { return dark })
	value := NewValue(cond, 255, 40)

	result, err := value.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, 40, result)

	dark = true
	result, err = value.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, 255, result)
}

func TestValue_LazyResolution(t *testing.T) {
	calls := 0
	cond := NewFunc("counted", func() bool {
		calls++
		return true
	})

	value := NewValue(cond, "on", "off")
	assert.Zero(t, calls, "building a value must not evaluate the condition")

	resolved, err := value.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "on", resolved)
	assert.Equal(t, 1, calls)
}

func TestValue_ConditionError(t *testing.T) {
	cond := argCond("fixed", NewArgSet("x"), func(Args) bool { return true })
	value := NewValue(cond, 1, 2)

	_, err := value.Evaluate(Args{"wrong": 1})
	assert.Error(t, err)
}

func TestValue_String(t *testing.T) {
	cond := NewFunc("dark", func() bool { return true })
	value := NewValue(cond, 255, 40)
	assert.Equal(t, "255 if dark else 40", value.String())
}
