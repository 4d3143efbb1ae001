package action

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/namezys/hass-home-script/errors"
)

// Action is an immutable, possibly-sequenced unit of executable work with
// bound positional and keyword arguments.
type Action struct {
	functions []Function
	args      []any
	kwargs    map[string]any
}

// New creates an action from a single function with no bound arguments.
func New(fn Function) Action {
	return Action{functions: []Function{fn}}
}

// With returns a new action with the positional arguments appended and the
// keyword arguments merged, later values overriding earlier ones. Passing
// nothing returns the action unchanged.
func (a Action) With(args []any, kwargs map[string]any) Action {
	if len(args) == 0 && len(kwargs) == 0 {
		return a
	}
	merged := make(map[string]any, len(a.kwargs)+len(kwargs))
	for name, value := range a.kwargs {
		merged[name] = value
	}
	for name, value := range kwargs {
		merged[name] = value
	}
	combined := make([]any, 0, len(a.args)+len(args))
	combined = append(combined, a.args...)
	combined = append(combined, args...)
	return Action{functions: a.functions, args: combined, kwargs: merged}
}

// IsAsync reports whether any function in the sequence is asynchronous.
func (a Action) IsAsync() bool {
	for _, fn := range a.functions {
		if fn.isAsync {
			return true
		}
	}
	return false
}

// Check validates that the bound arguments satisfy every function in the
// sequence. It must run once at registration time; a failure names the
// offending function and the missing or excess argument names. Conditional
// values are not resolved by Check.
func (a Action) Check() error {
	for _, fn := range a.functions {
		if _, err := fn.bind(a, false); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a purely synchronous action inline. Calling it on an action
// that contains asynchronous work is a programming error and fails with
// ErrAsyncAction.
func (a Action) Run() error {
	if a.IsAsync() {
		return errors.Invalid(errors.ErrAsyncAction, "can not run %s synchronously", a)
	}
	for _, fn := range a.functions {
		if err := fn.run(context.Background(), a); err != nil {
			return fmt.Errorf("function %s: %w", fn.name, err)
		}
	}
	return nil
}

// RunContext executes the sequence in order. Asynchronous functions receive
// the context and suspend at their own await points; synchronous ones run
// inline. The first failure stops the sequence.
func (a Action) RunContext(ctx context.Context) error {
	for _, fn := range a.functions {
		if err := fn.run(ctx, a); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("function %s: %w", fn.name, err)
		}
	}
	return nil
}

// Then concatenates two actions into one sequence, the rule notation's `//`
// operator. The right action must carry no positional arguments and no
// keyword names that the left action already binds; the left action's
// arguments serve the whole sequence.
func (a Action) Then(other Action) (Action, error) {
	if len(other.args) > 0 {
		return Action{}, errors.Invalid(errors.ErrArgumentsIncompatible,
			"right action %s in sequence can not carry positional arguments", other)
	}
	var common []string
	for name := range other.kwargs {
		if _, ok := a.kwargs[name]; ok {
			common = append(common, name)
		}
	}
	if len(common) > 0 {
		sort.Strings(common)
		return Action{}, errors.Invalid(errors.ErrArgumentsIncompatible,
			"actions in sequence share keyword arguments: %s", strings.Join(common, ", "))
	}
	functions := make([]Function, 0, len(a.functions)+len(other.functions))
	functions = append(functions, a.functions...)
	functions = append(functions, other.functions...)
	return Action{functions: functions, args: a.args, kwargs: a.kwargs}, nil
}

// Sequence folds actions left to right with Then.
func Sequence(first Action, rest ...Action) (Action, error) {
	result := first
	var err error
	for _, item := range rest {
		result, err = result.Then(item)
		if err != nil {
			return Action{}, err
		}
	}
	return result, nil
}

func (a Action) String() string {
	prefix := ""
	if a.IsAsync() {
		prefix = "async "
	}
	names := make([]string, len(a.functions))
	for i, fn := range a.functions {
		names[i] = fn.name
	}
	return fmt.Sprintf("%saction %s(%s)", prefix, strings.Join(names, "|"), a.argString())
}

func (a Action) argString() string {
	parts := make([]string, 0, len(a.args)+len(a.kwargs))
	for _, value := range a.args {
		parts = append(parts, fmt.Sprintf("%v", value))
	}
	names := make([]string, 0, len(a.kwargs))
	for name := range a.kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, a.kwargs[name]))
	}
	return strings.Join(parts, ", ")
}
