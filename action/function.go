package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
)

// SyncFunc is a synchronous callable. It receives the resolved argument
// values in declared-parameter order.
type SyncFunc func(args []any) error

// AsyncFunc is an asynchronous callable. It must honor context cancellation
// at its own suspension points.
type AsyncFunc func(ctx context.Context, args []any) error

// Function is an immutable record of a callable with its declared parameter
// names. Variadic catch-alls are not representable; every parameter a
// function consumes is named. Methods become Functions by closing over their
// receiver once, when the owning object is built.
type Function struct {
	name     string
	params   []string
	defaults map[string]any
	isAsync  bool
	syncFn   SyncFunc
	asyncFn  AsyncFunc
}

// NewFunc wraps a synchronous callable.
func NewFunc(name string, params []string, fn SyncFunc) Function {
	return Function{name: name, params: params, syncFn: fn}
}

// NewAsyncFunc wraps an asynchronous callable.
func NewAsyncFunc(name string, params []string, fn AsyncFunc) Function {
	return Function{name: name, params: params, isAsync: true, asyncFn: fn}
}

// WithDefaults returns a copy of the function with default values for
// parameters the calling action leaves unbound, the equivalent of parameter
// defaults in a callable's signature.
func (f Function) WithDefaults(defaults map[string]any) Function {
	merged := make(map[string]any, len(f.defaults)+len(defaults))
	for name, value := range f.defaults {
		merged[name] = value
	}
	for name, value := range defaults {
		merged[name] = value
	}
	f.defaults = merged
	return f
}

// Name returns the display name of the function.
func (f Function) Name() string {
	return f.name
}

// Params returns the declared parameter names in order.
func (f Function) Params() []string {
	return f.params
}

// IsAsync reports whether the callable is asynchronous.
func (f Function) IsAsync() bool {
	return f.isAsync
}

func (f Function) String() string {
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(f.params, ", "))
}

// bind materializes the argument values for one call of f from the action's
// bound arguments: positional arguments cover the declared parameters in
// order, the rest come from the keyword map. With resolve set, conditional
// values among the bound arguments are resolved; Check binds without
// resolving so no condition runs at registration time.
func (f Function) bind(act Action, resolve bool) ([]any, error) {
	if len(act.args) > len(f.params) {
		return nil, errors.Invalid(errors.ErrArgumentsIncompatible,
			"%s requires %d parameters but %s supplies %d positional arguments",
			f, len(f.params), act, len(act.args))
	}
	values := make([]any, 0, len(f.params))
	values = append(values, act.args...)

	var missing []string
	for _, name := range f.params[len(act.args):] {
		value, ok := act.kwargs[name]
		if !ok {
			value, ok = f.defaults[name]
		}
		if !ok {
			missing = append(missing, name)
			continue
		}
		values = append(values, value)
	}
	if len(missing) > 0 {
		return nil, errors.Invalid(errors.ErrArgumentsIncompatible,
			"%s does not supply arguments %s required by %s",
			act, strings.Join(missing, ", "), f)
	}

	if resolve {
		for i, value := range values {
			resolvable, ok := value.(condition.Resolvable)
			if !ok {
				continue
			}
			resolved, err := resolvable.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("resolve argument %d of %s: %w", i, f, err)
			}
			values[i] = resolved
		}
	}
	return values, nil
}

// run executes one function of the sequence with freshly resolved arguments.
func (f Function) run(ctx context.Context, act Action) error {
	values, err := f.bind(act, true)
	if err != nil {
		return err
	}
	if f.isAsync {
		return f.asyncFn(ctx, values)
	}
	return f.syncFn(values)
}
