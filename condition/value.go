package condition

import "fmt"

// Resolvable is an action-argument value that must be resolved at the moment
// the action's arguments are materialized for a run.
type Resolvable interface {
	Resolve(args Args) (any, error)
}

// Value is a ternary chooser bound to a condition: evaluating it yields the
// true-case or the false-case value. It is only ever resolved when an action
// argument is materialized at run time.
type Value[T any] struct {
	cond      Condition
	trueCase  T
	falseCase T
}

// NewValue binds a condition to a true-case and a false-case value.
func NewValue[T any](cond Condition, trueCase, falseCase T) Value[T] {
	return Value[T]{cond: cond, trueCase: trueCase, falseCase: falseCase}
}

// Evaluate delegates to the bound condition and returns the matching case.
func (v Value[T]) Evaluate(args Args) (T, error) {
	ok, err := v.cond.Evaluate(args)
	if err != nil {
		var zero T
		return zero, err
	}
	if ok {
		return v.trueCase, nil
	}
	return v.falseCase, nil
}

// Resolve implements Resolvable.
func (v Value[T]) Resolve(args Args) (any, error) {
	return v.Evaluate(args)
}

func (v Value[T]) String() string {
	return fmt.Sprintf("%v if %s else %v", v.trueCase, v.cond, v.falseCase)
}
