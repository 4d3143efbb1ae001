package condition

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/namezys/hass-home-script/errors"
)

// Args carries the named arguments a condition is evaluated with.
type Args map[string]any

// names returns the sorted argument names, for error messages.
func (a Args) names() []string {
	result := make([]string, 0, len(a))
	for name := range a {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// ArgSet is the set of argument names a condition requires. A nil ArgSet
// means the condition is unconstrained and ignores all supplied arguments.
type ArgSet map[string]struct{}

// NewArgSet builds an argument set from names.
func NewArgSet(names ...string) ArgSet {
	result := make(ArgSet, len(names))
	for _, name := range names {
		result[name] = struct{}{}
	}
	return result
}

// Equal reports whether both sets contain exactly the same names.
func (s ArgSet) Equal(other ArgSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if _, ok := other[name]; !ok {
			return false
		}
	}
	return true
}

// Compatible reports whether the sets can be composed: either is nil or both
// are equal.
func (s ArgSet) Compatible(other ArgSet) bool {
	return s == nil || other == nil || s.Equal(other)
}

// Names returns the sorted argument names.
func (s ArgSet) Names() []string {
	result := make([]string, 0, len(s))
	for name := range s {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Predicate is the evaluation function of an atomic condition. Predicates
// with a nil argument set are called with nil args.
type Predicate func(args Args) (bool, error)

type kind uint8

const (
	kindNone kind = iota
	kindFunc
	kindAnd
	kindOr
)

// Condition is an immutable boolean predicate over a fixed or unconstrained
// set of named arguments. The zero value is the absent condition, reported by
// IsZero; it must not be evaluated.
type Condition struct {
	id        string
	name      string
	kind      kind
	arguments ArgSet
	inverted  bool
	fn        Predicate
	children  []Condition
}

// New creates an atomic condition over the given argument set. A nil argument
// set makes the condition unconstrained: it ignores supplied arguments and the
// predicate is called with nil args.
func New(name string, arguments ArgSet, fn Predicate) Condition {
	return Condition{
		id:        uuid.NewString(),
		name:      name,
		kind:      kindFunc,
		arguments: arguments,
		fn:        fn,
	}
}

// NewFunc creates an unconstrained condition from a plain boolean function.
func NewFunc(name string, fn func() bool) Condition {
	return New(name, nil, func(Args) (bool, error) {
		return fn(), nil
	})
}

// Property creates an unconstrained condition that reads a boolean getter,
// typically a field of some owning object captured by the closure.
func Property(owner, name string, get func() bool) Condition {
	return NewFunc(fmt.Sprintf("property %s[%s]", name, owner), get)
}

// IsZero reports whether c is the absent condition.
func (c Condition) IsZero() bool {
	return c.kind == kindNone
}

// ID returns the identity of this condition value. Copies share the identity;
// every composition or inversion produces a new one.
func (c Condition) ID() string {
	return c.id
}

// Arguments returns the declared argument set, nil if unconstrained.
func (c Condition) Arguments() ArgSet {
	return c.arguments
}

// Inverted reports whether the evaluation result is negated.
func (c Condition) Inverted() bool {
	return c.inverted
}

// Compatible reports whether the condition can be used where the given
// argument set is supplied. Unconstrained conditions are always compatible.
func (c Condition) Compatible(arguments ArgSet) bool {
	return c.arguments == nil || c.arguments.Equal(arguments)
}

// String renders the condition for logs, e.g. "NOT (motion AND dark)".
func (c Condition) String() string {
	invert := ""
	if c.inverted {
		invert = "NOT "
	}
	switch c.kind {
	case kindAnd, kindOr:
		op := " AND "
		if c.kind == kindOr {
			op = " OR "
		}
		parts := make([]string, len(c.children))
		for i, child := range c.children {
			parts[i] = child.String()
		}
		return invert + "(" + strings.Join(parts, op) + ")"
	case kindFunc:
		return invert + c.name
	default:
		return "<none>"
	}
}

// Evaluate runs the condition against the supplied arguments. A condition
// with a declared argument set requires the supplied names to match exactly;
// an unconstrained condition ignores all supplied arguments.
func (c Condition) Evaluate(args Args) (bool, error) {
	if c.kind == kindNone {
		return false, errors.Invalid(errors.ErrConditionArgMismatch, "evaluate of absent condition")
	}
	if c.arguments != nil && !c.arguments.Equal(argNames(args)) {
		return false, errors.Invalid(errors.ErrConditionArgMismatch,
			"condition %s expects arguments %s, got %s",
			c, strings.Join(c.arguments.Names(), ", "), strings.Join(args.names(), ", "))
	}
	result, err := c.run(args)
	if err != nil {
		return false, err
	}
	if c.inverted {
		return !result, nil
	}
	return result, nil
}

func (c Condition) run(args Args) (bool, error) {
	switch c.kind {
	case kindFunc:
		if c.arguments == nil {
			args = nil
		}
		return c.fn(args)
	case kindAnd:
		for _, child := range c.children {
			ok, err := child.Evaluate(args)
			if err != nil {
				return false, err
			}
			if !ok {
				slog.Debug("condition failed in AND group", "child", child.String(), "group", c.String())
				return false, nil
			}
		}
		return true, nil
	case kindOr:
		for _, child := range c.children {
			ok, err := child.Evaluate(args)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		slog.Debug("all conditions failed in OR group", "group", c.String())
		return false, nil
	default:
		return false, errors.Invalid(errors.ErrConditionArgMismatch, "evaluate of absent condition")
	}
}

// Not returns the condition with its inversion flag flipped. Inverting a
// composite does not distribute over the children.
func (c Condition) Not() Condition {
	c.inverted = !c.inverted
	c.id = uuid.NewString()
	return c
}

// And conjoins the condition with another. Appending to an uninverted AND
// group extends the group in place of nesting; anything else produces a new
// two-child group. Composing conditions with unequal non-nil argument sets
// fails with ErrConditionIncompatible.
func (c Condition) And(other Condition) (Condition, error) {
	return c.compose(kindAnd, other)
}

// Or disjoins the condition with another, with the same flattening and
// compatibility rules as And.
func (c Condition) Or(other Condition) (Condition, error) {
	return c.compose(kindOr, other)
}

func (c Condition) compose(op kind, other Condition) (Condition, error) {
	if other.IsZero() {
		return Condition{}, errors.Invalid(errors.ErrConditionIncompatible, "compose %s with absent condition", c)
	}
	if !c.arguments.Compatible(other.arguments) {
		return Condition{}, errors.Invalid(errors.ErrConditionIncompatible,
			"%s requires %s, %s requires %s",
			c, strings.Join(c.arguments.Names(), ", "),
			other, strings.Join(other.arguments.Names(), ", "))
	}
	if c.kind == op && !c.inverted {
		// Same-operator uninverted group: flatten.
		children := make([]Condition, 0, len(c.children)+1)
		children = append(children, c.children...)
		children = append(children, other)
		arguments := c.arguments
		if arguments == nil {
			arguments = other.arguments
		}
		return Condition{
			id:        uuid.NewString(),
			kind:      op,
			arguments: arguments,
			children:  children,
		}, nil
	}
	arguments := c.arguments
	if arguments == nil {
		arguments = other.arguments
	}
	return Condition{
		id:        uuid.NewString(),
		kind:      op,
		arguments: arguments,
		children:  []Condition{c, other},
	}, nil
}

// And conjoins two or more conditions left to right.
func And(first, second Condition, rest ...Condition) (Condition, error) {
	result, err := first.And(second)
	if err != nil {
		return Condition{}, err
	}
	for _, item := range rest {
		result, err = result.And(item)
		if err != nil {
			return Condition{}, err
		}
	}
	return result, nil
}

// Or disjoins two or more conditions left to right.
func Or(first, second Condition, rest ...Condition) (Condition, error) {
	result, err := first.Or(second)
	if err != nil {
		return Condition{}, err
	}
	for _, item := range rest {
		result, err = result.Or(item)
		if err != nil {
			return Condition{}, err
		}
	}
	return result, nil
}

// Size returns the number of direct children for composite conditions and
// zero for atomic ones.
func (c Condition) Size() int {
	return len(c.children)
}

func argNames(args Args) ArgSet {
	result := make(ArgSet, len(args))
	for name := range args {
		result[name] = struct{}{}
	}
	return result
}
