// Package condition implements the boolean condition algebra used by rule
// definitions.
//
// # Overview
//
// A Condition is an immutable predicate over a fixed, named set of arguments.
// Conditions compose with And, Or, and Not; composition returns new values and
// never mutates. Composing two conditions whose declared argument sets are
// both non-nil and unequal is a construction-time error, so mis-wired rules
// fail before they become live.
//
// # Argument Sets
//
// Every condition declares the argument names it must be evaluated with, or
// declares none (a nil ArgSet), in which case any supplied arguments are
// ignored. Evaluation with a declared set requires the supplied names to match
// the set exactly; a subset or superset is ErrConditionArgMismatch.
//
// # Composition Semantics
//
// And short-circuits on the first false child and logs which child failed;
// Or short-circuits on the first true child. Not only flips an inversion
// flag applied after the un-inverted evaluation; no De Morgan expansion is
// performed. Appending a term to an uninverted group of the same operator
// flattens into that group instead of nesting; an inverted group composes
// into a fresh two-child group.
//
// # Conditional Values
//
// Value[T] pairs a condition with a true-case and a false-case value. It is
// resolved only when an action materializes its arguments for a run, never at
// rule-definition time.
package condition
