// Package action implements the executable side of rules: callable wrappers
// with bound arguments, left-to-right sequencing, and mixed synchronous and
// asynchronous execution.
//
// # Overview
//
// A Function is an immutable record of a callable with its declared parameter
// names and an is-asynchronous flag. An Action is an ordered sequence of one
// or more Functions together with bound positional and keyword arguments.
// Binding more arguments with With returns a new Action; arguments are
// additive and overriding, never removed.
//
// # Argument Resolution
//
// For every Function call, the Action's positional arguments cover the
// Function's declared parameters in order; any parameter not covered
// positionally must be present in the keyword map. Supplying more positional
// arguments than the first Function declares, or leaving a parameter
// uncovered, is ErrArgumentsIncompatible. Check validates the full sequence
// once at registration time so mis-wired rules fail fast instead of at
// trigger time.
//
// Bound arguments that implement condition.Resolvable (conditional values)
// are resolved immediately before each Function's call, never earlier.
//
// # Execution
//
// Run executes a purely synchronous action inline and refuses sequences that
// contain asynchronous work. RunContext executes the sequence in order,
// passing the context to asynchronous functions; cancellation takes effect
// only at their own suspension points.
//
// # Sequencing
//
// Then (the `//` operator of the rule notation) concatenates two actions'
// function sequences. The right side must carry no positional arguments and
// no keyword names overlapping the left side; the left side's arguments are
// retained for the whole sequence.
package action
