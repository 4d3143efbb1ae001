// Package script implements the named, single-flight execution contexts that
// run the action sets the dispatch engine routes to them.
//
// A Script holds the set of its currently in-flight tasks. Running a new
// action set for a script is always preceded by cancelling the old one, so at
// most one action set is in flight per script; the actual guarantee is
// cooperative, since a cancelled task only stops at its next suspension
// point. A stopped script accepts no further actions and never transitions
// back; the engine creates a fresh context for a name when rules are
// reloaded.
//
// Failures inside an action are logged with the action and function context
// and never propagate to the dispatcher or to sibling actions. Cancellation
// of an asynchronous action is not an error.
package script
