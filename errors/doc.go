// Package errors provides standardized error handling for the home-script
// rule engine.
//
// # Overview
//
// The package implements a three-class error classification system: Transient
// (temporary, retryable), Invalid (bad rule wiring or input, non-retryable),
// and Fatal (unrecoverable, stop processing). Classification lets callers make
// retry and propagation decisions without string matching.
//
// Rule construction and registration errors (incompatible condition arguments,
// unsatisfied action arguments, unknown effectors) are Invalid: they must be
// surfaced to the operator before any rule becomes live, and are never
// retried. Connectivity errors from the host event bus are Transient.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Bus", "Connect", "dial")
//	errors.WrapInvalid(err, "Action", "Check", "argument binding")
//	errors.WrapFatal(err, "Engine", "Start", "subscribe")
//
// The generic Wrap() adds context without forcing a class.
//
// # Standard Error Variables
//
// Rule-engine conditions have dedicated sentinels: ErrArgumentsIncompatible,
// ErrConditionArgMismatch, ErrConditionIncompatible, ErrEffectorNotFound,
// ErrAsyncAction, ErrScriptStopped. Lifecycle sentinels (ErrAlreadyStarted,
// ErrNotStarted, ErrAlreadyStopped) cover engine and bus state transitions.
//
// All error types support errors.Is, errors.As, and wrapping chains.
package errors
