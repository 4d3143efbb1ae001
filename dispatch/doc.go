// Package dispatch implements the state-change manager: the index from
// entity id to registered (event, script, action) triples and the matching
// and preemption pass that runs on every inbound notification.
//
// On a notification the manager evaluates every registration of the affected
// entity, groups the matched actions by target script in insertion order,
// cancels each matched script's in-flight work exactly once, and hands the
// new action set to the script. Matching, grouping and cancellation complete
// before any launched action starts executing; only the launched actions run
// concurrently afterwards.
//
// The index is mutated during registration only and treated as read-only on
// the notification path, so the hot path takes no lock; registration must
// strictly precede notification delivery.
package dispatch
