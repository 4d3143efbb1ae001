// Package homescript is a reactive rule engine for home automation hosts.
//
// Rules are ordinary Go code: boolean conditions composed with a small
// algebra, actions built from callables with bound arguments, and state
// events that narrow which entity transitions fire them. A nested rule
// schema is normalized into a flat event-to-action table, registered under
// named scripts and driven by state-change notifications from the host.
//
// # Layout
//
//   - condition:    boolean condition algebra and conditional values
//   - action:       callable wrappers, argument binding, sequencing
//   - event:        state and bus event descriptors with condition filters
//   - schema:       nested rule trees and the normalizer
//   - entity:       host state, effectors and the typed light adapter
//   - script:       named execution contexts with cancellable tasks
//   - dispatch:     state-change routing with per-script preemption
//   - statemachine: declarative states compiled into rule schemas
//   - bus:          notification sources (in-memory and NATS)
//   - engine:       assembly and lifecycle
//
// The cmd/homescriptd daemon wires an engine to a NATS subject carrying
// state-change messages; rules are compiled into the binary.
package homescript
