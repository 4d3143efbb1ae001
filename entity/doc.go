// Package entity defines the boundary to the host's entity and effector
// representation.
//
// The engine itself never reads or writes host state directly. It consumes
// two things through this package: StateChange notifications delivered by the
// host's event bus, and Effector objects fetched from a Registry so that rule
// authors can bind host operations into actions. A domain-specific adapter
// (see Light) may wrap an Effector to narrow and validate the parameters it
// accepts before exposing bound methods as actions.
package entity
