// Package engine assembles the rule engine: it normalizes registered rule
// schemas into dispatch registrations, subscribes to the notification bus
// and manages script lifecycle from start to drained shutdown.
package engine
