// Package bus delivers entity state-change notifications to the engine.
//
// A Bus is anything that can feed ordered state changes to a handler. The
// in-memory implementation serves tests and embedded use; the natsbus
// subpackage adapts a NATS subject carrying state-change messages.
package bus
