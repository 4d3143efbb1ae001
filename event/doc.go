// Package event defines the descriptors that identify a class of external
// notification and narrow it with attached conditions.
//
// A StateEvent names an entity whose state change triggers rules; its
// condition, if any, is evaluated with the fixed arguments entity_id, old and
// new. A BusEvent names a generic host bus event type; its condition sees the
// single fixed argument event. Filter conjoins a new condition with any
// already attached one, failing at construction time when the condition's
// declared argument set does not fit the event kind.
package event
