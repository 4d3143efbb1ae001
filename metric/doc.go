// Package metric manages the Prometheus registry and the HTTP endpoint the
// daemon serves it on.
//
// Components take an optional *Registry; a nil registry disables their
// metrics entirely (nil input = nil feature), so the engine runs unchanged
// with observability switched off.
package metric
