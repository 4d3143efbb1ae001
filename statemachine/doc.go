// Package statemachine builds rule schemas from declarative device states.
//
// A State names a logical situation ("hall is dark", "nobody home") with the
// condition that detects it, the events that activate or affect it, and the
// actions to run when it activates. States may depend on other states;
// the builder resolves the dependency graph into a flat event schema the
// engine can register.
package statemachine
