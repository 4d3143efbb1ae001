// Package schema compiles the nested condition/action trees rule authors
// write into the flat event-to-action-list table the dispatch engine
// registers.
//
// A schema is a list of rules, each binding a state event to a node: either a
// plain action list or branches keyed by condition, nested to any depth the
// author cares for. Normalization walks each tree bottom-up, conjoining the
// conditions along every path into the rule's event, and merges action lists
// when two branches produce the identical condition path. Every action is
// checked before anything is registered; the first failure aborts the whole
// schema so no partial rule set ever becomes live.
package schema
