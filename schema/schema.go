package schema

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/event"
)

// Node is one subtree of an action schema: either an action list leaf or a
// set of condition branches.
type Node interface {
	node()
}

// Actions is a leaf node holding one or more actions.
type Actions []action.Action

func (Actions) node() {}

// Act builds a leaf node from actions.
func Act(actions ...action.Action) Actions {
	return Actions(actions)
}

// Branch is one condition-keyed edge of a schema tree.
type Branch struct {
	When condition.Condition
	Then Node
}

// Branches is an internal node: an ordered set of condition branches.
type Branches []Branch

func (Branches) node() {}

// Rule binds a state event to an action schema subtree.
type Rule struct {
	On event.StateEvent
	Do Node
}

// Schema is the nested rule tree a rule author hands to the engine.
type Schema []Rule

// Entry is one row of a normalized schema: an event with the actions it
// triggers.
type Entry struct {
	Event   event.StateEvent
	Actions []action.Action
}

// path is one condition chain from the tree root to a leaf.
type path struct {
	key        string
	conditions []condition.Condition
	actions    []action.Action
}

// Normalize flattens a schema into the event-to-action-list table. Conditions
// along each branch path are conjoined into the rule's event in path order;
// branches yielding the identical path merge their action lists. Every action
// is checked; a check failure aborts normalization with the originating
// error, leaving nothing registered.
func Normalize(s Schema) ([]Entry, error) {
	slog.Debug("normalize event schema", "rules", len(s))
	var entries []Entry
	index := make(map[string]int)

	for _, rule := range s {
		paths, err := normalizeNode(rule.Do)
		if err != nil {
			return nil, err
		}
		for _, item := range paths {
			for _, act := range item.actions {
				if err := act.Check(); err != nil {
					return nil, errors.Wrap(err, "Schema", "Normalize", fmt.Sprintf("check of %s", act))
				}
			}
			ev := rule.On
			for _, cond := range item.conditions {
				ev, err = ev.Filter(cond)
				if err != nil {
					return nil, err
				}
			}
			key := rule.On.Key() + "|" + item.key
			if at, ok := index[key]; ok {
				entries[at].Actions = append(entries[at].Actions, item.actions...)
				continue
			}
			index[key] = len(entries)
			entries = append(entries, Entry{Event: ev, Actions: item.actions})
		}
	}
	return entries, nil
}

// normalizeNode flattens one subtree bottom-up into condition paths.
func normalizeNode(n Node) ([]path, error) {
	switch node := n.(type) {
	case nil:
		return nil, errors.Invalid(errors.ErrInvalidConfig, "schema node is nil")
	case Actions:
		if len(node) == 0 {
			return nil, nil
		}
		return []path{{actions: node}}, nil
	case Branches:
		var result []path
		index := make(map[string]int)
		for _, branch := range node {
			if branch.When.IsZero() {
				return nil, errors.Invalid(errors.ErrInvalidConfig, "schema branch has no condition")
			}
			sub, err := normalizeNode(branch.Then)
			if err != nil {
				return nil, err
			}
			for _, item := range sub {
				merged := path{
					key:        branch.When.ID() + "/" + item.key,
					conditions: append([]condition.Condition{branch.When}, item.conditions...),
					actions:    item.actions,
				}
				if at, ok := index[merged.key]; ok {
					result[at].actions = append(result[at].actions, merged.actions...)
					continue
				}
				index[merged.key] = len(result)
				result = append(result, merged)
			}
		}
		return result, nil
	default:
		return nil, errors.Invalid(errors.ErrInvalidConfig, "unknown schema node %T", n)
	}
}

// Format renders a schema in a readable indented form for operator logs.
func Format(s Schema) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, rule := range s {
		fmt.Fprintf(&b, "  %s: ", rule.On)
		formatNode(&b, rule.Do, 2)
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func formatNode(b *strings.Builder, n Node, indent int) {
	prefix := strings.Repeat(" ", indent)
	switch node := n.(type) {
	case Actions:
		if len(node) == 1 {
			fmt.Fprintf(b, "%s", node[0])
			return
		}
		b.WriteString("[\n")
		for _, act := range node {
			fmt.Fprintf(b, "%s  %s\n", prefix, act)
		}
		fmt.Fprintf(b, "%s]", prefix)
	case Branches:
		b.WriteString("{\n")
		for _, branch := range node {
			fmt.Fprintf(b, "%s  %s: ", prefix, branch.When)
			formatNode(b, branch.Then, indent+2)
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%s}", prefix)
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}
