package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/namezys/hass-home-script/errors"
)

// State is an opaque host state value. Value carries the scalar state, the
// rest is attribute baggage the host chooses to attach.
type State struct {
	Value      string
	Attributes map[string]any
	UpdatedAt  time.Time
}

func (s State) String() string {
	return s.Value
}

// StateChange is a single inbound notification: an entity moved from Old to
// New. The host delivers these one at a time.
type StateChange struct {
	EntityID string
	Old      State
	New      State
}

func (c StateChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.EntityID, c.Old.Value, c.New.Value)
}

// Effector is a host object rule actions ultimately call.
type Effector interface {
	// EntityID returns the full entity identifier, e.g. "light.kitchen".
	EntityID() string
	// State returns the current host state of the entity.
	State() State
	// Call invokes a named host operation with keyword parameters.
	Call(ctx context.Context, operation string, params map[string]any) error
}

// Registry resolves effectors by domain and entity id.
type Registry interface {
	// Effector fetches the named effector or fails with ErrEffectorNotFound.
	Effector(domain, entityID string) (Effector, error)
}

// MemoryRegistry is an in-process Registry keyed by domain. It backs tests
// and hosts that manage their own effector set.
type MemoryRegistry struct {
	mu        sync.RWMutex
	effectors map[string]map[string]Effector
}

// NewMemoryRegistry creates an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{effectors: make(map[string]map[string]Effector)}
}

// Register adds an effector under its domain. Registration replaces any
// previous effector with the same entity id.
func (r *MemoryRegistry) Register(domain string, eff Effector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := r.effectors[domain]
	if byID == nil {
		byID = make(map[string]Effector)
		r.effectors[domain] = byID
	}
	byID[eff.EntityID()] = eff
}

// Effector implements Registry.
func (r *MemoryRegistry) Effector(domain, entityID string) (Effector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID, ok := r.effectors[domain]
	if !ok {
		known := make([]string, 0, len(r.effectors))
		for name := range r.effectors {
			known = append(known, name)
		}
		sort.Strings(known)
		return nil, errors.Invalid(errors.ErrEffectorNotFound,
			"unknown domain %s, known domains: %s", domain, strings.Join(known, ", "))
	}
	eff, ok := byID[entityID]
	if !ok {
		return nil, errors.Invalid(errors.ErrEffectorNotFound, "entity %s not found in domain %s", entityID, domain)
	}
	return eff, nil
}
