package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/errors"
)

// Turn-on parameter names a light effector may accept.
var lightTurnOnParams = map[string]struct{}{
	"profile":             {},
	"effect":              {},
	"flash":               {},
	"transition":          {},
	"brightness":          {},
	"brightness_pct":      {},
	"brightness_step":     {},
	"brightness_step_pct": {},
	"white":               {},
	"color_temp_kelvin":   {},
	"hs_color":            {},
	"rgb_color":           {},
	"rgbw_color":          {},
	"rgbww_color":         {},
	"xy_color":            {},
}

var lightTurnOffParams = map[string]struct{}{
	"flash":      {},
	"transition": {},
}

// Light narrows a generic effector to the light operation surface: it only
// lets through parameters the device supports and validates their values
// before the underlying effector is called. TurnOn and TurnOff expose the
// operations as actions with every supported parameter pre-bound to nil, so
// rule authors override just the ones they need.
type Light struct {
	eff     Effector
	turnOn  map[string]struct{}
	turnOff map[string]struct{}
}

// NewLight wraps an effector. The supported names restrict the turn-on
// parameter surface to what the device accepts; with none given, every known
// parameter is allowed. An unknown name fails construction.
func NewLight(eff Effector, supported ...string) (Light, error) {
	turnOn := lightTurnOnParams
	if len(supported) > 0 {
		turnOn = make(map[string]struct{}, len(supported))
		for _, name := range supported {
			if _, ok := lightTurnOnParams[name]; !ok {
				return Light{}, errors.Invalid(errors.ErrArgumentsIncompatible,
					"parameter %s is not a light turn-on parameter", name)
			}
			turnOn[name] = struct{}{}
		}
	}
	return Light{eff: eff, turnOn: turnOn, turnOff: lightTurnOffParams}, nil
}

// EntityID returns the wrapped effector's entity id.
func (l Light) EntityID() string {
	return l.eff.EntityID()
}

// State returns the wrapped effector's current state.
func (l Light) State() State {
	return l.eff.State()
}

// TurnOn builds the turn-on action. Supported parameters are pre-bound to
// nil; values bound later are validated just before the host call.
func (l Light) TurnOn() action.Action {
	return l.paramAction("turn_on", l.turnOn, validateLightTurnOn)
}

// TurnOff builds the turn-off action.
func (l Light) TurnOff() action.Action {
	return l.paramAction("turn_off", l.turnOff, nil)
}

func (l Light) paramAction(operation string, allowed map[string]struct{}, validate func(map[string]any) error) action.Action {
	names := make([]string, 0, len(allowed))
	for name := range allowed {
		names = append(names, name)
	}
	sort.Strings(names)

	fn := action.NewAsyncFunc(
		fmt.Sprintf("%s[%s]", operation, l.eff.EntityID()),
		names,
		func(ctx context.Context, values []any) error {
			params := make(map[string]any, len(values))
			for i, value := range values {
				if value == nil {
					continue
				}
				params[names[i]] = value
			}
			if validate != nil {
				if err := validate(params); err != nil {
					return err
				}
			}
			return l.eff.Call(ctx, operation, params)
		})

	defaults := make(map[string]any, len(names))
	for _, name := range names {
		defaults[name] = nil
	}
	return action.New(fn.WithDefaults(defaults))
}

func validateLightTurnOn(params map[string]any) error {
	if v, ok := params["brightness"]; ok {
		if n, ok := asInt(v); !ok || n < 0 || n > 255 {
			return errors.Invalid(errors.ErrArgumentsIncompatible, "brightness %v out of range 0..255", v)
		}
	}
	if v, ok := params["brightness_pct"]; ok {
		if n, ok := asInt(v); !ok || n < 0 || n > 100 {
			return errors.Invalid(errors.ErrArgumentsIncompatible, "brightness_pct %v out of range 0..100", v)
		}
	}
	if v, ok := params["transition"]; ok {
		if n, ok := asFloat(v); !ok || n < 0 {
			return errors.Invalid(errors.ErrArgumentsIncompatible, "transition %v must be non-negative", v)
		}
	}
	if v, ok := params["color_temp_kelvin"]; ok {
		if n, ok := asInt(v); !ok || n <= 0 {
			return errors.Invalid(errors.ErrArgumentsIncompatible, "color_temp_kelvin %v must be positive", v)
		}
	}
	var conflicting []string
	for _, name := range []string{"hs_color", "rgb_color", "rgbw_color", "rgbww_color", "xy_color"} {
		if _, ok := params[name]; ok {
			conflicting = append(conflicting, name)
		}
	}
	if len(conflicting) > 1 {
		return errors.Invalid(errors.ErrArgumentsIncompatible,
			"conflicting color parameters: %s", strings.Join(conflicting, ", "))
	}
	return nil
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
