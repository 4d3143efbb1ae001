package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/namezys/hass-home-script/action"
	"github.com/namezys/hass-home-script/condition"
	"github.com/namezys/hass-home-script/engine"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/event"
	"github.com/namezys/hass-home-script/schema"
)

// natsEffector is a placeholder host adapter that logs each invoked call.
// TODO: publish service calls back to the host over NATS once the call
// subject format is settled.
type natsEffector struct {
	entityID string
	logger   *slog.Logger
}

func newNATSEffector(entityID string) *natsEffector {
	return &natsEffector{
		entityID: entityID,
		logger:   slog.Default().With("component", "effector", "entity", entityID),
	}
}

func (e *natsEffector) EntityID() string { return e.entityID }

func (e *natsEffector) State() entity.State { return entity.State{} }

func (e *natsEffector) Call(_ context.Context, operation string, params map[string]any) error {
	e.logger.Info("host call", "operation", operation, "params", params)
	return nil
}

// registerRules installs the compiled-in rule scripts. Rules are Go code;
// deployments edit this function (or link their own rule packages) and
// rebuild the daemon.
func registerRules(eng *engine.Engine, registry *entity.MemoryRegistry) error {
	hall := newNATSEffector("light.hall")
	registry.Register("light", hall)

	hallLight, err := entity.NewLight(hall, "brightness", "transition")
	if err != nil {
		return err
	}

	motionOn, err := event.StateChange("binary_sensor.hall_motion").New("on")
	if err != nil {
		return err
	}
	motionOff, err := event.StateChange("binary_sensor.hall_motion").New("off")
	if err != nil {
		return err
	}

	night := condition.NewFunc("night", func() bool { return true })
	brightness := condition.NewValue(night, 40, 255)

	turnOffDelayed, err := action.Sequence(action.Sleep(2*time.Minute), hallLight.TurnOff())
	if err != nil {
		return err
	}

	return eng.Register("hall_light", schema.Schema{
		{
			On: motionOn,
			Do: schema.Act(hallLight.TurnOn().With(nil, map[string]any{"brightness": brightness})),
		},
		{
			On: motionOff,
			Do: schema.Act(turnOffDelayed),
		},
	})
}
