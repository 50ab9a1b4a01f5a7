package kernel

import (
	"context"
	"encoding/json"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/audit"
)

// typed adapts a typed handler into the raw-JSON form used by replay. The
// argument record is unmarshalled and the handler invoked exactly as the
// original dispatch would have.
func typed[In any, Out any](handler func(context.Context, In) (Out, error)) audit.HandlerFunc {
	return func(ctx context.Context, arguments json.RawMessage) (any, error) {
		var input In
		if len(arguments) > 0 {
			if err := json.Unmarshal(arguments, &input); err != nil {
				return nil, apperr.Wrap(apperr.CodeValidation, err, "decode arguments")
			}
		}
		return handler(ctx, input)
	}
}

// Handlers returns the action-keyed dispatch table used by replay. Its
// entries are the same Kernel methods the tool adapter registers, which is
// what makes replay faithful: a recorded log re-executes through the
// identical code paths.
func (k *Kernel) Handlers() map[string]audit.HandlerFunc {
	return map[string]audit.HandlerFunc{
		"world.generate":         typed(k.WorldGenerate),
		"world.getState":         typed(k.WorldGetState),
		"world.mapPatch.preview": typed(k.MapPatchPreview),
		"world.mapPatch.apply":   typed(k.MapPatchApply),
		"combat.createEncounter":   typed(k.CombatCreateEncounter),
		"combat.getEncounterState": typed(k.CombatGetEncounterState),
		"combat.executeAction":     typed(k.CombatExecuteAction),
		"combat.advanceTurn":       typed(k.CombatAdvanceTurn),
		"combat.endEncounter":      typed(k.CombatEndEncounter),
		"combat.resolveStunt":      typed(k.CombatResolveStunt),
		"combat.queryArea":         typed(k.CombatQueryArea),
		"character.create": typed(k.CharacterCreate),
		"character.get":    typed(k.CharacterGet),
		"events.subscribe": typed(k.EventsSubscribe),
		"events.poll":      typed(k.EventsPoll),
	}
}
