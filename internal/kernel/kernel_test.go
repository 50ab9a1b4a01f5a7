package kernel

import (
	"context"
	"strings"
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/character"
	"github.com/arvenwood/loomfall/internal/combat"
	"github.com/arvenwood/loomfall/internal/simclock"
	"github.com/arvenwood/loomfall/internal/spatial"
	"github.com/arvenwood/loomfall/internal/storage/sqlite"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New("session-test", "kernel-seed", store, simclock.New())
}

func TestWorldGenerateAndGetState(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	generated, err := k.WorldGenerate(ctx, WorldGenerateInput{Seed: "determinism-001", Width: 15, Height: 15})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated.TileCount != 225 {
		t.Fatalf("expected 225 tiles, got %d", generated.TileCount)
	}

	state, err := k.WorldGetState(ctx, WorldGetStateInput{WorldID: generated.WorldID})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Seed != "determinism-001" || state.Width != 15 || state.Height != 15 {
		t.Fatalf("state mismatch: %+v", state)
	}
	if state.StructureCount != generated.StructureCount {
		t.Fatalf("structure count drifted between generate and getState")
	}
	total := 0
	for _, count := range state.BiomeCounts {
		total += count
	}
	if total != 225 {
		t.Fatalf("biome histogram does not cover the grid: %d", total)
	}
}

func TestWorldGetStateNotFound(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.WorldGetState(context.Background(), WorldGetStateInput{WorldID: "ghost"})
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMapPatchPreviewDoesNotMutate(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	generated, err := k.WorldGenerate(ctx, WorldGenerateInput{Seed: "preview-test", Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	script := `ADD_STRUCTURE type="city" x=10 y=10 name="Preview City"`

	preview, err := k.MapPatchPreview(ctx, MapPatchPreviewInput{WorldID: generated.WorldID, Script: script})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Commands) != 1 || !preview.WillModify {
		t.Fatalf("preview mismatch: %+v", preview)
	}

	state, err := k.WorldGetState(ctx, WorldGetStateInput{WorldID: generated.WorldID})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.StructureCount != generated.StructureCount {
		t.Fatal("preview must not change structure count")
	}

	applied, err := k.MapPatchApply(ctx, MapPatchApplyInput{WorldID: generated.WorldID, Script: script})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.CommandsExecuted != 1 || applied.StructuresAdded != 1 {
		t.Fatalf("apply mismatch: %+v", applied)
	}
	if applied.StructureCount != generated.StructureCount+1 {
		t.Fatalf("expected structure count %d, got %d", generated.StructureCount+1, applied.StructureCount)
	}
}

func TestMapPatchApplyInvalidCommandAtomic(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	generated, err := k.WorldGenerate(ctx, WorldGenerateInput{Seed: "invalid-patch", Width: 20, Height: 20})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = k.MapPatchApply(ctx, MapPatchApplyInput{WorldID: generated.WorldID, Script: "INVALID_COMMAND x=5 y=5"})
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 1") || !strings.Contains(err.Error(), "INVALID_COMMAND") {
		t.Fatalf("error must cite command and line: %v", err)
	}

	state, err := k.WorldGetState(ctx, WorldGetStateInput{WorldID: generated.WorldID})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.StructureCount != generated.StructureCount {
		t.Fatal("failed patch must leave the world unchanged")
	}
}

func TestEncounterLifecycleSyncsHP(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	hero, err := k.CharacterCreate(ctx, CharacterCreateInput{
		Name: "Torv", MaxHP: 30, AC: 15, Level: 3,
		Stats: character.Stats{Str: 14, Dex: 12, Con: 13, Int: 10, Wis: 11, Cha: 9},
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}

	enemy := true
	ally := false
	created, err := k.CombatCreateEncounter(ctx, CreateEncounterInput{
		Seed: "verify-1",
		Participants: []ParticipantInput{
			{CharacterID: hero.ID, Name: "Torv", InitiativeBonus: 3, IsEnemy: &ally, MaxHP: 30},
			{Name: "goblin", InitiativeBonus: 1, IsEnemy: &enemy, MaxHP: 10},
		},
	})
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if len(created.TurnOrder) != 2 || created.Round != 1 {
		t.Fatalf("encounter setup wrong: %+v", created)
	}

	state, err := k.CombatGetEncounterState(ctx, EncounterStateInput{EncounterID: created.EncounterID})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}

	// Whoever acts first attacks the other; either way the trace and hp
	// arithmetic must agree.
	var actorID, targetID string
	for _, p := range state.Participants {
		if p.ID == state.CurrentTurn {
			actorID = p.ID
		} else {
			targetID = p.ID
		}
	}
	executed, err := k.CombatExecuteAction(ctx, ExecuteActionInput{
		EncounterID: created.EncounterID,
		Action:      "attack",
		ActorID:     actorID,
		Attack:      &AttackActionInput{TargetID: targetID, AttackBonus: 5, DC: 12, Damage: 8},
	})
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if executed.Attack == nil || len(executed.Attack.Roll.Rolls) == 0 {
		t.Fatal("attack result must carry a roll trace")
	}

	transition, err := k.CombatAdvanceTurn(ctx, AdvanceTurnInput{EncounterID: created.EncounterID})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if transition.Round != 1 {
		t.Fatalf("round must remain 1 until all acted, got %d", transition.Round)
	}
	transition, err = k.CombatAdvanceTurn(ctx, AdvanceTurnInput{EncounterID: created.EncounterID})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if transition.Round != 2 {
		t.Fatalf("expected round 2 after the full cycle, got %d", transition.Round)
	}

	// End and verify the character record now carries the participant's hp.
	finalState, err := k.CombatGetEncounterState(ctx, EncounterStateInput{EncounterID: created.EncounterID})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	var heroHP int
	for _, p := range finalState.Participants {
		if p.SourceID == hero.ID {
			heroHP = p.HP
		}
	}

	ended, err := k.CombatEndEncounter(ctx, EndEncounterInput{EncounterID: created.EncounterID})
	if err != nil {
		t.Fatalf("end encounter: %v", err)
	}
	if len(ended.Synced) != 2 {
		t.Fatalf("expected 2 synced entries, got %d", len(ended.Synced))
	}

	reloaded, err := k.CharacterGet(ctx, CharacterGetInput{CharacterID: hero.ID})
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if reloaded.HP != heroHP {
		t.Fatalf("expected synced hp %d, got %d", heroHP, reloaded.HP)
	}

	if _, err := k.CombatGetEncounterState(ctx, EncounterStateInput{EncounterID: created.EncounterID}); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("ended encounter must leave the registry, got %v", err)
	}
}

func TestExecuteActionUnknownEncounter(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CombatExecuteAction(context.Background(), ExecuteActionInput{
		EncounterID: "ghost", Action: "dash", ActorID: "a",
	})
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEventsSubscribeAndPoll(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	sub, err := k.EventsSubscribe(ctx, SubscribeInput{Topics: []string{"world"}})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := k.WorldGenerate(ctx, WorldGenerateInput{Seed: "events", Width: 10, Height: 10}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	polled, err := k.EventsPoll(ctx, PollInput{SubscriptionID: sub.SubscriptionID})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(polled.Events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(polled.Events))
	}

	again, err := k.EventsPoll(ctx, PollInput{SubscriptionID: sub.SubscriptionID})
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if len(again.Events) != 0 {
		t.Fatal("poll must drain the buffer")
	}
}

func TestSubscribeRejectsUnknownTopic(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.EventsSubscribe(context.Background(), SubscribeInput{Topics: []string{"weather"}})
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestEnvelopeCarriesStateBlock(t *testing.T) {
	text := Envelope("All done.", map[string]int{"count": 3})
	if !strings.HasPrefix(text, "All done.") {
		t.Fatalf("prose must lead: %q", text)
	}
	if !strings.Contains(text, "<!-- STATE_JSON") || !strings.Contains(text, "STATE_JSON -->") {
		t.Fatalf("envelope must delimit the state block: %q", text)
	}
	if !strings.Contains(text, `"count": 3`) {
		t.Fatalf("state payload missing: %q", text)
	}
}

func TestCombatQueryArea(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	enemy := true
	created, err := k.CombatCreateEncounter(ctx, CreateEncounterInput{
		Seed: "query-area",
		Participants: []ParticipantInput{
			{ID: "mage", Name: "mage", MaxHP: 15, Position: &spatial.Position{X: 0, Y: 0}},
			{ID: "near", Name: "near", MaxHP: 15, IsEnemy: &enemy, Position: &spatial.Position{X: 2, Y: 0}},
			{ID: "far", Name: "far", MaxHP: 15, IsEnemy: &enemy, Position: &spatial.Position{X: 9, Y: 0}},
		},
	})
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	result, err := k.CombatQueryArea(ctx, QueryAreaInput{
		EncounterID: created.EncounterID,
		Area: combat.AreaQuery{
			Shape:    combat.ShapeSphere,
			Origin:   spatial.Position{X: 0, Y: 0},
			SizeFeet: 15,
			SelfID:   "mage",
		},
	})
	if err != nil {
		t.Fatalf("query area: %v", err)
	}
	if len(result.ParticipantIDs) != 1 || result.ParticipantIDs[0] != "near" {
		t.Fatalf("expected only the near target, got %v", result.ParticipantIDs)
	}

	if _, err := k.CombatQueryArea(ctx, QueryAreaInput{
		EncounterID: created.EncounterID,
		Area:        combat.AreaQuery{Shape: "donut", SizeFeet: 10},
	}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("unknown shape must fail validation, got %v", err)
	}
	if _, err := k.CombatQueryArea(ctx, QueryAreaInput{
		EncounterID: "ghost",
		Area:        combat.AreaQuery{Shape: combat.ShapeSphere, SizeFeet: 10},
	}); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unknown encounter must fail with NOT_FOUND, got %v", err)
	}
}

func TestResolveStuntValidates(t *testing.T) {
	k := newTestKernel(t)
	ctx := context.Background()

	enemy := true
	created, err := k.CombatCreateEncounter(ctx, CreateEncounterInput{
		Seed: "stunt",
		Participants: []ParticipantInput{
			{ID: "hero", Name: "hero", MaxHP: 20},
			{ID: "brute", Name: "brute", MaxHP: 20, IsEnemy: &enemy},
		},
	})
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	if _, err := k.CombatResolveStunt(ctx, ResolveStuntInput{
		EncounterID: created.EncounterID, ActorID: "hero", DC: 0,
	}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("zero DC must fail validation, got %v", err)
	}
	if _, err := k.CombatResolveStunt(ctx, ResolveStuntInput{
		EncounterID: created.EncounterID, ActorID: "hero", DC: 10, DamageDice: "2d6",
	}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("consequences without a target must fail, got %v", err)
	}

	actor := created.CurrentTurn
	target := "brute"
	if actor == "brute" {
		target = "hero"
	}
	result, err := k.CombatResolveStunt(ctx, ResolveStuntInput{
		EncounterID: created.EncounterID, ActorID: actor, TargetID: target,
		DC: 10, CheckBonus: 2, DamageDice: "2d6",
	})
	if err != nil {
		t.Fatalf("stunt: %v", err)
	}
	if result.Degree.IsSuccess() && result.DamageTrace == nil {
		t.Fatal("successful stunt must trace its damage roll")
	}
}
