// Package mcp exposes the kernel's tool surface over the Model Context
// Protocol.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"

	"github.com/arvenwood/loomfall/internal/character"
	"github.com/arvenwood/loomfall/internal/combat"
	"github.com/arvenwood/loomfall/internal/kernel"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Loomfall Kernel MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// NewServer builds an MCP server with every kernel tool registered.
func NewServer(k *kernel.Kernel) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerWorldTools(server, k)
	registerCombatTools(server, k)
	registerCharacterTools(server, k)
	registerEventTools(server, k)
	return server
}

// Run serves the kernel over stdio until the context ends.
func Run(ctx context.Context, k *kernel.Kernel) error {
	server := NewServer(k)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// handle adapts a kernel handler into an MCP tool handler. The text content
// carries the prose-plus-STATE_JSON envelope; structured consumers read the
// typed output instead. A span wraps each dispatch when tracing is enabled.
func handle[In any, Out any](action string, describe func(Out) string, dispatch func(context.Context, In) (Out, error)) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		runCtx, span := otel.Tracer("loomfall").Start(ctx, action)
		defer span.End()

		output, err := dispatch(runCtx, input)
		if err != nil {
			var zero Out
			return nil, zero, err
		}
		result := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{
				Text: kernel.Envelope(describe(output), output),
			}},
		}
		return result, output, nil
	}
}

func registerWorldTools(server *mcp.Server, k *kernel.Kernel) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "world_generate",
		Description: "Generates a seed-stable world: heightmap, climate, biomes, rivers, regions and structures",
	}, handle("world.generate", func(out kernel.WorldGenerateResult) string {
		return fmt.Sprintf("Generated world %s (%dx%d, seed %q): %d tiles, %d regions, %d structures.",
			out.WorldID, out.Width, out.Height, out.Seed, out.TileCount, out.RegionCount, out.StructureCount)
	}, k.WorldGenerate))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "world_get_state",
		Description: "Reports a world's biome histogram, structure count, seed and dimensions",
	}, handle("world.getState", func(out kernel.WorldGetStateResult) string {
		return fmt.Sprintf("World %s (%dx%d, seed %q) has %d structures across %d regions.",
			out.WorldID, out.Width, out.Height, out.Seed, out.StructureCount, out.RegionCount)
	}, k.WorldGetState))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "world_map_patch_preview",
		Description: "Decodes a map patch script without mutating the world",
	}, handle("world.mapPatch.preview", func(out kernel.MapPatchPreviewResult) string {
		return fmt.Sprintf("Patch decodes to %d command(s); willModify=%t.", len(out.Commands), out.WillModify)
	}, k.MapPatchPreview))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "world_map_patch_apply",
		Description: "Validates and atomically applies a map patch script",
	}, handle("world.mapPatch.apply", func(out kernel.MapPatchApplyResult) string {
		return fmt.Sprintf("Applied %d command(s): %d tiles changed, %d structures added (now %d total).",
			out.CommandsExecuted, out.TilesChanged, out.StructuresAdded, out.StructureCount)
	}, k.MapPatchApply))
}

func registerCombatTools(server *mcp.Server, k *kernel.Kernel) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_create_encounter",
		Description: "Rolls initiative and starts a combat encounter",
	}, handle("combat.createEncounter", func(out kernel.CreateEncounterResult) string {
		return fmt.Sprintf("Encounter %s started; round %d, %s acts first.",
			out.EncounterID, out.Round, out.CurrentTurn)
	}, k.CombatCreateEncounter))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_get_encounter_state",
		Description: "Returns the full encounter state record",
	}, handle("combat.getEncounterState", func(out kernel.EncounterStateResult) string {
		return fmt.Sprintf("Encounter %s: round %d, %s to act, %d participants.",
			out.EncounterID, out.Round, out.CurrentTurn, len(out.Participants))
	}, k.CombatGetEncounterState))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_execute_action",
		Description: "Executes an attack, heal, move, dash or disengage action with a full roll trace",
	}, handle("combat.executeAction", describeAction, k.CombatExecuteAction))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_advance_turn",
		Description: "Ends the current turn and starts the next, processing condition durations",
	}, handle("combat.advanceTurn", func(out combat.TurnTransition) string {
		return fmt.Sprintf("Turn passed from %s to %s; round %d.", out.PreviousID, out.CurrentID, out.Round)
	}, k.CombatAdvanceTurn))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_end_encounter",
		Description: "Completes an encounter and synchronises hp back to characters",
	}, handle("combat.endEncounter", func(out kernel.EndEncounterResult) string {
		return fmt.Sprintf("Encounter %s ended; synchronised %d participant(s).", out.EncounterID, len(out.Synced))
	}, k.CombatEndEncounter))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_resolve_stunt",
		Description: "Validates and applies a caller-adjudicated stunt record against kernel primitives",
	}, handle("combat.resolveStunt", func(out kernel.ResolveStuntResult) string {
		return fmt.Sprintf("Stunt check rolled %d (%s), affecting %d target(s).",
			out.Roll.Total, out.Degree, len(out.Targets))
	}, k.CombatResolveStunt))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combat_query_area",
		Description: "Lists the participants inside a sphere, cube, cone or line area of effect",
	}, handle("combat.queryArea", func(out kernel.QueryAreaResult) string {
		return fmt.Sprintf("%d participant(s) inside the area: %v.", len(out.ParticipantIDs), out.ParticipantIDs)
	}, k.CombatQueryArea))
}

func describeAction(out kernel.ExecuteActionResult) string {
	switch {
	case out.Attack != nil:
		verdict := "misses"
		if out.Attack.Hit {
			verdict = fmt.Sprintf("hits for %d damage (%d -> %d hp)",
				out.Attack.DamageDealt, out.Attack.TargetHPBefore, out.Attack.TargetHPAfter)
		}
		return fmt.Sprintf("Attack rolled %d (%s) and %s.", out.Attack.Roll.Total, out.Attack.Degree, verdict)
	case out.Heal != nil:
		return fmt.Sprintf("Heal restored %d hp (%d -> %d, %d wasted).",
			out.Heal.Healed, out.Heal.HPBefore, out.Heal.HPAfter, out.Heal.Wasted)
	case out.Move != nil:
		return fmt.Sprintf("Moved to (%d,%d); %d ft spent, %d ft remaining, %d opportunity attack(s).",
			out.Move.To.X, out.Move.To.Y, out.Move.CostFeet, out.Move.MovementRemaining, len(out.Move.OpportunityAttacks))
	default:
		return fmt.Sprintf("Action %s resolved.", out.Action)
	}
}

func registerCharacterTools(server *mcp.Server, k *kernel.Kernel) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "character_create",
		Description: "Creates a persistent character sheet",
	}, handle("character.create", func(out character.Character) string {
		return fmt.Sprintf("Character %s (%s) created with %d/%d hp.", out.Name, out.ID, out.HP, out.MaxHP)
	}, k.CharacterCreate))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "character_get",
		Description: "Loads a persistent character sheet",
	}, handle("character.get", func(out character.Character) string {
		return fmt.Sprintf("Character %s (%s) has %d/%d hp.", out.Name, out.ID, out.HP, out.MaxHP)
	}, k.CharacterGet))
}

func registerEventTools(server *mcp.Server, k *kernel.Kernel) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "events_subscribe",
		Description: "Subscribes to world/combat event topics; notifications buffer until polled",
	}, handle("events.subscribe", func(out kernel.SubscribeResult) string {
		return fmt.Sprintf("Subscription %s registered for %v.", out.SubscriptionID, out.Topics)
	}, k.EventsSubscribe))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "events_poll",
		Description: "Drains buffered notifications for a subscription",
	}, handle("events.poll", func(out kernel.PollResult) string {
		return fmt.Sprintf("%d event(s) delivered.", len(out.Events))
	}, k.EventsPoll))
}
