// Package kernel wires the tool surface: typed handlers over the combat
// engine, world generator, patch DSL and persistence, with every invocation
// recorded by the audit spine.
//
// There is no global state. A Kernel is built per session and holds the
// encounter registry, event bus, store handle, simulation clock and the
// session's deterministic id stream; tests build their own.
package kernel

import (
	"context"
	"encoding/json"

	"github.com/arvenwood/loomfall/internal/audit"
	"github.com/arvenwood/loomfall/internal/combat"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/events"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/simclock"
	"github.com/arvenwood/loomfall/internal/storage"
)

// Kernel is the per-session context every handler runs against.
type Kernel struct {
	SessionID string
	Seed      string

	Store      storage.Store
	Bus        *events.Bus
	Clock      *simclock.Clock
	Encounters *combat.Registry

	recorder *audit.Recorder
	// ids is the session-scoped deterministic id stream. Entity ids must be
	// reproducible under replay, so they are a function of the session seed
	// and call order, never crypto entropy.
	ids *dice.Stream

	subscriptions map[string]*subscription
}

// New builds a session kernel. The seed namespaces every deterministic
// stream the session uses.
func New(sessionID, seed string, store storage.Store, clock *simclock.Clock) *Kernel {
	k := &Kernel{
		SessionID:     sessionID,
		Seed:          seed,
		Store:         store,
		Bus:           events.NewBus(),
		Clock:         clock,
		Encounters:    combat.NewRegistry(),
		ids:           dice.NewStream(seed).Fork("session-ids"),
		subscriptions: map[string]*subscription{},
	}
	k.recorder = audit.NewRecorder(store, clock, sessionID, seed)

	// Every published event lands in the event log; log failure is isolated
	// like any other subscriber failure.
	logEvents := func(event events.Event) {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return
		}
		_, _ = store.AppendEvent(context.Background(), storage.EventRecord{
			Topic:           string(event.Topic),
			PayloadJSON:     payload,
			TimestampMillis: clock.Now().UnixMilli(),
		})
	}
	k.Bus.Subscribe(events.TopicWorld, logEvents)
	k.Bus.Subscribe(events.TopicCombat, logEvents)
	return k
}

// NextID draws the next deterministic entity id.
func (k *Kernel) NextID() string {
	return id.FromBytes(k.ids.Bytes16())
}

// record wraps a handler body with audit recording.
func (k *Kernel) record(ctx context.Context, action string, arguments any, dispatch func() (any, error)) (any, error) {
	return k.recorder.Record(ctx, action, arguments, dispatch)
}
