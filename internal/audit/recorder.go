// Package audit wraps tool dispatch with invocation recording and rebuilds
// state by re-executing the recorded log.
package audit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/simclock"
	"github.com/arvenwood/loomfall/internal/storage"
)

// Recorder records every wrapped invocation to the audit store.
//
// Recording failure never affects the dispatch result: the call's outcome is
// returned to the caller whether or not the log append succeeded. Timestamps
// come from the simulation clock, so a replayed log reproduces them.
type Recorder struct {
	store storage.AuditStore
	clock *simclock.Clock

	sessionID string
	seed      string
}

// NewRecorder creates a recorder bound to a session and its root seed.
func NewRecorder(store storage.AuditStore, clock *simclock.Clock, sessionID, seed string) *Recorder {
	return &Recorder{store: store, clock: clock, sessionID: sessionID, seed: seed}
}

// Record runs dispatch and appends one audit entry describing it.
func (r *Recorder) Record(ctx context.Context, action string, arguments any, dispatch func() (any, error)) (any, error) {
	entry := storage.AuditEntry{
		Action:    action,
		SessionID: r.sessionID,
		Seed:      r.seed,
	}
	if entryID, err := id.New(); err == nil {
		entry.ID = entryID
	}
	if requestID, ok := RequestIDFrom(ctx); ok {
		entry.RequestID = requestID
	}
	if encoded, err := json.Marshal(arguments); err == nil {
		entry.ArgumentsJSON = encoded
	}

	started := r.clock.Now()
	result, dispatchErr := dispatch()
	finished := r.clock.Now()

	entry.TimestampMillis = started.UnixMilli()
	entry.DurationMillis = finished.Sub(started).Milliseconds()

	if dispatchErr != nil {
		entry.ErrorCode = string(apperr.CodeOf(dispatchErr))
		entry.ErrorMessage = dispatchErr.Error()
	} else if encoded, err := json.Marshal(result); err == nil {
		entry.ResultJSON = encoded
	}

	if r.store != nil {
		if _, err := r.store.AppendAuditEntry(ctx, entry); err != nil {
			log.Printf("audit append failed for %s: %v", action, err)
		}
	}
	return result, dispatchErr
}

type requestIDKey struct{}

// WithRequestID attaches a transport request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom extracts a transport request id from the context.
func RequestIDFrom(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey{}).(string)
	return value, ok
}
