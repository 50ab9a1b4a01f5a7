package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/arvenwood/loomfall/internal/storage"
)

const replayPageSize = 200

// HandlerFunc dispatches one recorded action from its raw argument record.
type HandlerFunc func(ctx context.Context, arguments json.RawMessage) (any, error)

// Summary reports the outcome of a replay pass.
type Summary struct {
	Replayed int `json:"replayed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Replay feeds each audit entry, in recorded order, to its handler.
//
// Re-executing the log against a kernel built from the same seed reproduces
// the original state. A missing handler skips the entry with a warning; an
// entry whose handler errors is counted and replay continues, matching the
// original run where the same call also failed.
func Replay(ctx context.Context, source storage.AuditStore, handlers map[string]HandlerFunc) (Summary, error) {
	if source == nil {
		return Summary{}, fmt.Errorf("audit store is not configured")
	}

	summary := Summary{}
	lastSeq := uint64(0)
	for {
		entries, err := source.ListAuditEntries(ctx, lastSeq, replayPageSize)
		if err != nil {
			return summary, err
		}
		if len(entries) == 0 {
			return summary, nil
		}
		for _, entry := range entries {
			lastSeq = entry.Seq

			handler, ok := handlers[entry.Action]
			if !ok {
				log.Printf("replay: no handler for %q (seq %d), skipping", entry.Action, entry.Seq)
				summary.Skipped++
				continue
			}
			if _, err := handler(ctx, entry.ArgumentsJSON); err != nil {
				if entry.ErrorCode == "" || !strings.HasPrefix(err.Error(), entry.ErrorCode) {
					log.Printf("replay: %q (seq %d) failed: %v", entry.Action, entry.Seq, err)
				}
				summary.Failed++
				continue
			}
			summary.Replayed++
		}
	}
}
