package kernel

import (
	"encoding/json"
	"fmt"
)

// Envelope renders the human-readable prose for a tool response followed by
// the delimited machine-readable state block:
//
//	<!-- STATE_JSON
//	{ ... }
//	STATE_JSON -->
//
// Machine consumers extract the block; humans read the prose.
func Envelope(prose string, state any) string {
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return prose
	}
	return fmt.Sprintf("%s\n\n<!-- STATE_JSON\n%s\nSTATE_JSON -->", prose, encoded)
}
