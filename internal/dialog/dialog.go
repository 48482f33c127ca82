// Package dialog holds the shared transcript types every flow consumes.
package dialog

import (
	"fmt"
	"strings"
)

// Role identifies who authored a turn.
type Role string

const (
	// RoleAgent marks turns this system sent.
	RoleAgent Role = "agent"
	// RoleCounterpart marks turns from the person on the other side of
	// the conversation (patient, receptionist, clinic manager).
	RoleCounterpart Role = "human"
)

// Turn is a single recorded message. Turns are immutable once recorded;
// an ordered slice of them forms the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript renders a history for inclusion in a reasoner prompt.
// An empty history renders as "[]" so the model sees an explicit signal
// that this is the first message.
func Transcript(turns []Turn) string {
	if len(turns) == 0 {
		return "[]"
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", t.Role, t.Content)
	}
	return b.String()
}

// AttemptCount returns how many turns the agent has authored.
func AttemptCount(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleAgent {
			n++
		}
	}
	return n
}
