// Package scheduling implements the meeting-booking flow: the agent
// talks to a clinic manager to schedule a demo call. Its validator owns
// the one invariant downstream calendar integration depends on: a
// conversation is "scheduled" exactly when a concrete meeting date-time
// survived validation.
package scheduling

import "strings"

// Stage is the closed enumeration of scheduling conversation stages.
type Stage string

const (
	// StageGreeting is the initial personal greeting.
	StageGreeting Stage = "greeting"
	// StagePitching is the in-progress default: presenting the offer.
	StagePitching Stage = "pitching"
	// StageProposingTime means the agent is offering concrete slots.
	StageProposingTime Stage = "proposing_time"
	// StageConfirming means a slot is on the table awaiting agreement.
	StageConfirming Stage = "confirming"
	// StageScheduled is terminal: the meeting is booked.
	StageScheduled Stage = "scheduled"
	// StageLost is terminal: the manager declined or the conversation
	// stalled out.
	StageLost Stage = "lost"
)

var validStages = map[Stage]struct{}{
	StageGreeting:      {},
	StagePitching:      {},
	StageProposingTime: {},
	StageConfirming:    {},
	StageScheduled:     {},
	StageLost:          {},
}

// ParseStage maps a raw proposed stage onto the closed set.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := validStages[s]
	return s, ok
}

// Terminal reports whether the stage ends the conversation.
func (s Stage) Terminal() bool {
	return s == StageScheduled || s == StageLost
}
