// Package reception implements the reception outreach flow: the agent
// talks to a clinic's front desk to obtain the manager's WhatsApp
// contact. The reasoner proposes a reply and a stage; the validator in
// this package is the authority on what stage the conversation is
// actually in.
package reception

import "strings"

// Stage is the closed enumeration of reception conversation stages.
type Stage string

const (
	// StageOpening is the first message confirming the clinic.
	StageOpening Stage = "opening"
	// StageRequesting is the in-progress default: asking for the
	// manager's contact.
	StageRequesting Stage = "requesting"
	// StageHandlingObjection means the front desk raised an obstacle or
	// a qualifying question.
	StageHandlingObjection Stage = "handling_objection"
	// StageSuccess is terminal: a usable contact was obtained.
	StageSuccess Stage = "success"
	// StageFailed is terminal: the front desk refused after repeated
	// objection handling, or the conversation stalled out.
	StageFailed Stage = "failed"
)

var validStages = map[Stage]struct{}{
	StageOpening:           {},
	StageRequesting:        {},
	StageHandlingObjection: {},
	StageSuccess:           {},
	StageFailed:            {},
}

// ParseStage maps a raw proposed stage onto the closed set. Unknown
// values report ok=false; the validator substitutes the in-progress
// default.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := validStages[s]
	return s, ok
}

// Terminal reports whether the stage ends the conversation.
func (s Stage) Terminal() bool {
	return s == StageSuccess || s == StageFailed
}
