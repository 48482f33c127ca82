package scheduling

import (
	"strings"

	"github.com/easyscale/clinic-ai-engine/internal/extract"
)

// Correction rule identifiers, reported in the order they fired.
const (
	CorrectionUnknownStage      = "unknown_stage"
	CorrectionStrayDateTime     = "stray_datetime"
	CorrectionQuestionDowngrade = "question_downgrade"
	CorrectionNoDateTime        = "scheduled_without_datetime"
	CorrectionNoAvailability    = "no_availability"
	CorrectionStalled           = "stalled"
	CorrectionDateTimeInvariant = "datetime_invariant"
)

// DefaultMaxAttempts mirrors the reception flow: agent turns before a
// stalled early-stage conversation is written off.
const DefaultMaxAttempts = 5

// Proposal is the reasoner's untrusted suggestion for this turn.
type Proposal struct {
	Stage           string // raw proposed stage
	MeetingDateTime string // raw date-time guess
	LatestMessage   string // manager's latest message, used for the counter-proposal heuristic
	HasAvailability bool   // whether any time slots exist
	ShouldContinue  bool
	AttemptCount    int
}

// Result is the authoritative validated state. MeetingDateTime is a
// canonical ISO-8601 string and is non-empty exactly when Stage is
// scheduled.
type Result struct {
	Stage           Stage
	MeetingDateTime string
	ShouldContinue  bool
	Corrections     []string
}

// Validator applies the scheduling correction cascade.
type Validator struct {
	maxAttempts int
}

func NewValidator(maxAttempts int) *Validator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Validator{maxAttempts: maxAttempts}
}

// Validate reconciles a raw proposal into the authoritative state. Rules
// apply in order; later rules override earlier results. The function is
// pure and never fails.
func (v *Validator) Validate(p Proposal) Result {
	res := Result{ShouldContinue: p.ShouldContinue}

	stage, ok := ParseStage(p.Stage)
	if !ok {
		stage = StagePitching
		res.Corrections = append(res.Corrections, CorrectionUnknownStage)
	}

	meetingDT, _ := extract.DateTime(p.MeetingDateTime)

	// A date-time outside the commitment stages is a hallucination from
	// the pitch; discard it.
	if meetingDT != "" && stage != StageScheduled && stage != StageConfirming {
		meetingDT = ""
		res.Corrections = append(res.Corrections, CorrectionStrayDateTime)
	}

	// A question in the manager's last message signals a counter-proposal,
	// not a confirmation.
	if stage == StageScheduled && strings.Contains(p.LatestMessage, "?") {
		stage = StageConfirming
		meetingDT = ""
		res.Corrections = append(res.Corrections, CorrectionQuestionDowngrade)
	}

	// Scheduled without a surviving date-time is not scheduled.
	if stage == StageScheduled && meetingDT == "" {
		stage = StageConfirming
		res.Corrections = append(res.Corrections, CorrectionNoDateTime)
	}

	// Cannot offer times that do not exist.
	if stage == StageProposingTime && !p.HasAvailability {
		stage = StagePitching
		res.Corrections = append(res.Corrections, CorrectionNoAvailability)
	}

	if p.AttemptCount >= v.maxAttempts && (stage == StageGreeting || stage == StagePitching) {
		stage = StageLost
		res.Corrections = append(res.Corrections, CorrectionStalled)
	}

	// Final invariant: a date-time exists iff the meeting is scheduled.
	if stage != StageScheduled && meetingDT != "" {
		meetingDT = ""
		res.Corrections = append(res.Corrections, CorrectionDateTimeInvariant)
	}

	res.Stage = stage
	res.MeetingDateTime = meetingDT
	if stage.Terminal() {
		res.ShouldContinue = false
	}
	return res
}
