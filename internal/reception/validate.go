package reception

import "github.com/easyscale/clinic-ai-engine/internal/extract"

// Correction rule identifiers, reported in the order they fired.
const (
	CorrectionUnknownStage  = "unknown_stage"
	CorrectionStalled       = "stalled"
	CorrectionContactForces = "contact_forces_success"
)

// DefaultMaxAttempts is how many agent turns a conversation gets before a
// stalled early stage is closed out.
const DefaultMaxAttempts = 5

// Proposal is the reasoner's untrusted suggestion for this turn, plus the
// counters the caller supplies.
type Proposal struct {
	Stage          string // raw proposed stage, possibly outside the closed set
	Contact        string // raw manager-contact guess
	Name           string // raw manager-name guess
	ShouldContinue bool   // reasoner's own continue suggestion
	AttemptCount   int    // agent turns already sent
}

// Result is the authoritative validated state for the turn. Downstream
// systems may only act on this, never on the raw proposal.
type Result struct {
	Stage          Stage
	Contact        string // normalized digits, empty when absent
	Name           string // cleaned, empty when absent
	ShouldContinue bool
	Corrections    []string // rule identifiers that fired, in order
}

// Validator applies the reception correction cascade. The zero value is
// not usable; use NewValidator.
type Validator struct {
	maxAttempts    int
	phoneMinDigits int
}

// NewValidator builds a validator. Non-positive arguments fall back to
// the package defaults.
func NewValidator(maxAttempts, phoneMinDigits int) *Validator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if phoneMinDigits <= 0 {
		phoneMinDigits = extract.MinPhoneDigits
	}
	return &Validator{maxAttempts: maxAttempts, phoneMinDigits: phoneMinDigits}
}

// Validate reconciles a raw proposal into the authoritative state. It is
// a pure function of its input: the rules below apply in order and later
// rules override earlier ones. It never fails; irreconcilable input
// degrades to the safest non-committal stage with entities absent.
func (v *Validator) Validate(p Proposal) Result {
	res := Result{ShouldContinue: p.ShouldContinue}

	stage, ok := ParseStage(p.Stage)
	if !ok {
		stage = StageRequesting
		res.Corrections = append(res.Corrections, CorrectionUnknownStage)
	}

	res.Contact, _ = extract.PhoneMin(p.Contact, v.phoneMinDigits)
	res.Name = extract.Name(p.Name)

	// A conversation stuck in the early stages after too many agent turns
	// is not going to progress; close it out.
	if p.AttemptCount >= v.maxAttempts && (stage == StageOpening || stage == StageRequesting) {
		stage = StageFailed
		res.Corrections = append(res.Corrections, CorrectionStalled)
	}

	// A usable contact is the whole point of the flow: it forces success
	// unless the conversation already ended.
	if res.Contact != "" && !stage.Terminal() {
		stage = StageSuccess
		res.Corrections = append(res.Corrections, CorrectionContactForces)
	}

	res.Stage = stage
	if stage.Terminal() {
		res.ShouldContinue = false
	}
	return res
}
