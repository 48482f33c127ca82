package reception

import (
	"reflect"
	"testing"
)

func TestValidateStageCorrections(t *testing.T) {
	v := NewValidator(5, 10)

	tests := []struct {
		name         string
		proposal     Proposal
		wantStage    Stage
		wantContinue bool
	}{
		{
			"valid in-progress stage passes through",
			Proposal{Stage: "requesting", ShouldContinue: true},
			StageRequesting, true,
		},
		{
			"unknown stage defaults to requesting",
			Proposal{Stage: "negotiating", ShouldContinue: true},
			StageRequesting, true,
		},
		{
			"empty stage defaults to requesting",
			Proposal{Stage: "", ShouldContinue: true},
			StageRequesting, true,
		},
		{
			"mixed case accepted",
			Proposal{Stage: " Handling_Objection ", ShouldContinue: true},
			StageHandlingObjection, true,
		},
		{
			"contact forces success",
			Proposal{Stage: "handling_objection", Contact: "11999998888", ShouldContinue: true},
			StageSuccess, false,
		},
		{
			"contact does not resurrect failed",
			Proposal{Stage: "failed", Contact: "11999998888", ShouldContinue: true},
			StageFailed, false,
		},
		{
			"stalled opening forced to failed",
			Proposal{Stage: "opening", AttemptCount: 5, ShouldContinue: true},
			StageFailed, false,
		},
		{
			"stalled requesting forced to failed",
			Proposal{Stage: "requesting", AttemptCount: 6, ShouldContinue: true},
			StageFailed, false,
		},
		{
			"objection handling survives attempt ceiling",
			Proposal{Stage: "handling_objection", AttemptCount: 6, ShouldContinue: true},
			StageHandlingObjection, true,
		},
		{
			"contact wins over stall",
			Proposal{Stage: "requesting", Contact: "11999998888", AttemptCount: 7, ShouldContinue: true},
			StageFailed, false,
		},
		{
			"terminal success forces stop",
			Proposal{Stage: "success", Contact: "11999998888", ShouldContinue: true},
			StageSuccess, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.proposal)
			if got.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", got.Stage, tt.wantStage)
			}
			if got.ShouldContinue != tt.wantContinue {
				t.Errorf("ShouldContinue = %v, want %v", got.ShouldContinue, tt.wantContinue)
			}
		})
	}
}

func TestValidateEntities(t *testing.T) {
	v := NewValidator(5, 10)

	got := v.Validate(Proposal{
		Stage:          "requesting",
		Contact:        "Anota aí: 11 98765-4321",
		Name:           "null",
		ShouldContinue: true,
	})
	if got.Contact != "11987654321" {
		t.Errorf("Contact = %q, want 11987654321", got.Contact)
	}
	if got.Name != "" {
		t.Errorf("Name = %q, want absent", got.Name)
	}
	if got.Stage != StageSuccess {
		t.Errorf("Stage = %q, want success once contact extracted", got.Stage)
	}

	got = v.Validate(Proposal{Stage: "requesting", Contact: "9999", Name: "  Dr.  Carlos ", ShouldContinue: true})
	if got.Contact != "" {
		t.Errorf("short number should be rejected, got %q", got.Contact)
	}
	if got.Name != "Dr. Carlos" {
		t.Errorf("Name = %q, want collapsed whitespace", got.Name)
	}
	if got.Stage != StageRequesting {
		t.Errorf("Stage = %q, want requesting without a valid contact", got.Stage)
	}
}

func TestValidateCorrectionOrder(t *testing.T) {
	v := NewValidator(5, 10)

	got := v.Validate(Proposal{
		Stage:          "bogus",
		Contact:        "11999998888",
		AttemptCount:   9,
		ShouldContinue: true,
	})
	// Unknown stage → requesting, stalled → failed; failure is terminal so
	// the contact rule must not fire afterwards.
	want := []string{CorrectionUnknownStage, CorrectionStalled}
	if !reflect.DeepEqual(got.Corrections, want) {
		t.Errorf("Corrections = %v, want %v", got.Corrections, want)
	}
	if got.Stage != StageFailed {
		t.Errorf("Stage = %q, want failed", got.Stage)
	}
}

func TestValidateIsPure(t *testing.T) {
	v := NewValidator(5, 10)
	p := Proposal{Stage: "requesting", Contact: "11 98765-4321", ShouldContinue: true}

	first := v.Validate(p)
	for i := 0; i < 20; i++ {
		if got := v.Validate(p); !reflect.DeepEqual(got, first) {
			t.Fatalf("Validate not deterministic: %+v vs %+v", got, first)
		}
	}
}
