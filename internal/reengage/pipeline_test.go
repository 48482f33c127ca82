package reengage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
)

// scriptedReasoner returns queued replies in order and records every
// request, so tests can drive the loop deterministically.
type scriptedReasoner struct {
	replies  []string
	errs     []error
	requests []reasoner.Request
}

func (s *scriptedReasoner) Complete(_ context.Context, req reasoner.Request) (reasoner.Response, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return reasoner.Response{}, s.errs[i]
	}
	if i >= len(s.replies) {
		return reasoner.Response{}, errors.New("no scripted reply")
	}
	return reasoner.Response{Text: s.replies[i]}, nil
}

func newTestPipeline(stub *scriptedReasoner) *Pipeline {
	return NewPipeline(stub, "test-model", time.Second, DefaultMaxRevisions, nil)
}

const (
	analysisReply = `{"diagnosis": "medo do procedimento, precisa de acolhimento"}`
	strategyReply = `{"strategy": "EDUCACIONAL"}`
	copyReply     = `{"copy": "Oi Mariana, tudo bem? Lembrei de você hoje..."}`
	approveReply  = `{"approved": "true", "feedback": "amigável e curta, aprovado"}`
	rejectReply   = `{"approved": "false", "feedback": "formal demais, parece um boleto"}`
)

func TestComposeApprovedFirstPass(t *testing.T) {
	stub := &scriptedReasoner{replies: []string{analysisReply, strategyReply, copyReply, approveReply}}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana", AdSource: "instagram"})

	require.NotNil(t, out)
	assert.True(t, out.Approved)
	assert.Equal(t, 0, out.RevisionCount)
	assert.Equal(t, StrategyEducational, out.Strategy)
	assert.Contains(t, out.Copy, "Mariana")
	assert.Len(t, stub.requests, 4)
}

func TestComposeRevisesOnRejection(t *testing.T) {
	revised := `{"copy": "Oi Mariana! Sumiu, hein? Senti sua falta por aqui."}`
	stub := &scriptedReasoner{replies: []string{
		analysisReply, strategyReply, copyReply,
		rejectReply, revised, approveReply,
	}}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.True(t, out.Approved)
	assert.Equal(t, 1, out.RevisionCount)
	assert.Contains(t, out.Copy, "Sumiu")
	// Only the generate step repeats; analysis and strategy run once.
	assert.Len(t, stub.requests, 6)
}

func TestComposeRevisionFeedbackReachesWriter(t *testing.T) {
	revised := `{"copy": "Oi Mariana! Bora remarcar?"}`
	stub := &scriptedReasoner{replies: []string{
		analysisReply, strategyReply, copyReply,
		rejectReply, revised, approveReply,
	}}
	p := newTestPipeline(stub)

	p.Compose(context.Background(), Input{LeadName: "Mariana"})

	require.Len(t, stub.requests, 6)
	assert.Contains(t, stub.requests[4].Messages[0].Content, "parece um boleto")
}

func TestComposeRevisionCeiling(t *testing.T) {
	// Critic never approves; pipeline must ship the last draft anyway.
	stub := &scriptedReasoner{replies: []string{
		analysisReply, strategyReply, copyReply,
		rejectReply, copyReply,
		rejectReply, copyReply,
		rejectReply, copyReply,
		rejectReply,
	}}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.False(t, out.Approved)
	assert.Equal(t, DefaultMaxRevisions, out.RevisionCount)
	assert.NotEmpty(t, out.Copy)
	// 3 linear steps + 1 review, then 3 revise+review pairs, then the
	// final rejecting review.
	assert.Len(t, stub.requests, 10)
}

func TestComposeAnalysisFailureDegrades(t *testing.T) {
	stub := &scriptedReasoner{
		replies: []string{"", strategyReply, copyReply, approveReply},
		errs:    []error{errors.New("throttled")},
	}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.True(t, out.Approved)
	assert.Contains(t, out.Diagnosis, "análise indisponível")
	assert.NotEmpty(t, out.Copy)
}

func TestComposeUnknownStrategyFallsBack(t *testing.T) {
	stub := &scriptedReasoner{replies: []string{
		analysisReply, `{"strategy": "HIPNOSE"}`, copyReply, approveReply,
	}}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.Equal(t, StrategyCuriosity, out.Strategy)
}

func TestComposeGenerationFailureShipsFallback(t *testing.T) {
	stub := &scriptedReasoner{
		replies: []string{analysisReply, strategyReply, ""},
		errs:    []error{nil, nil, errors.New("quota exceeded")},
	}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.False(t, out.Approved)
	assert.Contains(t, out.Copy, "Mariana")
	assert.Contains(t, out.Copy, "Senti sua falta")
	// No review call happens for the fallback copy.
	assert.Len(t, stub.requests, 3)
}

func TestComposeReviewFailureShipsDraft(t *testing.T) {
	stub := &scriptedReasoner{
		replies: []string{analysisReply, strategyReply, copyReply, ""},
		errs:    []error{nil, nil, nil, errors.New("timeout")},
	}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.True(t, out.Approved)
	assert.Equal(t, 0, out.RevisionCount)
	assert.NotEmpty(t, out.Copy)
}

func TestComposeRevisionCountMonotonic(t *testing.T) {
	stub := &scriptedReasoner{replies: []string{
		analysisReply, strategyReply, copyReply,
		rejectReply, copyReply,
		rejectReply, copyReply,
		approveReply,
	}}
	p := newTestPipeline(stub)

	out := p.Compose(context.Background(), Input{LeadName: "Mariana"})

	assert.True(t, out.Approved)
	assert.Equal(t, 2, out.RevisionCount)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		raw  string
		want Strategy
	}{
		{"PROVA_SOCIAL", StrategySocialProof},
		{"  educacional ", StrategyEducational},
		{"Oferta_Direta", StrategyDirectOffer},
		{"CURIOSIDADE", StrategyCuriosity},
		{"HIPNOSE", StrategyCuriosity},
		{"", StrategyCuriosity},
	}
	for _, tt := range tests {
		if got := ParseStrategy(tt.raw); got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestComposeSystemPromptsInOrder(t *testing.T) {
	stub := &scriptedReasoner{replies: []string{analysisReply, strategyReply, copyReply, approveReply}}
	p := newTestPipeline(stub)

	p.Compose(context.Background(), Input{LeadName: "Mariana", Profile: "32 anos, medo de agulha"})

	require.Len(t, stub.requests, 4)
	assert.True(t, strings.Contains(stub.requests[0].System[0], "ghosting"))
	assert.True(t, strings.Contains(stub.requests[1].System[0], "estrategista"))
	assert.True(t, strings.Contains(stub.requests[2].System[0], "copywriter"))
	assert.True(t, strings.Contains(stub.requests[3].System[0], "diretor clínico"))
	assert.Contains(t, stub.requests[0].Messages[0].Content, "medo de agulha")
}
