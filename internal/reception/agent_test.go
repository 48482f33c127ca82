package reception

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
)

type stubReasoner struct {
	text string
	err  error
	last reasoner.Request
}

func (s *stubReasoner) Complete(_ context.Context, req reasoner.Request) (reasoner.Response, error) {
	s.last = req
	if s.err != nil {
		return reasoner.Response{}, s.err
	}
	return reasoner.Response{Text: s.text}, nil
}

func newTestAgent(stub *stubReasoner) *Agent {
	return NewAgent(stub, NewValidator(5, 10), "test-model", time.Second, nil)
}

func TestHandleSuccessfulExtraction(t *testing.T) {
	stub := &stubReasoner{text: `Claro! {"reasoning": "reception gave the contact",
		"response_message": "Obrigado!", "conversation_stage": "requesting",
		"extracted_contact": "11 98765-4321", "extracted_name": "Dr. Carlos",
		"should_continue": "true"}`}
	agent := newTestAgent(stub)

	out := agent.Handle(context.Background(), Input{
		ClinicName:    "Clínica Sorriso",
		LatestMessage: "O número do Dr. Carlos é 11 98765-4321",
		AttemptCount:  2,
	})

	assert.Equal(t, StageSuccess, out.ConversationStage)
	assert.Equal(t, "11987654321", out.ManagerContact)
	assert.Equal(t, "Dr. Carlos", out.ManagerName)
	assert.False(t, out.ShouldSendMessage, "success is terminal")
	assert.Equal(t, "Obrigado!", out.ResponseMessage)
}

func TestHandleFirstMessageSentinel(t *testing.T) {
	stub := &stubReasoner{text: `{"response_message": "Bom dia, é da clínica Sorriso?",
		"conversation_stage": "opening", "extracted_contact": "null",
		"extracted_name": "null", "should_continue": "true"}`}
	agent := newTestAgent(stub)

	out := agent.Handle(context.Background(), Input{ClinicName: "Clínica Sorriso", CurrentHour: 9})

	require.Len(t, stub.last.Messages, 1)
	assert.Contains(t, stub.last.Messages[0].Content, "PRIMEIRA_MENSAGEM")
	assert.Equal(t, StageOpening, out.ConversationStage)
	assert.True(t, out.ShouldSendMessage)
}

func TestHandleHistoryRendered(t *testing.T) {
	stub := &stubReasoner{text: `{"response_message": "ok", "conversation_stage": "requesting",
		"extracted_contact": "null", "extracted_name": "null", "should_continue": "true"}`}
	agent := newTestAgent(stub)

	agent.Handle(context.Background(), Input{
		ClinicName: "Clínica Sorriso",
		History: []dialog.Turn{
			{Role: dialog.RoleAgent, Content: "Bom dia, é da clínica Sorriso?"},
			{Role: dialog.RoleCounterpart, Content: "Sim"},
		},
		LatestMessage: "Sim",
	})

	require.Len(t, stub.last.Messages, 1)
	assert.Contains(t, stub.last.Messages[0].Content, "agent: Bom dia")
	assert.Contains(t, stub.last.Messages[0].Content, "human: Sim")
}

func TestHandleReasonerFailure(t *testing.T) {
	stub := &stubReasoner{err: errors.New("timeout")}
	agent := newTestAgent(stub)

	out := agent.Handle(context.Background(), Input{ClinicName: "Clínica Sorriso"})

	assert.Equal(t, StageRequesting, out.ConversationStage)
	assert.True(t, out.ShouldSendMessage, "conversation must not be dropped on reasoner failure")
	assert.Empty(t, out.ManagerContact)
	assert.Contains(t, out.ResponseMessage, "problema técnico")
}

func TestHandleMalformedJSON(t *testing.T) {
	stub := &stubReasoner{text: "I think the stage is requesting and there is no contact yet."}
	agent := newTestAgent(stub)

	out := agent.Handle(context.Background(), Input{ClinicName: "Clínica Sorriso"})

	assert.Equal(t, StageRequesting, out.ConversationStage)
	assert.True(t, out.ShouldSendMessage)
}

func TestHandleBooleanShouldContinue(t *testing.T) {
	// Some models return a real boolean instead of the string the prompt
	// asks for; both must work.
	stub := &stubReasoner{text: `{"response_message": "ok", "conversation_stage": "requesting",
		"extracted_contact": "null", "extracted_name": "null", "should_continue": false}`}
	agent := newTestAgent(stub)

	out := agent.Handle(context.Background(), Input{ClinicName: "Clínica Sorriso"})
	assert.False(t, out.ShouldSendMessage)
}
