package reception

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/intent"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

const firstMessageSentinel = "PRIMEIRA_MENSAGEM"

const systemPrompt = `Você é um SDR que precisa conseguir o contato do gestor ou dono de uma clínica.
Você conversa com a recepção via WhatsApp.

ESTRATÉGIA:
1. Primeira mensagem: confirmar se é a clínica certa ("Bom dia, é da clínica {nome}?")
2. Quando responderem: pedir para falar com o gestor ou gestora
3. Se perguntarem do que se trata: "Seria sobre assunto comercial"
4. Quando derem o contato: agradecer e encerrar

Perguntas, testes e bloqueios da recepção são objeção (stage handling_objection):
persista com educação, nunca desista na primeira rejeição. Só classifique failed
após pelo menos duas tentativas de contornar objeções.

Contato válido: número de WhatsApp com 10+ dígitos. Número fixo não serve.
Número incompleto não é success; peça o número completo.

Regras: mensagens curtas (máximo 100 caracteres), sem emojis, sem formalidade
excessiva. Saudação pela hora: bom dia (6-12h), boa tarde (12-18h), boa noite (18-6h).

Stages: opening | requesting | handling_objection | success | failed

Responda APENAS com JSON neste formato:
{"reasoning": "...", "response_message": "...", "conversation_stage": "...",
 "extracted_contact": "apenas dígitos ou null", "extracted_name": "nome ou null",
 "should_continue": "true ou false"}`

// Input is the caller-supplied context for one reception turn. History
// and attempt counters are owned by the caller; the agent mutates
// nothing.
type Input struct {
	ClinicName    string        `json:"clinic_name"`
	History       []dialog.Turn `json:"conversation_history"`
	LatestMessage string        `json:"latest_message"`
	CurrentHour   int           `json:"current_hour"`
	AttemptCount  int           `json:"attempt_count"`
}

// Output is the validated result for one reception turn.
type Output struct {
	ResponseMessage   string   `json:"response_message"`
	ConversationStage Stage    `json:"conversation_stage"`
	ManagerContact    string   `json:"extracted_manager_contact,omitempty"`
	ManagerName       string   `json:"extracted_manager_name,omitempty"`
	ShouldSendMessage bool     `json:"should_send_message"`
	Reasoning         string   `json:"reasoning"`
	Corrections       []string `json:"-"`
}

// rawReply mirrors the JSON contract the prompt asks for. Fields the
// model tends to mistype are any-typed and coerced downstream.
type rawReply struct {
	Reasoning       string `json:"reasoning"`
	ResponseMessage string `json:"response_message"`
	Stage           string `json:"conversation_stage"`
	Contact         string `json:"extracted_contact"`
	Name            string `json:"extracted_name"`
	ShouldContinue  any    `json:"should_continue"`
}

// Agent runs the reception flow against a reasoner.
type Agent struct {
	client    reasoner.Client
	validator *Validator
	model     string
	timeout   time.Duration
	logger    *logging.Logger
}

// NewAgent wires a reception agent.
func NewAgent(client reasoner.Client, validator *Validator, model string, timeout time.Duration, logger *logging.Logger) *Agent {
	if client == nil {
		panic("reception: reasoner client cannot be nil")
	}
	if validator == nil {
		validator = NewValidator(0, 0)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Agent{client: client, validator: validator, model: model, timeout: timeout, logger: logger}
}

// Handle processes one turn. It never returns an error: reasoner
// failures produce a safe fallback reply that keeps the conversation
// alive for the next turn.
func (a *Agent) Handle(ctx context.Context, in Input) *Output {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	latest := in.LatestMessage
	if latest == "" {
		latest = firstMessageSentinel
	}

	userPrompt := fmt.Sprintf(
		"clinic_name: %s\nconversation_history: %s\nlatest_message: %s\ncurrent_hour: %d\nattempt_count: %d",
		in.ClinicName, dialog.Transcript(in.History), latest, in.CurrentHour, in.AttemptCount,
	)

	resp, err := a.client.Complete(ctx, reasoner.Request{
		Model:       a.model,
		System:      []string{systemPrompt},
		Messages:    []reasoner.Message{{Role: reasoner.RoleUser, Content: userPrompt}},
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Error("reception reasoner call failed", "clinic", in.ClinicName, "error", err)
		return a.fallback(err)
	}

	var raw rawReply
	if jsonErr := json.Unmarshal([]byte(reasoner.ExtractJSON(resp.Text)), &raw); jsonErr != nil {
		a.logger.Warn("reception reply was not valid JSON", "clinic", in.ClinicName, "error", jsonErr)
		return a.fallback(jsonErr)
	}

	result := a.validator.Validate(Proposal{
		Stage:          raw.Stage,
		Contact:        raw.Contact,
		Name:           raw.Name,
		ShouldContinue: intent.CoerceBool(raw.ShouldContinue, true),
		AttemptCount:   in.AttemptCount,
	})

	message := raw.ResponseMessage
	if message == "" {
		message = "Poderia me passar o contato do gestor, por favor?"
	}

	return &Output{
		ResponseMessage:   message,
		ConversationStage: result.Stage,
		ManagerContact:    result.Contact,
		ManagerName:       result.Name,
		ShouldSendMessage: result.ShouldContinue,
		Reasoning:         raw.Reasoning,
		Corrections:       result.Corrections,
	}
}

// fallback is the stage-neutral reply used when the reasoner fails or
// returns something unusable. The conversation stays open.
func (a *Agent) fallback(cause error) *Output {
	return &Output{
		ResponseMessage:   "Desculpe, tive um problema técnico. Podemos continuar?",
		ConversationStage: StageRequesting,
		ShouldSendMessage: true,
		Reasoning:         fmt.Sprintf("technical difficulty: %v", cause),
	}
}
