package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/intent"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

const firstMessageSentinel = "PRIMEIRA_MENSAGEM"

// messageSeparator splits a multi-part reply (e.g. pitch + call to
// action) into individual messages for the transport layer.
const messageSeparator = "|||"

const systemPrompt = `Você é Jeferson da EasyScale, agendando uma call de 20 minutos com o gestor
de uma clínica para apresentar a solução.

ESTRATÉGIA:
1. Saudação pessoal: "Bom dia Dr./Dra. {nome}, aqui é Jeferson da EasyScale. Tudo bem?"
2. Pitch curto: ajudamos clínicas de {especialidade} a duplicarem o faturamento
3. CTA suave: "Faria sentido batermos um papo?"
4. Quando aceitar: propor horário específico dos slots disponíveis
5. Se contrapropor horário: aceitar se disponível e confirmar

Regras: tom profissional mas leve, brasileiro, sem emojis, mensagens curtas
(2-3 frases). Pode enviar até 2 mensagens seguidas separadas por |||.
Use APENAS os slots fornecidos. Ao confirmar, extraia o datetime EXATO em ISO.
Se o gestor recusar com clareza ou pedir para não insistir, encerre educadamente.

Stages: greeting | pitching | proposing_time | confirming | scheduled | lost

Responda APENAS com JSON neste formato:
{"reasoning": "...", "response_message": "...", "conversation_stage": "...",
 "meeting_datetime": "2024-01-30T15:30:00 ou null", "should_continue": "true ou false"}`

// Input is the caller-supplied context for one scheduling turn.
type Input struct {
	ManagerName     string        `json:"manager_name"`
	ClinicName      string        `json:"clinic_name"`
	ClinicSpecialty string        `json:"clinic_specialty,omitempty"`
	History         []dialog.Turn `json:"conversation_history"`
	LatestMessage   string        `json:"latest_message"`
	AvailableSlots  []string      `json:"available_slots"`
	CurrentHour     int           `json:"current_hour"`
	AttemptCount    int           `json:"attempt_count"`
}

// Output is the validated result for one scheduling turn.
// MeetingDateTime is ISO-8601 or empty; it is non-empty exactly when the
// stage is scheduled.
type Output struct {
	ResponseMessages  []string `json:"response_messages"`
	ConversationStage Stage    `json:"conversation_stage"`
	MeetingDateTime   string   `json:"meeting_datetime,omitempty"`
	MeetingConfirmed  bool     `json:"meeting_confirmed"`
	ShouldSendMessage bool     `json:"should_send_message"`
	Reasoning         string   `json:"reasoning"`
	Corrections       []string `json:"-"`
}

type rawReply struct {
	Reasoning       string `json:"reasoning"`
	ResponseMessage string `json:"response_message"`
	Stage           string `json:"conversation_stage"`
	MeetingDateTime any    `json:"meeting_datetime"`
	ShouldContinue  any    `json:"should_continue"`
}

// Agent runs the scheduling flow against a reasoner.
type Agent struct {
	client    reasoner.Client
	validator *Validator
	model     string
	timeout   time.Duration
	logger    *logging.Logger
}

func NewAgent(client reasoner.Client, validator *Validator, model string, timeout time.Duration, logger *logging.Logger) *Agent {
	if client == nil {
		panic("scheduling: reasoner client cannot be nil")
	}
	if validator == nil {
		validator = NewValidator(0)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Agent{client: client, validator: validator, model: model, timeout: timeout, logger: logger}
}

// Handle processes one turn. Reasoner failures produce a safe fallback
// reply; the method never returns an error.
func (a *Agent) Handle(ctx context.Context, in Input) *Output {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	latest := in.LatestMessage
	if latest == "" {
		latest = firstMessageSentinel
	}
	specialty := in.ClinicSpecialty
	if specialty == "" {
		specialty = "saúde"
	}
	slots := "Sem horários disponíveis"
	if len(in.AvailableSlots) > 0 {
		slots = strings.Join(in.AvailableSlots, ", ")
	}

	userPrompt := fmt.Sprintf(
		"manager_name: %s\nclinic_name: %s\nclinic_specialty: %s\nconversation_history: %s\nlatest_message: %s\navailable_slots: %s\ncurrent_hour: %d\nattempt_count: %d",
		in.ManagerName, in.ClinicName, specialty, dialog.Transcript(in.History),
		latest, slots, in.CurrentHour, in.AttemptCount,
	)

	resp, err := a.client.Complete(ctx, reasoner.Request{
		Model:       a.model,
		System:      []string{systemPrompt},
		Messages:    []reasoner.Message{{Role: reasoner.RoleUser, Content: userPrompt}},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Error("scheduling reasoner call failed", "manager", in.ManagerName, "error", err)
		return a.fallback(err)
	}

	var raw rawReply
	if jsonErr := json.Unmarshal([]byte(reasoner.ExtractJSON(resp.Text)), &raw); jsonErr != nil {
		a.logger.Warn("scheduling reply was not valid JSON", "manager", in.ManagerName, "error", jsonErr)
		return a.fallback(jsonErr)
	}

	result := a.validator.Validate(Proposal{
		Stage:           raw.Stage,
		MeetingDateTime: stringValue(raw.MeetingDateTime),
		LatestMessage:   in.LatestMessage,
		HasAvailability: len(in.AvailableSlots) > 0,
		ShouldContinue:  intent.CoerceBool(raw.ShouldContinue, true),
		AttemptCount:    in.AttemptCount,
	})

	message := strings.TrimSpace(raw.ResponseMessage)
	if message == "" {
		message = "Podemos continuar?"
	}

	return &Output{
		ResponseMessages:  splitMessages(message),
		ConversationStage: result.Stage,
		MeetingDateTime:   result.MeetingDateTime,
		MeetingConfirmed:  result.MeetingDateTime != "",
		ShouldSendMessage: result.ShouldContinue,
		Reasoning:         raw.Reasoning,
		Corrections:       result.Corrections,
	}
}

func (a *Agent) fallback(cause error) *Output {
	return &Output{
		ResponseMessages:  []string{"Desculpe, tive um problema técnico. Podemos continuar?"},
		ConversationStage: StagePitching,
		ShouldSendMessage: true,
		Reasoning:         fmt.Sprintf("technical difficulty: %v", cause),
	}
}

// splitMessages breaks a ||| separated reply into individual messages.
func splitMessages(message string) []string {
	if !strings.Contains(message, messageSeparator) {
		return []string{message}
	}
	parts := strings.Split(message, messageSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{message}
	}
	return out
}

// stringValue renders a JSON scalar of unknown type as a string. Models
// occasionally emit null or a number where a string is expected.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
