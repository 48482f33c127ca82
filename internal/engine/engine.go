package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/intent"
	"github.com/easyscale/clinic-ai-engine/internal/observability/metrics"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
	"github.com/easyscale/clinic-ai-engine/internal/reengage"
	"github.com/easyscale/clinic-ai-engine/internal/reception"
	"github.com/easyscale/clinic-ai-engine/internal/scheduling"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

const routePrompt = `Você é o roteador de um fluxo de atendimento de clínica estética via WhatsApp,
responsável por identificar quais agentes especializados precisam ser ativados
para atender a mensagem atual do paciente.

Instruções:
1. Foque na mensagem mais recente; use o histórico apenas como contexto.
2. Inclua TODAS as intenções aplicáveis, escolhidas SOMENTE desta lista:
SESSION_START, SESSION_CLOSURE, SERVICE_SCHEDULING, SERVICE_RESCHEDULING,
SERVICE_CANCELLATION, MEDICAL_ASSESSMENT, PROCEDURE_INQUIRY, AD_CONVERSION,
ORGANIC_INQUIRY, OFFER_CONVERSION, REENGAGEMENT_RECOVERY, GENERAL_INFO,
IMAGE_ASSESSMENT, HUMAN_ESCALATION, UNCLASSIFIED
3. urgency_score: 1-5 conforme risco clínico (5 é crítico).
4. confidence: 0.0 a 1.0.

Responda APENAS com JSON:
{"intentions": ["..."], "reasoning": "frase curta e objetiva",
 "urgency_score": 1, "confidence": 0.9}`

// Engine implements Service on top of a reasoner client and the
// per-flow agents.
type Engine struct {
	client     reasoner.Client
	reception  *reception.Agent
	scheduling *scheduling.Agent
	reengage   *reengage.Pipeline
	model      string
	language   string
	timeout    time.Duration
	metrics    *metrics.EngineMetrics
	logger     *logging.Logger
}

// Options collects the engine's collaborators. Client is required; the
// per-flow agents and metrics are optional and their endpoints fail
// closed when absent.
type Options struct {
	Client     reasoner.Client
	Reception  *reception.Agent
	Scheduling *scheduling.Agent
	Reengage   *reengage.Pipeline
	Model      string
	// Language is the default conversation language when a request does
	// not carry one.
	Language string
	Timeout  time.Duration
	Metrics  *metrics.EngineMetrics
	Logger   *logging.Logger
}

func New(opts Options) *Engine {
	if opts.Client == nil {
		panic("engine: reasoner client cannot be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Language == "" {
		opts.Language = "pt-BR"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Engine{
		client:     opts.Client,
		reception:  opts.Reception,
		scheduling: opts.Scheduling,
		reengage:   opts.Reengage,
		model:      opts.Model,
		language:   opts.Language,
		timeout:    opts.Timeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

type rawRoute struct {
	Intentions any    `json:"intentions"`
	Reasoning  string `json:"reasoning"`
	Urgency    any    `json:"urgency_score"`
	Confidence any    `json:"confidence"`
}

// Route classifies one inbound message. Reasoner failures degrade to a
// synthetic UNCLASSIFIED response instead of an error, so a broken
// classifier never drops a conversation.
func (e *Engine) Route(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(
		"latest_incoming: %s\nhistory: %s\nintake_status: %s\nschedule_status: %s\nreschedule_status: %s\ncancel_status: %s\nlanguage: %s",
		req.LatestMessage, dialog.Transcript(req.History),
		orPending(req.IntakeStatus), orPending(req.ScheduleStatus),
		orPending(req.RescheduleStatus), orPending(req.CancelStatus),
		orDefault(req.Language, e.language),
	)

	resp, err := e.client.Complete(ctx, reasoner.Request{
		Model:       e.model,
		System:      []string{routePrompt},
		Messages:    []reasoner.Message{{Role: reasoner.RoleUser, Content: userPrompt}},
		MaxTokens:   400,
		Temperature: 0.2,
	})
	if err != nil {
		e.logger.Error("route classification failed", "conversation_id", req.ConversationID, "error", err)
		e.metrics.ObserveReasonerCall("route", "error")
		return e.syntheticRoute(err, start), nil
	}
	e.metrics.ObserveReasonerCall("route", "ok")

	var raw rawRoute
	if jsonErr := json.Unmarshal([]byte(reasoner.ExtractJSON(resp.Text)), &raw); jsonErr != nil {
		e.logger.Warn("route reply was not valid JSON", "conversation_id", req.ConversationID, "error", jsonErr)
		return e.syntheticRoute(jsonErr, start), nil
	}

	intents := intent.Normalize(raw.Intentions)
	branch := intent.Dispatch(intents)
	e.metrics.ObserveDispatch(string(branch))
	e.metrics.ObserveLatency("route", time.Since(start).Seconds())

	return &RouteResponse{
		Intents:          intents,
		Branch:           branch,
		Urgency:          intent.CoerceUrgency(raw.Urgency),
		Confidence:       intent.CoerceConfidence(raw.Confidence),
		Reasoning:        raw.Reasoning,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// syntheticRoute is the stage-neutral fallback classification.
func (e *Engine) syntheticRoute(cause error, start time.Time) *RouteResponse {
	return &RouteResponse{
		Intents:          []intent.Category{intent.Unclassified},
		Branch:           intent.BranchNone,
		Urgency:          intent.UrgencyMin,
		Confidence:       0,
		Reasoning:        fmt.Sprintf("technical difficulty: %v", cause),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
}

// ReceptionTurn runs one turn of the manager-contact flow.
func (e *Engine) ReceptionTurn(ctx context.Context, in reception.Input) (*reception.Output, error) {
	if e.reception == nil {
		return nil, fmt.Errorf("engine: reception flow is not configured")
	}
	start := time.Now()
	out := e.reception.Handle(ctx, in)
	e.metrics.ObserveLatency("reception", time.Since(start).Seconds())
	e.metrics.ObserveCorrections("reception", out.Corrections)
	return out, nil
}

// SchedulingTurn runs one turn of the meeting-booking flow.
func (e *Engine) SchedulingTurn(ctx context.Context, in scheduling.Input) (*scheduling.Output, error) {
	if e.scheduling == nil {
		return nil, fmt.Errorf("engine: scheduling flow is not configured")
	}
	start := time.Now()
	out := e.scheduling.Handle(ctx, in)
	e.metrics.ObserveLatency("scheduling", time.Since(start).Seconds())
	e.metrics.ObserveCorrections("scheduling", out.Corrections)
	return out, nil
}

// ComposeReengagement runs the win-back pipeline for a cold lead.
func (e *Engine) ComposeReengagement(ctx context.Context, in reengage.Input) (*reengage.Output, error) {
	if e.reengage == nil {
		return nil, fmt.Errorf("engine: reengagement flow is not configured")
	}
	start := time.Now()
	out := e.reengage.Compose(ctx, in)
	e.metrics.ObserveLatency("reengage", time.Since(start).Seconds())
	return out, nil
}

func orPending(s string) string {
	return orDefault(s, "pending")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
