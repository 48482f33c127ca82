// Package reengage composes a win-back message for a lead that went
// quiet. Four reasoner steps run in sequence: analyze the ghosting,
// pick a strategy, write the copy, review it. A rejected copy loops
// back to the writing step with the reviewer's feedback, up to a fixed
// revision ceiling.
package reengage

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

// Strategy is the closed set of re-engagement approaches.
type Strategy string

const (
	StrategySocialProof Strategy = "PROVA_SOCIAL"
	StrategyEducational Strategy = "EDUCACIONAL"
	StrategyDirectOffer Strategy = "OFERTA_DIRETA"
	StrategyCuriosity   Strategy = "CURIOSIDADE"
)

var validStrategies = map[Strategy]struct{}{
	StrategySocialProof: {},
	StrategyEducational: {},
	StrategyDirectOffer: {},
	StrategyCuriosity:   {},
}

// ParseStrategy maps a raw strategy name onto the closed set. Anything
// unrecognized falls back to curiosity, the lowest-pressure approach.
func ParseStrategy(raw string) Strategy {
	s := Strategy(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := validStrategies[s]; ok {
		return s
	}
	return StrategyCuriosity
}

// DefaultMaxRevisions bounds the review loop: at most this many extra
// write/review round-trips after the first.
const DefaultMaxRevisions = 3

const analyzePrompt = `Você é um analista de comportamento de pacientes de clínicas.
Analise o histórico da conversa e o perfil do lead para identificar o motivo
real do sumiço (ghosting) e os gatilhos emocionais relevantes.

Responda APENAS com JSON: {"diagnosis": "diagnóstico estratégico em português"}`

const strategyPrompt = `Você é um estrategista de re-engajamento.
Com base no diagnóstico, escolha a melhor estratégia:
PROVA_SOCIAL, EDUCACIONAL, OFERTA_DIRETA ou CURIOSIDADE.

Responda APENAS com JSON: {"strategy": "NOME_DA_ESTRATEGIA"}`

const generatePrompt = `Você é um copywriter de clínicas escrevendo uma mensagem de WhatsApp
curta, humana e persuasiva para reconquistar um lead que sumiu.

REGRAS:
- No máximo 2 ou 3 parágrafos curtos.
- Tom de conversa entre amigos, sem formalidades.
- Trate o lead pelo nome.
- Se o problema for medo, mencione conforto e anestesia de forma leve.
- NÃO use hashtags nem termos como 'Prezada'.

Responda APENAS com JSON: {"copy": "mensagem final pronta para enviar"}`

const reviewPrompt = `Você é o diretor clínico revisando uma mensagem de re-engajamento.
Sua única função é barrar mensagens agressivas, formais demais ou com erros médicos.

REGRA DE OURO: se a mensagem for amigável, curta e tratar o lead pelo nome,
você DEVE aprovar. Não tente melhorar o que já está bom.

Responda APENAS com JSON: {"approved": "true ou false", "feedback": "justificativa da decisão"}`

// Input is the caller-supplied lead context.
type Input struct {
	LeadName string        `json:"lead_name"`
	AdSource string        `json:"ad_source"`
	Profile  string        `json:"psychographic_profile"`
	History  []dialog.Turn `json:"conversation_history"`
}

// Output is the composed artifact plus the pipeline's working state.
// Approved false with a non-empty Copy means the revision ceiling was
// hit and the last draft shipped anyway.
type Output struct {
	Diagnosis     string   `json:"diagnosis"`
	Strategy      Strategy `json:"strategy"`
	Copy          string   `json:"copy"`
	Feedback      string   `json:"feedback,omitempty"`
	Approved      bool     `json:"approved"`
	RevisionCount int      `json:"revision_count"`
}

// Pipeline sequences the four reasoner steps.
type Pipeline struct {
	client       reasoner.Client
	model        string
	timeout      time.Duration
	maxRevisions int
	logger       *logging.Logger
}

func NewPipeline(client reasoner.Client, model string, timeout time.Duration, maxRevisions int, logger *logging.Logger) *Pipeline {
	if client == nil {
		panic("reengage: reasoner client cannot be nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{client: client, model: model, timeout: timeout, maxRevisions: maxRevisions, logger: logger}
}

// Compose runs the full pipeline. Steps degrade instead of failing: a
// broken analysis or strategy call falls back to a safe default and the
// run continues, so the method never returns an error.
func (p *Pipeline) Compose(ctx context.Context, in Input) *Output {
	out := &Output{}

	out.Diagnosis = p.analyze(ctx, in)
	out.Strategy = p.selectStrategy(ctx, out.Diagnosis)

	copyText, genErr := p.generate(ctx, in, out.Strategy, out.Diagnosis, "")
	if genErr != nil {
		p.logger.Error("copy generation failed", "lead", in.LeadName, "error", genErr)
		out.Copy = p.fallbackCopy(in)
		return out
	}
	out.Copy = copyText

	for {
		approved, feedback, err := p.review(ctx, out.Copy, out.Diagnosis)
		if err != nil {
			// Cannot evaluate the draft; ship it rather than loop.
			p.logger.Warn("review step failed, shipping last draft", "lead", in.LeadName, "error", err)
			out.Approved = true
			return out
		}
		out.Feedback = feedback
		if approved {
			out.Approved = true
			return out
		}
		if out.RevisionCount >= p.maxRevisions {
			p.logger.Warn("revision ceiling reached, shipping last draft",
				"lead", in.LeadName, "revisions", out.RevisionCount)
			return out
		}
		out.RevisionCount++

		revised, err := p.generate(ctx, in, out.Strategy, out.Diagnosis, feedback)
		if err != nil {
			p.logger.Error("copy revision failed, shipping last draft", "lead", in.LeadName, "error", err)
			return out
		}
		out.Copy = revised
	}
}

func (p *Pipeline) analyze(ctx context.Context, in Input) string {
	userPrompt := fmt.Sprintf(
		"lead_name: %s\nad_source: %s\npsychographic_profile: %s\nconversation_history: %s",
		in.LeadName, in.AdSource, in.Profile, dialog.Transcript(in.History),
	)
	var parsed struct {
		Diagnosis string `json:"diagnosis"`
	}
	if err := p.step(ctx, analyzePrompt, userPrompt, &parsed); err != nil {
		p.logger.Warn("analysis step failed", "lead", in.LeadName, "error", err)
		return fmt.Sprintf("análise indisponível: %v", err)
	}
	return parsed.Diagnosis
}

func (p *Pipeline) selectStrategy(ctx context.Context, diagnosis string) Strategy {
	var parsed struct {
		Strategy string `json:"strategy"`
	}
	if err := p.step(ctx, strategyPrompt, "diagnóstico: "+diagnosis, &parsed); err != nil {
		p.logger.Warn("strategy step failed", "error", err)
		return StrategyCuriosity
	}
	return ParseStrategy(parsed.Strategy)
}

func (p *Pipeline) generate(ctx context.Context, in Input, strategy Strategy, diagnosis, feedback string) (string, error) {
	userPrompt := fmt.Sprintf("lead_name: %s\nestratégia: %s\ndiagnóstico: %s", in.LeadName, strategy, diagnosis)
	if feedback != "" {
		userPrompt += "\nfeedback da revisão anterior (corrija): " + feedback
	}
	var parsed struct {
		Copy string `json:"copy"`
	}
	if err := p.step(ctx, generatePrompt, userPrompt, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.Copy) == "" {
		return "", fmt.Errorf("reengage: generated copy is empty")
	}
	return parsed.Copy, nil
}

func (p *Pipeline) review(ctx context.Context, copyText, diagnosis string) (bool, string, error) {
	userPrompt := fmt.Sprintf("mensagem: %s\ndiagnóstico: %s", copyText, diagnosis)
	var parsed struct {
		Approved any    `json:"approved"`
		Feedback string `json:"feedback"`
	}
	if err := p.step(ctx, reviewPrompt, userPrompt, &parsed); err != nil {
		return false, "", err
	}
	return intent.CoerceBool(parsed.Approved, false), parsed.Feedback, nil
}

// step makes one reasoner call and unmarshals the JSON it finds in the
// reply into out.
func (p *Pipeline) step(ctx context.Context, system, user string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Complete(ctx, reasoner.Request{
		Model:       p.model,
		System:      []string{system},
		Messages:    []reasoner.Message{{Role: reasoner.RoleUser, Content: user}},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(reasoner.ExtractJSON(resp.Text)), out); err != nil {
		return fmt.Errorf("reengage: unparseable step reply: %w", err)
	}
	return nil
}

func (p *Pipeline) fallbackCopy(in Input) string {
	name := strings.TrimSpace(in.LeadName)
	if name == "" {
		return "Oi, tudo bem? Senti sua falta por aqui. Podemos retomar nossa conversa?"
	}
	return fmt.Sprintf("Oi %s, tudo bem? Senti sua falta por aqui. Podemos retomar nossa conversa?", name)
}
