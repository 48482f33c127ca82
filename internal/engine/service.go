// Package engine is the front door of the reconciliation core: it
// classifies each inbound message into intent categories, picks the
// next processing branch, and delegates flow turns to the reception,
// scheduling and reengage agents.
package engine

import (
	"context"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/intent"
	"github.com/easyscale/clinic-ai-engine/internal/reengage"
	"github.com/easyscale/clinic-ai-engine/internal/reception"
	"github.com/easyscale/clinic-ai-engine/internal/scheduling"
)

// Service describes how the reconciliation engine should behave.
type Service interface {
	Route(ctx context.Context, req RouteRequest) (*RouteResponse, error)
	ReceptionTurn(ctx context.Context, in reception.Input) (*reception.Output, error)
	SchedulingTurn(ctx context.Context, in scheduling.Input) (*scheduling.Output, error)
	ComposeReengagement(ctx context.Context, in reengage.Input) (*reengage.Output, error)
}

// RouteRequest carries one inbound message plus the auxiliary status
// flags the classifier uses as context. All flags are input features
// only; the engine never mutates them.
type RouteRequest struct {
	ConversationID   string        `json:"conversation_id,omitempty"`
	LatestMessage    string        `json:"latest_message"`
	History          []dialog.Turn `json:"conversation_history,omitempty"`
	IntakeStatus     string        `json:"intake_status,omitempty"`
	ScheduleStatus   string        `json:"schedule_status,omitempty"`
	RescheduleStatus string        `json:"reschedule_status,omitempty"`
	CancelStatus     string        `json:"cancel_status,omitempty"`
	Language         string        `json:"language,omitempty"`
}

// RouteResponse is the validated classification for one message.
// Intents is never empty; Branch is the single next processing branch
// chosen by precedence, or empty when no branch applies.
type RouteResponse struct {
	Intents          []intent.Category `json:"intentions"`
	Branch           intent.Branch     `json:"branch"`
	Urgency          int               `json:"urgency_score"`
	Confidence       float64           `json:"confidence"`
	Reasoning        string            `json:"reasoning"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
}
