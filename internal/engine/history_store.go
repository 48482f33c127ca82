package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
)

const conversationTTL = 24 * time.Hour

// ConversationState is the per-conversation context the caller owns
// between turns. The core never reads it implicitly; callers load it,
// pass the fields into a flow input, and save the updated state.
type ConversationState struct {
	Turns        []dialog.Turn `json:"turns"`
	AttemptCount int           `json:"attempt_count"`
}

// HistoryStore persists conversation state in Redis. It is an optional
// collaborator: deployments that keep state elsewhere simply do not
// configure it.
type HistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewHistoryStore(redis *redis.Client, tracer trace.Tracer) *HistoryStore {
	if redis == nil {
		panic("engine: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("easyscale.internal.engine.history")
	}
	return &HistoryStore{
		redis:  redis,
		tracer: tracer,
	}
}

func (s *HistoryStore) Save(ctx context.Context, conversationID string, state *ConversationState) error {
	ctx, span := s.tracer.Start(ctx, "engine.save_state")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("engine: failed to marshal conversation state: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("engine: failed to persist conversation state: %w", err)
	}
	return nil
}

// Load returns the stored state, or an empty state for a conversation
// that has not been seen yet.
func (s *HistoryStore) Load(ctx context.Context, conversationID string) (*ConversationState, error) {
	ctx, span := s.tracer.Start(ctx, "engine.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &ConversationState{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("engine: failed to load conversation state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("engine: failed to decode conversation state: %w", err)
	}
	return &state, nil
}

// Append records one turn and persists the updated state. Agent turns
// advance the attempt counter; counterpart turns do not.
func (s *HistoryStore) Append(ctx context.Context, conversationID string, turn dialog.Turn) (*ConversationState, error) {
	state, err := s.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	state.Turns = append(state.Turns, turn)
	if turn.Role == dialog.RoleAgent {
		state.AttemptCount++
	}
	if err := s.Save(ctx, conversationID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}
