package services

import (
	"context"
	"errors"
	"time"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/observability"
	"reviewhub_backend/internal/upstream"
	"reviewhub_backend/pkg/apperrors"
)

type ChatRelay interface {
	Relay(ctx context.Context, in upstream.ChatRequest) (*upstream.ChatReply, error)
}

type FeedbackForwarder interface {
	Forward(ctx context.Context, payload map[string]any) (upstream.FeedbackResult, error)
}

type ChatService interface {
	Relay(ctx context.Context, req *dto.ChatRequest) (*upstream.ChatReply, error)
	Feedback(ctx context.Context, payload map[string]any) upstream.FeedbackResult
}

type chatService struct {
	relay    ChatRelay
	feedback FeedbackForwarder
	metrics  *observability.Metrics
}

// NewChatService accepts a nil relay when no chat backend is configured.
func NewChatService(relay ChatRelay, feedback FeedbackForwarder, metrics *observability.Metrics) ChatService {
	return &chatService{relay: relay, feedback: feedback, metrics: metrics}
}

func (s *chatService) Relay(ctx context.Context, req *dto.ChatRequest) (*upstream.ChatReply, error) {
	if s.relay == nil {
		return nil, apperrors.ConfigError("chat relay", "CHATBOT_V2_API_URL must be set")
	}

	history := make([]upstream.ChatTurn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, upstream.ChatTurn{Role: t.Role, Content: t.Content})
	}

	start := time.Now()
	reply, err := s.relay.Relay(ctx, upstream.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   history,
	})
	s.metrics.ObserveUpstream("chat", "relay", start, err)
	if err != nil {
		logger.CtxWithError(ctx, "chat relay failed", err, "session_id", req.SessionID)
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			return nil, apperrors.RelayError(err, statusErr.Status)
		}
		return nil, apperrors.RelayError(err, 0)
	}
	return reply, nil
}

// Feedback never fails: forwarding is optional and errors are only logged.
func (s *chatService) Feedback(ctx context.Context, payload map[string]any) upstream.FeedbackResult {
	if s.feedback == nil {
		return upstream.FeedbackResult{}
	}

	start := time.Now()
	res, err := s.feedback.Forward(ctx, payload)
	s.metrics.ObserveUpstream("feedback", "forward", start, err)
	if err != nil {
		logger.CtxWarn(ctx, "feedback forward failed", "error", err.Error(), "upstream_status", res.UpstreamStatus)
	}
	return res
}
