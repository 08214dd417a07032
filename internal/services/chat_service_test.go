package services

import (
	"context"
	"errors"
	"testing"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/upstream"
	"reviewhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	got   upstream.ChatRequest
	reply *upstream.ChatReply
	err   error
}

func (f *fakeRelay) Relay(_ context.Context, in upstream.ChatRequest) (*upstream.ChatReply, error) {
	f.got = in
	return f.reply, f.err
}

type fakeForwarder struct {
	res upstream.FeedbackResult
	err error
}

func (f *fakeForwarder) Forward(context.Context, map[string]any) (upstream.FeedbackResult, error) {
	return f.res, f.err
}

func TestChatService_Relay(t *testing.T) {
	relay := &fakeRelay{reply: &upstream.ChatReply{Text: "hi"}}
	svc := NewChatService(relay, nil, nil)

	reply, err := svc.Relay(context.Background(), &dto.ChatRequest{
		SessionID: "s-1",
		Message:   "hello",
		History:   []dto.ChatTurn{{Role: "user", Content: "earlier"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Text)
	assert.Equal(t, "s-1", relay.got.SessionID)
	assert.Equal(t, []upstream.ChatTurn{{Role: "user", Content: "earlier"}}, relay.got.History)
}

func TestChatService_RelayErrors(t *testing.T) {
	t.Run("status error", func(t *testing.T) {
		svc := NewChatService(&fakeRelay{err: &upstream.StatusError{Status: 500}}, nil, nil)
		_, err := svc.Relay(context.Background(), &dto.ChatRequest{Message: "x"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeRelayError))
	})

	t.Run("non json", func(t *testing.T) {
		svc := NewChatService(&fakeRelay{err: upstream.ErrNonJSON}, nil, nil)
		_, err := svc.Relay(context.Background(), &dto.ChatRequest{Message: "x"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeRelayError))
		assert.ErrorIs(t, err, upstream.ErrNonJSON)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewChatService(nil, nil, nil)
		_, err := svc.Relay(context.Background(), &dto.ChatRequest{Message: "x"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigError))
	})
}

func TestChatService_FeedbackNeverFails(t *testing.T) {
	svc := NewChatService(nil, nil, nil)
	assert.False(t, svc.Feedback(context.Background(), map[string]any{"rating": 1}).Forwarded)

	svc = NewChatService(nil, &fakeForwarder{
		res: upstream.FeedbackResult{UpstreamStatus: 502},
		err: errors.New("bad gateway"),
	}, nil)
	res := svc.Feedback(context.Background(), map[string]any{"rating": 1})
	assert.False(t, res.Forwarded)
	assert.Equal(t, 502, res.UpstreamStatus)
}
