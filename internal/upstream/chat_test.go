package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRelay_ForwardsAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "langchain", r.URL.Query().Get("backend"))

		var body ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s1", body.SessionID)
		assert.NotNil(t, body.History)

		_, _ = w.Write([]byte(`{"data":{"reply":"Hi","suggestions":["Excel",{"label":"BI","value":"power-bi"}],"ui":{"courses":[{"id":1}]}}}`))
	}))
	defer srv.Close()

	c, err := NewChatClient(srv.URL, "langchain", time.Second)
	require.NoError(t, err)

	reply, err := c.Relay(context.Background(), ChatRequest{SessionID: "s1", Message: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "Hi", reply.Text)
	assert.Equal(t, []QuickReply{{Label: "Excel", Value: "Excel"}, {Label: "BI", Value: "power-bi"}}, reply.QuickReplies)
	assert.Len(t, reply.Courses, 1)
	assert.Empty(t, reply.Promotions)
}

func TestChatRelay_NonJSONAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("backend") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	c, err := NewChatClient(srv.URL, "langchain", time.Second)
	require.NoError(t, err)
	_, err = c.Relay(context.Background(), ChatRequest{Message: "x"})
	assert.ErrorIs(t, err, ErrNonJSON)

	c, err = NewChatClient(srv.URL, "broken", time.Second)
	require.NoError(t, err)
	_, err = c.Relay(context.Background(), ChatRequest{Message: "x"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestNormalizeChatReply_FallbackQuickReplies(t *testing.T) {
	reply := NormalizeChatReply(map[string]any{
		"response":      "กรุณาเลือกหมวดหมู่ที่สนใจ",
		"quick_replies": []any{},
		"message_type":  "text",
	}, DefaultChatAliases)

	require.Len(t, reply.QuickReplies, len(FallbackQuickReplies))
	assert.Equal(t, "Microsoft Excel", reply.QuickReplies[0].Label)
}

func TestNormalizeChatReply_NoFallbackForOtherMessageTypes(t *testing.T) {
	reply := NormalizeChatReply(map[string]any{
		"response":     "เลือกหมวดหมู่",
		"message_type": "course_list",
	}, DefaultChatAliases)
	assert.Empty(t, reply.QuickReplies)

	reply = NormalizeChatReply(map[string]any{"response": "Hello there"}, DefaultChatAliases)
	assert.Empty(t, reply.QuickReplies)
}

func TestNormalizeChatReply_ObjectQuickReplies(t *testing.T) {
	reply := NormalizeChatReply(map[string]any{
		"text":         "pick",
		"quickReplies": map[string]any{"Excel": "excel", "Canva": ""},
	}, DefaultChatAliases)

	assert.Equal(t, []QuickReply{{Label: "Canva", Value: "Canva"}, {Label: "Excel", Value: "excel"}}, reply.QuickReplies)
}
