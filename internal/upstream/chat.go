package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SessionID string     `json:"sessionId"`
	Message   string     `json:"message"`
	History   []ChatTurn `json:"history"`
}

type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChatReply is the normalized shape handed to the widget.
type ChatReply struct {
	Text         string       `json:"text"`
	QuickReplies []QuickReply `json:"quickReplies"`
	Courses      []any        `json:"courses"`
	Promotions   []any        `json:"promotions"`
}

type ChatClient struct {
	endpoint string
	aliases  ChatAliases
	http     *http.Client
}

// NewChatClient targets <baseURL>/api/chat?backend=<backend>.
func NewChatClient(baseURL, backend string, timeout time.Duration) (*ChatClient, error) {
	u, err := url.Parse(joinURL(baseURL, "/api/chat"))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("backend", backend)
	u.RawQuery = q.Encode()

	return &ChatClient{endpoint: u.String(), aliases: DefaultChatAliases, http: newHTTPClient(timeout)}, nil
}

// ErrNonJSON marks an upstream body that could not be decoded.
var ErrNonJSON = errors.New("chat backend returned non-JSON body")

// Relay forwards one turn. Non-2xx responses become *StatusError and non-JSON
// bodies ErrNonJSON; neither is retried.
func (c *ChatClient) Relay(ctx context.Context, in ChatRequest) (*ChatReply, error) {
	if in.History == nil {
		in.History = []ChatTurn{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, decoded, raw, err := doJSON(ctx, c.http, req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &StatusError{Status: status, Body: truncate(string(raw), 512)}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, ErrNonJSON
	}

	reply := NormalizeChatReply(obj, c.aliases)
	return &reply, nil
}

// NormalizeChatReply maps an upstream payload onto ChatReply using aliases.
func NormalizeChatReply(payload map[string]any, aliases ChatAliases) ChatReply {
	d := unwrapEnvelope(payload, aliases.Envelope)

	reply := ChatReply{
		Text:         firstString(d, aliases.ReplyText),
		QuickReplies: normalizeQuickReplies(d, aliases),
		Courses:      nonNil(firstArray(d, aliases.Courses)),
		Promotions:   nonNil(firstArray(d, aliases.Promotions)),
	}

	if len(reply.QuickReplies) == 0 && asksForCategory(reply.Text, d) {
		for _, label := range FallbackQuickReplies {
			reply.QuickReplies = append(reply.QuickReplies, QuickReply{Label: label, Value: label})
		}
	}
	return reply
}

// unwrapEnvelope descends into the first envelope key holding an object.
func unwrapEnvelope(payload map[string]any, envelope []string) map[string]any {
	for _, key := range envelope {
		if inner, ok := payload[key].(map[string]any); ok {
			return inner
		}
	}
	return payload
}

// normalizeQuickReplies accepts a list of strings, a list of objects, or an
// object mapping label to value.
func normalizeQuickReplies(d map[string]any, aliases ChatAliases) []QuickReply {
	raw, ok := firstValue(d, aliases.QuickReplies)
	if !ok {
		return []QuickReply{}
	}

	out := []QuickReply{}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			switch x := item.(type) {
			case string:
				if s := strings.TrimSpace(x); s != "" {
					out = append(out, QuickReply{Label: s, Value: s})
				}
			case map[string]any:
				label := firstString(x, aliases.ChipText)
				if label == "" {
					continue
				}
				value := firstString(x, []string{"value"})
				if value == "" {
					value = label
				}
				out = append(out, QuickReply{Label: label, Value: value})
			}
		}
	case map[string]any:
		labels := make([]string, 0, len(v))
		for label := range v {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			value := scalarString(v[label])
			if value == "" {
				value = label
			}
			out = append(out, QuickReply{Label: label, Value: value})
		}
	}
	return out
}

func asksForCategory(text string, d map[string]any) bool {
	if mt, ok := d["message_type"].(string); ok && mt != "" && mt != "text" {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range CategoryPromptPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}
