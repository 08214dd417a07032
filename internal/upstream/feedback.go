package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// FeedbackResult never carries an error: forwarding is optional.
type FeedbackResult struct {
	Forwarded      bool `json:"forwarded"`
	UpstreamStatus int  `json:"upstreamStatus,omitempty"`
	Upstream       any  `json:"upstream,omitempty"`
}

type FeedbackClient struct {
	endpoint string
	http     *http.Client
}

// NewFeedbackClient returns a client that forwards nothing when baseURL is empty.
func NewFeedbackClient(baseURL string, timeout time.Duration) *FeedbackClient {
	return &FeedbackClient{endpoint: FeedbackEndpoint(baseURL), http: newHTTPClient(timeout)}
}

// FeedbackEndpoint appends /api/feedback unless base already points at it.
func FeedbackEndpoint(base string) string {
	b := strings.TrimSpace(base)
	if b == "" {
		return ""
	}
	if strings.Contains(b, "/api/feedback") || strings.HasSuffix(b, "/feedback") {
		return b
	}
	return strings.TrimRight(b, "/") + "/api/feedback"
}

func (c *FeedbackClient) Enabled() bool {
	return c.endpoint != ""
}

// Forward posts payload and reports the outcome along with the transport
// error, if any, for logging.
func (c *FeedbackClient) Forward(ctx context.Context, payload map[string]any) (FeedbackResult, error) {
	if !c.Enabled() {
		return FeedbackResult{Forwarded: false}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return FeedbackResult{}, err
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return FeedbackResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	status, decoded, raw, err := doJSON(ctx, c.http, req)
	if err != nil {
		return FeedbackResult{Forwarded: false}, err
	}
	if !isSuccess(status) {
		return FeedbackResult{Forwarded: false, UpstreamStatus: status}, &StatusError{Status: status, Body: truncate(string(raw), 512)}
	}
	if decoded == nil {
		decoded = map[string]any{"ok": true, "raw": truncate(string(raw), 2000)}
	}
	return FeedbackResult{Forwarded: true, Upstream: decoded}, nil
}
