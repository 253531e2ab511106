package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pixieDoug/resend-mcp-http-server/internal/config"
	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

type fakeProvider struct {
	SendEmailFunc     func(ctx context.Context, req resend.EmailRequest) (resend.SendEmailResponse, error)
	ListAudiencesFunc func(ctx context.Context) (resend.ListAudiencesResponse, error)

	mu        sync.Mutex
	sendCalls int
	listCalls int
	lastSend  resend.EmailRequest
}

func (f *fakeProvider) SendEmail(ctx context.Context, req resend.EmailRequest) (resend.SendEmailResponse, error) {
	f.mu.Lock()
	f.sendCalls++
	f.lastSend = req
	f.mu.Unlock()
	if f.SendEmailFunc != nil {
		return f.SendEmailFunc(ctx, req)
	}
	return resend.SendEmailResponse{ID: "email_123"}, nil
}

func (f *fakeProvider) ListAudiences(ctx context.Context) (resend.ListAudiencesResponse, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.ListAudiencesFunc != nil {
		return f.ListAudiencesFunc(ctx)
	}
	return resend.ListAudiencesResponse{
		Object: "list",
		Data:   []resend.Audience{{ID: "aud_1", Name: "Registered Users"}},
	}, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls + f.listCalls
}

func testConfig(mutate func(*config.Config)) config.Config {
	cfg := config.Default()
	cfg.Resend.APIKey = "re_test"
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func newTestServer(t *testing.T, provider Provider, mutate func(*config.Config)) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(mutate), provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

func withSender(sender string, replyTo ...string) func(*config.Config) {
	return func(cfg *config.Config) {
		cfg.Email.Sender = sender
		cfg.Email.ReplyTo = replyTo
	}
}

// reply is the wire form of a Response as a client would decode it.
type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *ResponseError  `json:"error"`
}

func toReply(t *testing.T, resp Response) reply {
	t.Helper()
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out reply
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func callRequest(t *testing.T, id any, tool string, args any) Request {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": tool, "arguments": args})
	require.NoError(t, err)
	rawID, err := json.Marshal(id)
	require.NoError(t, err)
	return Request{JSONRPC: "2.0", ID: rawID, Method: string(MethodCallTool), Params: params}
}
