package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

func TestExecuteSendEmail(t *testing.T) {
	provider := &fakeProvider{}
	exec := NewExecutor(provider)

	args := SendEmailArgs{
		To:      "a@b.com",
		Subject: "hi",
		Text:    "hello",
		From:    "noreply@example.com",
		ReplyTo: []string{"r@example.com"},
		CC:      []string{"c@d.com"},
	}
	result, err := exec.Execute(context.Background(), args)
	require.NoError(t, err)

	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, `Email sent successfully! {"id":"email_123"}`, result.Content[0].Text)

	assert.Equal(t, 1, provider.sendCalls)
	assert.Equal(t, resend.EmailRequest{
		From:    "noreply@example.com",
		To:      "a@b.com",
		Subject: "hi",
		Text:    "hello",
		ReplyTo: []string{"r@example.com"},
		CC:      []string{"c@d.com"},
	}, provider.lastSend)
}

func TestExecuteSendEmailStructuredFailure(t *testing.T) {
	provider := &fakeProvider{
		SendEmailFunc: func(context.Context, resend.EmailRequest) (resend.SendEmailResponse, error) {
			return resend.SendEmailResponse{}, &resend.APIError{StatusCode: 422, Name: "validation_error", Message: "bad"}
		},
	}
	_, err := NewExecutor(provider).Execute(context.Background(), SendEmailArgs{To: "a@b.com", From: "x@y.com"})
	require.Error(t, err)

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ToolSendEmail, providerErr.Tool)
	assert.JSONEq(t, `{"statusCode":422,"name":"validation_error","message":"bad"}`, providerErr.Detail)
	assert.Contains(t, err.Error(), "bad")

	var apiErr *resend.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1, provider.sendCalls)
}

func TestExecuteSendEmailTransportFailure(t *testing.T) {
	provider := &fakeProvider{
		SendEmailFunc: func(context.Context, resend.EmailRequest) (resend.SendEmailResponse, error) {
			return resend.SendEmailResponse{}, errors.New("dial tcp: connection refused")
		},
	}
	_, err := NewExecutor(provider).Execute(context.Background(), SendEmailArgs{})

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.JSONEq(t, `{"message":"dial tcp: connection refused"}`, providerErr.Detail)
	assert.Equal(t, 1, provider.sendCalls, "failures must not be retried")
}

func TestExecuteListAudiences(t *testing.T) {
	provider := &fakeProvider{}
	result, err := NewExecutor(provider).Execute(context.Background(), ListAudiencesArgs{})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "Audiences found: ")
	assert.Contains(t, result.Content[0].Text, "Registered Users")
	assert.Equal(t, 1, provider.listCalls)
	assert.Zero(t, provider.sendCalls)
}

func TestExecuteListAudiencesFailure(t *testing.T) {
	provider := &fakeProvider{
		ListAudiencesFunc: func(context.Context) (resend.ListAudiencesResponse, error) {
			return resend.ListAudiencesResponse{}, &resend.APIError{StatusCode: 401, Name: "missing_api_key", Message: "Missing API key"}
		},
	}
	_, err := NewExecutor(provider).Execute(context.Background(), ListAudiencesArgs{})

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ToolListAudiences, providerErr.Tool)
	assert.Contains(t, err.Error(), "Missing API key")
}

func TestExecuteWithoutProvider(t *testing.T) {
	_, err := NewExecutor(nil).Execute(context.Background(), ListAudiencesArgs{})
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ToolListAudiences, providerErr.Tool)
}

func TestExecuteNilArgs(t *testing.T) {
	_, err := NewExecutor(&fakeProvider{}).Execute(context.Background(), nil)
	var unknown *UnknownToolError
	require.True(t, errors.As(err, &unknown))
}
