package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

// Provider is the email service the tools act on.
type Provider interface {
	SendEmail(ctx context.Context, req resend.EmailRequest) (resend.SendEmailResponse, error)
	ListAudiences(ctx context.Context) (resend.ListAudiencesResponse, error)
}

type Executor struct {
	Provider Provider
}

func NewExecutor(provider Provider) *Executor {
	return &Executor{Provider: provider}
}

// Execute performs exactly one provider call for args. Failures are returned
// as *ProviderError and never retried.
func (e *Executor) Execute(ctx context.Context, args Args) (ToolResult, error) {
	if e.Provider == nil {
		return ToolResult{}, &ProviderError{
			Tool:   toolOf(args),
			Detail: `{"message":"provider not configured"}`,
			Err:    errors.New("provider not configured"),
		}
	}
	switch a := args.(type) {
	case SendEmailArgs:
		return e.sendEmail(ctx, a)
	case ListAudiencesArgs:
		return e.listAudiences(ctx)
	default:
		return ToolResult{}, &UnknownToolError{Name: fmt.Sprintf("%T", args)}
	}
}

func (e *Executor) sendEmail(ctx context.Context, args SendEmailArgs) (ToolResult, error) {
	resp, err := e.Provider.SendEmail(ctx, args.EmailRequest())
	if err != nil {
		return ToolResult{}, newProviderError(ToolSendEmail, err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return ToolResult{}, err
	}
	return textResult("Email sent successfully! " + string(data)), nil
}

func (e *Executor) listAudiences(ctx context.Context) (ToolResult, error) {
	resp, err := e.Provider.ListAudiences(ctx)
	if err != nil {
		return ToolResult{}, newProviderError(ToolListAudiences, err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return ToolResult{}, err
	}
	return textResult("Audiences found: " + string(data)), nil
}

func toolOf(args Args) ToolName {
	if args == nil {
		return ""
	}
	return args.Tool()
}
