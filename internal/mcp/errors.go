package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

var ErrMethodNotFound = errors.New("method not found")

// ValidationError reports tool arguments that are missing, malformed or that
// cannot be completed from the server defaults.
type ValidationError struct {
	Tool   ToolName
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %s %s", e.Tool, e.Field, e.Reason)
}

type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ProviderError wraps a failed provider call. Detail is the JSON form of the
// provider's error object.
type ProviderError struct {
	Tool   ToolName
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(tool ToolName, err error) *ProviderError {
	var payload any = map[string]string{"message": err.Error()}
	var apiErr *resend.APIError
	if errors.As(err, &apiErr) {
		payload = apiErr
	}
	detail, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		detail = []byte(fmt.Sprintf("%q", err.Error()))
	}
	return &ProviderError{Tool: tool, Detail: string(detail), Err: err}
}
