package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pixieDoug/resend-mcp-http-server/internal/emailaddr"
	"github.com/pixieDoug/resend-mcp-http-server/internal/resend"
)

// Args is the validated, normalized argument set of one tool call.
type Args interface {
	Tool() ToolName
	isArgs()
}

type SendEmailArgs struct {
	To          string
	Subject     string
	Text        string
	From        string
	ReplyTo     []string
	HTML        string
	ScheduledAt string
	CC          []string
	BCC         []string
}

func (SendEmailArgs) Tool() ToolName { return ToolSendEmail }
func (SendEmailArgs) isArgs()        {}

// EmailRequest converts the arguments into the provider payload.
func (a SendEmailArgs) EmailRequest() resend.EmailRequest {
	return resend.EmailRequest{
		From:        a.From,
		To:          a.To,
		Subject:     a.Subject,
		Text:        a.Text,
		HTML:        a.HTML,
		ReplyTo:     a.ReplyTo,
		ScheduledAt: a.ScheduledAt,
		CC:          a.CC,
		BCC:         a.BCC,
	}
}

type ListAudiencesArgs struct{}

func (ListAudiencesArgs) Tool() ToolName { return ToolListAudiences }
func (ListAudiencesArgs) isArgs()        {}

var sendEmailRequired = []string{"to", "subject", "text"}

type Validator struct {
	defaults       Defaults
	allowedDomains []string
	schemas        map[ToolName]*jsonschema.Schema
}

// NewValidator compiles the input schema of every registered tool.
func NewValidator(registry *Registry, defaults Defaults, allowedDomains []string) (*Validator, error) {
	v := &Validator{
		defaults: Defaults{
			Sender:  defaults.Sender,
			ReplyTo: slices.Clone(defaults.ReplyTo),
		},
		allowedDomains: allowedDomains,
		schemas:        make(map[ToolName]*jsonschema.Schema),
	}
	for _, tool := range registry.List() {
		compiled, err := compileSchema(tool)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", tool.Name, err)
		}
		v.schemas[tool.Name] = compiled
	}
	return v, nil
}

func compileSchema(tool Tool) (*jsonschema.Schema, error) {
	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, err
	}
	url := string(tool.Name) + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// Validate checks raw tool arguments and resolves server defaults. No provider
// call may happen unless it returns a nil error.
func (v *Validator) Validate(name string, raw json.RawMessage) (Args, error) {
	tool := ToolName(name)
	schema, ok := v.schemas[tool]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	args, err := decodeArguments(tool, raw)
	if err != nil {
		return nil, err
	}

	switch tool {
	case ToolSendEmail:
		for _, field := range sendEmailRequired {
			if val, ok := args[field]; !ok || val == nil {
				return nil, &ValidationError{Tool: tool, Field: field, Reason: "is required"}
			}
		}
		if err := validateSchema(tool, schema, args); err != nil {
			return nil, err
		}
		return v.sendEmailArgs(args)
	case ToolListAudiences:
		if err := validateSchema(tool, schema, args); err != nil {
			return nil, err
		}
		return ListAudiencesArgs{}, nil
	default:
		return nil, &UnknownToolError{Name: name}
	}
}

func decodeArguments(tool ToolName, raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil, &ValidationError{Tool: tool, Reason: "arguments are not valid JSON: " + err.Error()}
	}
	args, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ValidationError{Tool: tool, Reason: "arguments must be an object"}
	}
	return args, nil
}

func validateSchema(tool ToolName, schema *jsonschema.Schema, args map[string]any) error {
	err := schema.Validate(args)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &ValidationError{
		Tool:   tool,
		Field:  fieldFromPointer(leaf.InstanceLocation),
		Reason: leaf.Message,
	}
}

// fieldFromPointer maps a JSON pointer such as "/cc/0" to its top-level property.
func fieldFromPointer(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if i := strings.Index(pointer, "/"); i >= 0 {
		pointer = pointer[:i]
	}
	return pointer
}

func (v *Validator) sendEmailArgs(args map[string]any) (Args, error) {
	out := SendEmailArgs{}
	var err error
	if out.To, err = stringArg(args, "to"); err != nil {
		return nil, err
	}
	if out.Subject, err = stringArg(args, "subject"); err != nil {
		return nil, err
	}
	if out.Text, err = stringArg(args, "text"); err != nil {
		return nil, err
	}
	if out.HTML, err = stringArg(args, "html"); err != nil {
		return nil, err
	}
	if out.ScheduledAt, err = stringArg(args, "scheduledAt"); err != nil {
		return nil, err
	}
	if out.CC, err = stringListArg(args, "cc", false); err != nil {
		return nil, err
	}
	if out.BCC, err = stringListArg(args, "bcc", false); err != nil {
		return nil, err
	}

	if out.From, err = stringArg(args, "from"); err != nil {
		return nil, err
	}
	if out.From != "" {
		if _, err := emailaddr.Parse(out.From); err != nil {
			return nil, &ValidationError{Tool: ToolSendEmail, Field: "from", Reason: err.Error()}
		}
	} else {
		out.From = v.defaults.Sender
	}
	if out.From == "" {
		return nil, &ValidationError{
			Tool:   ToolSendEmail,
			Field:  "from",
			Reason: "is required: no sender address was provided and no default sender is configured",
		}
	}

	out.ReplyTo, err = stringListArg(args, "replyTo", true)
	if err != nil {
		return nil, err
	}
	if out.ReplyTo != nil {
		if _, err := emailaddr.ParseList(out.ReplyTo); err != nil {
			return nil, &ValidationError{Tool: ToolSendEmail, Field: "replyTo", Reason: err.Error()}
		}
	} else {
		out.ReplyTo = slices.Clone(v.defaults.ReplyTo)
		if out.ReplyTo == nil {
			out.ReplyTo = []string{}
		}
	}

	if err := v.checkRecipients(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Validator) checkRecipients(args SendEmailArgs) error {
	if len(v.allowedDomains) == 0 {
		return nil
	}
	check := func(field string, addrs ...string) error {
		for _, addr := range addrs {
			if !emailaddr.DomainAllowed(addr, v.allowedDomains) {
				return &ValidationError{
					Tool:   ToolSendEmail,
					Field:  field,
					Reason: fmt.Sprintf("recipient %q is not in an allowed domain", addr),
				}
			}
		}
		return nil
	}
	if err := check("to", args.To); err != nil {
		return err
	}
	if err := check("cc", args.CC...); err != nil {
		return err
	}
	return check("bcc", args.BCC...)
}

// stringArg returns "" when key is absent or null.
func stringArg(args map[string]any, key string) (string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		return "", &ValidationError{Tool: ToolSendEmail, Field: key, Reason: "must be a string"}
	}
	return s, nil
}

// stringListArg returns nil when key is absent or null. With allowString a
// bare string is accepted as a one-element list.
func stringListArg(args map[string]any, key string, allowString bool) ([]string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return nil, nil
	}
	switch typed := val.(type) {
	case string:
		if allowString {
			return []string{typed}, nil
		}
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Tool: ToolSendEmail, Field: key, Reason: "must contain only strings"}
			}
			out = append(out, s)
		}
		return out, nil
	}
	if allowString {
		return nil, &ValidationError{Tool: ToolSendEmail, Field: key, Reason: "must be a string or an array of strings"}
	}
	return nil, &ValidationError{Tool: ToolSendEmail, Field: key, Reason: "must be an array of strings"}
}
