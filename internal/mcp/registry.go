package mcp

import (
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolName is the closed set of tools the server exposes.
type ToolName string

const (
	ToolSendEmail     ToolName = "send-email"
	ToolListAudiences ToolName = "list-audiences"
)

type Tool struct {
	Name        ToolName           `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Defaults are the server-level values used when a call omits from/replyTo.
type Defaults struct {
	Sender  string
	ReplyTo []string
}

func (d Defaults) HasSender() bool {
	return d.Sender != ""
}

func (d Defaults) HasReplyTo() bool {
	return len(d.ReplyTo) > 0
}

// Registry is the tool catalog. It is built once from Defaults and never mutated.
type Registry struct {
	tools []Tool
}

func NewRegistry(defaults Defaults) *Registry {
	return &Registry{
		tools: []Tool{
			{
				Name:        ToolSendEmail,
				Description: "Send an email using Resend",
				InputSchema: sendEmailSchema(defaults),
			},
			{
				Name: ToolListAudiences,
				Description: "List all audiences from Resend. This tool is useful for getting the audience ID " +
					"to help the user find the audience they want to use for other tools. If you need an " +
					"audience ID, you MUST use this tool to get all available audiences and then ask the " +
					"user to select the audience they want to use.",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
		},
	}
}

// List returns the tools in registration order. Schemas are copied, so
// changes to the result never reach the registry.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	for i, tool := range r.tools {
		out[i] = cloneTool(tool)
	}
	return out
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	for _, tool := range r.tools {
		if string(tool.Name) == name {
			return cloneTool(tool), true
		}
	}
	return Tool{}, false
}

func cloneTool(tool Tool) Tool {
	tool.InputSchema = cloneSchema(tool.InputSchema)
	return tool
}

// cloneSchema deep-copies the schema fields the registry populates.
func cloneSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	out := &jsonschema.Schema{
		Type:        s.Type,
		Format:      s.Format,
		Description: s.Description,
		Required:    slices.Clone(s.Required),
		Items:       cloneSchema(s.Items),
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = cloneSchema(prop)
		}
	}
	return out
}

const askUser = "You MUST ask the user for this parameter. Under no circumstance provide it yourself"

func sendEmailSchema(defaults Defaults) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"to":      emailField("Recipient email address"),
		"subject": stringField("Email subject line"),
		"text":    stringField("Plain text email content"),
		"html": stringField("HTML email content. When provided, the plain text argument MUST be " +
			"provided as well."),
		"cc":  emailArrayField("Optional array of CC email addresses. " + askUser),
		"bcc": emailArrayField("Optional array of BCC email addresses. " + askUser),
		"scheduledAt": stringField("Optional parameter to schedule the email. This uses natural " +
			"language. Examples would be 'tomorrow at 10am' or 'in 2 hours' or 'next day at 9am PST' " +
			"or 'Friday at 3pm ET'."),
	}
	if !defaults.HasSender() {
		props["from"] = emailField("Sender email address. " + askUser)
	}
	if !defaults.HasReplyTo() {
		props["replyTo"] = emailArrayField("Optional email addresses for the email readers to reply to. " + askUser)
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"to", "subject", "text"},
	}
}

func stringField(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func emailField(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "email", Description: description}
}

func emailArrayField(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string", Format: "email"},
		Description: description,
	}
}
