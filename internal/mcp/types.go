package mcp

import "encoding/json"

const jsonrpcVersion = "2.0"

// JSON-RPC 2.0 error codes used by the dispatcher.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Method is the closed set of MCP methods the server routes.
type Method string

const (
	MethodInitialize Method = "initialize"
	MethodListTools  Method = "tools/list"
	MethodCallTool   Method = "tools/call"
)

// Request is one inbound JSON-RPC call. ID is kept raw so it is echoed exactly
// as received (string, number or null).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response carries exactly one of Result or Error. A nil ID encodes as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools struct{} `json:"tools"`
}

type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the MCP tools/call result payload.
type ToolResult struct {
	Content []Content `json:"content"`
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}
}
