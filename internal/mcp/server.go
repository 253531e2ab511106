package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pixieDoug/resend-mcp-http-server/internal/config"
	"github.com/pixieDoug/resend-mcp-http-server/internal/observability"
)

const maxBodyBytes = 1 << 20

// unknownToolKey groups calls to unregistered tools in the observer.
const unknownToolKey = "unknown"

type Server struct {
	Config    config.Config
	Registry  *Registry
	Validator *Validator
	Executor  *Executor
	Observer  *observability.ToolObserver
	Logger    *slog.Logger
}

func NewServer(cfg config.Config, provider Provider, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultsFromConfig(cfg)
	registry := NewRegistry(defaults)
	validator, err := NewValidator(registry, defaults, cfg.Email.AllowedRecipientDomains)
	if err != nil {
		return nil, err
	}
	return &Server{
		Config:    cfg,
		Registry:  registry,
		Validator: validator,
		Executor:  NewExecutor(provider),
		Observer:  observability.NewToolObserver(logger),
		Logger:    logger,
	}, nil
}

func DefaultsFromConfig(cfg config.Config) Defaults {
	return Defaults{
		Sender:  strings.TrimSpace(cfg.Email.Sender),
		ReplyTo: cfg.Email.ReplyTo,
	}
}

func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if v := strings.TrimSpace(r.Header.Get("MCP-Protocol-Version")); v != "" {
		s.Logger.Debug("mcp client protocol", "protocol_version", v)
	}

	var resp Response
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.Logger.Warn("mcp request undecodable", "error", err)
		resp = parseErrorResponse(err)
	} else {
		resp = s.Dispatch(r.Context(), req)
	}

	w.Header().Set("MCP-Protocol-Version", s.Config.MCP.ProtocolVersion)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Dispatch routes one request and always returns a well-formed response whose
// ID echoes req.ID.
func (s *Server) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger.Error("mcp dispatch panic", "method", req.Method, "panic", rec)
			resp = errorResponse(req.ID, fmt.Errorf("internal error: %v", rec))
		}
	}()

	s.Logger.Debug("mcp request", "method", req.Method, "id", string(req.ID))
	result, err := s.dispatch(ctx, req)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return Response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	switch Method(req.Method) {
	case MethodInitialize:
		return InitializeResult{
			ProtocolVersion: s.Config.MCP.ProtocolVersion,
			ServerInfo: ServerInfo{
				Name:    s.Config.MCP.ServerName,
				Version: s.Config.MCP.ServerVersion,
			},
		}, nil
	case MethodListTools:
		return ListToolsResult{Tools: s.Registry.List()}, nil
	case MethodCallTool:
		return s.callTool(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, req.Method)
	}
}

func (s *Server) callTool(ctx context.Context, req Request) (any, error) {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	start := time.Now()
	replayID := observability.NewReplayID()
	toolKey := unknownToolKey
	if tool, ok := s.Registry.Lookup(params.Name); ok {
		toolKey = string(tool.Name)
	}

	args, err := s.Validator.Validate(params.Name, params.Arguments)
	if err != nil {
		s.Observer.RecordFailure(toolKey, replayID, time.Since(start), err)
		return nil, err
	}
	result, err := s.Executor.Execute(ctx, args)
	if err != nil {
		s.Observer.RecordFailure(toolKey, replayID, time.Since(start), err)
		return nil, err
	}
	s.Observer.RecordSuccess(toolKey, replayID, time.Since(start))
	return result, nil
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("missing params")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func errorResponse(id json.RawMessage, err error) Response {
	var (
		validationErr *ValidationError
		unknownErr    *UnknownToolError
		providerErr   *ProviderError
	)
	rpcErr := &ResponseError{Code: CodeInternalError, Message: err.Error()}
	switch {
	case errors.Is(err, ErrMethodNotFound):
		rpcErr = &ResponseError{Code: CodeMethodNotFound, Message: "Method not found"}
	case errors.As(err, &validationErr):
		data := map[string]any{"tool": validationErr.Tool}
		if validationErr.Field != "" {
			data["field"] = validationErr.Field
		}
		rpcErr.Data = data
	case errors.As(err, &unknownErr):
		rpcErr.Data = map[string]any{"tool": unknownErr.Name}
	case errors.As(err, &providerErr):
		if json.Valid([]byte(providerErr.Detail)) {
			rpcErr.Data = json.RawMessage(providerErr.Detail)
		}
	}
	return Response{JSONRPC: jsonrpcVersion, ID: id, Error: rpcErr}
}

func parseErrorResponse(err error) Response {
	return Response{
		JSONRPC: jsonrpcVersion,
		Error:   &ResponseError{Code: CodeParseError, Message: "Parse error: " + err.Error()},
	}
}
