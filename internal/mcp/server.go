// Package mcp implements the MCP stdio front end: a JSON-RPC 2.0 loop that
// exposes the experience store as named tools with JSON-schema-described
// inputs.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/expvault/expvault/internal/analytics"
	"github.com/expvault/expvault/internal/feedback"
	"github.com/expvault/expvault/internal/index"
	"github.com/expvault/expvault/internal/ledger"
	"github.com/expvault/expvault/internal/search"
	"github.com/expvault/expvault/internal/store"
	pkgerrors "github.com/expvault/expvault/pkg/errors"
	"github.com/expvault/expvault/pkg/metrics"
)

const serverVersion = "1.0.0"

// Deps are the collaborators the server dispatches into. Collector and
// Metrics may be nil.
type Deps struct {
	Store     *store.Store
	Feedback  *feedback.Log
	Index     *index.Manager
	Engine    *search.Engine
	Ledger    *ledger.Ledger
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
}

// Server serves the MCP protocol over stdio.
type Server struct {
	deps   Deps
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// NewServer creates a Server bound to stdin/stdout.
func NewServer(deps Deps) *Server {
	return &Server{
		deps:   deps,
		logger: slog.Default().With("component", "mcp"),
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Run reads newline-delimited JSON-RPC messages until EOF or context
// cancellation.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, pkgerrors.CodeParseError, "Parse error")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := s.send(resp); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: InitializeResult{
				ProtocolVersion: protocolVersion,
				ServerInfo: ServerInfo{
					Name:    "expvault",
					Version: serverVersion,
				},
				Capabilities: ServerCapabilities{
					Tools: &ToolsCapability{},
				},
			},
		}
	case "tools/list":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ListToolsResult{Tools: toolDefinitions()},
		}
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "notifications/initialized":
		return nil
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: pkgerrors.CodeMethodNotFound, Message: "Method not found"},
		}
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: pkgerrors.CodeInvalidParams, Message: "Invalid params"},
		}
	}

	toolReq, err := decodeToolRequest(params.Name, params.Arguments)
	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: pkgerrors.RPCCode(err), Message: err.Error()},
		}
	}

	var result CallToolResult
	switch r := toolReq.(type) {
	case *recordExperienceRequest:
		result = s.recordExperience(ctx, r)
	case *searchExperienceRequest:
		result = s.searchExperience(ctx, r)
	case *voteExperienceRequest:
		result = s.voteExperience(ctx, r)
	case *recordToolFeedbackRequest:
		result = s.recordToolFeedback(r)
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

func (s *Server) send(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}
	if _, err := fmt.Fprintf(s.out, "%s\n", data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id interface{}, code int, message string) {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
	if err := s.send(resp); err != nil {
		s.logger.Error("failed to send error response", "error", err)
	}
}
