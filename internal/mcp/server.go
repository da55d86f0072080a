/*
Package mcp implements the MCP server that exposes piece discovery.

The server uses stdio transport and exposes 2 tools:
  - pieces_search: Find pieces (and optionally their actions/triggers) by
    free text and category
  - pieces_categories: List category tags with piece counts
*/
package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/khanglvm/piece-hub/internal/history"
	"github.com/khanglvm/piece-hub/internal/piece"
	"github.com/khanglvm/piece-hub/internal/search"
	"github.com/khanglvm/piece-hub/internal/version"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolError      = -32000
)

// maxRequestSize bounds one request line.
const maxRequestSize = 4 * 1024 * 1024

// Server represents the piece-hub MCP server.
type Server struct {
	engine  *search.Engine
	pieces  []piece.Piece
	tracker *history.Tracker

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// NewServer creates a server answering from pieces. tracker may be nil.
func NewServer(engine *search.Engine, pieces []piece.Piece, tracker *history.Tracker) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		engine:  engine,
		pieces:  pieces,
		tracker: tracker,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context is cancelled when the server is closed.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Close stops the server and flushes search history.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.tracker != nil {
			s.tracker.Stop()
		}
	})
	return nil
}

// Run starts the MCP server using stdio transport.
// This blocks until stdin is closed.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes one response
// per line to w until r is exhausted or the server is closed.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)

	for scanner.Scan() {
		if s.ctx.Err() != nil {
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		response, err := s.handleRequest(line)
		if err != nil {
			s.sendError(w, err)
			continue
		}

		if response != nil {
			s.sendResponse(w, response)
		}
	}

	return scanner.Err()
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id interface{}, code int, msg string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	}
}

// handleRequest processes an incoming MCP request. Notifications (no id)
// get no response.
func (s *Server) handleRequest(data []byte) (*MCPResponse, error) {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(&req)
	case "notifications/initialized":
		return nil, nil
	default:
		if req.ID == nil {
			return nil, nil
		}
		return errorResponse(req.ID, codeMethodNotFound, "Method not found"), nil
	}
}

// handleInitialize handles the MCP initialize request.
func (s *Server) handleInitialize(req *MCPRequest) (*MCPResponse, error) {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "piece-hub",
				"version": version.Version,
			},
		},
	}, nil
}

// handleToolsList returns the list of available tools.
func (s *Server) handleToolsList(req *MCPRequest) (*MCPResponse, error) {
	categories := make([]string, len(piece.KnownCategories))
	for i, c := range piece.KnownCategories {
		categories[i] = string(c)
	}

	tools := []map[string]interface{}{
		{
			"name": "pieces_search",
			"description": fmt.Sprintf(`Find integration pieces by name, description and category.

Matching is typo tolerant ("slck" finds Slack) and ranked by relevance.
With includeActionsAndTriggers the search also looks inside each piece's
actions and triggers and returns only the best %d of each.

Catalog size: %d pieces.`, s.engine.Config().SuggestionLimit, len(s.pieces)),
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"searchQuery": map[string]interface{}{
						"type":        "string",
						"description": "Free text, e.g. \"send slack message\". Omit to list by category only.",
					},
					"categories": map[string]interface{}{
						"type":        "array",
						"description": "Keep pieces carrying any of these categories",
						"items": map[string]interface{}{
							"type": "string",
							"enum": categories,
						},
					},
					"includeActionsAndTriggers": map[string]interface{}{
						"type":        "boolean",
						"description": "Also search actions and triggers and narrow them to the best matches",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of pieces to return (default: all)",
						"minimum":     0,
					},
				},
			},
		},
		{
			"name":        "pieces_categories",
			"description": "List category tags used in the catalog with the number of pieces in each.",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}, nil
}

// handleToolsCall handles tool execution requests.
func (s *Server) handleToolsCall(req *MCPRequest) (*MCPResponse, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err)), nil
	}

	var (
		result string
		err    error
	)

	switch params.Name {
	case "pieces_search":
		var args SearchArgs
		if len(params.Arguments) > 0 {
			if err := json.Unmarshal(params.Arguments, &args); err != nil {
				return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid arguments: %v", err)), nil
			}
		}
		if args.Limit < 0 {
			return errorResponse(req.ID, codeInvalidParams, "limit must not be negative"), nil
		}
		result, err = s.execSearch(args)
	case "pieces_categories":
		result, err = s.execCategories()
	default:
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name)), nil
	}

	if err != nil {
		return errorResponse(req.ID, codeToolError, err.Error()), nil
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}, nil
}

// sendResponse writes a JSON-RPC response line.
func (s *Server) sendResponse(w io.Writer, resp *MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fmt.Fprintln(w, string(data))
}

// sendError writes a parse error response.
func (s *Server) sendError(w io.Writer, err error) {
	s.sendResponse(w, errorResponse(nil, codeParseError, err.Error()))
}
