package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/resources"
	"github.com/richard-senior/matchodds/pkg/tools"
	"github.com/richard-senior/matchodds/pkg/transport"
)

const (
	serverName    = "matchodds"
	serverVersion = "1.0.0"
	// some clients prefix tool names with the server alias
	toolPrefix = "mcp___"
)

// HandlerFunc is a function that handles an MCP request
type HandlerFunc func(ctx context.Context, params any) (any, error)

// errNoResponse is returned by handlers of notifications
var errNoResponse = errors.New("no response")

// Server represents an MCP server
type Server struct {
	transport transport.Transport
	service   *tools.Service
	handlers  map[string]HandlerFunc
	tools     map[string]tools.Handler
	toolList  []protocol.Tool
	resources *resources.Leagues
	mu        sync.RWMutex
}

// New creates a server exposing the service's tools. t may be nil when requests
// arrive through Handle only, as in http mode.
func New(t transport.Transport, service *tools.Service) *Server {
	s := &Server{
		transport: t,
		service:   service,
		handlers:  make(map[string]HandlerFunc),
		tools:     make(map[string]tools.Handler),
		resources: resources.NewLeagues(service.Leagues),
	}
	s.RegisterDefaultTools()
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler tools.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toolList = append(s.toolList, tool)
	s.tools[tool.Name] = handler
	logger.Debug("Registered tool:", tool.Name)
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.Tool(nil), s.toolList...)
}

// RegisterDefaultTools registers the service tools and the protocol methods
func (s *Server) RegisterDefaultTools() {
	for _, r := range s.service.Registrations() {
		s.RegisterTool(r.Tool, r.Handler)
	}
	logger.Info("Registered tools", len(s.toolList))

	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodInitialized)] = s.handleInitialized
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodResourcesList)] = s.handleResourcesList
	s.handlers[string(protocol.MethodResourcesRead)] = s.handleResourcesRead
	s.handlers[string(protocol.MethodShutdown)] = s.handleShutdown
}

// Start serves the transport until it fails, the client disconnects or a signal arrives
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down:", ctx.Err())
		return nil
	}
}

// ProcessRequests continuously processes incoming requests
func (s *Server) ProcessRequests(ctx context.Context) error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			return err
		}

		// nil means no response is required
		resp := s.Handle(ctx, req)
		if resp == nil {
			continue
		}

		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// Handle processes one request and returns its response, nil for notifications
func (s *Server) Handle(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	logger.Debug("Full request:", req.String())

	if strings.HasPrefix(req.Method, "notifications/") {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	handler := s.handlers[req.Method]
	if handler == nil {
		if req.IsNotification() {
			return nil
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	result, err := handler(ctx, req.Params)
	if errors.Is(err, errNoResponse) || req.IsNotification() {
		return nil
	}
	if err != nil {
		code := protocol.ErrToolExecutionFailed
		if errors.Is(err, tools.ErrInvalidArgs) {
			code = protocol.ErrInvalidParams
		}
		logger.Warn("Request failed", req.Method, err)
		return protocol.NewJsonRpcErrorResponse(code, err.Error(), nil, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("Full response:", string(resp.Result))
	return resp
}

// unmarshalParams decodes raw request params, treating absent params as an empty object
func unmarshalParams(params any, v any) error {
	raw, ok := params.(json.RawMessage)
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", tools.ErrInvalidArgs, err)
	}
	return nil
}

func (s *Server) handleInitialize(ctx context.Context, params any) (any, error) {
	logger.Info("Handling initialize request with", len(s.toolList), "tools registered")

	var initParams struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := unmarshalParams(params, &initParams); err != nil {
		return nil, err
	}
	version := protocol.MCPProtocolVersion
	if initParams.ProtocolVersion != "" {
		version = initParams.ProtocolVersion
	}
	logger.Info("Final protocol version to use:", version)

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfo{Name: serverName, Version: serverVersion},
	}, nil
}

// 'initialized' does not require a response
func (s *Server) handleInitialized(ctx context.Context, params any) (any, error) {
	logger.Info("Handling initialized notification")
	return nil, errNoResponse
}

func (s *Server) handlePing(ctx context.Context, params any) (any, error) {
	return struct{}{}, nil
}

func (s *Server) handleShutdown(ctx context.Context, params any) (any, error) {
	logger.Info("Client requested shutdown")
	return struct{}{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params any) (any, error) {
	logger.Info("Handling tools/list request")
	return struct {
		Tools []protocol.Tool `json:"tools"`
	}{Tools: s.GetTools()}, nil
}

func (s *Server) handleResourcesList(ctx context.Context, params any) (any, error) {
	logger.Info("Handling resources/list request")
	return struct {
		Resources []protocol.Resource `json:"resources"`
	}{Resources: s.resources.List()}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, params any) (any, error) {
	var readParams struct {
		URI string `json:"uri"`
	}
	if err := unmarshalParams(params, &readParams); err != nil {
		return nil, err
	}
	logger.Info("Handling resources/read request for", readParams.URI)
	contents, err := s.resources.Read(readParams.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArgs, err)
	}
	return struct {
		Contents []protocol.ResourceContents `json:"contents"`
	}{Contents: []protocol.ResourceContents{contents}}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params any) (any, error) {
	var call protocol.ToolCallParams
	if err := unmarshalParams(params, &call); err != nil {
		return nil, err
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.RLock()
	handler := s.tools[call.Name]
	if handler == nil && strings.HasPrefix(call.Name, toolPrefix) {
		handler = s.tools[strings.TrimPrefix(call.Name, toolPrefix)]
	}
	s.mu.RUnlock()

	if handler == nil {
		return nil, fmt.Errorf("%w: tool not found: %s", tools.ErrInvalidArgs, call.Name)
	}

	var args any
	if call.Arguments != nil {
		args = call.Arguments
	}
	result, err := handler(ctx, args)
	if err != nil {
		if errors.Is(err, tools.ErrInvalidArgs) {
			return nil, err
		}
		// execution failures are reported to the model as tool output
		logger.Warn("Tool execution failed", call.Name, err)
		return protocol.ToolResult{
			Content: []protocol.Content{{Type: "text", Text: "tool execution failed: " + err.Error()}},
			IsError: true,
		}, nil
	}

	text, err := json.MarshalIndent(result, "", " ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return protocol.TextResult(string(text)), nil
}
