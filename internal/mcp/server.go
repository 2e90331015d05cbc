package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// MCPServer speaks newline-delimited JSON-RPC over a reader/writer pair,
// normally stdin and stdout.
type MCPServer struct {
	handler *MCPHandler
	logger  *zap.Logger
	input   *json.Decoder
	writer  *bufio.Writer
	output  *json.Encoder
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewMCPServer(handler *MCPHandler, in io.Reader, out io.Writer, logger *zap.Logger) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := bufio.NewWriter(out)
	return &MCPServer{
		handler: handler,
		logger:  logger,
		input:   json.NewDecoder(in),
		writer:  w,
		output:  json.NewEncoder(w),
	}
}

// Start serves requests until the input closes or ctx is cancelled. Requests
// are handled concurrently; responses are written one at a time.
func (s *MCPServer) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server")
	defer s.wg.Wait()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var msg MCPMessage
		if err := s.input.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("Input stream closed")
				return nil
			}
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				s.logger.Error("Failed to decode message", zap.Error(err))
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			// the decoder cannot resync after malformed input or a read error
			s.logger.Error("Failed to decode message", zap.Error(err))
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				_ = s.sendMessage(errorMessage(nil, codeParseError, "Parse error", err.Error()))
			}
			return fmt.Errorf("read input: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleMessage(ctx, &msg)
		}()
	}
}

func (s *MCPServer) handleMessage(ctx context.Context, msg *MCPMessage) {
	s.logger.Debug("Received message",
		zap.String("method", msg.Method),
		zap.Any("id", msg.ID),
	)

	var response *MCPMessage
	switch msg.Method {
	case "initialize":
		response = s.handleInitialize(msg)
	case "tools/list":
		response = resultMessage(msg.ID, map[string]interface{}{"tools": s.handler.HandleListTools()})
	case "tools/call":
		response = s.handleCallTool(ctx, msg)
	case "ping":
		response = resultMessage(msg.ID, map[string]interface{}{})
	case "notifications/initialized", "notifications/cancelled":
		return
	default:
		if msg.ID == nil {
			return
		}
		s.logger.Warn("Unknown method", zap.String("method", msg.Method))
		response = errorMessage(msg.ID, codeMethodNotFound, "Method not found", nil)
	}

	if err := s.sendMessage(response); err != nil {
		s.logger.Error("Failed to send response", zap.Error(err))
	}
}

func (s *MCPServer) handleInitialize(msg *MCPMessage) *MCPMessage {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorMessage(msg.ID, codeInvalidParams, "Invalid params", err.Error())
		}
	}
	return resultMessage(msg.ID, s.handler.HandleInitialize(&params))
}

func (s *MCPServer) handleCallTool(ctx context.Context, msg *MCPMessage) *MCPMessage {
	var params CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errorMessage(msg.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.handler.HandleCallTool(ctx, &params)
	if err != nil {
		code := codeInternalError
		message := "Internal error"
		if errors.Is(err, errInvalidArguments) {
			code, message = codeInvalidParams, "Invalid params"
		}
		return errorMessage(msg.ID, code, message, err.Error())
	}
	return resultMessage(msg.ID, result)
}

func (s *MCPServer) sendMessage(msg *MCPMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("Sending message", zap.Any("id", msg.ID))

	if err := s.output.Encode(msg); err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return s.writer.Flush()
}

func resultMessage(id interface{}, result interface{}) *MCPMessage {
	return &MCPMessage{JSONRPC: jsonRPCVersion, ID: id, Result: result}
}

func errorMessage(id interface{}, code int, message string, data interface{}) *MCPMessage {
	return &MCPMessage{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}
