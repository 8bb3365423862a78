// Package mcp exposes the qualification workflow as MCP tools so agent
// clients can drive the same start/decide/status operations as the REST API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chetansirohi/Leads-Agent/internal/engine"
	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
}

func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Lead Qualification",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		engine: eng,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"qualify_lead",
			mcp.WithDescription("Run the qualification workflow for a lead"),
			mcp.WithString("lead_id", mcp.Required(), mcp.Description("The ID of the lead to qualify")),
		),
		s.handleQualifyLead,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_decision",
			mcp.WithDescription("Resume an interrupted workflow with a human decision"),
			mcp.WithString("thread_id", mcp.Required(), mcp.Description("The workflow thread ID returned by qualify_lead")),
			mcp.WithString("decision", mcp.Required(), mcp.Description("Either 'approve' or 'reject'")),
		),
		s.handleSubmitDecision,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_workflow_status",
			mcp.WithDescription("Inspect the checkpointed state of a workflow thread"),
			mcp.WithString("thread_id", mcp.Required(), mcp.Description("The workflow thread ID")),
		),
		s.handleGetWorkflowStatus,
	)
}

func (s *Server) handleQualifyLead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	leadID, ok := args["lead_id"].(string)
	if !ok || leadID == "" {
		return mcp.NewToolResultError("Missing required parameter: lead_id"), nil
	}

	state, err := s.engine.Start(ctx, leadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to qualify lead: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSubmitDecision(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	threadID, ok := args["thread_id"].(string)
	if !ok || threadID == "" {
		return mcp.NewToolResultError("Missing required parameter: thread_id"), nil
	}

	decision, ok := args["decision"].(string)
	if !ok || decision == "" {
		return mcp.NewToolResultError("Missing required parameter: decision"), nil
	}

	state, err := s.engine.Resume(ctx, threadID, models.Decision(decision))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to submit decision: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetWorkflowStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	threadID, ok := args["thread_id"].(string)
	if !ok || threadID == "" {
		return mcp.NewToolResultError("Missing required parameter: thread_id"), nil
	}

	state, err := s.engine.Status(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
