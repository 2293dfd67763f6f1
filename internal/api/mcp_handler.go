package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/mcp"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

// handleMCP handles POST /mcp JSON-RPC messages. A fresh MCP server is built
// per request, bound to the authenticated caller.
func (s *Server) handleMCP(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == "" {
		user = "anonymous"
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "failed to read request body")
		return
	}

	server := mcp.NewServer(s.mcpDeps(), user)
	response, err := server.HandleMessage(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}

	// No response for notifications (e.g., "initialized")
	if response == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.Data(http.StatusOK, "application/json", response)
}

// handleMCPInfo describes the MCP endpoint and its tool registry.
func (s *Server) handleMCPInfo(c *gin.Context) {
	tools := make([]map[string]string, len(mcp.ToolRegistry))
	for i, tool := range mcp.ToolRegistry {
		tools[i] = map[string]string{
			"name":        tool.Name,
			"description": tool.Description,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"name":             mcp.ServerName,
		"version":          version.Short(),
		"protocol_version": mcp.ProtocolVersion,
		"tools_count":      len(mcp.ToolRegistry),
		"tools":            tools,
		"endpoint":         "POST /mcp",
	})
}
