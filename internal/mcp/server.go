package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/search"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "helpdesk-mcp"
)

// Deps are the service-layer dependencies the MCP tools dispatch to.
type Deps struct {
	Tickets   *service.TicketService
	Analytics *service.AnalyticsService
	Search    *search.Orchestrator
	Refs      *repository.ReferenceRepository
}

// Server handles MCP protocol messages. One instance is built per request,
// bound to the authenticated user; every tool delegates to the service layer,
// so validation and sanitization apply the same way as on the REST surface.
type Server struct {
	deps        Deps
	user        string
	initialized bool
}

// NewServer creates a new MCP server instance for the given user.
func NewServer(deps Deps, user string) *Server {
	return &Server{deps: deps, user: user}
}

// HandleMessage processes a JSON-RPC message and returns a response. A nil
// response with a nil error means the message was a notification.
func (s *Server) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		resp := ErrorResponse(nil, ErrCodeParse, "Parse error: "+err.Error())
		return json.Marshal(resp)
	}

	if req.JSONRPC != "2.0" {
		resp := ErrorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version")
		return json.Marshal(resp)
	}

	var resp Response
	switch req.Method {
	case "initialize":
		resp = s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil, nil
	case "tools/list":
		resp = s.handleToolsList(req)
	case "tools/call":
		resp = s.handleToolsCall(ctx, req)
	case "ping":
		resp = SuccessResponse(req.ID, map[string]string{})
	default:
		resp = ErrorResponse(req.ID, ErrCodeMethodNotFound, "Method not found: "+req.Method)
	}

	return json.Marshal(resp)
}

func (s *Server) handleInitialize(req Request) Response {
	var params InitializeParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		}
	}

	s.initialized = true

	return SuccessResponse(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: version.Short(),
		},
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
	})
}

func (s *Server) handleToolsList(req Request) Response {
	return SuccessResponse(req.ID, ToolsListResult{
		Tools: ToolRegistry,
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
	}

	if err := validateToolArgs(params.Name, params.Arguments); err != nil {
		return ErrorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return SuccessResponse(req.ID, ToolCallResult{
			Content: []ContentBlock{TextContent(fmt.Sprintf("Error: %v", err))},
			IsError: true,
		})
	}

	return SuccessResponse(req.ID, result)
}

var (
	schemaOnce sync.Once
	schemas    map[string]*gojsonschema.Schema
)

// toolSchemas compiles each tool's input schema once. A schema that fails to
// compile leaves its tool unvalidated rather than unreachable.
func toolSchemas() map[string]*gojsonschema.Schema {
	schemaOnce.Do(func() {
		schemas = make(map[string]*gojsonschema.Schema, len(ToolRegistry))
		for _, tool := range ToolRegistry {
			raw, err := json.Marshal(tool.InputSchema)
			if err != nil {
				log.Printf("[mcp] marshal schema for %s: %v", tool.Name, err)
				continue
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				log.Printf("[mcp] compile schema for %s: %v", tool.Name, err)
				continue
			}
			schemas[tool.Name] = schema
		}
	})
	return schemas
}

// validateToolArgs checks the arguments against the tool's declared input
// schema before dispatch.
func validateToolArgs(name string, args map[string]any) error {
	schema, ok := toolSchemas()[name]
	if !ok {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid arguments for %s: %s", name, strings.Join(msgs, "; "))
}

func (s *Server) executeTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	log.Printf("[mcp] user=%s tool=%s", s.user, name)
	switch name {
	case "get_ticket":
		return s.toolGetTicket(ctx, args)
	case "create_ticket":
		return s.toolCreateTicket(ctx, args)
	case "update_ticket":
		return s.toolUpdateTicket(ctx, args)
	case "bulk_update_tickets":
		return s.toolBulkUpdateTickets(ctx, args)
	case "add_ticket_message":
		return s.toolAddTicketMessage(ctx, args)
	case "get_ticket_messages":
		return s.toolGetTicketMessages(ctx, args)
	case "get_ticket_attachments":
		return s.toolGetTicketAttachments(ctx, args)
	case "search_tickets":
		return s.toolSearchTickets(ctx, args)
	case "advanced_search":
		return s.toolAdvancedSearch(ctx, args)
	case "get_analytics":
		return s.toolGetAnalytics(ctx, args)
	case "get_reference_data":
		return s.toolGetReferenceData(ctx, args)
	case "get_ticket_full_context":
		return s.toolGetTicketFullContext(ctx, args)
	case "get_system_snapshot":
		return s.toolGetSystemSnapshot(ctx, args)
	case "get_ticket_stats":
		return s.toolGetTicketStats(ctx, args)
	case "get_workload_analytics":
		return s.toolGetWorkloadAnalytics(ctx, args)
	case "sla_metrics":
		return s.toolSLAMetrics(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// Helper to get int from args
func getInt(args map[string]any, key string, defaultVal int) int {
	if v, ok := args[key]; ok {
		switch val := v.(type) {
		case float64:
			return int(val)
		case int:
			return val
		case json.Number:
			if i, err := val.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return defaultVal
}

// Helper to get string from args
func getString(args map[string]any, key string, defaultVal string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// Helper to get bool from args
func getBool(args map[string]any, key string, defaultVal bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// getIntPtr distinguishes an absent key from an explicit zero.
func getIntPtr(args map[string]any, key string) *int {
	if _, ok := args[key]; !ok {
		return nil
	}
	n := getInt(args, key, 0)
	return &n
}

func getStringPtr(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func getInt64Ptr(args map[string]any, key string) *int64 {
	if _, ok := args[key]; !ok {
		return nil
	}
	n := int64(getInt(args, key, 0))
	return &n
}

func getObject(args map[string]any, key string) map[string]any {
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getInt64Slice(args map[string]any, key string) []int64 {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int64(n))
		case int:
			out = append(out, int64(n))
		case json.Number:
			if i, err := n.Int64(); err == nil {
				out = append(out, i)
			}
		}
	}
	return out
}

// jsonResult renders a payload as an indented JSON text block.
func jsonResult(v any) (*ToolCallResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &ToolCallResult{
		Content: []ContentBlock{TextContent(string(output))},
	}, nil
}

// Tool implementations

func (s *Server) toolGetTicket(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	t, err := s.deps.Tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(t.View())
}

func (s *Server) toolCreateTicket(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	req := &models.CreateTicketRequest{
		Subject:       getString(args, "subject", ""),
		Body:          getString(args, "body", ""),
		ContactName:   getStringPtr(args, "contact_name"),
		ContactEmail:  getStringPtr(args, "contact_email"),
		SiteID:        getInt64Ptr(args, "site_id"),
		CategoryID:    getInt64Ptr(args, "category_id"),
		AssetID:       getInt64Ptr(args, "asset_id"),
		AssignedEmail: getStringPtr(args, "assigned_email"),
		AssignedName:  getStringPtr(args, "assigned_name"),
	}
	if label := getString(args, "priority", ""); label != "" {
		if sev, ok := fieldmap.PriorityIDs[strings.ToLower(label)]; ok {
			req.SeverityID = &sev
		}
	}

	t, err := s.deps.Tickets.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonResult(t.View())
}

func (s *Server) toolUpdateTicket(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	updates := getObject(args, "updates")
	if len(updates) == 0 {
		return nil, fmt.Errorf("updates must not be empty")
	}
	t, err := s.deps.Tickets.Update(ctx, id, models.UpdateTicketRequest(updates))
	if err != nil {
		return nil, err
	}
	return jsonResult(t.View())
}

func (s *Server) toolBulkUpdateTickets(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	req := &models.BulkUpdateRequest{
		TicketIDs: getInt64Slice(args, "ticket_ids"),
		Updates:   getObject(args, "updates"),
	}
	resp, err := s.deps.Search.BulkUpdate(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonResult(resp)
}

func (s *Server) toolAddTicketMessage(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	req := &models.AddMessageRequest{
		Message:        getString(args, "message", ""),
		SenderUserName: getStringPtr(args, "sender_user_name"),
		SenderUserCode: getStringPtr(args, "sender_user_code"),
	}
	if req.SenderUserName == nil && s.user != "" {
		req.SenderUserName = &s.user
	}
	msg, err := s.deps.Tickets.AddMessage(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return jsonResult(msg.View())
}

func (s *Server) toolGetTicketMessages(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	msgs, err := s.deps.Tickets.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(models.MessageViews(msgs))
}

func (s *Server) toolGetTicketAttachments(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	atts, err := s.deps.Tickets.Attachments(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(models.AttachmentViews(atts))
}

func searchParams(args map[string]any, filtersKey string) search.Params {
	return search.Params{
		Query:          getString(args, "query", ""),
		Filters:        getObject(args, filtersKey),
		Days:           getIntPtr(args, "days"),
		CreatedAfter:   getString(args, "created_after", ""),
		CreatedBefore:  getString(args, "created_before", ""),
		Sort:           getString(args, "sort", ""),
		UserIdentifier: getString(args, "user", ""),
		Limit:          getInt(args, "limit", 0),
		Offset:         getInt(args, "offset", 0),
	}
}

func (s *Server) toolSearchTickets(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	resp, err := s.deps.Search.Search(ctx, searchParams(args, "filters"))
	if err != nil {
		return nil, err
	}
	return jsonResult(resp)
}

func (s *Server) toolAdvancedSearch(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	params := search.AdvancedParams{
		Params:             searchParams(args, "conditions"),
		IncludeMessages:    getBool(args, "include_messages", false),
		IncludeAttachments: getBool(args, "include_attachments", false),
	}
	resp, err := s.deps.Search.AdvancedSearch(ctx, params)
	if err != nil {
		return nil, err
	}
	return jsonResult(resp)
}

func (s *Server) toolGetAnalytics(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	kind := getString(args, "type", "")
	switch kind {
	case "status_breakdown":
		out, err := s.deps.Analytics.TicketsByStatus(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "priority_breakdown":
		out, err := s.deps.Analytics.TicketsByPriority(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "open_by_site":
		out, err := s.deps.Analytics.OpenTicketsBySite(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "sla_breaches":
		out, err := s.deps.Analytics.SLABreaches(ctx, getInt(args, "days", 0))
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "open_by_user":
		out, err := s.deps.Analytics.OpenTicketsByUser(ctx, getString(args, "user", ""))
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "waiting_on_user":
		out, err := s.deps.Analytics.TicketsWaitingOnUser(ctx, getString(args, "user", ""))
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	default:
		return nil, fmt.Errorf("unknown analytics type: %s", kind)
	}
}

func (s *Server) toolGetReferenceData(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	kind := getString(args, "type", "all")
	switch kind {
	case "statuses":
		out, err := s.deps.Refs.Statuses(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "sites":
		out, err := s.deps.Refs.Sites(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "categories":
		out, err := s.deps.Refs.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "assets":
		out, err := s.deps.Refs.Assets(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "vendors":
		out, err := s.deps.Refs.Vendors(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	case "all":
		out, err := s.deps.Refs.All(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)
	default:
		return nil, fmt.Errorf("unknown reference type: %s", kind)
	}
}

func (s *Server) toolGetTicketFullContext(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	id := int64(getInt(args, "ticket_id", 0))
	if id == 0 {
		return nil, fmt.Errorf("ticket_id is required")
	}
	out, err := s.deps.Tickets.FullContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) toolGetSystemSnapshot(ctx context.Context, _ map[string]any) (*ToolCallResult, error) {
	out, err := s.deps.Analytics.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) toolGetTicketStats(ctx context.Context, args map[string]any) (*ToolCallResult, error) {
	out, err := s.deps.Analytics.Stats(ctx, getInt(args, "days", 0))
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) toolGetWorkloadAnalytics(ctx context.Context, _ map[string]any) (*ToolCallResult, error) {
	out, err := s.deps.Analytics.Workload(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) toolSLAMetrics(ctx context.Context, _ map[string]any) (*ToolCallResult, error) {
	out, err := s.deps.Analytics.SLAMetrics(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}
