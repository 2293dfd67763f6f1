package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

func TestServerInitialize(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	req := Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params:  json.RawMessage(`{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1.0"}}`),
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("Expected map result, got %T", resp.Result)
	}

	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("Expected protocol version %s, got %v", ProtocolVersion, result["protocolVersion"])
	}

	info, ok := result["serverInfo"].(map[string]any)
	if !ok || info["name"] != ServerName {
		t.Errorf("Expected server name %s, got %v", ServerName, result["serverInfo"])
	}
}

func TestServerToolsList(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	req := Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/list",
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("Expected map result, got %T", resp.Result)
	}

	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatalf("Expected tools array, got %T", result["tools"])
	}

	if len(tools) != len(ToolRegistry) {
		t.Errorf("Expected %d tools, got %d", len(ToolRegistry), len(tools))
	}

	found := false
	for _, tool := range tools {
		if toolMap, ok := tool.(map[string]any); ok {
			if toolMap["name"] == "search_tickets" {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("Expected to find search_tickets tool")
	}
}

func TestServerMethodNotFound(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	reqBytes, _ := json.Marshal(Request{JSONRPC: "2.0", ID: 1, Method: "unknown/method"})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != ErrCodeMethodNotFound {
		t.Errorf("Expected error code %d, got %d", ErrCodeMethodNotFound, resp.Error.Code)
	}
}

func TestServerPing(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	reqBytes, _ := json.Marshal(Request{JSONRPC: "2.0", ID: 1, Method: "ping"})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
}

func TestServerParseError(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	respBytes, err := server.HandleMessage(context.Background(), []byte(`{not json`))
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeParse {
		t.Fatalf("Expected parse error, got %+v", resp.Error)
	}
}

func TestServerRejectsWrongVersion(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	reqBytes, _ := json.Marshal(Request{JSONRPC: "1.0", ID: 1, Method: "ping"})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidRequest {
		t.Fatalf("Expected invalid request error, got %+v", resp.Error)
	}
}

func TestServerNotificationHasNoResponse(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	for _, method := range []string{"initialized", "notifications/initialized"} {
		reqBytes, _ := json.Marshal(Request{JSONRPC: "2.0", Method: method})
		respBytes, err := server.HandleMessage(context.Background(), reqBytes)
		if err != nil {
			t.Fatalf("HandleMessage failed for %s: %v", method, err)
		}
		if respBytes != nil {
			t.Errorf("Expected no response for %s, got %s", method, respBytes)
		}
	}
}

func TestToolsCallValidatesArguments(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	cases := []struct {
		name string
		args string
	}{
		{"missing required", `{}`},
		{"wrong type", `{"ticket_id": "abc"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := `{"name":"get_ticket","arguments":` + tc.args + `}`
			reqBytes, _ := json.Marshal(Request{
				JSONRPC: "2.0",
				ID:      1,
				Method:  "tools/call",
				Params:  json.RawMessage(params),
			})
			respBytes, err := server.HandleMessage(context.Background(), reqBytes)
			if err != nil {
				t.Fatalf("HandleMessage failed: %v", err)
			}

			var resp Response
			if err := json.Unmarshal(respBytes, &resp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if resp.Error == nil {
				t.Fatal("Expected invalid params error")
			}
			if resp.Error.Code != ErrCodeInvalidParams {
				t.Errorf("Expected error code %d, got %d", ErrCodeInvalidParams, resp.Error.Code)
			}
		})
	}
}

func TestToolsCallUnknownToolIsToolError(t *testing.T) {
	server := NewServer(Deps{}, "agent")

	reqBytes, _ := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"drop_all_tables","arguments":{}}`),
	})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected protocol error: %v", resp.Error)
	}

	result, _ := resp.Result.(map[string]any)
	if result == nil || result["isError"] != true {
		t.Fatalf("Expected isError tool result, got %v", resp.Result)
	}
}

func TestToolRegistrySchemasCompile(t *testing.T) {
	compiled := toolSchemas()
	for _, tool := range ToolRegistry {
		if compiled[tool.Name] == nil {
			t.Errorf("Schema for %s did not compile", tool.Name)
		}
	}
}

func TestToolRegistryNames(t *testing.T) {
	expectedTools := []string{
		"get_ticket",
		"create_ticket",
		"update_ticket",
		"bulk_update_tickets",
		"add_ticket_message",
		"get_ticket_messages",
		"get_ticket_attachments",
		"search_tickets",
		"advanced_search",
		"get_analytics",
		"get_reference_data",
		"get_ticket_full_context",
		"get_system_snapshot",
		"get_ticket_stats",
		"get_workload_analytics",
		"sla_metrics",
	}

	toolNames := make(map[string]bool)
	for _, tool := range ToolRegistry {
		toolNames[tool.Name] = true
	}

	for _, expected := range expectedTools {
		if !toolNames[expected] {
			t.Errorf("Missing expected tool: %s", expected)
		}
	}
	if len(ToolRegistry) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(ToolRegistry))
	}
}

// newMockedServer wires a server over sqlmock so a tool call can run end to
// end through the service layer.
func newMockedServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	db, err := database.New(mockDB, "sqlite")
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}

	store := cache.NewLocalCache(100, time.Minute)
	ctx := context.Background()
	seed := func(key string, value any) {
		if err := store.SetObject(ctx, key, value, time.Minute); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	seed("ref:statuses", []models.Status{{StatusID: 2, StatusLabel: "In Progress"}})
	seed("ref:sites", []models.Site{})
	seed("ref:categories", []models.Category{})
	seed("ref:vendors", []models.Vendor{})

	refs := repository.NewReferenceRepository(db, store)
	now := func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) }
	tickets := repository.NewTicketRepositoryAt(db, refs, now)
	deps := Deps{
		Tickets: service.NewTicketServiceAt(tickets, nil, nil, now),
		Refs:    refs,
	}
	return NewServer(deps, "agent"), mock
}

func TestGetTicketToolDispatch(t *testing.T) {
	server, mock := newMockedServer(t)

	cols := []string{
		"ticket_id", "subject", "ticket_body", "ticket_status_id",
		"ticket_contact_name", "ticket_contact_email", "asset_id", "site_id",
		"ticket_category_id", "created_date", "assigned_name", "assigned_email",
		"priority_id", "severity_id", "assigned_vendor_id", "closed_date",
		"lastmodified", "resolution",
	}
	created := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT ticket_id, subject").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			7, "Printer jam", "The feed tray is stuck.", 2,
			nil, nil, nil, nil, nil, created, nil, nil,
			nil, nil, nil, nil, created, nil))

	reqBytes, _ := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"get_ticket","arguments":{"ticket_id":7}}`),
	})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, _ := resp.Result.(map[string]any)
	if result == nil {
		t.Fatalf("Expected map result, got %T", resp.Result)
	}
	if result["isError"] == true {
		t.Fatalf("Unexpected tool error: %v", result["content"])
	}
	content, _ := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("Expected one content block, got %d", len(content))
	}
	block, _ := content[0].(map[string]any)
	text, _ := block["text"].(string)
	if !strings.Contains(text, `"Subject": "Printer jam"`) {
		t.Errorf("Expected ticket JSON in content, got %s", text)
	}
	if !strings.Contains(text, `"Status_Label": "In Progress"`) {
		t.Errorf("Expected enriched status label, got %s", text)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetTicketToolNotFoundIsToolError(t *testing.T) {
	server, mock := newMockedServer(t)

	mock.ExpectQuery("SELECT ticket_id, subject").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id"}))

	reqBytes, _ := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"get_ticket","arguments":{"ticket_id":99}}`),
	})
	respBytes, err := server.HandleMessage(context.Background(), reqBytes)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Expected tool-level error, got protocol error: %v", resp.Error)
	}

	result, _ := resp.Result.(map[string]any)
	if result == nil || result["isError"] != true {
		t.Fatalf("Expected isError result, got %v", resp.Result)
	}
	content, _ := result["content"].([]any)
	block, _ := content[0].(map[string]any)
	text, _ := block["text"].(string)
	if !strings.Contains(text, "not found") {
		t.Errorf("Expected not-found message, got %s", text)
	}
}
