package mcp

// ToolRegistry contains all available MCP tools for the help desk.
var ToolRegistry = []Tool{
	{
		Name:        "get_ticket",
		Description: "Get one ticket by ID with status, priority, site, and category labels resolved.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID to retrieve",
				},
			},
			Required: []string{"ticket_id"},
		},
	},
	{
		Name:        "create_ticket",
		Description: "Create a new ticket. Subject and body are required; markup is stripped on write.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"subject": {
					Type:        "string",
					Description: "Ticket subject line",
				},
				"body": {
					Type:        "string",
					Description: "Ticket body text",
				},
				"contact_name": {
					Type:        "string",
					Description: "Reporting contact's name",
				},
				"contact_email": {
					Type:        "string",
					Description: "Reporting contact's email",
				},
				"site_id": {
					Type:        "integer",
					Description: "Site the ticket belongs to",
				},
				"category_id": {
					Type:        "integer",
					Description: "Ticket category",
				},
				"asset_id": {
					Type:        "integer",
					Description: "Affected asset",
				},
				"priority": {
					Type:        "string",
					Description: "Priority label",
					Enum:        []string{"critical", "high", "medium", "low"},
				},
				"assigned_email": {
					Type:        "string",
					Description: "Assignee email",
				},
				"assigned_name": {
					Type:        "string",
					Description: "Assignee name",
				},
			},
			Required: []string{"subject", "body"},
		},
	},
	{
		Name: "update_ticket",
		Description: "Update ticket fields. Keys may be semantic (status, priority, assignee_email, " +
			"resolution) or allowlisted column names. Closing a ticket stamps its close date.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID to update",
				},
				"updates": {
					Type:        "object",
					Description: "Field map, e.g. {\"status\": \"closed\", \"priority\": \"high\"}",
				},
			},
			Required: []string{"ticket_id", "updates"},
		},
	},
	{
		Name: "bulk_update_tickets",
		Description: "Apply one update map to many tickets. Returns a per-ticket outcome; " +
			"one ticket failing never aborts the rest.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_ids": {
					Type:        "array",
					Description: "Ticket IDs to update",
					Items:       &Property{Type: "integer"},
				},
				"updates": {
					Type:        "object",
					Description: "Field map applied to every ticket",
				},
			},
			Required: []string{"ticket_ids", "updates"},
		},
	},
	{
		Name:        "add_ticket_message",
		Description: "Append a message to a ticket's thread.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID to add the message to",
				},
				"message": {
					Type:        "string",
					Description: "Message text",
				},
				"sender_user_name": {
					Type:        "string",
					Description: "Display name of the sender",
				},
				"sender_user_code": {
					Type:        "string",
					Description: "User code of the sender",
				},
			},
			Required: []string{"ticket_id", "message"},
		},
	},
	{
		Name:        "get_ticket_messages",
		Description: "Get a ticket's message thread, oldest first.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID",
				},
			},
			Required: []string{"ticket_id"},
		},
	},
	{
		Name:        "get_ticket_attachments",
		Description: "Get a ticket's attachment records, newest first.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID",
				},
			},
			Required: []string{"ticket_id"},
		},
	},
	{
		Name: "search_tickets",
		Description: "Search tickets by relevance-ranked free text and/or semantic filters. " +
			"Results carry score, highlights, a snippet, and SLA metadata.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Free text to rank by; empty means filter-only",
				},
				"filters": {
					Type: "object",
					Description: "Semantic filters, e.g. {\"status\": \"open\", \"priority\": \"high\", " +
						"\"assignee_email\": \"a@b.c\", \"unassigned_only\": true}",
				},
				"days": {
					Type:        "integer",
					Description: "Trailing created-date window in days (default 30, 0 disables)",
					Default:     30,
				},
				"created_after": {
					Type:        "string",
					Description: "Explicit lower bound, YYYY-MM-DD HH:MM:SS.mmm; overrides days",
				},
				"created_before": {
					Type:        "string",
					Description: "Explicit upper bound; overrides days",
				},
				"sort": {
					Type:        "string",
					Description: "Sort column, -prefixed for descending (default relevance/created_date)",
				},
				"user": {
					Type:        "string",
					Description: "Match tickets where this name or email is the contact or assignee",
				},
				"limit": {
					Type:        "integer",
					Description: "Page size (default 20, max 100)",
					Default:     20,
				},
				"offset": {
					Type:        "integer",
					Description: "Pagination offset",
					Default:     0,
				},
			},
		},
	},
	{
		Name: "advanced_search",
		Description: "Search with aggregations over the matched set (status, priority, site, " +
			"category), optional message/attachment inclusion, and a query complexity estimate.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Free text to rank by",
				},
				"conditions": {
					Type:        "object",
					Description: "Semantic filters, same vocabulary as search_tickets",
				},
				"include_messages": {
					Type:        "boolean",
					Description: "Attach each result's message thread",
					Default:     false,
				},
				"include_attachments": {
					Type:        "boolean",
					Description: "Attach each result's attachment records",
					Default:     false,
				},
				"days": {
					Type:        "integer",
					Description: "Trailing created-date window in days (default 30, 0 disables)",
				},
				"created_after": {
					Type:        "string",
					Description: "Explicit lower bound; overrides days",
				},
				"created_before": {
					Type:        "string",
					Description: "Explicit upper bound; overrides days",
				},
				"sort": {
					Type:        "string",
					Description: "Sort column, -prefixed for descending",
				},
				"limit": {
					Type:        "integer",
					Description: "Page size (default 20, max 500)",
				},
				"offset": {
					Type:        "integer",
					Description: "Pagination offset",
				},
			},
		},
	},
	{
		Name:        "get_analytics",
		Description: "Run one analytics report over the ticket store.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"type": {
					Type:        "string",
					Description: "Which report to run",
					Enum: []string{
						"status_breakdown", "priority_breakdown", "open_by_site",
						"sla_breaches", "open_by_user", "waiting_on_user",
					},
				},
				"days": {
					Type:        "integer",
					Description: "Breach window in days for sla_breaches (default 3)",
				},
				"user": {
					Type:        "string",
					Description: "User identifier for open_by_user and waiting_on_user",
				},
			},
			Required: []string{"type"},
		},
	},
	{
		Name:        "get_reference_data",
		Description: "Get the reference vocabularies: statuses, sites, categories, assets, vendors.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"type": {
					Type:        "string",
					Description: "One vocabulary, or all of them",
					Enum:        []string{"statuses", "sites", "categories", "assets", "vendors", "all"},
					Default:     "all",
				},
			},
		},
	},
	{
		Name: "get_ticket_full_context",
		Description: "Get everything about one ticket for agent handoff: the ticket, its thread, " +
			"attachments, SLA metadata, related tickets, and resolution time when closed.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"ticket_id": {
					Type:        "integer",
					Description: "The ticket ID",
				},
			},
			Required: []string{"ticket_id"},
		},
	},
	{
		Name:        "get_system_snapshot",
		Description: "Get the operational overview: totals, last-24h pulse, and a health grade.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	},
	{
		Name:        "get_ticket_stats",
		Description: "Get the per-day created/closed series over a trailing window.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"days": {
					Type:        "integer",
					Description: "Window length in days",
					Default:     30,
				},
			},
		},
	},
	{
		Name:        "get_workload_analytics",
		Description: "Get per-assignee open-ticket counts with heavy-load flags.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	},
	{
		Name:        "sla_metrics",
		Description: "Get per-priority SLA compliance and mean resolution hours over closed tickets.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	},
}
