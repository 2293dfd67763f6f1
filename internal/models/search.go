package models

// TicketMetadata carries the derived per-ticket fields attached to search
// results and full-context payloads. IsOverdue is the fixed 24-hour rule;
// the SLA fields track the per-priority windows and are reported separately.
type TicketMetadata struct {
	AgeDays            int    `json:"age_days"`
	AgeHuman           string `json:"age,omitempty"`
	IsOverdue          bool   `json:"is_overdue"`
	SLADue             string `json:"sla_due,omitempty"`
	SLABreached        bool   `json:"sla_breached"`
	ComplexityEstimate string `json:"complexity_estimate"`
}

// SearchResult is one ranked hit. Highlights are keyed by field name
// (subject, body) with matched terms wrapped in <em> tags. Messages and
// attachments are populated only when an advanced search asks for them.
type SearchResult struct {
	Ticket      TicketView       `json:"ticket"`
	Score       float64          `json:"relevance_score"`
	Highlights  map[string]string `json:"highlights,omitempty"`
	Snippet     string           `json:"snippet,omitempty"`
	Metadata    TicketMetadata   `json:"metadata"`
	Messages    []MessageView    `json:"messages,omitempty"`
	Attachments []AttachmentView `json:"attachments,omitempty"`
}

// SearchResponse is the paged envelope for text searches. Total counts all
// matches before pagination.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Query   string         `json:"query,omitempty"`
}

// TicketPage is the paged envelope for filter-only listings.
type TicketPage struct {
	Tickets []TicketView `json:"tickets"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// Aggregations are the breakdowns attached to advanced search responses,
// computed over the full matched set (not just the returned page).
type Aggregations struct {
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	BySite     map[string]int `json:"by_site"`
	ByCategory map[string]int `json:"by_category"`
}

// AdvancedSearchResponse extends the search envelope with aggregations and
// the estimated query complexity (simple, medium, complex).
type AdvancedSearchResponse struct {
	SearchResponse
	Aggregations    *Aggregations `json:"aggregations,omitempty"`
	QueryComplexity string        `json:"query_complexity"`
}
