package models

// CreateTicketRequest is the payload for creating a ticket. Subject and body
// are required; everything else is optional. Status defaults to 1 (new).
type CreateTicketRequest struct {
	Subject       string  `json:"subject" binding:"required"`
	Body          string  `json:"body" binding:"required"`
	StatusID      *int    `json:"status_id,omitempty"`
	ContactName   *string `json:"contact_name,omitempty"`
	ContactEmail  *string `json:"contact_email,omitempty"`
	AssetID       *int64  `json:"asset_id,omitempty"`
	SiteID        *int64  `json:"site_id,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	AssignedName  *string `json:"assigned_name,omitempty"`
	AssignedEmail *string `json:"assigned_email,omitempty"`
	PriorityID    *int    `json:"priority_id,omitempty"`
	SeverityID    *int    `json:"severity_id,omitempty"`
	VendorID      *int64  `json:"vendor_id,omitempty"`
	Resolution    *string `json:"resolution,omitempty"`
}

// UpdateTicketRequest is a free-form field map resolved through the semantic
// field mapper's update allowlist. Keys may be semantic (status, priority,
// assignee_email, resolution...) or allowlisted physical columns.
type UpdateTicketRequest map[string]any

// BulkUpdateRequest applies one update map to many tickets.
type BulkUpdateRequest struct {
	TicketIDs []int64        `json:"ticket_ids"`
	Updates   map[string]any `json:"updates"`
}

// BulkUpdateResult is the per-ticket outcome of a bulk update.
type BulkUpdateResult struct {
	TicketID int64  `json:"ticket_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// BulkUpdateResponse summarizes a bulk update. One ticket failing never
// aborts the rest.
type BulkUpdateResponse struct {
	Results   []BulkUpdateResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// AddMessageRequest appends a message to a ticket's thread.
type AddMessageRequest struct {
	Message        string  `json:"message" binding:"required"`
	SenderUserCode *string `json:"sender_user_code,omitempty"`
	SenderUserName *string `json:"sender_user_name,omitempty"`
}
