package models

// TicketContext bundles everything known about one ticket: the record, its
// thread, attachment metadata, derived fields, and related tickets sharing
// the same contact, asset, or site.
type TicketContext struct {
	Ticket          TicketView       `json:"ticket"`
	Messages        []MessageView    `json:"messages"`
	Attachments     []AttachmentView `json:"attachments"`
	Metadata        TicketMetadata   `json:"metadata"`
	Related         []TicketView     `json:"related_tickets"`
	ResolutionHours *float64         `json:"resolution_hours,omitempty"`
}
