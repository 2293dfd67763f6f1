package models

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// SummaryBodyLimit is where ticket bodies get cut in list/summary payloads.
const SummaryBodyLimit = 200

// Ticket is a row of the tickets table. Pointer fields are nullable columns.
// JSON keys keep the original wire casing; db tags are lowercase because
// PostgreSQL folds unquoted identifiers.
type Ticket struct {
	TicketID         int64      `json:"Ticket_ID" db:"ticket_id"`
	Subject          string     `json:"Subject" db:"subject"`
	Body             string     `json:"Ticket_Body" db:"ticket_body"`
	StatusID         int        `json:"Ticket_Status_ID" db:"ticket_status_id"`
	ContactName      *string    `json:"Ticket_Contact_Name,omitempty" db:"ticket_contact_name"`
	ContactEmail     *string    `json:"Ticket_Contact_Email,omitempty" db:"ticket_contact_email"`
	AssetID          *int64     `json:"Asset_ID,omitempty" db:"asset_id"`
	SiteID           *int64     `json:"Site_ID,omitempty" db:"site_id"`
	CategoryID       *int64     `json:"Ticket_Category_ID,omitempty" db:"ticket_category_id"`
	CreatedDate      time.Time  `json:"-" db:"created_date"`
	AssignedName     *string    `json:"Assigned_Name,omitempty" db:"assigned_name"`
	AssignedEmail    *string    `json:"Assigned_Email,omitempty" db:"assigned_email"`
	PriorityID       *int       `json:"Priority_ID,omitempty" db:"priority_id"`
	SeverityID       *int       `json:"Severity_ID,omitempty" db:"severity_id"`
	AssignedVendorID *int64     `json:"Assigned_Vendor_ID,omitempty" db:"assigned_vendor_id"`
	ClosedDate       *time.Time `json:"-" db:"closed_date"`
	LastModified     time.Time  `json:"-" db:"lastmodified"`
	Resolution       *string    `json:"Resolution,omitempty" db:"resolution"`

	// Labels resolved from reference tables, filled after the row scan
	StatusLabel        *string `json:"Status_Label,omitempty" db:"-"`
	SiteLabel          *string `json:"Site_Label,omitempty" db:"-"`
	CategoryLabel      *string `json:"Category_Label,omitempty" db:"-"`
	AssignedVendorName *string `json:"Assigned_Vendor_Name,omitempty" db:"-"`
	PriorityLevel      *string `json:"Priority_Level,omitempty" db:"-"`
}

// IsOpen reports whether the ticket is in any non-closed status.
func (t *Ticket) IsOpen() bool { return t.StatusID != 3 }

// IsAssigned reports whether an assignee email is set.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedEmail != nil && *t.AssignedEmail != ""
}

// TicketView is the wire shape of a ticket: same columns, datetimes rendered
// in the canonical UTC format.
type TicketView struct {
	TicketID           int64   `json:"Ticket_ID"`
	Subject            string  `json:"Subject"`
	Body               string  `json:"Ticket_Body"`
	StatusID           int     `json:"Ticket_Status_ID"`
	ContactName        *string `json:"Ticket_Contact_Name,omitempty"`
	ContactEmail       *string `json:"Ticket_Contact_Email,omitempty"`
	AssetID            *int64  `json:"Asset_ID,omitempty"`
	SiteID             *int64  `json:"Site_ID,omitempty"`
	CategoryID         *int64  `json:"Ticket_Category_ID,omitempty"`
	CreatedDate        string  `json:"Created_Date"`
	AssignedName       *string `json:"Assigned_Name,omitempty"`
	AssignedEmail      *string `json:"Assigned_Email,omitempty"`
	PriorityID         *int    `json:"Priority_ID,omitempty"`
	SeverityID         *int    `json:"Severity_ID,omitempty"`
	AssignedVendorID   *int64  `json:"Assigned_Vendor_ID,omitempty"`
	ClosedDate         *string `json:"Closed_Date,omitempty"`
	LastModified       string  `json:"LastModified"`
	Resolution         *string `json:"Resolution,omitempty"`
	StatusLabel        *string `json:"Status_Label,omitempty"`
	SiteLabel          *string `json:"Site_Label,omitempty"`
	CategoryLabel      *string `json:"Category_Label,omitempty"`
	AssignedVendorName *string `json:"Assigned_Vendor_Name,omitempty"`
	PriorityLevel      *string `json:"Priority_Level,omitempty"`
}

// View converts the ticket to its wire shape.
func (t *Ticket) View() TicketView {
	return TicketView{
		TicketID:           t.TicketID,
		Subject:            t.Subject,
		Body:               t.Body,
		StatusID:           t.StatusID,
		ContactName:        t.ContactName,
		ContactEmail:       t.ContactEmail,
		AssetID:            t.AssetID,
		SiteID:             t.SiteID,
		CategoryID:         t.CategoryID,
		CreatedDate:        timefmt.Normalize(t.CreatedDate),
		AssignedName:       t.AssignedName,
		AssignedEmail:      t.AssignedEmail,
		PriorityID:         t.PriorityID,
		SeverityID:         t.SeverityID,
		AssignedVendorID:   t.AssignedVendorID,
		ClosedDate:         timefmt.NormalizePtr(t.ClosedDate),
		LastModified:       timefmt.Normalize(t.LastModified),
		Resolution:         t.Resolution,
		StatusLabel:        t.StatusLabel,
		SiteLabel:          t.SiteLabel,
		CategoryLabel:      t.CategoryLabel,
		AssignedVendorName: t.AssignedVendorName,
		PriorityLevel:      t.PriorityLevel,
	}
}

// Summary converts the ticket to its wire shape with the body cut at
// SummaryBodyLimit runes.
func (t *Ticket) Summary() TicketView {
	v := t.View()
	v.Body = TruncateBody(v.Body, SummaryBodyLimit)
	return v
}

// TruncateBody cuts s at limit runes and appends "..." when anything was cut.
func TruncateBody(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
