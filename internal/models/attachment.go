package models

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// TicketAttachment is a row of the ticket_attachments table. Only metadata is
// stored here; file contents live in external storage keyed by StorageKey.
type TicketAttachment struct {
	ID           int64     `json:"ID" db:"id"`
	TicketID     int64     `json:"Ticket_ID" db:"ticket_id"`
	FileName     string    `json:"File_Name" db:"file_name"`
	FileSize     int64     `json:"File_Size" db:"file_size"`
	ContentType  *string   `json:"Content_Type,omitempty" db:"content_type"`
	StorageKey   *string   `json:"-" db:"storage_key"`
	UploadedDate time.Time `json:"-" db:"uploaded_date"`
}

// AttachmentView is the wire shape of an attachment record.
type AttachmentView struct {
	ID           int64   `json:"ID"`
	TicketID     int64   `json:"Ticket_ID"`
	FileName     string  `json:"File_Name"`
	FileSize     int64   `json:"File_Size"`
	ContentType  *string `json:"Content_Type,omitempty"`
	UploadedDate string  `json:"Uploaded_Date"`
}

// View converts the attachment to its wire shape.
func (a *TicketAttachment) View() AttachmentView {
	return AttachmentView{
		ID:           a.ID,
		TicketID:     a.TicketID,
		FileName:     a.FileName,
		FileSize:     a.FileSize,
		ContentType:  a.ContentType,
		UploadedDate: timefmt.Normalize(a.UploadedDate),
	}
}

// AttachmentViews converts a slice of attachments, never returning nil.
func AttachmentViews(atts []TicketAttachment) []AttachmentView {
	out := make([]AttachmentView, 0, len(atts))
	for i := range atts {
		out = append(out, atts[i].View())
	}
	return out
}
