package repository

import (
	"context"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// Messages returns a ticket's message thread, oldest first.
func (r *TicketRepository) Messages(ctx context.Context, ticketID int64) ([]models.TicketMessage, error) {
	if err := r.mustExist(ctx, ticketID); err != nil {
		return nil, err
	}
	msgs := []models.TicketMessage{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, ticket_id, message, senderusercode, senderusername, datetimestamp `+
			`FROM ticket_messages WHERE ticket_id = ? ORDER BY datetimestamp ASC, id ASC`,
		ticketID)
	if err != nil {
		return nil, apperrors.WrapDB("list messages", err)
	}
	return msgs, nil
}

// AddMessage appends a message to a ticket's thread, stamped with the
// repository clock.
func (r *TicketRepository) AddMessage(ctx context.Context, ticketID int64, req *models.AddMessageRequest) (*models.TicketMessage, error) {
	if err := r.mustExist(ctx, ticketID); err != nil {
		return nil, err
	}

	ts := r.now().UTC().Truncate(time.Millisecond)
	id, err := r.db.InsertReturningID(ctx,
		`INSERT INTO ticket_messages (ticket_id, message, senderusercode, senderusername, datetimestamp) `+
			`VALUES (?, ?, ?, ?, ?)`,
		"id",
		ticketID, req.Message, req.SenderUserCode, req.SenderUserName, timefmt.Normalize(ts))
	if err != nil {
		return nil, apperrors.WrapDB("add message", err)
	}

	return &models.TicketMessage{
		ID:             id,
		TicketID:       ticketID,
		Message:        req.Message,
		SenderUserCode: req.SenderUserCode,
		SenderUserName: req.SenderUserName,
		DateTimeStamp:  ts,
	}, nil
}

// Attachments returns a ticket's attachment records, newest first.
func (r *TicketRepository) Attachments(ctx context.Context, ticketID int64) ([]models.TicketAttachment, error) {
	if err := r.mustExist(ctx, ticketID); err != nil {
		return nil, err
	}
	atts := []models.TicketAttachment{}
	err := r.db.SelectContext(ctx, &atts,
		`SELECT id, ticket_id, file_name, file_size, content_type, storage_key, uploaded_date `+
			`FROM ticket_attachments WHERE ticket_id = ? ORDER BY uploaded_date DESC, id DESC`,
		ticketID)
	if err != nil {
		return nil, apperrors.WrapDB("list attachments", err)
	}
	return atts, nil
}

// mustExist fails with NotFoundError when the ticket row is absent.
func (r *TicketRepository) mustExist(ctx context.Context, ticketID int64) error {
	ok, err := r.Exists(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ok {
		return &apperrors.NotFoundError{Resource: "ticket", ID: ticketID}
	}
	return nil
}
