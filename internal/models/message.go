package models

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// TicketMessage is a row of the ticket_messages table. Messages are
// append-only and ordered by DateTimeStamp.
type TicketMessage struct {
	ID             int64     `json:"ID" db:"id"`
	TicketID       int64     `json:"Ticket_ID" db:"ticket_id"`
	Message        string    `json:"Message" db:"message"`
	SenderUserCode *string   `json:"SenderUserCode,omitempty" db:"senderusercode"`
	SenderUserName *string   `json:"SenderUserName,omitempty" db:"senderusername"`
	DateTimeStamp  time.Time `json:"-" db:"datetimestamp"`
}

// MessageView is the wire shape of a ticket message.
type MessageView struct {
	ID             int64   `json:"ID"`
	TicketID       int64   `json:"Ticket_ID"`
	Message        string  `json:"Message"`
	SenderUserCode *string `json:"SenderUserCode,omitempty"`
	SenderUserName *string `json:"SenderUserName,omitempty"`
	DateTimeStamp  string  `json:"DateTimeStamp"`
}

// View converts the message to its wire shape.
func (m *TicketMessage) View() MessageView {
	return MessageView{
		ID:             m.ID,
		TicketID:       m.TicketID,
		Message:        m.Message,
		SenderUserCode: m.SenderUserCode,
		SenderUserName: m.SenderUserName,
		DateTimeStamp:  timefmt.Normalize(m.DateTimeStamp),
	}
}

// MessageViews converts a slice of messages, never returning nil.
func MessageViews(msgs []TicketMessage) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, msgs[i].View())
	}
	return out
}
