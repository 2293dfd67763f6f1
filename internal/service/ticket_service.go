// Package service holds the business layer between the HTTP/MCP edges and
// the repositories: input sanitization, validation, derived reports.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// relatedLimit caps the related-ticket list in full context payloads.
const relatedLimit = 5

// TicketService handles ticket CRUD with sanitize-on-write semantics: every
// free-text field passes through an HTML sanitizer before it reaches the
// database.
type TicketService struct {
	tickets  *repository.TicketRepository
	resolver *fieldmap.Resolver
	ranker   *relevance.Ranker
	policy   *bluemonday.Policy
	now      func() time.Time
}

// NewTicketService builds a ticket service. A nil resolver or ranker takes
// the default one.
func NewTicketService(tickets *repository.TicketRepository, resolver *fieldmap.Resolver, ranker *relevance.Ranker) *TicketService {
	if resolver == nil {
		resolver = fieldmap.NewResolver()
	}
	if ranker == nil {
		ranker = relevance.NewRanker(relevance.Config{}, nil, nil)
	}
	return &TicketService{
		tickets:  tickets,
		resolver: resolver,
		ranker:   ranker,
		policy:   bluemonday.UGCPolicy(),
		now:      time.Now,
	}
}

// NewTicketServiceAt is NewTicketService with an injected clock, for tests.
func NewTicketServiceAt(tickets *repository.TicketRepository, resolver *fieldmap.Resolver, ranker *relevance.Ranker, now func() time.Time) *TicketService {
	s := NewTicketService(tickets, resolver, ranker)
	if now != nil {
		s.now = now
	}
	return s
}

// Get returns one ticket with reference labels resolved.
func (s *TicketService) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.tickets.Get(ctx, id)
}

// Create validates and sanitizes the request, then inserts the ticket.
func (s *TicketService) Create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("request body is required", nil)
	}
	clean := *req
	clean.Subject = s.clean(req.Subject)
	clean.Body = s.clean(req.Body)
	clean.ContactName = s.cleanPtr(req.ContactName)
	clean.AssignedName = s.cleanPtr(req.AssignedName)
	clean.Resolution = s.cleanPtr(req.Resolution)

	if clean.Subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	if clean.Body == "" {
		return nil, apperrors.NewValidationError("body is required", nil)
	}
	return s.tickets.Create(ctx, &clean)
}

// Update resolves the field map into column assignments, sanitizes text
// values, and applies them. Closed_Date stamping follows the status change.
func (s *TicketService) Update(ctx context.Context, id int64, updates models.UpdateTicketRequest) (*models.Ticket, error) {
	assigns, err := s.resolver.ResolveUpdates(updates)
	if err != nil {
		return nil, err
	}
	for i, a := range assigns {
		if v, ok := a.Value.(string); ok {
			assigns[i].Value = s.clean(v)
		}
	}
	return s.tickets.Update(ctx, id, assigns)
}

// Delete removes the ticket and its thread.
func (s *TicketService) Delete(ctx context.Context, id int64) error {
	return s.tickets.Delete(ctx, id)
}

// Messages returns the ticket's thread, oldest first.
func (s *TicketService) Messages(ctx context.Context, id int64) ([]models.TicketMessage, error) {
	return s.tickets.Messages(ctx, id)
}

// AddMessage appends a sanitized message to the thread.
func (s *TicketService) AddMessage(ctx context.Context, id int64, req *models.AddMessageRequest) (*models.TicketMessage, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("request body is required", nil)
	}
	clean := *req
	clean.Message = s.clean(req.Message)
	clean.SenderUserName = s.cleanPtr(req.SenderUserName)
	if clean.Message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	return s.tickets.AddMessage(ctx, id, &clean)
}

// Attachments returns the ticket's attachment records, newest first.
func (s *TicketService) Attachments(ctx context.Context, id int64) ([]models.TicketAttachment, error) {
	return s.tickets.Attachments(ctx, id)
}

// FullContext assembles the complete agent-handoff payload for one ticket.
func (s *TicketService) FullContext(ctx context.Context, id int64) (*models.TicketContext, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.tickets.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	atts, err := s.tickets.Attachments(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.tickets.RelatedTo(ctx, t, relatedLimit)
	if err != nil {
		return nil, err
	}

	out := &models.TicketContext{
		Ticket:      t.View(),
		Messages:    models.MessageViews(msgs),
		Attachments: models.AttachmentViews(atts),
		Metadata:    s.ranker.Metadata(t, s.now()),
		Related:     summariesOf(related),
	}
	if t.ClosedDate != nil {
		hours := t.ClosedDate.Sub(t.CreatedDate).Hours()
		out.ResolutionHours = &hours
	}
	return out, nil
}

func (s *TicketService) clean(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

func (s *TicketService) cleanPtr(p *string) *string {
	if p == nil {
		return nil
	}
	c := s.clean(*p)
	return &c
}

func summariesOf(tickets []models.Ticket) []models.TicketView {
	views := make([]models.TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, tickets[i].Summary())
	}
	return views
}
