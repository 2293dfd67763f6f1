package relevance

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// OverdueAfter is the fixed global overdue rule: any open ticket older than
// this is overdue, regardless of priority. The per-priority SLA fields are
// computed separately and never replace this flag.
const OverdueAfter = 24 * time.Hour

// Complexity cutoffs in runes of the stored text.
const (
	complexityBodyHigh      = 500
	complexitySubjectHigh   = 100
	complexityBodyMedium    = 200
	complexitySubjectMedium = 50
)

// Metadata derives the per-ticket fields attached to search results and
// context payloads.
func (r *Ranker) Metadata(t *models.Ticket, now time.Time) models.TicketMetadata {
	open := t.IsOpen()
	due := r.sla.Due(t.CreatedDate, t.SeverityID)
	return models.TicketMetadata{
		AgeDays:            timefmt.AgeDays(now, t.CreatedDate),
		AgeHuman:           timefmt.Humanize(now, t.CreatedDate),
		IsOverdue:          open && now.Sub(t.CreatedDate) > OverdueAfter,
		SLADue:             timefmt.Normalize(due),
		SLABreached:        r.sla.Breached(now, t.CreatedDate, t.SeverityID, open),
		ComplexityEstimate: ComplexityEstimate(t.Subject, t.Body),
	}
}

// ComplexityEstimate buckets a ticket by text length: high when the body
// passes 500 runes or the subject passes 100, medium at 200/50, low below.
func ComplexityEstimate(subject, body string) string {
	subjectLen := len([]rune(subject))
	bodyLen := len([]rune(body))
	switch {
	case bodyLen > complexityBodyHigh || subjectLen > complexitySubjectHigh:
		return "high"
	case bodyLen > complexityBodyMedium || subjectLen > complexitySubjectMedium:
		return "medium"
	default:
		return "low"
	}
}
