package search

import (
	"sort"
	"strings"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
)

// sortable is the allowlist of sort keys, matched after lowercasing.
var sortable = map[string]string{
	"created_date":     fieldmap.ColCreatedDate,
	"lastmodified":     fieldmap.ColLastModified,
	"ticket_id":        fieldmap.ColTicketID,
	"subject":          fieldmap.ColSubject,
	"priority_id":      fieldmap.ColPriorityID,
	"severity_id":      fieldmap.ColSeverityID,
	"ticket_status_id": fieldmap.ColStatusID,
	"site_id":          fieldmap.ColSiteID,
	"closed_date":      fieldmap.ColClosedDate,
}

// ParseSort turns a sort spec like "-created_date" into an order list. The
// empty spec defaults to newest first. Ticket_ID descending is always added
// as the tie-breaker.
func (o *Orchestrator) ParseSort(spec string) ([]database.Order, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return []database.Order{
			{Column: fieldmap.ColCreatedDate, Desc: true},
			{Column: fieldmap.ColTicketID, Desc: true},
		}, nil
	}

	desc := false
	key := spec
	if strings.HasPrefix(key, "-") {
		desc = true
		key = key[1:]
	}
	col, ok := sortable[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, &apperrors.InvalidSortFieldError{Field: spec}
	}

	orders := []database.Order{{Column: col, Desc: desc}}
	if col != fieldmap.ColTicketID {
		orders = append(orders, database.Order{Column: fieldmap.ColTicketID, Desc: true})
	}
	return orders, nil
}

// sortScored reorders ranked entries by ticket columns in memory, used when
// an explicit sort overrides relevance order. Nil column values compare as
// zero values, mirroring how MySQL and SQLite place NULLs.
func sortScored(entries []relevance.Scored, orders []database.Order) {
	sort.SliceStable(entries, func(i, j int) bool {
		for _, o := range orders {
			c := compareTickets(entries[i].Ticket, entries[j].Ticket, o.Column)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareTickets(a, b *models.Ticket, column string) int {
	switch column {
	case fieldmap.ColCreatedDate:
		return compareTime(a.CreatedDate, b.CreatedDate)
	case fieldmap.ColLastModified:
		return compareTime(a.LastModified, b.LastModified)
	case fieldmap.ColTicketID:
		return compareInt64(a.TicketID, b.TicketID)
	case fieldmap.ColSubject:
		return strings.Compare(a.Subject, b.Subject)
	case fieldmap.ColPriorityID:
		return compareInt64(int64(intOrZero(a.PriorityID)), int64(intOrZero(b.PriorityID)))
	case fieldmap.ColSeverityID:
		return compareInt64(int64(intOrZero(a.SeverityID)), int64(intOrZero(b.SeverityID)))
	case fieldmap.ColStatusID:
		return compareInt64(int64(a.StatusID), int64(b.StatusID))
	case fieldmap.ColSiteID:
		return compareInt64(int64OrZero(a.SiteID), int64OrZero(b.SiteID))
	case fieldmap.ColClosedDate:
		return compareTime(timeOrZero(a.ClosedDate), timeOrZero(b.ClosedDate))
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func int64OrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func timeOrZero(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
