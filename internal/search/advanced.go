package search

import (
	"context"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// AdvancedParams extends Params with the advanced-search extras.
type AdvancedParams struct {
	Params
	// IncludeMessages attaches each page entry's message thread.
	IncludeMessages bool
	// IncludeAttachments attaches each page entry's attachment records.
	IncludeAttachments bool
}

// AdvancedSearch runs a search with aggregations over the matched set,
// optional message/attachment inclusion for the returned page, and a query
// complexity estimate. Pages clamp at the bulk limit rather than the regular
// one.
func (o *Orchestrator) AdvancedSearch(ctx context.Context, p AdvancedParams) (*models.AdvancedSearchResponse, error) {
	orders, err := o.ParseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	conds, err := o.conditions(p.Params)
	if err != nil {
		return nil, err
	}
	limit, offset := o.page(p.Limit, p.Offset, o.cfg.MaxBulkLimit)

	var matched []relevance.Scored
	var total int
	query := CleanQuery(p.Query)
	if query != "" {
		matched, err = o.rankedMatches(ctx, query, conds, p.Sort, orders)
		if err != nil {
			return nil, err
		}
		total = len(matched)
	} else {
		// The aggregation base is the same capped window the ranker would
		// see; the total still reports the full match count.
		tickets, sqlTotal, listErr := o.store.List(ctx, repository.ListQuery{
			Conditions: conds,
			Order:      orders,
			Limit:      o.cfg.CandidateCap,
		})
		if listErr != nil {
			return nil, listErr
		}
		matched = o.decorate(tickets)
		total = sqlTotal
	}

	page := pageOf(matched, offset, limit)
	results := scoredResults(page)
	if err := o.attachIncludes(ctx, p, page, results); err != nil {
		return nil, err
	}

	includes := 0
	if p.IncludeMessages {
		includes++
	}
	if p.IncludeAttachments {
		includes++
	}

	return &models.AdvancedSearchResponse{
		SearchResponse: models.SearchResponse{
			Results: results,
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			Query:   query,
		},
		Aggregations:    aggregate(matched),
		QueryComplexity: queryComplexity(query != "", len(conds), includes),
	}, nil
}

// decorate wraps unranked tickets as scored entries with metadata, keeping
// the store's order.
func (o *Orchestrator) decorate(tickets []models.Ticket) []relevance.Scored {
	now := o.now()
	out := make([]relevance.Scored, 0, len(tickets))
	for i := range tickets {
		out = append(out, relevance.Scored{
			Ticket:   &tickets[i],
			Metadata: o.ranker.Metadata(&tickets[i], now),
		})
	}
	return out
}

func (o *Orchestrator) attachIncludes(ctx context.Context, p AdvancedParams, page []relevance.Scored, results []models.SearchResult) error {
	if !p.IncludeMessages && !p.IncludeAttachments {
		return nil
	}
	for i, entry := range page {
		if p.IncludeMessages {
			msgs, err := o.store.Messages(ctx, entry.Ticket.TicketID)
			if err != nil {
				return err
			}
			results[i].Messages = models.MessageViews(msgs)
		}
		if p.IncludeAttachments {
			atts, err := o.store.Attachments(ctx, entry.Ticket.TicketID)
			if err != nil {
				return err
			}
			results[i].Attachments = models.AttachmentViews(atts)
		}
	}
	return nil
}

// aggregate counts status, priority, site, and category labels over the
// matched set. Unlabeled sites and categories bucket under Unknown.
func aggregate(entries []relevance.Scored) *models.Aggregations {
	agg := &models.Aggregations{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		BySite:     map[string]int{},
		ByCategory: map[string]int{},
	}
	for _, e := range entries {
		t := e.Ticket
		agg.ByStatus[labelOr(t.StatusLabel, "Unknown")]++
		agg.ByPriority[labelOr(t.PriorityLevel, "Medium")]++
		agg.BySite[labelOr(t.SiteLabel, "Unknown")]++
		agg.ByCategory[labelOr(t.CategoryLabel, "Unknown")]++
	}
	return agg
}

func labelOr(label *string, fallback string) string {
	if label == nil || *label == "" {
		return fallback
	}
	return *label
}

// queryComplexity grades a request: two points for ranking, one per
// condition, three per include.
func queryComplexity(hasText bool, conditions, includes int) string {
	score := conditions + 3*includes
	if hasText {
		score += 2
	}
	switch {
	case score <= 3:
		return "simple"
	case score <= 7:
		return "medium"
	}
	return "complex"
}
