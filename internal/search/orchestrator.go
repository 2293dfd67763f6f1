// Package search coordinates the field mapper, the ticket store, and the
// relevance ranker into one query plan: resolve filters, bound the time
// window, fetch candidates, rank when a text query is present, and paginate.
package search

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// TicketStore is the slice of the repository the orchestrator needs.
// *repository.TicketRepository satisfies it.
type TicketStore interface {
	List(ctx context.Context, q repository.ListQuery) ([]models.Ticket, int, error)
	Update(ctx context.Context, id int64, assigns []fieldmap.Assignment) (*models.Ticket, error)
	Messages(ctx context.Context, ticketID int64) ([]models.TicketMessage, error)
	Attachments(ctx context.Context, ticketID int64) ([]models.TicketAttachment, error)
}

// Config holds the immutable orchestrator settings. Zero values take
// defaults.
type Config struct {
	// DefaultDays bounds searches with no explicit window.
	DefaultDays int
	// DefaultLimit applies when the caller sends no limit.
	DefaultLimit int
	// MaxLimit caps regular search and list pages.
	MaxLimit int
	// MaxBulkLimit caps advanced search pages.
	MaxBulkLimit int
	// CandidateCap bounds how many tickets are fetched for ranking.
	CandidateCap int
}

const (
	defaultDays         = 30
	defaultLimit        = 20
	defaultMaxLimit     = 100
	defaultMaxBulkLimit = 500
	defaultCandidateCap = 500
)

func (c Config) withDefaults() Config {
	if c.DefaultDays <= 0 {
		c.DefaultDays = defaultDays
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = defaultMaxLimit
	}
	if c.MaxBulkLimit <= 0 {
		c.MaxBulkLimit = defaultMaxBulkLimit
	}
	if c.CandidateCap <= 0 {
		c.CandidateCap = defaultCandidateCap
	}
	return c
}

// Params is the unified search request.
type Params struct {
	// Query is the free text to rank by; empty means filter-only.
	Query string
	// Filters go through the semantic field mapper.
	Filters map[string]any
	// Days bounds Created_Date to the trailing window. nil takes the
	// default; 0 disables the window entirely.
	Days *int
	// CreatedAfter and CreatedBefore, when set, replace the Days window.
	CreatedAfter  string
	CreatedBefore string
	// Sort is a column name, optionally -prefixed for descending.
	Sort   string
	Limit  int
	Offset int
	// UserIdentifier matches contact or assignee name/email columns.
	UserIdentifier string
}

// Orchestrator executes searches, listings, and bulk updates. Immutable
// after construction and safe for concurrent use.
type Orchestrator struct {
	cfg      Config
	store    TicketStore
	resolver *fieldmap.Resolver
	ranker   *relevance.Ranker
	now      func() time.Time
}

// New builds an orchestrator over the given collaborators. A nil resolver or
// ranker takes the default one.
func New(cfg Config, store TicketStore, resolver *fieldmap.Resolver, ranker *relevance.Ranker) *Orchestrator {
	if resolver == nil {
		resolver = fieldmap.NewResolver()
	}
	if ranker == nil {
		ranker = relevance.NewRanker(relevance.Config{}, nil, nil)
	}
	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		store:    store,
		resolver: resolver,
		ranker:   ranker,
		now:      time.Now,
	}
}

// NewAt is New with an injected clock, for tests.
func NewAt(cfg Config, store TicketStore, resolver *fieldmap.Resolver, ranker *relevance.Ranker, now func() time.Time) *Orchestrator {
	o := New(cfg, store, resolver, ranker)
	if now != nil {
		o.now = now
	}
	return o
}

// Search runs a text or filter-only search and returns one result page with
// the total match count. With a text query the filtered candidate window is
// ranked in memory and relevance order wins unless an explicit sort was
// requested; without one, sorting and pagination happen in SQL.
func (o *Orchestrator) Search(ctx context.Context, p Params) (*models.SearchResponse, error) {
	orders, err := o.ParseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	conds, err := o.conditions(p)
	if err != nil {
		return nil, err
	}
	limit, offset := o.page(p.Limit, p.Offset, o.cfg.MaxLimit)

	query := CleanQuery(p.Query)
	if query != "" {
		matched, err := o.rankedMatches(ctx, query, conds, p.Sort, orders)
		if err != nil {
			return nil, err
		}
		page := pageOf(matched, offset, limit)
		return &models.SearchResponse{
			Results: scoredResults(page),
			Total:   len(matched),
			Limit:   limit,
			Offset:  offset,
			Query:   query,
		}, nil
	}

	tickets, total, err := o.store.List(ctx, repository.ListQuery{
		Conditions: conds,
		Order:      orders,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Results: o.plainResults(tickets),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// List runs a filter-only listing and returns plain ticket views.
func (o *Orchestrator) List(ctx context.Context, p Params) (*models.TicketPage, error) {
	orders, err := o.ParseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	conds, err := o.conditions(p)
	if err != nil {
		return nil, err
	}
	limit, offset := o.page(p.Limit, p.Offset, o.cfg.MaxLimit)

	tickets, total, err := o.store.List(ctx, repository.ListQuery{
		Conditions: conds,
		Order:      orders,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	views := make([]models.TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, tickets[i].View())
	}
	return &models.TicketPage{
		Tickets: views,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// rankedMatches fetches the candidate window, ranks it, and keeps the
// positive scores. An explicit sort reorders the matches in memory.
func (o *Orchestrator) rankedMatches(ctx context.Context, query string, conds []fieldmap.Condition, sortSpec string, orders []database.Order) ([]relevance.Scored, error) {
	candidates, _, err := o.store.List(ctx, repository.ListQuery{
		Conditions: conds,
		Order: []database.Order{
			{Column: fieldmap.ColCreatedDate, Desc: true},
			{Column: fieldmap.ColTicketID, Desc: true},
		},
		Limit: o.cfg.CandidateCap,
	})
	if err != nil {
		return nil, err
	}

	ranked := o.ranker.Rank(query, candidates)
	matched := make([]relevance.Scored, 0, len(ranked))
	for _, s := range ranked {
		if s.Score > 0 {
			matched = append(matched, s)
		}
	}
	if strings.TrimSpace(sortSpec) != "" {
		sortScored(matched, orders)
	}
	return matched, nil
}

// conditions assembles filter, window, and user-identifier conditions.
func (o *Orchestrator) conditions(p Params) ([]fieldmap.Condition, error) {
	conds, err := o.resolver.ResolveFilters(p.Filters)
	if err != nil {
		return nil, err
	}

	window, err := o.window(p)
	if err != nil {
		return nil, err
	}
	if window != nil {
		conds = append(conds, *window)
	}

	if id := strings.TrimSpace(p.UserIdentifier); id != "" {
		conds = append(conds, fieldmap.MatchAny{
			Columns: []string{
				fieldmap.ColContactName, fieldmap.ColContactEmail,
				fieldmap.ColAssignedName, fieldmap.ColAssignedEmail,
			},
			Value: id,
		})
	}
	return conds, nil
}

// window resolves the Created_Date bound. Explicit created_after and
// created_before replace the Days window entirely.
func (o *Orchestrator) window(p Params) (*fieldmap.Condition, error) {
	after := strings.TrimSpace(p.CreatedAfter)
	before := strings.TrimSpace(p.CreatedBefore)
	if after != "" || before != "" {
		var bounds fieldmap.Range
		bounds.Column = fieldmap.ColCreatedDate
		if after != "" {
			t, err := timefmt.Parse(after)
			if err != nil {
				return nil, err
			}
			bounds.After = &t
		}
		if before != "" {
			t, err := timefmt.Parse(before)
			if err != nil {
				return nil, err
			}
			bounds.Before = &t
		}
		cond := fieldmap.Condition(bounds)
		return &cond, nil
	}

	days := o.cfg.DefaultDays
	if p.Days != nil {
		days = *p.Days
	}
	if days < 0 {
		return nil, apperrors.NewValidationError("days must not be negative",
			map[string]any{"days": days})
	}
	if days == 0 {
		return nil, nil
	}
	cutoff := o.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	cond := fieldmap.Condition(fieldmap.Range{
		Column: fieldmap.ColCreatedDate,
		After:  &cutoff,
	})
	return &cond, nil
}

// page clamps limit and offset: non-positive limits take the default, max
// bounds the page size, negative offsets reset to zero.
func (o *Orchestrator) page(limit, offset, max int) (int, int) {
	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// plainResults wraps unranked tickets as results with metadata attached.
func (o *Orchestrator) plainResults(tickets []models.Ticket) []models.SearchResult {
	now := o.now()
	out := make([]models.SearchResult, 0, len(tickets))
	for i := range tickets {
		out = append(out, models.SearchResult{
			Ticket:   tickets[i].Summary(),
			Metadata: o.ranker.Metadata(&tickets[i], now),
		})
	}
	return out
}

// scoredResults converts ranked entries to wire results.
func scoredResults(page []relevance.Scored) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(page))
	for _, s := range page {
		out = append(out, models.SearchResult{
			Ticket:     s.Ticket.Summary(),
			Score:      s.Score,
			Highlights: s.Highlights,
			Snippet:    s.Snippet,
			Metadata:   s.Metadata,
		})
	}
	return out
}

// pageOf slices one page out of the ranked list.
func pageOf(entries []relevance.Scored, offset, limit int) []relevance.Scored {
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

// CleanQuery trims the text and strips control characters.
func CleanQuery(q string) string {
	q = strings.TrimSpace(q)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, q)
}
