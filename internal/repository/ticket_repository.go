package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// ticketColumns is the full column list of the tickets table, in scan order.
const ticketColumns = `ticket_id, subject, ticket_body, ticket_status_id, ` +
	`ticket_contact_name, ticket_contact_email, asset_id, site_id, ` +
	`ticket_category_id, created_date, assigned_name, assigned_email, ` +
	`priority_id, severity_id, assigned_vendor_id, closed_date, ` +
	`lastmodified, resolution`

// userMatchClause matches an identifier against the four name/email columns,
// case-insensitively. Callers bind the identifier four times.
const userMatchClause = `(LOWER(ticket_contact_name) = LOWER(?) OR ` +
	`LOWER(ticket_contact_email) = LOWER(?) OR ` +
	`LOWER(assigned_name) = LOWER(?) OR ` +
	`LOWER(assigned_email) = LOWER(?))`

// ListQuery describes a filtered, ordered, paginated ticket listing.
type ListQuery struct {
	Conditions []fieldmap.Condition
	Order      []database.Order
	Limit      int
	Offset     int
}

// TicketRepository handles database operations for tickets. Label fields are
// resolved from the reference tables after each scan rather than joined in,
// so the filter conditions can address tickets columns unqualified.
type TicketRepository struct {
	db   *database.DB
	refs *ReferenceRepository
	now  func() time.Time
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *database.DB, refs *ReferenceRepository) *TicketRepository {
	return &TicketRepository{db: db, refs: refs, now: time.Now}
}

// NewTicketRepositoryAt is NewTicketRepository with an injected clock, for
// tests.
func NewTicketRepositoryAt(db *database.DB, refs *ReferenceRepository, now func() time.Time) *TicketRepository {
	if now == nil {
		now = time.Now
	}
	return &TicketRepository{db: db, refs: refs, now: now}
}

// Get retrieves a ticket by ID with its labels resolved.
func (r *TicketRepository) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Enrich(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// get fetches the bare row without label resolution.
func (r *TicketRepository) get(ctx context.Context, id int64) (*models.Ticket, error) {
	var t models.Ticket
	err := r.db.GetContext(ctx, &t,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "ticket", ID: id}
	}
	if err != nil {
		return nil, apperrors.WrapDB("get ticket", err)
	}
	return &t, nil
}

// Exists reports whether a ticket row exists.
func (r *TicketRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM tickets WHERE ticket_id = ?`, id)
	if err != nil {
		return false, apperrors.WrapDB("ticket exists", err)
	}
	return n > 0, nil
}

// List returns one page of tickets matching the query plus the total match
// count before pagination. With no explicit order, newest tickets come first
// with ticket_id breaking ties.
func (r *TicketRepository) List(ctx context.Context, q ListQuery) ([]models.Ticket, int, error) {
	where, args, err := database.RenderWhere(r.db.Adapter(), q.Conditions)
	if err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM tickets`
	pageQuery := `SELECT ` + ticketColumns + ` FROM tickets`
	if where != "" {
		countQuery += ` WHERE ` + where
		pageQuery += ` WHERE ` + where
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, apperrors.WrapDB("count tickets", err)
	}

	order := q.Order
	if len(order) == 0 {
		order = []database.Order{
			{Column: fieldmap.ColCreatedDate, Desc: true},
			{Column: fieldmap.ColTicketID, Desc: true},
		}
	}
	pageQuery += ` ` + database.RenderOrder(order)

	pageArgs := args
	if q.Limit > 0 {
		pageQuery += ` LIMIT ? OFFSET ?`
		pageArgs = append(append([]interface{}{}, args...), q.Limit, q.Offset)
	}

	tickets := []models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, pageQuery, pageArgs...); err != nil {
		return nil, 0, apperrors.WrapDB("list tickets", err)
	}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// Count returns the number of tickets matching the conditions.
func (r *TicketRepository) Count(ctx context.Context, conds []fieldmap.Condition) (int, error) {
	where, args, err := database.RenderWhere(r.db.Adapter(), conds)
	if err != nil {
		return 0, err
	}
	query := `SELECT COUNT(*) FROM tickets`
	if where != "" {
		query += ` WHERE ` + where
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, apperrors.WrapDB("count tickets", err)
	}
	return n, nil
}

// ByIDs fetches the given tickets in one query, labels resolved. Missing ids
// are silently absent from the result.
func (r *TicketRepository) ByIDs(ctx context.Context, ids []int64) ([]models.Ticket, error) {
	if len(ids) == 0 {
		return []models.Ticket{}, nil
	}
	query, args, err := r.db.In(
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_id IN (?)`, ids)
	if err != nil {
		return nil, apperrors.WrapDB("expand ticket ids", err)
	}
	tickets := []models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, apperrors.WrapDB("load tickets by id", err)
	}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Create inserts a new ticket. Status defaults to 1 (new); created and
// modified stamps are taken from the repository clock in UTC, truncated to
// the millisecond.
func (r *TicketRepository) Create(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	stamp := timefmt.Normalize(r.now())
	statusID := 1
	if req.StatusID != nil {
		statusID = *req.StatusID
	}

	const insert = `INSERT INTO tickets (subject, ticket_body, ` +
		`ticket_status_id, ticket_contact_name, ticket_contact_email, ` +
		`asset_id, site_id, ticket_category_id, created_date, ` +
		`assigned_name, assigned_email, priority_id, severity_id, ` +
		`assigned_vendor_id, closed_date, lastmodified, resolution) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.db.InsertReturningID(ctx, insert, "ticket_id",
		req.Subject, req.Body, statusID, req.ContactName, req.ContactEmail,
		req.AssetID, req.SiteID, req.CategoryID, stamp,
		req.AssignedName, req.AssignedEmail, req.PriorityID, req.SeverityID,
		req.VendorID, nil, stamp, req.Resolution)
	if err != nil {
		return nil, apperrors.WrapDB("create ticket", err)
	}
	return r.Get(ctx, id)
}

// Update applies the resolved assignments to a ticket and returns the fresh
// row. LastModified is always stamped. Moving into status 3 stamps
// closed_date when it is not already set; moving out of status 3 clears it.
func (r *TicketRepository) Update(ctx context.Context, id int64, assigns []fieldmap.Assignment) (*models.Ticket, error) {
	current, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	stamp := timefmt.Normalize(r.now())
	assigns = append(assigns, fieldmap.Assignment{Column: fieldmap.ColLastModified, Value: stamp})
	if statusID, ok := assignedStatusID(assigns); ok {
		if statusID == 3 && current.ClosedDate == nil {
			assigns = append(assigns, fieldmap.Assignment{Column: fieldmap.ColClosedDate, Value: stamp})
		} else if statusID != 3 && current.ClosedDate != nil {
			assigns = append(assigns, fieldmap.Assignment{Column: fieldmap.ColClosedDate, Value: nil})
		}
	}

	set, args := database.RenderSet(assigns)
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET `+set+` WHERE ticket_id = ?`, args...); err != nil {
		return nil, apperrors.WrapDB("update ticket", err)
	}
	return r.Get(ctx, id)
}

// Delete removes a ticket and its messages and attachments in one
// transaction.
func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.WrapDB("begin delete", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM ticket_messages WHERE ticket_id = ?`,
		`DELETE FROM ticket_attachments WHERE ticket_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(q), id); err != nil {
			return apperrors.WrapDB("delete ticket children", err)
		}
	}

	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM tickets WHERE ticket_id = ?`), id)
	if err != nil {
		return apperrors.WrapDB("delete ticket", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.WrapDB("delete ticket", err)
	}
	if affected == 0 {
		return &apperrors.NotFoundError{Resource: "ticket", ID: id}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.WrapDB("commit delete", err)
	}
	return nil
}

// OpenForUser returns open tickets where the identifier matches any of the
// contact or assignee name/email columns.
func (r *TicketRepository) OpenForUser(ctx context.Context, identifier string) ([]models.Ticket, error) {
	return r.userTickets(ctx, `ticket_status_id <> 3`, identifier)
}

// WaitingOnUser returns tickets waiting on the customer (status 4) where the
// identifier matches any of the contact or assignee name/email columns.
func (r *TicketRepository) WaitingOnUser(ctx context.Context, identifier string) ([]models.Ticket, error) {
	return r.userTickets(ctx, `ticket_status_id = 4`, identifier)
}

func (r *TicketRepository) userTickets(ctx context.Context, statusClause, identifier string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + statusClause +
		` AND ` + userMatchClause + ` ORDER BY created_date DESC, ticket_id DESC`
	tickets := []models.Ticket{}
	err := r.db.SelectContext(ctx, &tickets, query,
		identifier, identifier, identifier, identifier)
	if err != nil {
		return nil, apperrors.WrapDB("tickets for user", err)
	}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// OpenOlderThan returns open tickets created before the cutoff, oldest first.
func (r *TicketRepository) OpenOlderThan(ctx context.Context, cutoff time.Time) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := r.db.SelectContext(ctx, &tickets,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_status_id <> 3 AND created_date < ? `+
			`ORDER BY created_date ASC, ticket_id ASC`,
		timefmt.Normalize(cutoff))
	if err != nil {
		return nil, apperrors.WrapDB("open tickets older than", err)
	}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// RelatedTo returns other tickets sharing the contact email, asset, or site
// with the given ticket, newest first.
func (r *TicketRepository) RelatedTo(ctx context.Context, t *models.Ticket, limit int) ([]models.Ticket, error) {
	clauses := []string{}
	args := []interface{}{}
	if t.ContactEmail != nil && *t.ContactEmail != "" {
		clauses = append(clauses, `LOWER(ticket_contact_email) = LOWER(?)`)
		args = append(args, *t.ContactEmail)
	}
	if t.AssetID != nil {
		clauses = append(clauses, `asset_id = ?`)
		args = append(args, *t.AssetID)
	}
	if t.SiteID != nil {
		clauses = append(clauses, `site_id = ?`)
		args = append(args, *t.SiteID)
	}
	if len(clauses) == 0 {
		return []models.Ticket{}, nil
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id <> ? AND (`
	for i, c := range clauses {
		if i > 0 {
			query += ` OR `
		}
		query += c
	}
	query += `) ORDER BY created_date DESC, ticket_id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	tickets := []models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, query, append([]interface{}{t.TicketID}, args...)...); err != nil {
		return nil, apperrors.WrapDB("related tickets", err)
	}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Enrich fills the label fields of one ticket from the reference tables.
func (r *TicketRepository) Enrich(ctx context.Context, t *models.Ticket) error {
	tickets := []models.Ticket{*t}
	if err := r.EnrichAll(ctx, tickets); err != nil {
		return err
	}
	*t = tickets[0]
	return nil
}

// EnrichAll fills the label fields of every ticket in place. PriorityLevel is
// always set, defaulting to Medium when no severity is recorded.
func (r *TicketRepository) EnrichAll(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	statuses, err := r.refs.StatusLabels(ctx)
	if err != nil {
		return err
	}
	sites, err := r.refs.SiteLabels(ctx)
	if err != nil {
		return err
	}
	categories, err := r.refs.CategoryLabels(ctx)
	if err != nil {
		return err
	}
	vendors, err := r.refs.VendorNames(ctx)
	if err != nil {
		return err
	}

	for i := range tickets {
		t := &tickets[i]
		if label, ok := statuses[t.StatusID]; ok {
			t.StatusLabel = &label
		}
		if t.SiteID != nil {
			if label, ok := sites[*t.SiteID]; ok {
				t.SiteLabel = &label
			}
		}
		if t.CategoryID != nil {
			if label, ok := categories[*t.CategoryID]; ok {
				t.CategoryLabel = &label
			}
		}
		if t.AssignedVendorID != nil {
			if name, ok := vendors[*t.AssignedVendorID]; ok {
				t.AssignedVendorName = &name
			}
		}
		level := fieldmap.PriorityLabel(t.SeverityID)
		t.PriorityLevel = &level
	}
	return nil
}

// assignedStatusID pulls the status assignment out of the set, if present.
func assignedStatusID(assigns []fieldmap.Assignment) (int64, bool) {
	for _, a := range assigns {
		if a.Column != fieldmap.ColStatusID {
			continue
		}
		switch v := a.Value.(type) {
		case int:
			return int64(v), true
		case int64:
			return v, true
		case float64:
			return int64(v), true
		}
	}
	return 0, false
}
