package repository

import (
	"context"
	"sort"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// AnalyticsRepository runs the aggregate queries behind the reporting
// endpoints. Grouped results come back with stable ordering so responses are
// deterministic.
type AnalyticsRepository struct {
	db *database.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// SnapshotCounts carries the scalar tallies behind the system snapshot.
type SnapshotCounts struct {
	Total          int
	Open           int
	Closed         int
	UnassignedOpen int
	Overdue        int
	CreatedLast24h int
	RecentOpen     int
}

// CountsByStatus returns ticket counts per status label.
func (r *AnalyticsRepository) CountsByStatus(ctx context.Context) ([]models.LabelCount, error) {
	out := []models.LabelCount{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT s.status_label AS label, COUNT(*) AS count `+
			`FROM tickets t JOIN statuses s ON s.status_id = t.ticket_status_id `+
			`GROUP BY s.status_label ORDER BY count DESC, label ASC`)
	if err != nil {
		return nil, apperrors.WrapDB("counts by status", err)
	}
	return out, nil
}

// CountsByPriority returns ticket counts per priority label. Severities
// outside the known bands roll up under Medium.
func (r *AnalyticsRepository) CountsByPriority(ctx context.Context) ([]models.LabelCount, error) {
	rows := []severityCount{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT severity_id, COUNT(*) AS count FROM tickets GROUP BY severity_id`)
	if err != nil {
		return nil, apperrors.WrapDB("counts by priority", err)
	}

	byLabel := map[string]int{}
	for _, row := range rows {
		byLabel[fieldmap.PriorityLabel(row.SeverityID)] += row.Count
	}
	out := []models.LabelCount{}
	for _, label := range []string{"Critical", "High", "Medium", "Low"} {
		if n, ok := byLabel[label]; ok {
			out = append(out, models.LabelCount{Label: label, Count: n})
		}
	}
	return out, nil
}

// OpenCountsBySite returns open-ticket counts grouped by site label. Tickets
// without a site group under Unknown.
func (r *AnalyticsRepository) OpenCountsBySite(ctx context.Context) ([]models.LabelCount, error) {
	out := []models.LabelCount{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT COALESCE(s.site_label, 'Unknown') AS label, COUNT(*) AS count `+
			`FROM tickets t LEFT JOIN sites s ON s.site_id = t.site_id `+
			`WHERE t.ticket_status_id <> 3 `+
			`GROUP BY COALESCE(s.site_label, 'Unknown') ORDER BY count DESC, label ASC`)
	if err != nil {
		return nil, apperrors.WrapDB("open counts by site", err)
	}
	return out, nil
}

// OpenByAssignee returns per-assignee open counts, heaviest first.
func (r *AnalyticsRepository) OpenByAssignee(ctx context.Context) ([]models.AssigneeLoad, error) {
	out := []models.AssigneeLoad{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT assigned_email, MIN(assigned_name) AS assigned_name, COUNT(*) AS open_count `+
			`FROM tickets WHERE ticket_status_id <> 3 `+
			`AND assigned_email IS NOT NULL AND assigned_email <> '' `+
			`GROUP BY assigned_email ORDER BY open_count DESC, assigned_email ASC`)
	if err != nil {
		return nil, apperrors.WrapDB("open by assignee", err)
	}
	return out, nil
}

// UnassignedOpen counts open tickets with no assignee.
func (r *AnalyticsRepository) UnassignedOpen(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM tickets WHERE ticket_status_id <> 3 `+
			`AND (assigned_email IS NULL OR assigned_email = '')`)
	if err != nil {
		return 0, apperrors.WrapDB("unassigned open count", err)
	}
	return n, nil
}

// Snapshot gathers the scalar counts for the system snapshot relative to now.
func (r *AnalyticsRepository) Snapshot(ctx context.Context, now time.Time) (*SnapshotCounts, error) {
	dayAgo := timefmt.Normalize(now.Add(-24 * time.Hour))
	counts := SnapshotCounts{}
	for _, q := range []struct {
		dest  *int
		where string
		args  []interface{}
	}{
		{&counts.Total, ``, nil},
		{&counts.Open, `WHERE ticket_status_id <> 3`, nil},
		{&counts.Closed, `WHERE ticket_status_id = 3`, nil},
		{&counts.UnassignedOpen, `WHERE ticket_status_id <> 3 AND (assigned_email IS NULL OR assigned_email = '')`, nil},
		{&counts.Overdue, `WHERE ticket_status_id <> 3 AND created_date < ?`, []interface{}{dayAgo}},
		{&counts.CreatedLast24h, `WHERE created_date >= ?`, []interface{}{dayAgo}},
		{&counts.RecentOpen, `WHERE created_date >= ? AND ticket_status_id <> 3`, []interface{}{dayAgo}},
	} {
		query := `SELECT COUNT(*) FROM tickets`
		if q.where != "" {
			query += ` ` + q.where
		}
		if err := r.db.GetContext(ctx, q.dest, query, q.args...); err != nil {
			return nil, apperrors.WrapDB("snapshot counts", err)
		}
	}
	return &counts, nil
}

// CreatedPerDay buckets tickets created on or after since by UTC calendar
// day. Bucketing happens here rather than in SQL so every driver groups the
// same way.
func (r *AnalyticsRepository) CreatedPerDay(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	stamps := []time.Time{}
	err := r.db.SelectContext(ctx, &stamps,
		`SELECT created_date FROM tickets WHERE created_date >= ?`,
		timefmt.Normalize(since))
	if err != nil {
		return nil, apperrors.WrapDB("created per day", err)
	}
	return bucketByDay(stamps), nil
}

// ClosedPerDay buckets tickets closed on or after since by UTC calendar day.
func (r *AnalyticsRepository) ClosedPerDay(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	stamps := []time.Time{}
	err := r.db.SelectContext(ctx, &stamps,
		`SELECT closed_date FROM tickets WHERE closed_date IS NOT NULL AND closed_date >= ?`,
		timefmt.Normalize(since))
	if err != nil {
		return nil, apperrors.WrapDB("closed per day", err)
	}
	return bucketByDay(stamps), nil
}

// ResolutionSamples returns the slim rows needed to aggregate resolution
// times: one per closed ticket with a recorded close date.
func (r *AnalyticsRepository) ResolutionSamples(ctx context.Context) ([]models.ResolutionSample, error) {
	out := []models.ResolutionSample{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT severity_id, created_date, closed_date FROM tickets `+
			`WHERE ticket_status_id = 3 AND closed_date IS NOT NULL`)
	if err != nil {
		return nil, apperrors.WrapDB("resolution samples", err)
	}
	return out, nil
}

type severityCount struct {
	SeverityID *int `db:"severity_id"`
	Count      int  `db:"count"`
}

func bucketByDay(stamps []time.Time) []models.DailyCount {
	byDay := map[string]int{}
	for _, ts := range stamps {
		byDay[ts.UTC().Format("2006-01-02")]++
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	out := make([]models.DailyCount, 0, len(days))
	for _, day := range days {
		out = append(out, models.DailyCount{Day: day, Count: byDay[day]})
	}
	return out
}
