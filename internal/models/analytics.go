package models

import "time"

// LabelCount is one bucket of a grouped count, keyed by a human label.
type LabelCount struct {
	Label string `json:"label" db:"label"`
	Count int    `json:"count" db:"count"`
}

// AssigneeLoad is one assignee's share of the open workload. Heavy is set by
// the analytics service when the open count crosses its threshold.
type AssigneeLoad struct {
	Name  *string `json:"assignee_name,omitempty" db:"assigned_name"`
	Email string  `json:"assignee_email" db:"assigned_email"`
	Open  int     `json:"open_count" db:"open_count"`
	Heavy bool    `json:"heavy" db:"-"`
}

// WorkloadReport is the per-assignee open-ticket distribution.
type WorkloadReport struct {
	Assignees      []AssigneeLoad `json:"assignees"`
	UnassignedOpen int            `json:"unassigned_open"`
	HeavyCount     int            `json:"heavy_count"`
}

// SystemSnapshot is the operational overview: lifetime totals, the last-24h
// pulse, and a coarse health grade derived from how much of the recent intake
// is still open.
type SystemSnapshot struct {
	GeneratedAt     string       `json:"generated_at"`
	TotalTickets    int          `json:"total_tickets"`
	OpenTickets     int          `json:"open_tickets"`
	ClosedTickets   int          `json:"closed_tickets"`
	Unassigned      int          `json:"unassigned_tickets"`
	Overdue         int          `json:"overdue_tickets"`
	CreatedLast24h  int          `json:"created_last_24h"`
	RecentOpenCount int          `json:"recent_open_count"`
	HealthScore     int          `json:"health_score"`
	Health          string       `json:"health"`
	ByStatus        []LabelCount `json:"by_status"`
	ByPriority      []LabelCount `json:"by_priority"`
}

// DailyCount is one day's tally in a time-series rollup. Day is a YYYY-MM-DD
// string keyed on the UTC calendar day.
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// DailyStat merges the created and closed tallies for one day.
type DailyStat struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Closed  int    `json:"closed"`
}

// TicketStats is the per-day created/closed series over a trailing window.
type TicketStats struct {
	Days         int         `json:"days"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Series       []DailyStat `json:"series"`
	TotalCreated int         `json:"total_created"`
	TotalClosed  int         `json:"total_closed"`
}

// ResolutionSample is one closed ticket's resolution span, scanned slim for
// SLA metric aggregation.
type ResolutionSample struct {
	SeverityID  *int      `db:"severity_id"`
	CreatedDate time.Time `db:"created_date"`
	ClosedDate  time.Time `db:"closed_date"`
}

// PrioritySLAMetric aggregates closed tickets for one priority band.
type PrioritySLAMetric struct {
	Priority           string  `json:"priority"`
	TargetHours        int     `json:"target_hours"`
	ClosedTickets      int     `json:"closed_tickets"`
	Breaches           int     `json:"breaches"`
	ComplianceRate     float64 `json:"compliance_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

// SLAMetricsReport is the per-priority SLA rollup over closed tickets.
type SLAMetricsReport struct {
	GeneratedAt string              `json:"generated_at"`
	Priorities  []PrioritySLAMetric `json:"priorities"`
}

// SLABreachReport lists open tickets older than the breach window, oldest
// first.
type SLABreachReport struct {
	SLADays int          `json:"sla_days"`
	Count   int          `json:"count"`
	Tickets []TicketView `json:"tickets"`
}

// UserTickets lists the tickets matched to one user identifier.
type UserTickets struct {
	Identifier string       `json:"identifier"`
	Count      int          `json:"count"`
	Tickets    []TicketView `json:"tickets"`
}
