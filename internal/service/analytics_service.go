package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/sla"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

const (
	// heavyOpenThreshold marks an assignee as heavily loaded.
	heavyOpenThreshold = 10
	// DefaultBreachDays is the default age at which an open ticket counts as
	// breached in the day-based report.
	DefaultBreachDays = 3
	defaultStatsDays  = 30
)

// AnalyticsService computes the reporting payloads: breakdowns, workload,
// snapshot, time series, and SLA compliance.
type AnalyticsService struct {
	analytics  *repository.AnalyticsRepository
	tickets    *repository.TicketRepository
	sla        *sla.Calculator
	breachDays int
	now        func() time.Time
}

// NewAnalyticsService builds an analytics service. breachDays <= 0 takes the
// default; a nil calculator uses calendar time.
func NewAnalyticsService(analytics *repository.AnalyticsRepository, tickets *repository.TicketRepository, slaCalc *sla.Calculator, breachDays int) *AnalyticsService {
	if slaCalc == nil {
		slaCalc = sla.NewCalculator(false)
	}
	if breachDays <= 0 {
		breachDays = DefaultBreachDays
	}
	return &AnalyticsService{
		analytics:  analytics,
		tickets:    tickets,
		sla:        slaCalc,
		breachDays: breachDays,
		now:        time.Now,
	}
}

// NewAnalyticsServiceAt is NewAnalyticsService with an injected clock, for
// tests.
func NewAnalyticsServiceAt(analytics *repository.AnalyticsRepository, tickets *repository.TicketRepository, slaCalc *sla.Calculator, breachDays int, now func() time.Time) *AnalyticsService {
	s := NewAnalyticsService(analytics, tickets, slaCalc, breachDays)
	if now != nil {
		s.now = now
	}
	return s
}

// TicketsByStatus returns ticket counts per status label.
func (s *AnalyticsService) TicketsByStatus(ctx context.Context) ([]models.LabelCount, error) {
	return s.analytics.CountsByStatus(ctx)
}

// TicketsByPriority returns ticket counts per priority band.
func (s *AnalyticsService) TicketsByPriority(ctx context.Context) ([]models.LabelCount, error) {
	return s.analytics.CountsByPriority(ctx)
}

// OpenTicketsBySite returns open-ticket counts per site.
func (s *AnalyticsService) OpenTicketsBySite(ctx context.Context) ([]models.LabelCount, error) {
	return s.analytics.OpenCountsBySite(ctx)
}

// SLABreaches lists open tickets older than the given number of days, oldest
// first. days <= 0 takes the configured default.
func (s *AnalyticsService) SLABreaches(ctx context.Context, days int) (*models.SLABreachReport, error) {
	if days <= 0 {
		days = s.breachDays
	}
	cutoff := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	tickets, err := s.tickets.OpenOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return &models.SLABreachReport{
		SLADays: days,
		Count:   len(tickets),
		Tickets: summariesOf(tickets),
	}, nil
}

// OpenTicketsByUser lists open tickets where the identifier matches the
// contact or assignee, by name or email.
func (s *AnalyticsService) OpenTicketsByUser(ctx context.Context, identifier string) (*models.UserTickets, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.NewValidationError("user identifier is required", nil)
	}
	tickets, err := s.tickets.OpenForUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &models.UserTickets{
		Identifier: identifier,
		Count:      len(tickets),
		Tickets:    summariesOf(tickets),
	}, nil
}

// TicketsWaitingOnUser lists tickets in waiting status matched to the
// identifier.
func (s *AnalyticsService) TicketsWaitingOnUser(ctx context.Context, identifier string) (*models.UserTickets, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.NewValidationError("user identifier is required", nil)
	}
	tickets, err := s.tickets.WaitingOnUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &models.UserTickets{
		Identifier: identifier,
		Count:      len(tickets),
		Tickets:    summariesOf(tickets),
	}, nil
}

// Workload reports the open-ticket distribution across assignees.
func (s *AnalyticsService) Workload(ctx context.Context) (*models.WorkloadReport, error) {
	loads, err := s.analytics.OpenByAssignee(ctx)
	if err != nil {
		return nil, err
	}
	unassigned, err := s.analytics.UnassignedOpen(ctx)
	if err != nil {
		return nil, err
	}
	heavy := 0
	for i := range loads {
		if loads[i].Open > heavyOpenThreshold {
			loads[i].Heavy = true
			heavy++
		}
	}
	return &models.WorkloadReport{
		Assignees:      loads,
		UnassignedOpen: unassigned,
		HeavyCount:     heavy,
	}, nil
}

// Snapshot assembles the operational overview. The health score starts at 100
// and loses two points per ticket opened in the last 24 hours that is still
// open.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*models.SystemSnapshot, error) {
	now := s.now().UTC()
	counts, err := s.analytics.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.analytics.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.analytics.CountsByPriority(ctx)
	if err != nil {
		return nil, err
	}

	score := 100 - 2*counts.RecentOpen
	if score < 0 {
		score = 0
	}
	health := "critical"
	switch {
	case score > 80:
		health = "healthy"
	case score > 60:
		health = "degraded"
	}

	return &models.SystemSnapshot{
		GeneratedAt:     timefmt.Normalize(now),
		TotalTickets:    counts.Total,
		OpenTickets:     counts.Open,
		ClosedTickets:   counts.Closed,
		Unassigned:      counts.UnassignedOpen,
		Overdue:         counts.Overdue,
		CreatedLast24h:  counts.CreatedLast24h,
		RecentOpenCount: counts.RecentOpen,
		HealthScore:     score,
		Health:          health,
		ByStatus:        byStatus,
		ByPriority:      byPriority,
	}, nil
}

// Stats builds the per-day created/closed series over the trailing window,
// zero-filling days without activity. days <= 0 takes 30.
func (s *AnalyticsService) Stats(ctx context.Context, days int) (*models.TicketStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	now := s.now().UTC()
	from := now.AddDate(0, 0, -(days - 1))
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	created, err := s.analytics.CreatedPerDay(ctx, fromDay)
	if err != nil {
		return nil, err
	}
	closed, err := s.analytics.ClosedPerDay(ctx, fromDay)
	if err != nil {
		return nil, err
	}
	createdBy := countsByDay(created)
	closedBy := countsByDay(closed)

	stats := &models.TicketStats{
		Days: days,
		From: fromDay.Format("2006-01-02"),
		To:   now.Format("2006-01-02"),
	}
	for d := fromDay; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		stats.Series = append(stats.Series, models.DailyStat{
			Date:    key,
			Created: createdBy[key],
			Closed:  closedBy[key],
		})
		stats.TotalCreated += createdBy[key]
		stats.TotalClosed += closedBy[key]
	}
	return stats, nil
}

// SLAMetrics aggregates closed tickets into per-priority compliance figures.
// A closed ticket breaches when its close date passed the priority's window.
func (s *AnalyticsService) SLAMetrics(ctx context.Context) (*models.SLAMetricsReport, error) {
	samples, err := s.analytics.ResolutionSamples(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		n        int
		breaches int
		hours    float64
	}
	byLabel := map[string]*agg{}
	for _, sample := range samples {
		label := fieldmap.PriorityLabel(sample.SeverityID)
		a := byLabel[label]
		if a == nil {
			a = &agg{}
			byLabel[label] = a
		}
		a.n++
		a.hours += sample.ClosedDate.Sub(sample.CreatedDate).Hours()
		if sample.ClosedDate.After(s.sla.Due(sample.CreatedDate, sample.SeverityID)) {
			a.breaches++
		}
	}

	bands := []struct {
		label    string
		severity int
	}{
		{"Critical", 1},
		{"High", 2},
		{"Medium", 3},
		{"Low", 4},
	}
	priorities := make([]models.PrioritySLAMetric, 0, len(bands))
	for _, band := range bands {
		sev := band.severity
		m := models.PrioritySLAMetric{
			Priority:       band.label,
			TargetHours:    int(s.sla.Window(&sev).Hours()),
			ComplianceRate: 1,
		}
		if a := byLabel[band.label]; a != nil && a.n > 0 {
			m.ClosedTickets = a.n
			m.Breaches = a.breaches
			m.ComplianceRate = round2(float64(a.n-a.breaches) / float64(a.n))
			m.AvgResolutionHours = round2(a.hours / float64(a.n))
		}
		priorities = append(priorities, m)
	}
	return &models.SLAMetricsReport{
		GeneratedAt: timefmt.Normalize(s.now().UTC()),
		Priorities:  priorities,
	}, nil
}

func countsByDay(counts []models.DailyCount) map[string]int {
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.Day] = c.Count
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
