package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleStatusBreakdown(c *gin.Context) {
	rows, err := s.deps.Analytics.TicketsByStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"by_status": rows})
}

func (s *Server) handleOpenBySite(c *gin.Context) {
	rows, err := s.deps.Analytics.OpenTicketsBySite(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"by_site": rows})
}

func (s *Server) handleSLABreaches(c *gin.Context) {
	days, err := intQuery(c, "days")
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := s.deps.Analytics.SLABreaches(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleOpenByUser(c *gin.Context) {
	report, err := s.deps.Analytics.OpenTicketsByUser(c.Request.Context(), c.Query("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleWaitingOnUser(c *gin.Context) {
	report, err := s.deps.Analytics.TicketsWaitingOnUser(c.Request.Context(), c.Query("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleWorkload(c *gin.Context) {
	report, err := s.deps.Analytics.Workload(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snapshot, err := s.deps.Analytics.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleStats(c *gin.Context) {
	days, err := intQuery(c, "days")
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := s.deps.Analytics.Stats(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleSLAMetrics(c *gin.Context) {
	report, err := s.deps.Analytics.SLAMetrics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleAnalyticsExport streams a dataset as a CSV or XLSX download.
// Datasets: breakdowns (status + site), stats (per-day counts), tickets
// (the filtered listing, same query parameters as /tickets).
func (s *Server) handleAnalyticsExport(c *gin.Context) {
	ctx := c.Request.Context()
	dataset := strings.ToLower(c.DefaultQuery("dataset", "breakdowns"))
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		writeError(c, apperrors.NewValidationError("format must be csv or xlsx",
			map[string]any{"format": format}))
		return
	}

	var payload []byte
	var err error
	switch dataset {
	case "breakdowns":
		byStatus, sErr := s.deps.Analytics.TicketsByStatus(ctx)
		if sErr != nil {
			writeError(c, sErr)
			return
		}
		bySite, sErr := s.deps.Analytics.OpenTicketsBySite(ctx)
		if sErr != nil {
			writeError(c, sErr)
			return
		}
		if format == "xlsx" {
			payload, err = s.deps.Export.BreakdownsXLSX(byStatus, bySite)
		} else {
			payload, err = s.deps.Export.BreakdownsCSV(byStatus, bySite)
		}
	case "stats":
		days, qErr := intQuery(c, "days")
		if qErr != nil {
			writeError(c, qErr)
			return
		}
		stats, sErr := s.deps.Analytics.Stats(ctx, days)
		if sErr != nil {
			writeError(c, sErr)
			return
		}
		if format == "xlsx" {
			payload, err = s.deps.Export.StatsXLSX(stats)
		} else {
			payload, err = s.deps.Export.StatsCSV(stats)
		}
	case "tickets":
		p, qErr := searchParamsFromQuery(c)
		if qErr != nil {
			writeError(c, qErr)
			return
		}
		p.Query = ""
		if p.Limit <= 0 {
			p.Limit = 100
		}
		page, sErr := s.deps.Search.List(ctx, p)
		if sErr != nil {
			writeError(c, sErr)
			return
		}
		if format == "xlsx" {
			payload, err = s.deps.Export.TicketsXLSX(page.Tickets)
		} else {
			payload, err = s.deps.Export.TicketsCSV(page.Tickets)
		}
	default:
		writeError(c, apperrors.NewValidationError(
			"dataset must be one of breakdowns, stats, tickets",
			map[string]any{"dataset": dataset}))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("helpdesk_%s_%s.%s",
		dataset, time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	contentType := "text/csv"
	if format == "xlsx" {
		contentType = xlsxContentType
	}
	c.Data(http.StatusOK, contentType, payload)
}
