package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/search"
)

// filterParamKeys are the semantic filter fields accepted as query
// parameters. Values stay strings; the field mapper coerces them.
var filterParamKeys = []string{
	"status", "priority", "assignee_email", "unassigned_only",
	"site_id", "category", "resolution",
}

func searchParamsFromQuery(c *gin.Context) (search.Params, error) {
	p := search.Params{
		Query:          c.Query("q"),
		Sort:           c.Query("sort"),
		UserIdentifier: c.Query("user"),
		CreatedAfter:   c.Query("created_after"),
		CreatedBefore:  c.Query("created_before"),
	}

	var err error
	if p.Limit, err = intQuery(c, "limit"); err != nil {
		return p, err
	}
	if p.Offset, err = intQuery(c, "offset"); err != nil {
		return p, err
	}
	if raw, ok := c.GetQuery("days"); ok && raw != "" {
		n, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil {
			return p, apperrors.NewValidationError("days must be an integer",
				map[string]any{"days": raw})
		}
		p.Days = &n
	}

	filters := make(map[string]any)
	for _, key := range filterParamKeys {
		if v, ok := c.GetQuery(key); ok {
			filters[key] = v
		}
	}
	if len(filters) > 0 {
		p.Filters = filters
	}
	return p, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperrors.NewValidationError(name+" must be an integer",
			map[string]any{name: raw})
	}
	return n, nil
}

func (s *Server) handleListTickets(c *gin.Context) {
	p, err := searchParamsFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	// Listing is filter-only; text queries belong to /tickets/search.
	p.Query = ""
	page, err := s.deps.Search.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleSearchTickets(c *gin.Context) {
	p, err := searchParamsFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := s.deps.Search.Search(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBulkUpdate(c *gin.Context) {
	var req models.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.TicketIDs) == 0 {
		c.JSON(http.StatusUnprocessableEntity,
			apperrors.NewResponse(apperrors.CodeValidation, "ticket_ids must not be empty", nil, time.Now()))
		return
	}
	resp, err := s.deps.Search.BulkUpdate(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
