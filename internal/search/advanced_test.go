package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func labeledTicket(id int64, subject, body, status, priority, site string, age time.Duration) models.Ticket {
	t := seedTicket(id, subject, body, age)
	t.StatusLabel = &status
	t.PriorityLevel = &priority
	if site != "" {
		t.SiteLabel = &site
	}
	return t
}

func TestAdvancedSearchAggregations(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{
		labeledTicket(1, "Printer jam", "Printer is jammed.", "In Progress", "High", "HQ", time.Hour),
		labeledTicket(2, "Printer slow", "Printer prints slowly.", "New", "High", "HQ", 2*time.Hour),
		labeledTicket(3, "Printer noise", "Printer rattles.", "New", "Low", "", 3*time.Hour),
	}}
	o := newTestOrchestrator(store)

	resp, err := o.AdvancedSearch(context.Background(), AdvancedParams{
		Params: Params{Query: "printer"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Aggregations)

	assert.Equal(t, map[string]int{"In Progress": 1, "New": 2}, resp.Aggregations.ByStatus)
	assert.Equal(t, map[string]int{"High": 2, "Low": 1}, resp.Aggregations.ByPriority)
	assert.Equal(t, map[string]int{"HQ": 2, "Unknown": 1}, resp.Aggregations.BySite)
	assert.Equal(t, map[string]int{"Unknown": 3}, resp.Aggregations.ByCategory)
	assert.Equal(t, 3, resp.Total)
}

func TestAdvancedSearchAggregatesMatchesOnly(t *testing.T) {
	store := &fakeStore{tickets: []models.Ticket{
		labeledTicket(1, "Printer jam", "Printer is jammed.", "New", "High", "HQ", time.Hour),
		labeledTicket(2, "Password reset", "User forgot their password.", "Closed", "Low", "HQ", 2*time.Hour),
	}}
	o := newTestOrchestrator(store)

	resp, err := o.AdvancedSearch(context.Background(), AdvancedParams{
		Params: Params{Query: "printer"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, map[string]int{"New": 1}, resp.Aggregations.ByStatus)
	_, hasClosed := resp.Aggregations.ByStatus["Closed"]
	assert.False(t, hasClosed, "non-matching candidates stay out of the breakdowns")
}

func TestAdvancedSearchWithoutText(t *testing.T) {
	store := &fakeStore{
		tickets: []models.Ticket{
			labeledTicket(1, "A", "a", "New", "High", "HQ", time.Hour),
			labeledTicket(2, "B", "b", "New", "Low", "HQ", 2*time.Hour),
		},
		total: 950,
	}
	o := newTestOrchestrator(store)

	resp, err := o.AdvancedSearch(context.Background(), AdvancedParams{
		Params: Params{Limit: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 950, resp.Total, "total reports the full match count")
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, map[string]int{"New": 2}, resp.Aggregations.ByStatus,
		"aggregations cover the candidate window, not just the page")

	q := store.lastQuery(t)
	assert.Equal(t, defaultCandidateCap, q.Limit)
	assert.Equal(t, 0, q.Offset, "pagination happens in memory after aggregation")
	assert.Zero(t, resp.Results[0].Score)
	assert.NotEmpty(t, resp.Results[0].Metadata.AgeHuman, "metadata attached without ranking")
}

func TestAdvancedSearchIncludes(t *testing.T) {
	code := "JDOE"
	store := &fakeStore{
		tickets: []models.Ticket{
			labeledTicket(1, "Printer jam", "Printer is jammed.", "New", "High", "HQ", time.Hour),
			labeledTicket(2, "Printer slow", "Printer crawls.", "New", "Low", "HQ", 2*time.Hour),
		},
		messages: map[int64][]models.TicketMessage{
			1: {{ID: 10, TicketID: 1, Message: "Rebooted it.", SenderUserCode: &code, DateTimeStamp: searchNow}},
		},
		attachments: map[int64][]models.TicketAttachment{
			1: {{ID: 20, TicketID: 1, FileName: "jam.jpg"}},
		},
	}
	o := newTestOrchestrator(store)

	resp, err := o.AdvancedSearch(context.Background(), AdvancedParams{
		Params:             Params{Query: "printer", Limit: 1},
		IncludeMessages:    true,
		IncludeAttachments: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].Messages, 1)
	assert.Equal(t, "Rebooted it.", resp.Results[0].Messages[0].Message)
	require.Len(t, resp.Results[0].Attachments, 1)
	assert.Equal(t, "jam.jpg", resp.Results[0].Attachments[0].FileName)
	assert.Equal(t, 1, store.msgCalls, "threads are fetched for the page only")
}

func TestAdvancedSearchComplexity(t *testing.T) {
	tickets := []models.Ticket{
		labeledTicket(1, "Printer jam", "Printer is jammed.", "New", "High", "HQ", time.Hour),
	}

	tests := []struct {
		name string
		p    AdvancedParams
		want string
	}{
		{
			name: "bare listing",
			p:    AdvancedParams{Params: Params{Days: intp(0)}},
			want: "simple",
		},
		{
			name: "text with default window",
			p:    AdvancedParams{Params: Params{Query: "printer"}},
			want: "simple",
		},
		{
			name: "text with filters",
			p: AdvancedParams{Params: Params{
				Query:   "printer",
				Filters: map[string]any{"status": "open", "priority": "high"},
			}},
			want: "medium",
		},
		{
			name: "text with both includes",
			p: AdvancedParams{
				Params:             Params{Query: "printer"},
				IncludeMessages:    true,
				IncludeAttachments: true,
			},
			want: "complex",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(&fakeStore{tickets: tickets})
			resp, err := o.AdvancedSearch(context.Background(), tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.QueryComplexity)
		})
	}
}

func TestAdvancedSearchPageClampsAtBulkLimit(t *testing.T) {
	o := newTestOrchestrator(&fakeStore{})

	resp, err := o.AdvancedSearch(context.Background(), AdvancedParams{
		Params: Params{Limit: 9000},
	})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxBulkLimit, resp.Limit)
}
