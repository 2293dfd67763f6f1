package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiStamp = "2024-06-15 10:30:00.000"

func TestGetTicketEndpoint(t *testing.T) {
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE ticket_id = ").
			WithArgs(int64(12)).
			WillReturnRows(sqlmock.NewRows(apiTicketCols).AddRow(
				12, "Printer down", "It is broken.", 1,
				nil, nil, nil, 7, nil, created, nil, nil,
				nil, nil, nil, nil, created, nil))

		w := doRequest(router, "GET", "/api/v1/ticket/12", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"Ticket_ID":12`)
		assert.Contains(t, w.Body.String(), `"Status_Label":"New"`)
		assert.Contains(t, w.Body.String(), `"Site_Label":"HQ"`)
		assert.Contains(t, w.Body.String(), `"Created_Date":"2024-06-01 09:00:00.000"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE ticket_id = ").
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(apiTicketCols))

		w := doRequest(router, "GET", "/api/v1/ticket/404", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad id", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())

		w := doRequest(router, "GET", "/api/v1/ticket/twelve", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		assert.Contains(t, w.Body.String(), "positive integer")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTicketEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectExec("INSERT INTO tickets").
			WithArgs("VPN down", "Cannot connect from home.", 1,
				nil, nil, nil, nil, nil, apiStamp,
				nil, nil, nil, nil, nil, nil, apiStamp, nil).
			WillReturnResult(sqlmock.NewResult(88, 1))
		mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE ticket_id = ").
			WithArgs(int64(88)).
			WillReturnRows(sqlmock.NewRows(apiTicketCols).AddRow(
				88, "VPN down", "Cannot connect from home.", 1,
				nil, nil, nil, nil, nil, apiNow, nil, nil,
				nil, nil, nil, nil, apiNow, nil))

		w := doRequest(router, "POST", "/api/v1/ticket",
			`{"subject":"VPN down","body":"Cannot connect from home."}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"Ticket_ID":88`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing body field", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())

		w := doRequest(router, "POST", "/api/v1/ticket", `{"subject":"no body"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid request body")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteTicketEndpoint(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM ticket_messages").
			WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM ticket_attachments").
			WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM tickets").
			WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := doRequest(router, "DELETE", "/api/v1/ticket/5", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM ticket_messages").
			WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM ticket_attachments").
			WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM tickets").
			WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		w := doRequest(router, "DELETE", "/api/v1/ticket/6", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTicketsEndpoint(t *testing.T) {
	router, mock := newTestServer(t, testConfig())
	mock.ExpectQuery("SELECT COUNT(.+) FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT ticket_id, subject(.+)ORDER BY created_date DESC, ticket_id DESC LIMIT ").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(apiTicketCols).
			AddRow(3, "Monitor flickers", "Flickers on boot.", 2,
				nil, nil, nil, nil, nil, time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
				nil, nil, nil, nil, nil, nil, apiNow, nil).
			AddRow(2, "Mouse missing", "Gone since Monday.", 1,
				nil, nil, nil, nil, nil, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
				nil, nil, nil, nil, nil, nil, apiNow, nil))

	w := doRequest(router, "GET", "/api/v1/tickets?days=0", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Contains(t, w.Body.String(), "Monitor flickers")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTicketsRejectsBadSort(t *testing.T) {
	router, mock := newTestServer(t, testConfig())

	w := doRequest(router, "GET", "/api/v1/tickets?sort=evil", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SORT_FIELD")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTicketsEndpoint(t *testing.T) {
	router, mock := newTestServer(t, testConfig())
	cutoff := "2024-05-16 10:30:00.000"
	mock.ExpectQuery("SELECT COUNT(.+) FROM tickets WHERE created_date >= ").
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE created_date >= (.+)LIMIT ").
		WithArgs(cutoff, 500, 0).
		WillReturnRows(sqlmock.NewRows(apiTicketCols).
			AddRow(1, "Printer jammed in the copy room", "The office printer is jammed again.", 1,
				nil, nil, nil, nil, nil, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
				nil, nil, nil, nil, nil, nil, apiNow, nil).
			AddRow(2, "Email outage", "The mail server is not accepting connections.", 2,
				nil, nil, nil, nil, nil, time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
				nil, nil, nil, nil, nil, nil, apiNow, nil))

	w := doRequest(router, "GET", "/api/v1/tickets/search?q=printer", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), "Printer jammed")
	assert.Contains(t, w.Body.String(), `"relevance_score"`)
	assert.NotContains(t, w.Body.String(), "Email outage")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdateEndpoint(t *testing.T) {
	created := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	t.Run("applies updates", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE ticket_id = ").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(apiTicketCols).AddRow(
				4, "Old issue", "Still open.", 2,
				nil, nil, nil, nil, nil, created, nil, nil,
				nil, nil, nil, nil, created, nil))
		mock.ExpectExec("UPDATE tickets SET").
			WithArgs(int64(3), apiStamp, apiStamp, int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT ticket_id, subject(.+)WHERE ticket_id = ").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(apiTicketCols).AddRow(
				4, "Old issue", "Still open.", 3,
				nil, nil, nil, nil, nil, created, nil, nil,
				nil, nil, nil, apiNow, apiNow, nil))

		w := doRequest(router, "POST", "/api/v1/tickets/bulk_update",
			`{"ticket_ids":[4],"updates":{"status":"closed"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"succeeded":1`)
		assert.Contains(t, w.Body.String(), `"ok":true`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty ids", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())

		w := doRequest(router, "POST", "/api/v1/tickets/bulk_update",
			`{"ticket_ids":[],"updates":{"status":"closed"}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ticket_ids must not be empty")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown field", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())

		w := doRequest(router, "POST", "/api/v1/tickets/bulk_update",
			`{"ticket_ids":[4],"updates":{"bogus":"x"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_FIELD")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageEndpoints(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT COUNT(.+) FROM tickets WHERE ticket_id = ").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT id, ticket_id, message").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "ticket_id", "message", "senderusercode", "senderusername", "datetimestamp"}).
				AddRow(1, 9, "Looked at it, needs a part.", nil, "Dana",
					time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)))

		w := doRequest(router, "GET", "/api/v1/ticket/9/messages", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Looked at it, needs a part.")
		assert.Contains(t, w.Body.String(), `"DateTimeStamp":"2024-06-14 08:00:00.000"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("post", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT COUNT(.+) FROM tickets WHERE ticket_id = ").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec("INSERT INTO ticket_messages").
			WithArgs(int64(9), "Replaced the toner.", nil, nil, apiStamp).
			WillReturnResult(sqlmock.NewResult(3, 1))

		w := doRequest(router, "POST", "/api/v1/ticket/9/messages",
			`{"message":"Replaced the toner."}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ID":3`)
		assert.Contains(t, w.Body.String(), "Replaced the toner.")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("post to missing ticket", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT COUNT(.+) FROM tickets WHERE ticket_id = ").
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		w := doRequest(router, "POST", "/api/v1/ticket/404/messages",
			`{"message":"Hello?"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatusBreakdownEndpoint(t *testing.T) {
	router, mock := newTestServer(t, testConfig())
	mock.ExpectQuery("SELECT s.status_label AS label").
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).
			AddRow("New", 4).AddRow("Closed", 2))

	w := doRequest(router, "GET", "/api/v1/analytics/status_breakdown", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"by_status"`)
	assert.Contains(t, w.Body.String(), `"label":"New"`)
	assert.Contains(t, w.Body.String(), `"count":4`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsExportEndpoint(t *testing.T) {
	t.Run("breakdowns csv", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())
		mock.ExpectQuery("SELECT s.status_label AS label").
			WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).AddRow("New", 4))
		mock.ExpectQuery("COALESCE(.+)FROM tickets t LEFT JOIN sites").
			WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).AddRow("HQ", 3))

		w := doRequest(router, "GET", "/api/v1/analytics/export?format=csv", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "helpdesk_breakdowns_")
		assert.Contains(t, w.Body.String(), "status,New,4")
		assert.Contains(t, w.Body.String(), "site,HQ,3")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown dataset", func(t *testing.T) {
		router, mock := newTestServer(t, testConfig())

		w := doRequest(router, "GET", "/api/v1/analytics/export?dataset=bogus", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "dataset must be one of")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
