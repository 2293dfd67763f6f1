package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
)

func newMockRefs(t *testing.T, store cache.Store) (*ReferenceRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	db, err := database.New(mockDB, "sqlite")
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	return NewReferenceRepository(db, store), mock
}

func TestReferenceStatusesCacheAside(t *testing.T) {
	refs, mock := newMockRefs(t, cache.NewLocalCache(100, time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT status_id, status_label FROM statuses ORDER BY status_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "status_label"}).
			AddRow(1, "New").
			AddRow(3, "Closed"))

	ctx := context.Background()
	first, err := refs.Statuses(ctx)
	if err != nil {
		t.Fatalf("Statuses failed: %v", err)
	}
	if len(first) != 2 || first[0].StatusLabel != "New" {
		t.Fatalf("unexpected statuses %+v", first)
	}

	// The single query expectation above means a second database hit would
	// fail the test; this call must come from the cache.
	second, err := refs.Statuses(ctx)
	if err != nil {
		t.Fatalf("cached Statuses failed: %v", err)
	}
	if len(second) != 2 || second[1].StatusID != 3 {
		t.Fatalf("unexpected cached statuses %+v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReferenceStatusLabelsWithoutCache(t *testing.T) {
	refs, mock := newMockRefs(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT status_id, status_label FROM statuses ORDER BY status_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "status_label"}).
			AddRow(1, "New").
			AddRow(2, "In Progress"))

	labels, err := refs.StatusLabels(context.Background())
	if err != nil {
		t.Fatalf("StatusLabels failed: %v", err)
	}
	if labels[2] != "In Progress" {
		t.Fatalf("unexpected labels %v", labels)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReferenceAll(t *testing.T) {
	refs, mock := newMockRefs(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT status_id, status_label FROM statuses ORDER BY status_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "status_label"}).AddRow(1, "New"))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT site_id, site_label FROM sites ORDER BY site_label, site_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"site_id", "site_label"}).AddRow(7, "HQ"))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT category_id, category_label FROM ticket_categories ORDER BY category_label, category_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "category_label"}).AddRow(2, "Hardware"))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT asset_id, asset_label, site_id FROM assets ORDER BY asset_label, asset_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "asset_label", "site_id"}).AddRow(11, "PRN-01", 7))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT vendor_id, vendor_name FROM vendors ORDER BY vendor_name, vendor_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id", "vendor_name"}).AddRow(5, "Acme Support"))

	data, err := refs.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(data.Statuses) != 1 || len(data.Sites) != 1 || len(data.Categories) != 1 ||
		len(data.Assets) != 1 || len(data.Vendors) != 1 {
		t.Fatalf("unexpected bundle %+v", data)
	}
	if data.Assets[0].SiteID == nil || *data.Assets[0].SiteID != 7 {
		t.Fatalf("asset site not scanned: %+v", data.Assets[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
