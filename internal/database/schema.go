package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist and seeds the fixed status
// vocabulary. It is idempotent and safe to run at every startup.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range schemaStatements(d.adapter.Name()) {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return seedStatuses(ctx, d)
}

// schemaStatements returns the DDL for the given backend. MySQL gets inline
// index clauses because it lacks CREATE INDEX IF NOT EXISTS; the others get
// separate index statements.
func schemaStatements(driver string) []string {
	var pk, dt string
	switch driver {
	case "mysql":
		pk = "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
		dt = "DATETIME(3)"
	case "postgres":
		pk = "BIGSERIAL PRIMARY KEY"
		dt = "TIMESTAMP(3)"
	default:
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
		dt = "DATETIME"
	}

	ticketIndexes := ""
	messageIndexes := ""
	attachmentIndexes := ""
	if driver == "mysql" {
		ticketIndexes = `,
    INDEX idx_tickets_status (ticket_status_id),
    INDEX idx_tickets_created (created_date),
    INDEX idx_tickets_assigned (assigned_email),
    INDEX idx_tickets_site (site_id)`
		messageIndexes = `,
    INDEX idx_messages_ticket (ticket_id)`
		attachmentIndexes = `,
    INDEX idx_attachments_ticket (ticket_id)`
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tickets (
    ticket_id %s,
    subject VARCHAR(500) NOT NULL,
    ticket_body TEXT NOT NULL,
    ticket_status_id INTEGER NOT NULL DEFAULT 1,
    ticket_contact_name VARCHAR(255),
    ticket_contact_email VARCHAR(255),
    asset_id BIGINT,
    site_id BIGINT,
    ticket_category_id BIGINT,
    created_date %s NOT NULL,
    assigned_name VARCHAR(255),
    assigned_email VARCHAR(255),
    priority_id INTEGER,
    severity_id INTEGER,
    assigned_vendor_id BIGINT,
    closed_date %s,
    lastmodified %s NOT NULL,
    resolution TEXT%s
)`, pk, dt, dt, dt, ticketIndexes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ticket_messages (
    id %s,
    ticket_id BIGINT NOT NULL,
    message TEXT NOT NULL,
    senderusercode VARCHAR(64),
    senderusername VARCHAR(255),
    datetimestamp %s NOT NULL%s
)`, pk, dt, messageIndexes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ticket_attachments (
    id %s,
    ticket_id BIGINT NOT NULL,
    file_name VARCHAR(512) NOT NULL,
    file_size BIGINT NOT NULL DEFAULT 0,
    content_type VARCHAR(255),
    storage_key VARCHAR(512),
    uploaded_date %s NOT NULL%s
)`, pk, dt, attachmentIndexes),
		`CREATE TABLE IF NOT EXISTS statuses (
    status_id INTEGER PRIMARY KEY,
    status_label VARCHAR(64) NOT NULL
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sites (
    site_id %s,
    site_label VARCHAR(255) NOT NULL
)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ticket_categories (
    category_id %s,
    category_label VARCHAR(255) NOT NULL
)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS assets (
    asset_id %s,
    asset_label VARCHAR(255) NOT NULL,
    site_id BIGINT
)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vendors (
    vendor_id %s,
    vendor_name VARCHAR(255) NOT NULL
)`, pk),
	}

	if driver != "mysql" {
		stmts = append(stmts,
			"CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (ticket_status_id)",
			"CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets (created_date)",
			"CREATE INDEX IF NOT EXISTS idx_tickets_assigned ON tickets (assigned_email)",
			"CREATE INDEX IF NOT EXISTS idx_tickets_site ON tickets (site_id)",
			"CREATE INDEX IF NOT EXISTS idx_messages_ticket ON ticket_messages (ticket_id)",
			"CREATE INDEX IF NOT EXISTS idx_attachments_ticket ON ticket_attachments (ticket_id)",
		)
	}

	return stmts
}

// seedStatuses inserts the fixed status vocabulary when the table is empty.
func seedStatuses(ctx context.Context, d *DB) error {
	var count int
	if err := d.GetContext(ctx, &count, "SELECT COUNT(*) FROM statuses"); err != nil {
		return fmt.Errorf("count statuses: %w", err)
	}
	if count > 0 {
		return nil
	}

	labels := []struct {
		id    int
		label string
	}{
		{1, "New"},
		{2, "In Progress"},
		{3, "Closed"},
		{4, "Waiting on Customer"},
		{5, "Assigned"},
		{6, "Pending Review"},
		{7, "Cancelled"},
		{8, "Reopened"},
	}
	for _, s := range labels {
		_, err := d.ExecContext(ctx,
			"INSERT INTO statuses (status_id, status_label) VALUES (?, ?)", s.id, s.label)
		if err != nil {
			return fmt.Errorf("seed status %d: %w", s.id, err)
		}
	}
	return nil
}
