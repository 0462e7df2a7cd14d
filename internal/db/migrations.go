package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: listing filters on status and orders by creation time.
	`CREATE INDEX IF NOT EXISTS idx_demands_status_created
	     ON demands(status, created_at)`,
	// Migration 2: buyers list their own demands, farmers the ones they answered.
	`CREATE INDEX IF NOT EXISTS idx_demands_buyer ON demands(buyer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_seller ON demands(seller_id)`,
	// Migration 3: notification inbox.
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created
	     ON notifications(user_id, created_at)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
