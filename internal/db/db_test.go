package db

import (
	"testing"
)

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)

	// NewTestDB already migrated once.
	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var on int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("expected foreign_keys=1, got %d", on)
	}
}

func TestSellerStatusConstraint(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO users (id, name, email, password_hash, role)
		VALUES ('b', 'Buyer', 'b@example.com', 'x', 'buyer')`)
	if err != nil {
		t.Fatalf("inserting user: %v", err)
	}

	// An open demand with a seller violates the table check.
	_, err = database.Exec(`INSERT INTO demands (id, buyer_id, seller_id, commodity, quantity, status)
		VALUES ('d1', 'b', 'b', 'tomato', 1, 'open')`)
	if err == nil {
		t.Error("expected check constraint failure for open demand with seller")
	}

	// An accepted demand without a seller violates it too.
	_, err = database.Exec(`INSERT INTO demands (id, buyer_id, commodity, quantity, status)
		VALUES ('d2', 'b', 'tomato', 1, 'accepted')`)
	if err == nil {
		t.Error("expected check constraint failure for accepted demand without seller")
	}
}
