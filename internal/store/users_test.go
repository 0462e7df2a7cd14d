package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Test User", "test@example.com", "hash123", model.RoleBuyer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Name != "Test User" {
		t.Errorf("expected name 'Test User', got %q", user.Name)
	}
	if user.Role != model.RoleBuyer {
		t.Errorf("expected role 'buyer', got %q", user.Role)
	}
	if user.ID == "" {
		t.Error("expected generated id")
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "test@example.com" {
		t.Errorf("expected email 'test@example.com', got %q", got.Email)
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "Alice", "alice@example.com", "hash", model.RoleAdmin)

	user, err := GetUserByEmail(ctx, database, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Name != "Alice" {
		t.Errorf("expected 'Alice', got %q", user.Name)
	}

	missing, err := GetUserByEmail(ctx, database, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "A", "dup@example.com", "hash", model.RoleBuyer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "B", "dup@example.com", "hash", model.RoleFarmer); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "A", "a@example.com", "hash", model.RoleBuyer)
	CreateUser(ctx, database, "B", "b@example.com", "hash", model.RoleFarmer)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Gone", "gone@example.com", "hash", model.RoleBuyer)
	DeleteUser(ctx, database, user.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	byEmail, _ := GetUserByEmail(ctx, database, "gone@example.com")
	if byEmail != nil {
		t.Error("expected deleted user to be hidden from email lookup")
	}

	// The email is free again.
	if _, err := CreateUser(ctx, database, "New", "gone@example.com", "hash", model.RoleBuyer); err != nil {
		t.Errorf("re-using email of deleted user: %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Pw", "pw@example.com", "oldhash", model.RoleBuyer)
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}

func TestUpdatePushToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Phone", "phone@example.com", "hash", model.RoleFarmer)
	if err := UpdatePushToken(ctx, database, user.ID, "device-token"); err != nil {
		t.Fatalf("UpdatePushToken: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PushToken != "device-token" {
		t.Errorf("expected push token 'device-token', got %q", got.PushToken)
	}
}
