package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Enable foreign key constraints
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := createTables(db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedTestUser inserts a user row and returns its id
func seedTestUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()

	id := "user-" + username
	_, err := db.Exec(
		`INSERT INTO users (id, username, password_hash, is_admin, active, created_at, updated_at)
		 VALUES (?, ?, 'hash', 0, 1, 0, 0)`, id, username,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}
