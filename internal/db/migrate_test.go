package db

import (
	"testing"

	"github.com/banshee-data/activity.report/internal/activity"
)

const migrationsDir = "../../db/migrations"

func TestMigrateUp(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("database left dirty after migration")
	}
	if version == 0 {
		t.Error("expected a non-zero migration version")
	}

	// Running again is a no-op.
	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateSessionColumn(t *testing.T) {
	db := setupTestDB(t)
	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	sample := activity.NewSample(100, activity.LabelReading)
	sample.Metadata = map[string]string{"session_id": "sess-42"}
	if _, err := db.RecordSample(sample); err != nil {
		t.Fatalf("RecordSample failed: %v", err)
	}

	var sessionID string
	err := db.QueryRow("SELECT session_id FROM activities WHERE timestamp = 100").Scan(&sessionID)
	if err != nil {
		t.Fatalf("failed to read generated session column: %v", err)
	}
	if sessionID != "sess-42" {
		t.Errorf("session_id = %q, want sess-42", sessionID)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)
	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	before, _, err := db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}

	if err := db.MigrateDown(migrationsDir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	after, _, err := db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if after >= before {
		t.Errorf("version after rollback = %d, want below %d", after, before)
	}
}
