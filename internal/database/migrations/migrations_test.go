package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestLoadRunRollback(t *testing.T) {
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) == 0 {
		t.Fatal("Load() returned no migrations")
	}
	for i := 1; i < len(loaded); i++ {
		if loaded[i].Version <= loaded[i-1].Version {
			t.Fatalf("migrations not sorted: %d after %d", loaded[i].Version, loaded[i-1].Version)
		}
	}

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrations.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := Run(db, loaded); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if count != len(loaded) {
		t.Fatalf("expected %d applied migrations, got %d", len(loaded), count)
	}

	if _, err := db.Exec("SELECT COUNT(*) FROM feeds"); err != nil {
		t.Fatalf("feeds table missing after Run(): %v", err)
	}

	// Re-running is a no-op.
	if err := Run(db, loaded); err != nil {
		t.Fatalf("Run() second pass error: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if count != len(loaded) {
		t.Fatalf("expected %d applied migrations after rerun, got %d", len(loaded), count)
	}

	if err := Rollback(db, loaded, 1); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	if _, err := db.Exec("SELECT COUNT(*) FROM feeds"); err == nil {
		t.Fatal("feeds table still present after rollback")
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if count != len(loaded)-1 {
		t.Fatalf("expected %d applied migrations after rollback, got %d", len(loaded)-1, count)
	}
}
