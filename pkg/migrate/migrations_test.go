package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestValidateDirReportsAllProblems(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "20250110090000_missing_down.sql"), []byte("-- +goose Up\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad-name.sql") || !strings.Contains(msg, "missing_down") {
		t.Fatalf("expected both problems reported, got: %v", err)
	}
}

func TestCoreTablesHaveMigrations(t *testing.T) {
	for _, table := range []string{"users", "orders", "ledger_entries", "activities"} {
		pattern := filepath.Join("migrations", "*_create_"+table+"_table.sql")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected exactly one migration for %s, got %v", table, matches)
		}
	}
}
