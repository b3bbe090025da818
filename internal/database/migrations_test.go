package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_add_quizzes.up.sql", "CREATE TABLE quizzes (id int);")
	writeFile(t, dir, "002_add_quizzes.down.sql", "DROP TABLE quizzes;")
	writeFile(t, dir, "001_initial_schema.up.sql", "CREATE TABLE competitions (id int);")
	writeFile(t, dir, "003_orphan.down.sql", "SELECT 1;")
	writeFile(t, dir, "README.md", "not a migration")
	writeFile(t, dir, "noversion.up.sql", "SELECT 1;")

	migrations, err := ReadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("ReadMigrationFiles() error = %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != "001" || migrations[1].Version != "002" {
		t.Errorf("migrations not sorted: %s, %s", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Title != "initial schema" {
		t.Errorf("title = %q, want %q", migrations[0].Title, "initial schema")
	}
	if migrations[0].DownSQL != "" {
		t.Error("001 should not have a down migration")
	}
	if migrations[1].DownSQL != "DROP TABLE quizzes;" {
		t.Errorf("unexpected down SQL: %q", migrations[1].DownSQL)
	}
	if migrations[1].Checksum != calculateChecksum("CREATE TABLE quizzes (id int);") {
		t.Error("checksum must be computed from the up migration")
	}
}

func TestValidateChecksums(t *testing.T) {
	migrations := []Migration{
		{Version: "001", Title: "initial", Checksum: "aaa"},
		{Version: "002", Title: "quizzes", Checksum: "bbb"},
	}

	t.Run("matching", func(t *testing.T) {
		if err := validateChecksums(migrations, map[string]string{"001": "aaa"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("legacy row without checksum", func(t *testing.T) {
		if err := validateChecksums(migrations, map[string]string{"001": ""}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("modified", func(t *testing.T) {
		err := validateChecksums(migrations, map[string]string{"001": "aaa", "002": "zzz"})
		if err == nil {
			t.Fatal("expected checksum mismatch error")
		}
		if !strings.Contains(err.Error(), "002") {
			t.Errorf("error should name the modified migration: %v", err)
		}
	})
}

func TestRepositoryMigrationsAreWellFormed(t *testing.T) {
	migrations, err := ReadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("failed to read migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, m := range migrations {
		if m.DownSQL == "" {
			t.Errorf("migration %s has no down file", m.Version)
		}
	}
}
