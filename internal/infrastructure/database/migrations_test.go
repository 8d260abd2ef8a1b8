package database

import (
	"testing"
	"testing/fstest"
)

func TestParseMigration(t *testing.T) {
	m, err := parseMigration("002_create_allocations.sql", "SELECT 1;")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.ID != "002" || m.Description != "create allocations" || m.SQL != "SELECT 1;" {
		t.Errorf("Unexpected migration %+v", m)
	}

	if _, err := parseMigration("nounderscore.sql", ""); err == nil {
		t.Error("Expected error for filename without id prefix")
	}
}

func TestMigrationFilesSorted(t *testing.T) {
	runner := NewMigrationRunner(nil, fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 10;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
	})

	files, err := runner.getMigrationFiles()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []string{"001_first.sql", "002_second.sql", "010_later.sql"}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	runner := NewMigrationRunner(nil, EmbeddedMigrations())
	files, err := runner.getMigrationFiles()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("Expected 4 embedded migrations, got %v", files)
	}

	seed, err := runner.readMigrationFile(files[2])
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if seed.Description != "seed calendar" {
		t.Errorf("Unexpected seed migration description %q", seed.Description)
	}
}
