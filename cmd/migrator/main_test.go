package main

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/Alexandr-Snisarenko/dynamic-routing/migrations"
)

func TestRunMigration_RejectsBeforeConnecting(t *testing.T) {
	err := runMigration(context.Background(), "missing.yaml", "", "drop-everything", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	err = runMigration(context.Background(), "missing.yaml", "", "create", []string{"add_profiles", "sql"})
	if err == nil || !strings.Contains(err.Error(), "needs -dir") {
		t.Fatalf("expected create to require -dir, got %v", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no embedded migrations")
	}
}
