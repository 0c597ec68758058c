package db

import (
	"strings"
	"testing"
)

const poolMigrationTestPrefix = "db:pool_migration_test"

func TestFormatMigrationDown(t *testing.T) {
	files := []Migration{{Name: "001_accounts.sql"}, {Name: "002_catalog.sql"}}

	tests := []struct {
		name    string
		applied bool
		files   []Migration
		want    []string
		absent  []string
	}{
		{"not applied", false, files, []string{"nothing to roll back"}, []string{"001_accounts.sql"}},
		{"applied lists newest first", true, files, []string{"forward-only", "  002_catalog.sql\n  001_accounts.sql\n"}, nil},
		{"applied without files", true, nil, []string{"forward-only"}, []string{"newest first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMigrationDown(tt.applied, tt.files)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("%s - output %q missing %q", poolMigrationTestPrefix, got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("%s - output %q should not contain %q", poolMigrationTestPrefix, got, a)
				}
			}
		})
	}
}

func TestFormatMigrationStatus(t *testing.T) {
	files := []Migration{{Name: "001_accounts.sql"}, {Name: "002_catalog.sql"}}

	applied := formatMigrationStatus(true, files, "migrations")
	if !strings.Contains(applied, "applied (schema present, 2 migration files in migrations)") {
		t.Errorf("%s - applied status = %q", poolMigrationTestPrefix, applied)
	}
	pending := formatMigrationStatus(false, files, "migrations")
	if !strings.Contains(pending, "router migrate up") {
		t.Errorf("%s - pending status = %q", poolMigrationTestPrefix, pending)
	}
}
