package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mosques/internal/config"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("postgres").IsValid() {
		t.Error("postgres should be invalid")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "bad type", cfg: Config{Type: "x"}, wantErr: "invalid backend type"},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: "SQLite database path"},
		{name: "sheets without id", cfg: Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, wantErr: "Spreadsheet ID"},
		{name: "sheets without credentials", cfg: Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, wantErr: "service account"},
		{name: "sheets ok", cfg: Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", GoogleServiceAccountFile: "sa.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:                  "sheets",
		GoogleSpreadsheetID:          "id",
		GoogleApplicationCredentials: "/etc/sa.json",
		DataDir:                      "seed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleServiceAccountFile != "/etc/sa.json" || cfg.DataDirectory != "seed" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	users, _ := res.Store.ListUsers(context.Background())
	if len(users) != 2 {
		t.Fatalf("expected demo users, got %d", len(users))
	}
	geo, _ := res.Store.ListGovernorateZones(context.Background())
	if len(geo.Order) == 0 {
		t.Fatal("expected default geography")
	}
}

func TestCreateSQLiteBackendSeedsGeography(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "mosques.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Type != SQLiteBackend {
		t.Fatalf("unexpected type %s", res.Type)
	}
	geo, err := res.Store.ListGovernorateZones(context.Background())
	if err != nil || len(geo.Order) == 0 {
		t.Fatalf("expected seeded geography, got %+v err=%v", geo, err)
	}
}
