package backend

import (
	"context"
	"path/filepath"
	"testing"

	"billed/internal/config"
)

type counter struct{ n int }

func (c *counter) Inc() { c.n++ }

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected an error for a nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "remote",
		RemoteAPIURL: "https://api.billed.test",
		DataDir:      "seed",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != RemoteBackend || cfg.RemoteAPIURL != "https://api.billed.test" || cfg.DataDirectory != "seed" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"remote without url", Config{Type: RemoteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir(), BillsCreated: c})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	bills, err := res.Bills.List(ctx)
	if err != nil || len(bills) == 0 {
		t.Fatalf("List() = %d bills, %v", len(bills), err)
	}
	if _, err := res.Users.GetUserByEmail(ctx, "employee@test.tld"); err != nil {
		t.Fatalf("demo employee missing: %v", err)
	}
	if res.ImageSrc != "https://test.storage.tld" {
		t.Fatalf("ImageSrc=%q", res.ImageSrc)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "billed.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Ready == nil {
		t.Fatal("sqlite backend has no readiness check")
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	bills, err := res.Bills.List(ctx)
	if err != nil || len(bills) != 0 {
		t.Fatalf("List() = %d bills, %v", len(bills), err)
	}
}

func TestCreateRemoteBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:          RemoteBackend,
		RemoteAPIURL:  "https://api.billed.test/v1",
		DataDirectory: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.ImageSrc != "https://api.billed.test" {
		t.Fatalf("ImageSrc=%q", res.ImageSrc)
	}
	if res.Users == nil {
		t.Fatal("remote backend has no user store")
	}
}
