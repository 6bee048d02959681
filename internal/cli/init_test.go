package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"billed/internal/config"
	"billed/internal/log"
)

func TestSessionSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: log.FormatText, Output: &buf})

	got, err := SessionSecret(logger, &config.Config{SessionSecret: "configured-secret-value"})
	if err != nil || got != "configured-secret-value" {
		t.Fatalf("SessionSecret() = %q, %v", got, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected warning: %s", buf.String())
	}

	a, err := SessionSecret(logger, &config.Config{})
	if err != nil {
		t.Fatalf("SessionSecret: %v", err)
	}
	b, _ := SessionSecret(logger, &config.Config{})
	if len(a) != 64 || a == b {
		t.Fatalf("ephemeral secrets %q %q", a, b)
	}
	if !bytes.Contains(buf.Bytes(), []byte("SESSION_SECRET not set")) {
		t.Fatalf("missing warning: %s", buf.String())
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Fatalf("component=%q", logger.Component())
	}
}

func TestInitSQLite(t *testing.T) {
	logger := log.New(log.DefaultConfig())
	repo := InitSQLite(logger, filepath.Join(t.TempDir(), "billed.db"))
	defer repo.Close()
	if err := repo.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
