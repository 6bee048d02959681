package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "billed.db")

	out, err := run(t, "--db", db, "add", "--email", "Employee@Company.tld", "--password", "secret")
	if err != nil {
		t.Fatalf("add: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Created Employee account employee@company.tld") {
		t.Fatalf("add output=%q", out)
	}

	t.Setenv(passwordEnv, "other-secret")
	if out, err := run(t, "--db", db, "add", "--email", "admin@company.tld", "--type", "admin"); err != nil {
		t.Fatalf("add admin: %v (%s)", err, out)
	}

	out, err = run(t, "--db", db, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"EMAIL", "employee@company.tld", "admin@company.tld", "Admin"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestAddRejects(t *testing.T) {
	db := filepath.Join(t.TempDir(), "billed.db")
	t.Setenv(passwordEnv, "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing email", []string{"--db", db, "add", "--password", "secret"}},
		{"bad type", []string{"--db", db, "add", "--email", "a@b.c", "--type", "Root", "--password", "secret"}},
		{"no password", []string{"--db", db, "add", "--email", "a@b.c"}},
		{"weak password", []string{"--db", db, "add", "--email", "a@b.c", "--password", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := run(t, "--db", db, "add", "--email", "dup@b.c", "--password", "secret"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := run(t, "--db", db, "add", "--email", "dup@b.c", "--password", "secret"); err == nil {
		t.Fatal("duplicate email accepted")
	}
}
