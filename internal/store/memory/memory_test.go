package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"billed/internal/core"
	"billed/internal/store"
)

func TestListSortsLatestFirst(t *testing.T) {
	s := New(Fixtures())
	bills, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 4 {
		t.Fatalf("expected 4 bills, got %d", len(bills))
	}
	want := []string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}
	for i, b := range bills {
		if b.Date != want[i] {
			t.Fatalf("bill %d date=%s, want %s", i, b.Date, want[i])
		}
	}
}

func TestListByEmail(t *testing.T) {
	s := New(append(Fixtures(), core.Bill{ID: "x", Date: "2009-09-09", Email: "other@test.tld"}))
	bills, err := s.ListByEmail(context.Background(), "EMPLOYEE@test.tld")
	if err != nil {
		t.Fatalf("list by email: %v", err)
	}
	if len(bills) != 4 {
		t.Fatalf("expected the 4 demo bills, got %d", len(bills))
	}
	for _, b := range bills {
		if b.Email != DemoEmployee {
			t.Fatalf("foreign bill listed: %+v", b)
		}
	}
}

func TestCreateStoresReceipt(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	created, err := s.Create(ctx, store.NewBill{
		Bill: core.Bill{
			Date:   "2024-05-01",
			Amount: core.Money{Cents: 1234},
			Pct:    20,
			Type:   "Transports",
			Email:  "a@a",
		},
		Receipt: &core.Receipt{Name: "ticket.png", ContentType: "image/png", Data: []byte("png")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Status != core.StatusPending || created.FileName != "ticket.png" {
		t.Fatalf("unexpected bill: %+v", created)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil || got.FileURL != created.FileURL {
		t.Fatalf("get: %+v %v", got, err)
	}
	r, err := s.Receipt(ctx, filepath.Base(created.FileURL))
	if err != nil || string(r.Data) != "png" {
		t.Fatalf("receipt: %+v %v", r, err)
	}
	if _, err := s.Receipt(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsInvalidBill(t *testing.T) {
	s := New(nil)
	if _, err := s.Create(context.Background(), store.NewBill{Bill: core.Bill{Date: "bad"}}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No file -> fixtures
	s := NewFromFiles(dir)
	bills, _ := s.List(context.Background())
	if len(bills) != 4 {
		t.Fatalf("expected fixtures when file missing, got %d", len(bills))
	}
	u, err := s.GetUserByEmail(context.Background(), "Employee@test.tld")
	if err != nil || u.Type != core.UserTypeEmployee {
		t.Fatalf("demo employee: %+v %v", u, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("employee")); err != nil {
		t.Fatalf("demo password: %v", err)
	}

	content := `[{"id":"x","date":"2020-01-02","status":"accepted","amount":"10","vat":"","pct":20,"type":"Transports","email":"b@b"}]`
	if err := os.WriteFile(filepath.Join(dir, "bills.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	bills, _ = s.List(context.Background())
	if len(bills) != 1 || bills[0].ID != "x" || bills[0].Amount.Cents != 1000 {
		t.Fatalf("unexpected seeded bills: %+v", bills)
	}
}

func TestUsers(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	if err := s.CreateUser(ctx, core.User{Email: "a@a", Type: core.UserTypeEmployee}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{Email: "A@A"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("list users: %v %v", users, err)
	}
}
