package store

import (
	"context"
	"errors"
	"testing"

	"billed/internal/core"
)

// listStore has no email filter of its own.
type listStore struct {
	bills    []core.Bill
	receipts map[string]core.Receipt
	created  []NewBill
}

func (s *listStore) List(context.Context) ([]core.Bill, error) { return s.bills, nil }

func (s *listStore) Create(_ context.Context, nb NewBill) (core.Bill, error) {
	s.created = append(s.created, nb)
	return nb.Bill, nil
}

func (s *listStore) Receipt(_ context.Context, id string) (core.Receipt, error) {
	r, ok := s.receipts[id]
	if !ok {
		return core.Receipt{}, core.ErrNotFound
	}
	return r, nil
}

// filterStore records the email it was asked to filter on.
type filterStore struct {
	listStore
	asked string
}

func (s *filterStore) ListByEmail(_ context.Context, email string) ([]core.Bill, error) {
	s.asked = email
	return nil, nil
}

func sharedStore() *listStore {
	return &listStore{
		bills: []core.Bill{
			{ID: "1", Email: "Employee@Test.tld", FileURL: ReceiptURL("r1")},
			{ID: "2", Email: "other@test.tld", FileURL: ReceiptURL("r2")},
		},
		receipts: map[string]core.Receipt{
			"r1": {ID: "r1", Name: "mine.png"},
			"r2": {ID: "r2", Name: "theirs.png"},
		},
	}
}

func TestOwnedListFiltersByEmail(t *testing.T) {
	bills, err := OwnedBy(sharedStore(), "employee@test.tld").List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 1 || bills[0].ID != "1" {
		t.Fatalf("unexpected bills %+v", bills)
	}
}

func TestOwnedListUsesStoreFilter(t *testing.T) {
	s := &filterStore{}
	if _, err := OwnedBy(s, "employee@test.tld").List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if s.asked != "employee@test.tld" {
		t.Fatalf("ListByEmail called with %q", s.asked)
	}
}

func TestOwnedReceipt(t *testing.T) {
	o := OwnedBy(sharedStore(), "employee@test.tld")
	ctx := context.Background()

	r, err := o.Receipt(ctx, "r1")
	if err != nil || r.Name != "mine.png" {
		t.Fatalf("own receipt: %+v %v", r, err)
	}
	if _, err := o.Receipt(ctx, "r2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other employee's receipt: %v", err)
	}
}

func TestOwnedCreateSetsOwner(t *testing.T) {
	s := sharedStore()
	b, err := OwnedBy(s, "employee@test.tld").Create(context.Background(), NewBill{Bill: core.Bill{Email: "other@test.tld"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Email != "employee@test.tld" || s.created[0].Bill.Email != "employee@test.tld" {
		t.Fatalf("bill not created for the owner: %+v", b)
	}
}
