package store

import (
	"context"
	"fmt"
	"strings"

	"billed/internal/core"
)

// Owned is a BillStore seen by one employee: it lists only their bills and
// serves only the receipts attached to them.
type Owned struct {
	store BillStore
	email string
}

// OwnedBy scopes s to the bills whose email is email.
func OwnedBy(s BillStore, email string) *Owned {
	return &Owned{store: s, email: email}
}

// List returns the owner's bills, pushing the filter down when the store
// can list by email.
func (o *Owned) List(ctx context.Context) ([]core.Bill, error) {
	if l, ok := o.store.(EmailLister); ok {
		return l.ListByEmail(ctx, o.email)
	}
	all, err := o.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Bill, 0, len(all))
	for _, b := range all {
		if strings.EqualFold(b.Email, o.email) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Create saves the bill under the owner's email.
func (o *Owned) Create(ctx context.Context, nb NewBill) (core.Bill, error) {
	nb.Bill.Email = o.email
	return o.store.Create(ctx, nb)
}

// Receipt returns a receipt only when one of the owner's bills links to it.
// Receipts of other employees are reported as not found.
func (o *Owned) Receipt(ctx context.Context, id string) (core.Receipt, error) {
	rr, ok := o.store.(ReceiptReader)
	if !ok {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	bills, err := o.List(ctx)
	if err != nil {
		return core.Receipt{}, err
	}
	url := ReceiptURL(id)
	for _, b := range bills {
		if b.FileURL == url {
			return rr.Receipt(ctx, id)
		}
	}
	return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
}
