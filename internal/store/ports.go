package store

import (
	"context"

	"billed/internal/core"
)

// NewBill is a bill submission: the bill fields plus its staged receipt.
type NewBill struct {
	Bill    core.Bill
	Receipt *core.Receipt
}

// Ports for outbound adapters.
type (
	// BillStore is the bill collaborator the containers talk to.
	BillStore interface {
		// List returns the bills, latest first when the backend sorts them.
		List(ctx context.Context) ([]core.Bill, error)
		// Create persists a bill and its receipt and returns the stored record.
		Create(ctx context.Context, nb NewBill) (core.Bill, error)
	}

	// EmailLister lists the bills owned by one employee.
	EmailLister interface {
		ListByEmail(ctx context.Context, email string) ([]core.Bill, error)
	}

	// BillGetter loads a single bill by id.
	BillGetter interface {
		Get(ctx context.Context, id string) (core.Bill, error)
	}

	// ReceiptReader serves uploaded receipt images back.
	ReceiptReader interface {
		Receipt(ctx context.Context, id string) (core.Receipt, error)
	}

	// UserStore persists accounts.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}
)

// ReceiptURL is the path receipts are served from.
func ReceiptURL(id string) string {
	return "/receipts/" + id
}
