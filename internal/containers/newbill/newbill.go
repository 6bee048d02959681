// Package newbill drives the new-bill form: receipt selection and submission.
package newbill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"billed/internal/core"
	"billed/internal/router"
	"billed/internal/store"
)

// Form field names.
const (
	FieldType       = "expense-type"
	FieldName       = "expense-name"
	FieldDate       = "datepicker"
	FieldAmount     = "amount"
	FieldVAT        = "vat"
	FieldPct        = "pct"
	FieldCommentary = "commentary"
	FieldFile       = "file"
)

// User-facing messages.
const (
	MissingReceiptMessage = "Veuillez joindre un justificatif au format jpg, jpeg ou png."
	InvalidDateMessage    = "La date n'est pas valide."
	InvalidAmountMessage  = "Le montant n'est pas valide."
	InvalidVATMessage     = "La TVA n'est pas valide."
	InvalidPctMessage     = "Le pourcentage de TVA n'est pas valide."
	MissingTypeMessage    = "Veuillez choisir un type de dépense."
)

var (
	ErrNoReceipt = errors.New("no staged receipt")
	// ErrInvalidBill wraps form validation failures.
	ErrInvalidBill = errors.New("invalid bill")
)

// FileInput is the receipt file input of the form.
type FileInput interface {
	Files() []core.Receipt
	Value() string
	SetValue(v string)
}

// Form reads submitted fields; url.Values satisfies it.
type Form interface {
	Get(key string) string
}

// Notifier reports messages to the user.
type Notifier interface {
	Alert(msg string)
	Error(msg string)
}

// Counter is bumped for every rejected upload.
type Counter interface {
	Inc()
}

type Deps struct {
	Store     store.BillStore
	Navigator router.Navigator
	Notifier  Notifier
	Staging   Staging
	// SessionID keys the staged receipt; Email is the submitting employee.
	SessionID string
	Email     string
	Rejected  Counter
	Logger    *slog.Logger
}

type Container struct {
	d Deps
}

func New(d Deps) *Container {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Container{d: d}
}

// HandleChangeFile stages the first selected file when its extension is
// jpg, jpeg or png and its bytes are a PNG or JPEG image. Otherwise the user
// is alerted, the input is emptied and any previously staged receipt is
// dropped. Nothing is uploaded here.
func (c *Container) HandleChangeFile(ctx context.Context, input FileInput) bool {
	files := input.Files()
	if len(files) == 0 {
		// A cancelled selection leaves the input empty; so does the staging.
		if c.d.Staging != nil {
			c.d.Staging.Clear(c.d.SessionID)
		}
		return false
	}
	f := files[0]

	err := core.ValidateReceiptName(f.Name)
	if err == nil {
		f.ContentType, err = core.SniffReceipt(f.Data)
	}
	if err != nil {
		c.d.Notifier.Alert(core.InvalidFileFormatMessage)
		input.SetValue("")
		if c.d.Staging != nil {
			c.d.Staging.Clear(c.d.SessionID)
		}
		if c.d.Rejected != nil {
			c.d.Rejected.Inc()
		}
		c.d.Logger.InfoContext(ctx, "Receipt rejected", "file_name", f.Name)
		return false
	}

	if c.d.Staging != nil {
		c.d.Staging.Stage(c.d.SessionID, f)
	}
	c.d.Logger.DebugContext(ctx, "Receipt staged", "file_name", f.Name, "size", len(f.Data))
	return true
}

// HandleSubmit creates the bill from the form and the staged receipt, then
// navigates to the bill list. On a create error the message is shown, the
// receipt stays staged for a retry and the error is returned.
func (c *Container) HandleSubmit(ctx context.Context, form Form) error {
	if c.d.Store == nil {
		c.d.Navigator.Navigate(router.PathBills)
		return nil
	}

	var receipt core.Receipt
	ok := false
	if c.d.Staging != nil {
		receipt, ok = c.d.Staging.Staged(c.d.SessionID)
	}
	if !ok {
		c.d.Notifier.Alert(MissingReceiptMessage)
		return ErrNoReceipt
	}

	b, err := c.billFromForm(form)
	if err == nil {
		err = b.Validate()
	}
	if err != nil {
		c.d.Notifier.Error(validationMessage(err))
		return fmt.Errorf("%w: %w", ErrInvalidBill, err)
	}
	b.FileName = receipt.Name

	created, err := c.d.Store.Create(ctx, store.NewBill{Bill: b, Receipt: &receipt})
	if err != nil {
		c.d.Logger.ErrorContext(ctx, "Bill creation failed", "email", b.Email, "error", err)
		c.d.Notifier.Error(err.Error())
		return err
	}

	c.d.Staging.Clear(c.d.SessionID)
	c.d.Logger.DebugContext(ctx, "Bill submitted",
		"bill_id", created.ID,
		"email", created.Email,
		"amount_cents", created.Amount.Cents,
		"file_name", created.FileName)
	c.d.Navigator.Navigate(router.PathBills)
	return nil
}

func (c *Container) billFromForm(form Form) (core.Bill, error) {
	amount, err := core.ParseDecimalToCents(form.Get(FieldAmount))
	if err != nil {
		return core.Bill{}, err
	}
	vat, err := core.ParseOptionalCents(form.Get(FieldVAT))
	if err != nil {
		return core.Bill{}, errInvalidVAT
	}
	pct := core.DefaultPct
	if raw := strings.TrimSpace(form.Get(FieldPct)); raw != "" {
		pct, err = strconv.Atoi(raw)
		if err != nil {
			return core.Bill{}, core.ErrInvalidPct
		}
	}
	return core.Bill{
		Date:       strings.TrimSpace(form.Get(FieldDate)),
		Status:     core.StatusPending,
		Amount:     core.Money{Cents: amount},
		VAT:        core.Money{Cents: vat},
		Pct:        pct,
		Type:       strings.TrimSpace(form.Get(FieldType)),
		Name:       strings.TrimSpace(form.Get(FieldName)),
		Commentary: strings.TrimSpace(form.Get(FieldCommentary)),
		Email:      c.d.Email,
	}, nil
}

var errInvalidVAT = errors.New("invalid vat")

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return InvalidDateMessage
	case errors.Is(err, core.ErrInvalidAmount):
		return InvalidAmountMessage
	case errors.Is(err, errInvalidVAT):
		return InvalidVATMessage
	case errors.Is(err, core.ErrInvalidPct):
		return InvalidPctMessage
	case errors.Is(err, core.ErrEmptyType):
		return MissingTypeMessage
	default:
		return err.Error()
	}
}
