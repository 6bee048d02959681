// Package views renders the application pages from the embedded templates.
package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sort"

	"billed/internal/containers/bills"
	"billed/internal/core"
	appweb "billed/web"
)

// Active navbar entries.
const (
	ActiveBills   = "bills"
	ActiveNewBill = "newbill"
)

// DefaultModalWidth is the preview modal width when the client does not
// report one.
const DefaultModalWidth = 800

type (
	LoginPage struct {
		Email string
		Error string
	}

	// BillsPage is the bill list in one of its three states: loading,
	// failed (Error set) or loaded.
	BillsPage struct {
		Active  string
		Loading bool
		Error   string
		Rows    []bills.Row
		Modal   bills.Preview
	}

	NewBillForm struct {
		Type       string
		Name       string
		Date       string
		Amount     string
		VAT        string
		Pct        string
		Commentary string
	}

	// FileInputState is the receipt input after a file change.
	FileInputState struct {
		Name  string
		Error string
	}

	NewBillPage struct {
		Active       string
		Error        string
		Form         NewBillForm
		File         FileInputState
		ExpenseTypes []string
	}

	ErrorPage struct {
		Active  string
		Message string
	}
)

// Renderer executes the parsed template set.
type Renderer struct {
	t *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return Parse(appweb.TemplatesFS, "templates/*.html")
}

// Parse parses the templates matching patterns in fsys.
func Parse(fsys fs.FS, patterns ...string) (*Renderer, error) {
	t, err := template.ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// execute renders into a buffer so a failing template never leaves a
// half-written response.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) LoginUI(w io.Writer, page LoginPage) error {
	return r.execute(w, "login.html", page)
}

// BillsUI renders the loading page, the error page, or the bill table
// sorted on the raw date, latest first.
func (r *Renderer) BillsUI(w io.Writer, page BillsPage) error {
	page.Active = ActiveBills
	switch {
	case page.Loading:
		return r.execute(w, "loading.html", page)
	case page.Error != "":
		return r.ErrorPage(w, ErrorPage{Active: ActiveBills, Message: page.Error})
	}
	rows := make([]bills.Row, len(page.Rows))
	copy(rows, page.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Bill.Date > rows[j].Bill.Date })
	page.Rows = rows
	if page.Modal.Width == 0 {
		page.Modal.Width = DefaultModalWidth
	}
	return r.execute(w, "bills.html", page)
}

func (r *Renderer) NewBillUI(w io.Writer, page NewBillPage) error {
	page.Active = ActiveNewBill
	if page.ExpenseTypes == nil {
		page.ExpenseTypes = core.ExpenseTypes
	}
	if page.Form.Pct == "" {
		page.Form.Pct = fmt.Sprint(core.DefaultPct)
	}
	return r.execute(w, "new_bill.html", page)
}

// ModalUI renders the receipt preview swapped into the modal body.
func (r *Renderer) ModalUI(w io.Writer, p bills.Preview) error {
	return r.execute(w, "modal-content", p)
}

// FileInputUI renders the receipt input fragment.
func (r *Renderer) FileInputUI(w io.Writer, state FileInputState) error {
	return r.execute(w, "file-input", state)
}

// ErrorPage shows msg verbatim.
func (r *Renderer) ErrorPage(w io.Writer, page ErrorPage) error {
	return r.execute(w, "error.html", page)
}

func (r *Renderer) NotFoundUI(w io.Writer) error {
	return r.execute(w, "not_found.html", nil)
}
