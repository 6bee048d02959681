// Package bills drives the employee bill list page.
package bills

import (
	"context"
	"log/slog"

	"billed/internal/core"
	"billed/internal/router"
	"billed/internal/store"
)

// BillURLAttr is the attribute of an eye icon holding the receipt URL.
const BillURLAttr = "data-bill-url"

// Row is a bill ready for display. Bill keeps the raw record.
type Row struct {
	Bill   core.Bill
	Date   string
	Status string
}

// Element is a clicked page element.
type Element interface {
	Attr(name string) string
}

// Preview is the receipt image shown in the modal.
type Preview struct {
	URL   string
	Width int
}

// Modal displays receipt previews.
type Modal interface {
	Width() int
	Show(p Preview)
}

type Container struct {
	store  store.BillStore
	nav    router.Navigator
	modal  Modal
	logger *slog.Logger
}

// New builds the container; a nil store lists nothing.
func New(s store.BillStore, nav router.Navigator, modal Modal, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{store: s, nav: nav, modal: modal, logger: logger}
}

// GetBills lists the bills with formatted dates and translated statuses, in
// store order. A date that cannot be formatted is kept raw.
func (c *Container) GetBills(ctx context.Context) ([]Row, error) {
	if c.store == nil {
		return []Row{}, nil
	}
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(list))
	for _, b := range list {
		date, ferr := core.FormatDate(b.Date)
		if ferr != nil {
			c.logger.WarnContext(ctx, "Keeping unformatted bill date",
				"bill_id", b.ID, "date", b.Date, "error", ferr)
			date = b.Date
		}
		rows = append(rows, Row{Bill: b, Date: date, Status: core.FormatStatus(b.Status)})
	}
	c.logger.DebugContext(ctx, "Bills listed", "count", len(rows))
	return rows, nil
}

func (c *Container) HandleClickNewBill() {
	c.nav.Navigate(router.PathNewBill)
}

// HandleClickIconEye shows the receipt of the clicked icon at half the
// modal width.
func (c *Container) HandleClickIconEye(el Element) Preview {
	p := Preview{URL: el.Attr(BillURLAttr)}
	if c.modal != nil {
		p.Width = c.modal.Width() / 2
		c.modal.Show(p)
	}
	return p
}
