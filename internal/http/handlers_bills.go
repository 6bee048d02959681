package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"billed/internal/containers/bills"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/router"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// previewParam carries the data-bill-url of the clicked eye icon.
const previewParam = "bill-url"

// ownBills is the bill service as seen by user: their bills and receipts
// only. A server without bills gets a nil store.
func (s *Server) ownBills(user *core.SessionUser) BillService {
	if s.bills == nil {
		return nil
	}
	return store.OwnedBy(s.bills, user.Email)
}

func (s *Server) billsContainer(w http.ResponseWriter, r *http.Request, user *core.SessionUser, modal bills.Modal) (*bills.Container, *log.Logger) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentBills)
	return bills.New(s.ownBills(user), router.NewHTTPNavigator(w, r), modal, logger.Slog()), logger
}

// handleBills renders the bill list, or the error page with the store's
// message and status.
func (s *Server) handleBills(w http.ResponseWriter, r *http.Request, user *core.SessionUser, _ *session.CookieStorage) {
	ctx := r.Context()
	c, logger := s.billsContainer(w, r, user, nil)

	rows, err := c.GetBills(ctx)
	if err != nil {
		s.metrics.BillListErrors.Inc()
		logger.ErrorContext(ctx, "Failed to list bills", log.FieldError, err)
		page := views.BillsPage{Error: userMessage(err)}
		s.render(w, r, errorStatus(err), func(out io.Writer) error { return s.views.BillsUI(out, page) })
		return
	}
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.views.BillsUI(out, views.BillsPage{Rows: rows})
	})
}

func (s *Server) handleClickNewBill(w http.ResponseWriter, r *http.Request, user *core.SessionUser, _ *session.CookieStorage) {
	c, _ := s.billsContainer(w, r, user, nil)
	c.HandleClickNewBill()
}

// handlePreview answers an eye click with the modal body.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, user *core.SessionUser, _ *session.CookieStorage) {
	q := r.URL.Query()
	modal := &responseModal{width: views.DefaultModalWidth}
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 && v <= 4000 {
		modal.width = v
	}
	c, _ := s.billsContainer(w, r, user, modal)

	c.HandleClickIconEye(queryElement(q))
	if modal.shown == nil || modal.shown.URL == "" {
		BadRequestError("Justificatif introuvable").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, func(out io.Writer) error { return s.views.ModalUI(out, *modal.shown) })
}

// handleReceipt serves a receipt image attached to one of the user's bills.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request, user *core.SessionUser, _ *session.CookieStorage) {
	own := s.ownBills(user)
	if own == nil {
		s.handleNotFound(w, r)
		return
	}
	receipt, err := own.Receipt(r.Context(), r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.FromContext(r.Context()).WithComponent(log.ComponentStore).ErrorContext(r.Context(),
				"Failed to load receipt", log.FieldError, err)
		}
		http.Error(w, userMessage(err), errorStatus(err))
		return
	}
	w.Header().Set("Content-Type", core.ServedContentType(receipt))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(receipt.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(receipt.Data)
}

// userMessage is the text shown for a backend error. Store rejections are
// shown without the wrapping added on the way up; any other error verbatim.
func userMessage(err error) string {
	var se *core.StoreError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

// queryElement exposes query parameters as element attributes.
type queryElement url.Values

func (e queryElement) Attr(name string) string {
	if name == bills.BillURLAttr {
		name = previewParam
	}
	return url.Values(e).Get(name)
}

// responseModal is the preview modal of the current response.
type responseModal struct {
	width int
	shown *bills.Preview
}

func (m *responseModal) Width() int { return m.width }

func (m *responseModal) Show(p bills.Preview) { m.shown = &p }
