package http

import (
	"errors"
	"io"
	"net/http"

	"billed/internal/containers/newbill"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/router"
	"billed/internal/session"
	"billed/internal/views"
)

// BillCreatedMessage is notified after a successful submission.
const BillCreatedMessage = "Note de frais envoyée."

// htmxNotifier collects container notifications as HX-Trigger events.
type htmxNotifier struct {
	b       *HTMXResponseBuilder
	message string
}

func newHTMXNotifier() *htmxNotifier {
	return &htmxNotifier{b: NewHTMXResponse()}
}

func (n *htmxNotifier) Alert(msg string) {
	n.message = msg
	n.b.TriggerWarningNotification(msg)
}

func (n *htmxNotifier) Error(msg string) {
	n.message = msg
	n.b.TriggerErrorNotification(msg)
}

// headerNavigator applies the pending triggers before navigating, so they
// travel with the redirect. A set success message is added first.
type headerNavigator struct {
	w       http.ResponseWriter
	nav     router.Navigator
	b       *HTMXResponseBuilder
	success string
	done    bool
}

func (n *headerNavigator) Navigate(path string) {
	if n.success != "" {
		n.b.TriggerSuccessNotification(n.success)
	}
	n.b.ApplyHeaders(n.w)
	n.nav.Navigate(path)
	n.done = true
}

func (s *Server) newBillContainer(w http.ResponseWriter, r *http.Request, user *core.SessionUser,
	sess *session.CookieStorage, n *htmxNotifier) (*newbill.Container, *headerNavigator, *log.Logger) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentNewBill)
	nav := &headerNavigator{w: w, nav: router.NewHTTPNavigator(w, r), b: n.b}

	c := newbill.New(newbill.Deps{
		Store:     s.ownBills(user),
		Navigator: nav,
		Notifier:  n,
		Staging:   s.staging,
		SessionID: sess.ID(),
		Email:     user.Email,
		Rejected:  s.metrics.UploadsRejected,
		Logger:    logger.Slog(),
	})
	return c, nav, logger
}

func (s *Server) stagedName(sess *session.CookieStorage) string {
	if sess == nil {
		return ""
	}
	if receipt, ok := s.staging.Staged(sess.ID()); ok {
		return receipt.Name
	}
	return ""
}

func (s *Server) handleNewBillPage(w http.ResponseWriter, r *http.Request, _ *core.SessionUser, sess *session.CookieStorage) {
	page := views.NewBillPage{File: views.FileInputState{Name: s.stagedName(sess)}}
	s.render(w, r, http.StatusOK, func(out io.Writer) error { return s.views.NewBillUI(out, page) })
}

// handleChangeFile stages the selected receipt and answers with the file
// input fragment.
func (s *Server) handleChangeFile(w http.ResponseWriter, r *http.Request, user *core.SessionUser, sess *session.CookieStorage) {
	ctx := r.Context()
	if err := ParseForm(w, r, s.uploadMaxBytes); err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	n := newHTMXNotifier()
	c, _, logger := s.newBillContainer(w, r, user, sess, n)
	in := newFileInput(r, newbill.FieldFile)

	state := views.FileInputState{}
	if c.HandleChangeFile(ctx, in) {
		state.Name = in.Value()
	} else if in.Err() != nil {
		logger.ErrorContext(ctx, "Failed to read upload", log.FieldError, in.Err())
		InternalServerError("Erreur 500").TriggerErrorNotification("Le fichier n'a pas pu être lu.").Write(w)
		return
	} else {
		state.Error = n.message
	}

	n.b.ApplyHeaders(w)
	s.render(w, r, http.StatusOK, func(out io.Writer) error { return s.views.FileInputUI(out, state) })
}

func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if isTooLarge(err) {
		msg := "Le fichier est trop volumineux."
		ErrorResponse(http.StatusRequestEntityTooLarge, msg).NoSwap().TriggerErrorNotification(msg).Write(w)
		return
	}
	s.logger.InfoContext(r.Context(), "Malformed form", log.FieldError, err)
	BadRequestError("Requête invalide").NoSwap().Write(w)
}

// handleSubmit creates the bill. A multipart post carrying a file stages it
// first, for browsers without htmx.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, user *core.SessionUser, sess *session.CookieStorage) {
	ctx := r.Context()
	if err := ParseForm(w, r, s.uploadMaxBytes); err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	n := newHTMXNotifier()
	c, nav, logger := s.newBillContainer(w, r, user, sess, n)
	form := newSanitizedForm(r)

	if in := newFileInput(r, newbill.FieldFile); in.Selected() {
		if !c.HandleChangeFile(ctx, in) {
			status := http.StatusUnprocessableEntity
			if in.Err() != nil {
				logger.ErrorContext(ctx, "Failed to read upload", log.FieldError, in.Err())
				n.Error("Le fichier n'a pas pu être lu.")
				status = http.StatusInternalServerError
			}
			s.submitFailed(w, r, sess, n, form, status)
			return
		}
	}

	nav.success = BillCreatedMessage
	if err := c.HandleSubmit(ctx, form); err != nil {
		s.submitFailed(w, r, sess, n, form, submitStatus(err))
		return
	}
	if !nav.done {
		router.NewHTTPNavigator(w, r).Navigate(pathBills)
	}
}

func submitStatus(err error) int {
	if errors.Is(err, newbill.ErrNoReceipt) || errors.Is(err, newbill.ErrInvalidBill) {
		return http.StatusUnprocessableEntity
	}
	return errorStatus(err)
}

// submitFailed keeps the form on screen: htmx clients get the notification
// only, others the re-rendered form.
func (s *Server) submitFailed(w http.ResponseWriter, r *http.Request, sess *session.CookieStorage,
	n *htmxNotifier, form sanitizedForm, status int) {
	if isHTMX(r) {
		n.b.NoSwap().Status(status).Write(w)
		return
	}
	page := views.NewBillPage{
		Error: n.message,
		Form:  billFormValues(form),
		File:  views.FileInputState{Name: s.stagedName(sess)},
	}
	s.render(w, r, status, func(out io.Writer) error { return s.views.NewBillUI(out, page) })
}
