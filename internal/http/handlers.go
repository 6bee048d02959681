package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"billed/internal/auth"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/router"
	"billed/internal/session"
	"billed/internal/views"
)

const (
	pathLogin   = router.PathLogin
	pathBills   = router.PathBills
	pathNewBill = router.PathNewBill
)

// Login messages.
const (
	InvalidCredentialsMessage = "Identifiants invalides."
	AdminUnavailableMessage   = "L'espace administrateur n'est pas disponible dans cette application."
)

// userHandler serves a request on behalf of a signed-in employee.
type userHandler func(w http.ResponseWriter, r *http.Request, user *core.SessionUser, sess *session.CookieStorage)

// gate resolves page for the session user and runs h only when the page
// may render; otherwise the user is redirected.
func (s *Server) gate(page string, h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		user := s.currentUser(r, sess)

		d := router.Resolve(page, user)
		switch d.Action {
		case router.Render:
			h(w, r, user, sess)
		case router.Redirect:
			router.NewHTTPNavigator(w, r).Navigate(d.Path)
		default:
			s.handleNotFound(w, r)
		}
	}
}

// currentUser reads the session user; a malformed value counts as signed
// out.
func (s *Server) currentUser(r *http.Request, sess *session.CookieStorage) *core.SessionUser {
	if sess == nil {
		return nil
	}
	user, err := session.CurrentUser(sess)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentSession).WarnContext(r.Context(),
			"Ignoring malformed session user", log.FieldError, err)
		return nil
	}
	return user
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks templates and the backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.views == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["backend"] = "ok"
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
	}

	checks["staging"] = map[string]any{"entries": s.staging.Size(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r, session.FromContext(r.Context()))
	if d := router.Resolve(pathLogin, user); d.Action == router.Redirect {
		router.NewHTTPNavigator(w, r).Navigate(d.Path)
		return
	}
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.views.LoginUI(out, views.LoginPage{})
	})
}

// handleLogin signs an employee in. The session user is written before the
// redirect so the next navigation sees it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSession)

	if err := ParseForm(w, r, 64<<10); err != nil {
		BadRequestError("Requête invalide").Write(w)
		return
	}
	form := newSanitizedForm(r)
	email := form.Get("email")

	var account core.User
	typ, err := core.ParseUserType(form.Get("type"))
	if err == nil {
		account, err = s.authenticate(ctx, email, r.Form.Get("password"), typ)
	}
	if err != nil {
		logger.InfoContext(ctx, "Login refused", log.FieldEmail, email, log.FieldError, err)
		s.loginFailed(w, r, http.StatusUnauthorized, email, InvalidCredentialsMessage)
		return
	}
	if typ != core.UserTypeEmployee {
		logger.InfoContext(ctx, "Admin login refused", log.FieldEmail, email)
		s.loginFailed(w, r, http.StatusForbidden, email, AdminUnavailableMessage)
		return
	}

	sess := session.FromContext(ctx)
	if err := session.SetUser(sess, core.SessionUser{Type: account.Type, Email: account.Email}); err != nil {
		logger.ErrorContext(ctx, "Failed to store session user", log.FieldError, err)
		InternalServerError("Erreur 500").Write(w)
		return
	}
	if err := s.sessions.Save(w, sess); err != nil {
		logger.ErrorContext(ctx, "Failed to save session", log.FieldError, err)
		InternalServerError("Erreur 500").Write(w)
		return
	}
	logger.InfoContext(ctx, "Employee signed in", log.FieldEmail, email)
	router.NewHTTPNavigator(w, r).Navigate(pathBills)
}

func (s *Server) authenticate(ctx context.Context, email, password string, typ core.UserType) (core.User, error) {
	if s.auth == nil {
		return core.User{}, auth.ErrInvalidCredentials
	}
	return s.auth.Authenticate(ctx, email, password, typ)
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	if isHTMX(r) {
		NewHTMXResponse().NoSwap().TriggerErrorNotification(msg).Status(status).Write(w)
		return
	}
	s.render(w, r, status, func(out io.Writer) error {
		return s.views.LoginUI(out, views.LoginPage{Email: email, Error: msg})
	})
}

// handleLogout drops the session user, the staged receipt and the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil {
		sess.RemoveItem(session.UserKey)
		s.staging.Clear(sess.ID())
	}
	s.sessions.Destroy(w, sess)
	router.NewHTTPNavigator(w, r).Navigate(pathLogin)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NotFoundError("Erreur 404").Write(w)
		return
	}
	s.render(w, r, http.StatusNotFound, s.views.NotFoundUI)
}

// errorStatus maps a backend error to the response status.
func errorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return core.HTTPStatus(err)
}
