// Package router gates the application pages on the session user.
package router

import (
	"net/http"

	"billed/internal/core"
)

// Logical paths.
const (
	PathLogin   = "/"
	PathBills   = "/employee/bills"
	PathNewBill = "/employee/bill/new"
)

type Action int

const (
	Render Action = iota
	Redirect
	NotFound
)

// Decision is the outcome of resolving a path.
type Decision struct {
	Action Action
	// Path is the page to render or the redirect target.
	Path string
}

var employeePaths = map[string]bool{
	PathBills:   true,
	PathNewBill: true,
}

// Resolve decides what to do with a navigation to path by user (nil when
// signed out). Employee pages require an Employee; there is no admin area,
// so admins are sent back to the login page.
func Resolve(path string, user *core.SessionUser) Decision {
	switch {
	case path == PathLogin:
		if user.IsEmployee() {
			return Decision{Action: Redirect, Path: PathBills}
		}
		return Decision{Action: Render, Path: PathLogin}
	case employeePaths[path]:
		if !user.IsEmployee() {
			return Decision{Action: Redirect, Path: PathLogin}
		}
		return Decision{Action: Render, Path: path}
	default:
		return Decision{Action: NotFound, Path: path}
	}
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// HTTPNavigator navigates by answering the current request: htmx requests
// get an HX-Location header, others a 303 redirect.
type HTTPNavigator struct {
	w         http.ResponseWriter
	r         *http.Request
	navigated string
}

func NewHTTPNavigator(w http.ResponseWriter, r *http.Request) *HTTPNavigator {
	return &HTTPNavigator{w: w, r: r}
}

func (n *HTTPNavigator) Navigate(path string) {
	n.navigated = path
	if n.r.Header.Get("HX-Request") == "true" {
		n.w.Header().Set("HX-Location", path)
		n.w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(n.w, n.r, path, http.StatusSeeOther)
}

// Navigated returns the last target, empty if Navigate was not called.
func (n *HTTPNavigator) Navigated() string { return n.navigated }
