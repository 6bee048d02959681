package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"billed/internal/core"
)

func TestResolve(t *testing.T) {
	employee := &core.SessionUser{Type: core.UserTypeEmployee, Email: "a@a"}
	admin := &core.SessionUser{Type: core.UserTypeAdmin, Email: "admin@a"}

	tests := []struct {
		name string
		path string
		user *core.SessionUser
		want Decision
	}{
		{"signed out on bills", PathBills, nil, Decision{Redirect, PathLogin}},
		{"signed out on new bill", PathNewBill, nil, Decision{Redirect, PathLogin}},
		{"signed out on login", PathLogin, nil, Decision{Render, PathLogin}},
		{"employee on bills", PathBills, employee, Decision{Render, PathBills}},
		{"employee on new bill", PathNewBill, employee, Decision{Render, PathNewBill}},
		{"employee on login", PathLogin, employee, Decision{Redirect, PathBills}},
		{"admin on bills", PathBills, admin, Decision{Redirect, PathLogin}},
		{"admin on login", PathLogin, admin, Decision{Render, PathLogin}},
		{"unknown path", "/admin/dashboard", employee, Decision{NotFound, "/admin/dashboard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.path, tt.user); got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPNavigator(t *testing.T) {
	t.Run("plain request redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		n := NewHTTPNavigator(rec, httptest.NewRequest(http.MethodPost, "/employee/bills/new", nil))
		n.Navigate(PathNewBill)

		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != PathNewBill {
			t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
		}
		if n.Navigated() != PathNewBill {
			t.Fatalf("Navigated() = %q", n.Navigated())
		}
	})

	t.Run("htmx request sets HX-Location", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/employee/bill/new", nil)
		req.Header.Set("HX-Request", "true")
		NewHTTPNavigator(rec, req).Navigate(PathBills)

		if rec.Code != http.StatusOK || rec.Header().Get("HX-Location") != PathBills {
			t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
		}
	})
}
