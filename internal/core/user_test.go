package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSessionUserRoundTrip(t *testing.T) {
	enc, err := SessionUser{Type: UserTypeEmployee, Email: "a@a"}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if enc != `{"type":"Employee","email":"a@a"}` {
		t.Fatalf("unexpected encoding %s", enc)
	}
	u, err := DecodeSessionUser(`{"type":"Employee"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !u.IsEmployee() || u.Email != "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := DecodeSessionUser("{"); err == nil {
		t.Fatal("expected error for malformed session user")
	}
}

func TestParseUserType(t *testing.T) {
	if ut, err := ParseUserType("employee"); err != nil || ut != UserTypeEmployee {
		t.Fatalf("got %q %v", ut, err)
	}
	if ut, err := ParseUserType("Admin"); err != nil || ut != UserTypeAdmin {
		t.Fatalf("got %q %v", ut, err)
	}
	if _, err := ParseUserType("root"); !errors.Is(err, ErrInvalidUserType) {
		t.Fatalf("expected ErrInvalidUserType, got %v", err)
	}
}

func TestStoreError(t *testing.T) {
	err := fmt.Errorf("list bills: %w", NewStoreError(http.StatusNotFound))
	if HTTPStatus(err) != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d", HTTPStatus(err))
	}
	if NewStoreError(500).Error() != "Erreur 500" {
		t.Fatalf("message = %q", NewStoreError(500).Error())
	}
	if HTTPStatus(errors.New("boom")) != http.StatusInternalServerError {
		t.Fatal("expected 500 default")
	}
	if HTTPStatus(ErrNotFound) != http.StatusNotFound {
		t.Fatal("expected 404 for ErrNotFound")
	}
}
