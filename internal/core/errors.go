package core

import (
	"errors"
	"fmt"
	"net/http"
)

// StoreError is a store rejection carrying an HTTP status. Its message is
// displayed to the user as is ("Erreur 404").
type StoreError struct {
	Status int
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("Erreur %d", e.Status)
}

// NewStoreError returns a StoreError for the given status.
func NewStoreError(status int) error {
	return &StoreError{Status: status}
}

// HTTPStatus extracts the status carried by err, defaulting to 500.
func HTTPStatus(err error) int {
	var se *StoreError
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 600 {
		return se.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
