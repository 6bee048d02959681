// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// form parsing for both urlencoded and multipart posts, sanitized form
// access, and the receipt file input adapter.

package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"billed/internal/core"
	"billed/internal/views"
)

// DefaultUploadMaxBytes bounds receipt uploads.
const DefaultUploadMaxBytes = 10 << 20

// ParseForm parses a urlencoded or multipart body of at most maxBytes.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// isTooLarge reports a body cut by MaxBytesReader.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// sanitizedForm reads trimmed form values with control characters removed.
type sanitizedForm struct {
	values url.Values
}

func newSanitizedForm(r *http.Request) sanitizedForm {
	return sanitizedForm{values: r.Form}
}

func (f sanitizedForm) Get(key string) string {
	return sanitizeInput(f.values.Get(key))
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// billFormValues echoes the submitted fields back into the form.
func billFormValues(f sanitizedForm) views.NewBillForm {
	return views.NewBillForm{
		Type:       f.Get("expense-type"),
		Name:       f.Get("expense-name"),
		Date:       f.Get("datepicker"),
		Amount:     f.Get("amount"),
		VAT:        f.Get("vat"),
		Pct:        f.Get("pct"),
		Commentary: f.Get("commentary"),
	}
}

// fileInput adapts the multipart "file" field to the new-bill container.
// Only the first file is read.
type fileInput struct {
	headers []*multipart.FileHeader
	files   []core.Receipt
	value   string
	err     error
}

func newFileInput(r *http.Request, field string) *fileInput {
	in := &fileInput{}
	if r.MultipartForm == nil {
		return in
	}
	in.headers = r.MultipartForm.File[field]
	if len(in.headers) > 0 {
		in.value = in.headers[0].Filename
	}
	return in
}

func (in *fileInput) Files() []core.Receipt {
	if in.files != nil || len(in.headers) == 0 {
		return in.files
	}
	h := in.headers[0]
	receipt, err := readReceipt(h)
	if err != nil {
		in.err = err
		return nil
	}
	in.files = []core.Receipt{receipt}
	return in.files
}

func (in *fileInput) Value() string { return in.value }

func (in *fileInput) SetValue(v string) { in.value = v }

// Err is the read error of the selected file, if any.
func (in *fileInput) Err() error { return in.err }

// Selected reports whether the request carried a file.
func (in *fileInput) Selected() bool { return len(in.headers) > 0 }

func readReceipt(h *multipart.FileHeader) (core.Receipt, error) {
	f, err := h.Open()
	if err != nil {
		return core.Receipt{}, fmt.Errorf("open upload %s: %w", h.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("read upload %s: %w", h.Filename, err)
	}
	// The part's Content-Type is client-chosen; only the name and bytes count.
	return core.Receipt{Name: h.Filename, ContentType: core.ContentTypeFor(h.Filename), Data: data}, nil
}

// isHTMX reports an htmx-issued request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
