package core

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// InvalidFileFormatMessage is shown to the user when a receipt is rejected.
const InvalidFileFormatMessage = "Le format du fichier n'est pas valide. Les formats acceptés sont jpg, jpeg et png."

// ErrInvalidFileFormat is returned for receipts whose extension is not accepted.
var ErrInvalidFileFormat = errors.New(InvalidFileFormatMessage)

// AcceptedExtensions are the receipt extensions, lower-cased, without the dot.
var AcceptedExtensions = []string{"jpg", "jpeg", "png"}

// Receipt is an uploaded receipt image staged for, or attached to, a bill.
type Receipt struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// ReceiptExtension returns the lower-cased extension of name without the dot.
func ReceiptExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ValidateReceiptName accepts jpg, jpeg and png filenames, case-insensitively.
func ValidateReceiptName(name string) error {
	ext := ReceiptExtension(name)
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return ErrInvalidFileFormat
}

// ContentTypeFor returns the image MIME type matching an accepted extension.
func ContentTypeFor(name string) string {
	switch ReceiptExtension(name) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// SniffReceipt returns the image type detected from the receipt bytes. Data
// that is neither PNG nor JPEG is rejected whatever its name says.
func SniffReceipt(data []byte) (string, error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/png", "image/jpeg":
		return ct, nil
	default:
		return "", ErrInvalidFileFormat
	}
}

// ServedContentType is the type a stored receipt is served with: its
// recorded image type, or the one its extension implies.
func ServedContentType(r Receipt) string {
	switch r.ContentType {
	case "image/png", "image/jpeg":
		return r.ContentType
	default:
		return ContentTypeFor(r.Name)
	}
}
