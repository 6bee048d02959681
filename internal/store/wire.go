package store

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"billed/internal/core"
)

// WireBill is the JSON shape of a bill exchanged with the Billed API and
// stored in fixture files. Numeric fields are tolerated as numbers or strings.
type WireBill struct {
	ID           string     `json:"id,omitempty"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	Amount       FlexNumber `json:"amount"`
	VAT          FlexNumber `json:"vat"`
	Pct          FlexNumber `json:"pct"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	Commentary   string     `json:"commentary"`
	CommentAdmin string     `json:"commentAdmin,omitempty"`
	FileURL      string     `json:"fileUrl"`
	FileName     string     `json:"fileName"`
	Email        string     `json:"email"`
}

// FlexNumber decodes 400, 400.5, "80" and "" alike.
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = FlexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = FlexNumber(v)
	return nil
}

// ToCore converts the wire record to a domain bill.
func (w WireBill) ToCore() core.Bill {
	return core.Bill{
		ID:           w.ID,
		Date:         w.Date,
		Status:       core.Status(w.Status),
		Amount:       core.FromEuros(float64(w.Amount)),
		VAT:          core.FromEuros(float64(w.VAT)),
		Pct:          int(w.Pct),
		Type:         w.Type,
		Name:         w.Name,
		Commentary:   w.Commentary,
		CommentAdmin: w.CommentAdmin,
		FileURL:      w.FileURL,
		FileName:     w.FileName,
		Email:        w.Email,
	}
}

// WireFromCore converts a domain bill to its wire shape.
func WireFromCore(b core.Bill) WireBill {
	return WireBill{
		ID:           b.ID,
		Date:         b.Date,
		Status:       string(b.Status),
		Amount:       FlexNumber(b.Amount.Euros()),
		VAT:          FlexNumber(b.VAT.Euros()),
		Pct:          FlexNumber(b.Pct),
		Type:         b.Type,
		Name:         b.Name,
		Commentary:   b.Commentary,
		CommentAdmin: b.CommentAdmin,
		FileURL:      b.FileURL,
		FileName:     b.FileName,
		Email:        b.Email,
	}
}
