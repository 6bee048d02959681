package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// DefaultPct is the VAT percentage applied when the form leaves it empty.
const DefaultPct = 20

// DateLayout is the wire format of bill dates.
const DateLayout = "2006-01-02"

type (
	Status string

	Money struct {
		Cents int64
	}

	// Bill is an expense-reimbursement record as persisted by a store.
	// Date is kept as the raw string the store returned: legacy records may
	// carry malformed values and those must still be listed.
	Bill struct {
		ID           string
		Date         string
		Status       Status
		Amount       Money
		VAT          Money
		Pct          int
		Type         string
		Name         string
		Commentary   string
		CommentAdmin string
		FileURL      string
		FileName     string
		Email        string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPct    = errors.New("invalid pct")
	ErrEmptyType     = errors.New("empty expense type")
	ErrEmptyEmail    = errors.New("empty email")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("not found")
)

// ExpenseTypes lists the categories offered by the new-bill form.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

// Label returns the localized label shown in the bill list.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParsedDate returns the bill date as a time.Time.
func (b Bill) ParsedDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(b.Date))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Validate checks a bill about to be created.
func (b Bill) Validate() error {
	if _, err := b.ParsedDate(); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.VAT.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.Pct < 0 || b.Pct > 100 {
		return ErrInvalidPct
	}
	if strings.TrimSpace(b.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(b.Email) == "" {
		return ErrEmptyEmail
	}
	if len(b.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if len(b.Commentary) > 1000 {
		return errors.New("commentary too long (max 1000 characters)")
	}
	if !b.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
