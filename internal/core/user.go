package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	UserTypeEmployee UserType = "Employee"
	UserTypeAdmin    UserType = "Admin"
)

type (
	UserType string

	// SessionUser is the identity persisted in the session store under "user".
	SessionUser struct {
		Type  UserType `json:"type"`
		Email string   `json:"email"`
	}

	// User is a registered account.
	User struct {
		Email        string
		Type         UserType
		PasswordHash string
	}
)

var ErrInvalidUserType = errors.New("invalid user type")

// ParseUserType accepts "Employee" or "Admin", case-insensitively.
func ParseUserType(s string) (UserType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employee":
		return UserTypeEmployee, nil
	case "admin":
		return UserTypeAdmin, nil
	}
	return "", ErrInvalidUserType
}

// IsEmployee reports whether the session belongs to an employee.
func (u *SessionUser) IsEmployee() bool {
	return u != nil && u.Type == UserTypeEmployee
}

// Encode serializes the user the way it is stored in the session.
func (u SessionUser) Encode() (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeSessionUser parses a serialized session user.
func DecodeSessionUser(s string) (*SessionUser, error) {
	var u SessionUser
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
