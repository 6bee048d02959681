// Package auth checks employee credentials against the user store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"billed/internal/core"
	"billed/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 5 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// PasswordAuthenticator verifies bcrypt password hashes.
type PasswordAuthenticator struct {
	users store.UserStore
	cost  int
}

func NewPasswordAuthenticator(users store.UserStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	a.cost = cost
	return a
}

// HashPassword hashes a password for storage.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Register creates an account of the given type.
func (a *PasswordAuthenticator) Register(ctx context.Context, email string, typ core.UserType, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return core.User{}, core.ErrEmptyEmail
	}
	if len(password) < 5 {
		return core.User{}, ErrWeakPassword
	}
	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, ErrEmailExists
	}
	hash, err := HashPassword(password, a.cost)
	if err != nil {
		return core.User{}, err
	}
	u := core.User{Email: email, Type: typ, PasswordHash: hash}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate returns the account when the password matches and the
// account has the type chosen on the login form.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string, typ core.UserType) (core.User, error) {
	u, err := a.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if u.Type != typ {
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}
