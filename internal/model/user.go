// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role constants.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents an account that owns documents and holds a bearer token.
// Token and TokenUntil are always written together.
type User struct {
	ID           string     `json:"id"`
	Login        string     `json:"login"`
	PasswordHash string     `json:"-"` // Never serialize
	Roles        []string   `json:"roles"`
	Token        *string    `json:"-"`
	TokenUntil   *time.Time `json:"-"`
}

// HasRole checks if the user has a specific role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// HasValidToken reports whether a token is set and has not expired at now.
func (u *User) HasValidToken(now time.Time) bool {
	return u.Token != nil && u.TokenUntil != nil && now.Before(*u.TokenUntil)
}

// AuthContext holds the identity resolved from a bearer token.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID string
	Login  string
	Roles  []string
	Until  time.Time
}

// Expired reports whether the token behind this identity is no longer valid at now.
func (a *AuthContext) Expired(now time.Time) bool {
	return !now.Before(a.Until)
}

// NewAuthContext builds an AuthContext snapshot from a user row.
func NewAuthContext(u *User) *AuthContext {
	ac := &AuthContext{
		UserID: u.ID,
		Login:  u.Login,
		Roles:  slices.Clone(u.Roles),
	}
	if u.TokenUntil != nil {
		ac.Until = *u.TokenUntil
	}
	return ac
}
