package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles supplied by the identity collaborator.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Identity is the caller as asserted by the identity token.
type Identity struct {
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
}

// IdentityClaims is the JWT payload of a session token.
type IdentityClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity extracts the identity carried by the claims.
func (c *IdentityClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Name: c.Name, Role: c.Role}
}

// Session is returned by the session stub.
type Session struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	User      Identity `json:"user"`
}
