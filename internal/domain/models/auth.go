package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set accepted from the identity provider.
// Only the subject is used; the provider decides who may act on a document.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
