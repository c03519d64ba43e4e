package domain

import (
	"strings"
	"time"
)

// ShopSession is the persisted record of a completed app installation.
// There is exactly one per shop domain; a re-install overwrites it and an
// uninstall deletes it.
type ShopSession struct {
	Shop        string    `json:"shop" bson:"shop"`
	AccessToken string    `json:"accessToken" bson:"access_token"`
	Scope       string    `json:"scope" bson:"scope"`
	InstalledAt time.Time `json:"installedAt" bson:"installed_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// APISession carries the credentials for a single Admin API call. It is
// resolved per-request (token exchange, OAuth) or built from the static
// development token when no request-scoped session exists.
type APISession struct {
	Shop        string
	AccessToken string
}

// AuthStatus is the result of checking whether a shop has an active
// installation.
type AuthStatus struct {
	Authenticated bool
	Shop          string
	Scope         string
	InstalledAt   time.Time
}

// SessionTokenClaims is the payload of a verified App Bridge session token.
// Tokens are verified and discarded per-request, never persisted.
type SessionTokenClaims struct {
	Issuer    string
	Dest      string
	Audience  string
	Subject   string
	SessionID string
	JTI       string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ShopDomain strips the scheme from the dest claim, yielding the bare
// myshopify.com hostname.
func (c SessionTokenClaims) ShopDomain() string {
	return strings.TrimPrefix(c.Dest, "https://")
}
