// Package cookies decides which captured cookies carry authentication and
// groups them into per-site bundles for upload.
package cookies

import "time"

// SameSite is the cookie SameSite attribute.
type SameSite string

const (
	SameSiteNone   SameSite = "None"
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
)

// RawCookie is a cookie as read from the browser's cookie store.
type RawCookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite

	// Expires is nil for session cookies.
	Expires *time.Time
}

// IsSession reports whether the cookie lives only as long as the browser.
func (c RawCookie) IsSession() bool {
	return c.Expires == nil
}

// Tag is the outcome of classification.
type Tag string

const (
	TagAuth    Tag = "auth"
	TagNonAuth Tag = "non-auth"
)

// Names of the classification rules, recorded on every ClassifiedCookie.
const (
	ReasonDenylist                 = "denylist"
	ReasonKeyword                  = "keyword"
	ReasonJWTValue                 = "jwt_value"
	ReasonPersistentSecureHTTPOnly = "persistent_secure_httponly"
	ReasonDefault                  = "default"
)

// ClassifiedCookie is a RawCookie with the tag the classifier gave it and the
// rule that decided it.
type ClassifiedCookie struct {
	RawCookie
	Tag    Tag
	Reason string
}

// IsAuth is shorthand for Tag == TagAuth.
func (c ClassifiedCookie) IsAuth() bool {
	return c.Tag == TagAuth
}

// SiteAuthBundle holds the auth cookies of one site, keyed by normalized domain.
type SiteAuthBundle struct {
	Domain  string
	Cookies []ClassifiedCookie
}
