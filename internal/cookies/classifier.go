package cookies

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xkilldash9x/hyperaide-sync/internal/config"
)

// parserUnverified is used only to recognise token-shaped values; signatures
// are never checked because the key is never available here.
var parserUnverified = new(jwt.Parser)

// Classifier tags cookies as auth or non-auth. Rules run in a fixed order and
// the first one that matches decides:
//
//	denylist                    non-auth
//	keyword                     auth
//	jwt_value                   auth (when enabled)
//	persistent_secure_httponly  auth
//	default                     non-auth
//
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	keywords         []string
	denylistNames    map[string]struct{}
	denylistPrefixes []string
	denylistSuffixes []string
	jwtValue         bool
}

// NewClassifier builds a Classifier from the classifier config section.
// Matching is case-insensitive, so every table is lower-cased up front.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	c := &Classifier{
		keywords:         lowerAll(cfg.Keywords),
		denylistNames:    make(map[string]struct{}, len(cfg.DenylistNames)),
		denylistPrefixes: lowerAll(cfg.DenylistPrefixes),
		denylistSuffixes: lowerAll(cfg.DenylistSuffixes),
		jwtValue:         cfg.JWTValue,
	}
	for _, name := range cfg.DenylistNames {
		c.denylistNames[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return c
}

// Classify tags every cookie. The output has the same length and order as the input.
func (c *Classifier) Classify(raw []RawCookie) []ClassifiedCookie {
	out := make([]ClassifiedCookie, 0, len(raw))
	for _, rc := range raw {
		tag, reason := c.decide(rc)
		out = append(out, ClassifiedCookie{RawCookie: rc, Tag: tag, Reason: reason})
	}
	return out
}

func (c *Classifier) decide(rc RawCookie) (Tag, string) {
	name := strings.ToLower(rc.Name)

	if c.denylisted(name) {
		return TagNonAuth, ReasonDenylist
	}
	for _, kw := range c.keywords {
		if strings.Contains(name, kw) {
			return TagAuth, ReasonKeyword
		}
	}
	if c.jwtValue && looksLikeJWT(rc.Value) {
		return TagAuth, ReasonJWTValue
	}
	if rc.HTTPOnly && rc.Secure && !rc.IsSession() {
		return TagAuth, ReasonPersistentSecureHTTPOnly
	}
	return TagNonAuth, ReasonDefault
}

func (c *Classifier) denylisted(name string) bool {
	if _, ok := c.denylistNames[name]; ok {
		return true
	}
	for _, p := range c.denylistPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range c.denylistSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// looksLikeJWT reports whether v parses as a JWT with a known algorithm.
// Some sites store the token quoted or behind a "Bearer " prefix.
func looksLikeJWT(v string) bool {
	v = strings.Trim(strings.TrimSpace(v), `"`)
	v = strings.TrimPrefix(v, "Bearer ")
	if strings.Count(v, ".") != 2 {
		return false
	}
	_, _, err := parserUnverified.ParseUnverified(v, jwt.MapClaims{})
	return err == nil
}

// AuthOnly returns the cookies tagged auth, in input order.
func AuthOnly(classified []ClassifiedCookie) []ClassifiedCookie {
	var out []ClassifiedCookie
	for _, c := range classified {
		if c.IsAuth() {
			out = append(out, c)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
