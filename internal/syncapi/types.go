package syncapi

import (
	"time"

	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
)

// StatusNotSynced is the status reported for accounts that never synced.
const StatusNotSynced = "not_synced"

// ConnectedSite is a site the service holds a session for.
type ConnectedSite struct {
	Domain      string `json:"domain"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

// Name is the display name, falling back to the domain.
func (s ConnectedSite) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Domain
}

// StartResult is returned by the session-start handshake.
type StartResult struct {
	Existing       bool            `json:"existing"`
	ConnectedSites []ConnectedSite `json:"connected_sites"`
}

// SyncStatusReport describes what the service currently holds.
type SyncStatusReport struct {
	Status         string          `json:"status"`
	ConnectedSites []ConnectedSite `json:"connected_sites"`
	// LastSyncedAt is passed through as sent; see LastSynced for a parsed form.
	LastSyncedAt string `json:"last_synced_at"`
}

// LastSynced parses LastSyncedAt as RFC 3339.
func (r SyncStatusReport) LastSynced() (time.Time, bool) {
	if r.LastSyncedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, r.LastSyncedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SiteResult is the outcome for one uploaded bundle.
type SiteResult struct {
	Domain   string
	Accepted bool
	Reason   string
}

// SyncResult is the outcome of an upload.
type SyncResult struct {
	Sites          []SiteResult
	ConnectedSites []ConnectedSite
}

// Rejected counts the bundles the service refused.
func (r SyncResult) Rejected() int {
	n := 0
	for _, s := range r.Sites {
		if !s.Accepted {
			n++
		}
	}
	return n
}

// ResetResult is the outcome of a reset.
type ResetResult struct {
	Reset   bool
	Message string
}

// -- Wire types --

type wireCookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires"`
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite,omitempty"`
}

type wireSite struct {
	Domain  string       `json:"domain"`
	Cookies []wireCookie `json:"cookies"`
}

// completeRequest carries the bundles and, for servers that predate
// per-site bundles, the same cookies as one flat list.
type completeRequest struct {
	Sites          []wireSite   `json:"sites"`
	Cookies        []wireCookie `json:"cookies"`
	VisitedDomains []string     `json:"visited_domains"`
}

type rejectedSite struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

type completeResponse struct {
	ConnectedSites []ConnectedSite `json:"connected_sites"`
	RejectedSites  []rejectedSite  `json:"rejected_sites"`
}

type resetResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// toWireCookie uses -1 for session cookies, the convention of the browser
// cookie APIs the service replays into.
func toWireCookie(c cookies.ClassifiedCookie) wireCookie {
	expires := int64(-1)
	if c.Expires != nil {
		expires = c.Expires.Unix()
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return wireCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     path,
		Expires:  expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: string(c.SameSite),
	}
}

func buildCompleteRequest(bundles []cookies.SiteAuthBundle, visited []string) completeRequest {
	req := completeRequest{
		Sites:          make([]wireSite, 0, len(bundles)),
		Cookies:        []wireCookie{},
		VisitedDomains: visited,
	}
	if req.VisitedDomains == nil {
		req.VisitedDomains = []string{}
	}
	for _, b := range bundles {
		site := wireSite{Domain: b.Domain, Cookies: make([]wireCookie, 0, len(b.Cookies))}
		for _, c := range b.Cookies {
			// Bundles are built from auth cookies only; this keeps it that way.
			if !c.IsAuth() {
				continue
			}
			wc := toWireCookie(c)
			site.Cookies = append(site.Cookies, wc)
			req.Cookies = append(req.Cookies, wc)
		}
		req.Sites = append(req.Sites, site)
	}
	return req
}
