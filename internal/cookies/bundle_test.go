package cookies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auth(name, domain, path, value string) ClassifiedCookie {
	return ClassifiedCookie{
		RawCookie: RawCookie{Name: name, Domain: domain, Path: path, Value: value},
		Tag:       TagAuth,
		Reason:    ReasonKeyword,
	}
}

func TestBundle(t *testing.T) {
	in := []ClassifiedCookie{
		auth("token", ".github.com", "/", "1"),
		auth("session", "www.github.com", "/", "2"),
		auth("token", "github.com", "/", "duplicate"),
		auth("session", "app.linear.app", "/api", "3"),
		auth("session", "app.linear.app", "/", "4"),
		{RawCookie: RawCookie{Name: "_ga", Domain: ".github.com", Path: "/"}, Tag: TagNonAuth, Reason: ReasonDenylist},
	}

	bundles := Bundle(in)
	require.Len(t, bundles, 2)

	assert.Equal(t, "app.linear.app", bundles[0].Domain)
	assert.Equal(t, "github.com", bundles[1].Domain)

	gh := bundles[1].Cookies
	require.Len(t, gh, 2, "duplicate (name, domain, path) collapses and non-auth is dropped")
	assert.Equal(t, "session", gh[0].Name)
	assert.Equal(t, "token", gh[1].Name)
	assert.Equal(t, "1", gh[1].Value, "first occurrence wins")
	assert.Equal(t, ".github.com", gh[1].Domain, "original cookie domain is kept")

	linear := bundles[0].Cookies
	require.Len(t, linear, 2)
	assert.Equal(t, "/", linear[0].Path)
	assert.Equal(t, "/api", linear[1].Path)

	assert.Equal(t, 4, CookieCount(bundles))
}

func TestBundle_NoAuthCookies(t *testing.T) {
	in := []ClassifiedCookie{
		{RawCookie: RawCookie{Name: "theme", Domain: "a.com"}, Tag: TagNonAuth, Reason: ReasonDefault},
	}
	assert.Empty(t, Bundle(in))
	assert.Empty(t, Bundle(nil))
}

func TestBundle_SkipsEmptyDomain(t *testing.T) {
	assert.Empty(t, Bundle([]ClassifiedCookie{auth("token", ".", "/", "x")}))
}

func TestGroupBySite(t *testing.T) {
	raw := []RawCookie{
		{Name: "a", Domain: ".example.com"},
		{Name: "b", Domain: "www.example.com"},
		{Name: "c", Domain: "other.org"},
		{Name: "d", Domain: ""},
	}
	groups := GroupBySite(raw)
	require.Len(t, groups, 2)
	assert.Equal(t, []RawCookie{raw[0], raw[1]}, groups["example.com"])
	assert.Equal(t, []RawCookie{raw[2]}, groups["other.org"])
}
