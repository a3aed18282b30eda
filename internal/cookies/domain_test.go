package cookies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"example.com":        "example.com",
		".example.com":       "example.com",
		"www.example.com":    "example.com",
		".www.Example.COM":   "example.com",
		"example.com.":       "example.com",
		"  app.example.com ": "app.example.com",
		"wwwexample.com":     "wwwexample.com",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDomain(in), "NormalizeDomain(%q)", in)
	}
}

func TestDomainFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.github.com/login", "github.com"},
		{"http://localhost:3000/browser-sync/welcome", "localhost"},
		{"HTTPS://Mail.Google.com/mail/u/0/", "mail.google.com"},
		{"about:blank", ""},
		{"chrome://newtab/", ""},
		{"data:text/html,hello", ""},
		{"file:///tmp/x.html", ""},
		{"::not a url", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, DomainFromURL(tc.in))
		})
	}
}
