// Package hostgate decides which remote hosts the relay may fetch from.
//
// A Gate holds an ordered list of hostname fragments. An empty list allows
// every host. Otherwise a URL is allowed when at least one fragment occurs
// anywhere in its hostname. Matching is substring, not suffix: the fragment
// "example.com" also admits "example.com.attacker.net".
package hostgate

import (
	"net/url"
	"strings"

	"fetchrelay/internal/core"
)

// Gate is an immutable allow-list. The zero value allows all hosts.
type Gate struct {
	fragments []string
}

// New builds a Gate from hostname fragments. Fragments are trimmed and
// empty ones are dropped.
func New(fragments []string) *Gate {
	g := &Gate{}
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			g.fragments = append(g.fragments, f)
		}
	}
	return g
}

// Permissive reports whether the gate allows every host.
func (g *Gate) Permissive() bool {
	return g == nil || len(g.fragments) == 0
}

// Fragments returns a copy of the configured fragments.
func (g *Gate) Fragments() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.fragments...)
}

// Allowed reports whether rawURL's hostname matches the allow-list.
func (g *Gate) Allowed(rawURL string) bool {
	if g.Permissive() {
		return true
	}
	host := Hostname(rawURL)
	for _, f := range g.fragments {
		if strings.Contains(host, f) {
			return true
		}
	}
	return false
}

// Check returns a bad request error naming rawURL when it is not allowed.
func (g *Gate) Check(rawURL string) error {
	if g.Allowed(rawURL) {
		return nil
	}
	return core.NewBadRequestError("URL host not allowed by ALLOWED_HOSTS: "+rawURL, nil)
}

// Hostname extracts the host part of rawURL without port or brackets.
// Unparsable URLs yield "".
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
