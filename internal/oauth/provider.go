// AngelaMos | 2026
// provider.go

package oauth

import (
	"context"
	"strings"
)

// Claims are the verified identity fields returned by a provider. Profile
// fields may be empty.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// FullName joins the given and family names, skipping whichever is missing.
func (c *Claims) FullName() string {
	return strings.TrimSpace(c.GivenName + " " + c.FamilyName)
}

// Provider is an OAuth2 identity provider using the PKCE code flow. The
// verifier passed to Exchange must be the one AuthCodeURL was built from.
type Provider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*Claims, error)
}

// Registry looks providers up by name.
type Registry map[string]Provider

func NewRegistry(providers ...Provider) Registry {
	reg := make(Registry, len(providers))
	for _, p := range providers {
		if p != nil {
			reg[p.Name()] = p
		}
	}
	return reg
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
