// AngelaMos | 2026
// resolve.go

// Package router decides, per request, which application subtree serves a
// caller: public, client or admin. The decision is a pure function of the
// session state and the requested path.
package router

import (
	"strings"

	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/session"
)

const (
	AdminNamespace  = "/admin"
	ClientNamespace = "/client"

	AdminLanding  = AdminNamespace + "/dashboard"
	ClientLanding = ClientNamespace + "/products"

	PublicRoot = "/"
)

type Kind string

const (
	KindLoading  Kind = "loading"
	KindRecovery Kind = "recovery"
	KindPublic   Kind = "public"
	KindAdmin    Kind = "admin"
	KindClient   Kind = "client"
	KindRedirect Kind = "redirect"
)

type Input struct {
	Initializing  bool
	Authenticated bool
	ProfileLoaded bool
	HasProfile    bool
	Role          string
	Path          string
}

// InputFromState captures what Resolve needs from a session snapshot.
func InputFromState(st session.State, path string) Input {
	return Input{
		Initializing:  st.Initializing(),
		Authenticated: st.IsAuthenticated(),
		ProfileLoaded: st.ProfileLoaded,
		HasProfile:    st.Profile != nil,
		Role:          st.Role(),
		Path:          path,
	}
}

type Decision struct {
	Kind     Kind
	Location string
}

func Resolve(in Input) Decision {
	if in.Initializing {
		return Decision{Kind: KindLoading}
	}
	if !in.Authenticated {
		return Decision{Kind: KindPublic}
	}
	if !in.ProfileLoaded {
		return Decision{Kind: KindLoading}
	}
	// A finished load without a profile must not redirect, or the caller
	// would bounce between landing views forever.
	if !in.HasProfile {
		return Decision{Kind: KindRecovery}
	}

	switch in.Role {
	case profile.RoleAdmin:
		return within(in.Path, AdminNamespace, AdminLanding, KindAdmin)
	case profile.RoleClient:
		return within(in.Path, ClientNamespace, ClientLanding, KindClient)
	}

	if cleanPath(in.Path) == PublicRoot {
		return Decision{Kind: KindPublic}
	}
	return Decision{Kind: KindRedirect, Location: PublicRoot}
}

func within(path, namespace, landing string, kind Kind) Decision {
	p := cleanPath(path)
	if p == namespace {
		return Decision{Kind: KindRedirect, Location: landing}
	}
	if strings.HasPrefix(p, namespace+"/") {
		return Decision{Kind: kind}
	}
	return Decision{Kind: KindRedirect, Location: landing}
}

func cleanPath(p string) string {
	if p = strings.TrimRight(p, "/"); p == "" {
		return PublicRoot
	}
	return p
}

// InNamespace reports whether path belongs to one of the role namespaces.
func InNamespace(path string) bool {
	p := cleanPath(path)
	for _, ns := range []string{AdminNamespace, ClientNamespace} {
		if p == ns || strings.HasPrefix(p, ns+"/") {
			return true
		}
	}
	return false
}
