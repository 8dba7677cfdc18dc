// AngelaMos | 2026
// resolve_test.go

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/session"
)

func TestResolve(t *testing.T) {
	signedIn := func(role, path string) Input {
		return Input{
			Authenticated: true,
			ProfileLoaded: true,
			HasProfile:    true,
			Role:          role,
			Path:          path,
		}
	}

	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "initializing shows loading",
			in:   Input{Initializing: true, Path: "/admin/dashboard"},
			want: Decision{Kind: KindLoading},
		},
		{
			name: "no identity is public",
			in:   Input{Path: "/products"},
			want: Decision{Kind: KindPublic},
		},
		{
			name: "identity with profile pending is loading",
			in:   Input{Authenticated: true, Path: "/client/cart"},
			want: Decision{Kind: KindLoading},
		},
		{
			name: "finished load without profile recovers",
			in:   Input{Authenticated: true, ProfileLoaded: true, Path: "/client/cart"},
			want: Decision{Kind: KindRecovery},
		},
		{
			name: "admin inside namespace",
			in:   signedIn(profile.RoleAdmin, "/admin/orders"),
			want: Decision{Kind: KindAdmin},
		},
		{
			name: "admin namespace root lands on dashboard",
			in:   signedIn(profile.RoleAdmin, "/admin/"),
			want: Decision{Kind: KindRedirect, Location: AdminLanding},
		},
		{
			name: "admin outside namespace",
			in:   signedIn(profile.RoleAdmin, "/client/cart"),
			want: Decision{Kind: KindRedirect, Location: AdminLanding},
		},
		{
			name: "admin prefix lookalike",
			in:   signedIn(profile.RoleAdmin, "/administrator"),
			want: Decision{Kind: KindRedirect, Location: AdminLanding},
		},
		{
			name: "client inside namespace",
			in:   signedIn(profile.RoleClient, "/client/favorites"),
			want: Decision{Kind: KindClient},
		},
		{
			name: "client outside namespace",
			in:   signedIn(profile.RoleClient, "/admin/dashboard"),
			want: Decision{Kind: KindRedirect, Location: ClientLanding},
		},
		{
			name: "unknown role goes to root",
			in:   signedIn("auditor", "/products"),
			want: Decision{Kind: KindRedirect, Location: PublicRoot},
		},
		{
			name: "unknown role at root does not loop",
			in:   signedIn("auditor", "/"),
			want: Decision{Kind: KindPublic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestInputFromState(t *testing.T) {
	st := session.State{
		Phase:         session.PhaseReady,
		Identity:      &session.Identity{ID: "u1"},
		Profile:       &profile.Profile{ID: "u1", Role: profile.RoleClient},
		ProfileLoaded: true,
	}

	in := InputFromState(st, "/client/cart")
	assert.Equal(t, Input{
		Authenticated: true,
		ProfileLoaded: true,
		HasProfile:    true,
		Role:          profile.RoleClient,
		Path:          "/client/cart",
	}, in)

	in = InputFromState(session.State{Phase: session.PhaseAuthenticating}, "/")
	assert.True(t, in.Initializing)
	assert.Equal(t, KindLoading, Resolve(in).Kind)
}

func TestInNamespace(t *testing.T) {
	assert.True(t, InNamespace("/admin"))
	assert.True(t, InNamespace("/client/orders/"))
	assert.False(t, InNamespace("/clients"))
	assert.False(t, InNamespace("/products"))
}
