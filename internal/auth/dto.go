// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterRequest has no role field. Self-registration always yields a
// client.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	Authenticated bool                     `json:"authenticated"`
	Phase         session.Phase            `json:"phase"`
	Identity      *session.Identity        `json:"identity,omitempty"`
	Profile       *profile.ProfileResponse `json:"profile,omitempty"`
	ProfileLoaded bool                     `json:"profile_loaded"`
	Tokens        *TokenPair               `json:"tokens,omitempty"`
}

type RegisterResponse struct {
	SessionResponse
	ConfirmationRequired bool `json:"confirmation_required"`
}

func toSessionResponse(st session.State, tokens *TokenPair) SessionResponse {
	resp := SessionResponse{
		Authenticated: st.IsAuthenticated(),
		Phase:         st.Phase,
		Identity:      st.Identity,
		ProfileLoaded: st.ProfileLoaded,
		Tokens:        tokens,
	}
	if st.Profile != nil {
		p := profile.ToProfileResponse(st.Profile)
		resp.Profile = &p
	}
	return resp
}
