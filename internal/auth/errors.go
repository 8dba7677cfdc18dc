// AngelaMos | 2026
// errors.go

package auth

import (
	"errors"
	"net/http"

	"github.com/carterperez-dev/storefront/internal/core"
)

// PublicError maps auth failures onto messages safe to show the user.
// Errors it does not recognise pass through unchanged.
func PublicError(err error) error {
	switch {
	case err == nil:
		return nil
	case core.IsAppError(err):
		return err
	case errors.Is(err, ErrInvalidCredentials):
		return core.NewAppError(err, "invalid email or password",
			http.StatusUnauthorized, "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailNotConfirmed):
		return core.NewAppError(err, "please confirm your email before signing in",
			http.StatusForbidden, "EMAIL_NOT_CONFIRMED")
	case errors.Is(err, ErrEmailExists):
		return core.DuplicateError("email")
	case errors.Is(err, ErrTokenReuse):
		return core.NewAppError(core.ErrTokenRevoked,
			"security alert: token reuse detected, all sessions revoked",
			http.StatusUnauthorized, "TOKEN_REUSE_DETECTED")
	case errors.Is(err, ErrUnknownProvider):
		return core.NewAppError(err, "sign-in provider is not available",
			http.StatusBadRequest, "UNKNOWN_PROVIDER")
	case errors.Is(err, ErrOAuthState):
		return core.NewAppError(err, "sign-in request expired, please try again",
			http.StatusBadRequest, "OAUTH_STATE")
	case errors.Is(err, ErrProviderEmail):
		return core.NewAppError(err, "your provider account email is not verified",
			http.StatusUnauthorized, "PROVIDER_EMAIL_UNVERIFIED")
	case errors.Is(err, ErrIdentityDeleteDenied):
		return core.NewAppError(err, "account deletion requires elevated privileges",
			http.StatusForbidden, "IDENTITY_DELETE_DENIED")
	case errors.Is(err, core.ErrTokenExpired),
		errors.Is(err, core.ErrTokenRevoked),
		errors.Is(err, core.ErrTokenInvalid):
		return core.ToAppError(err)
	}
	return err
}
