// AngelaMos | 2026
// entity.go

package auth

import (
	"time"

	"github.com/carterperez-dev/storefront/internal/session"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// Identity is the authentication principal. Application data (name, role)
// lives in the profile keyed by the same id.
type Identity struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     *string    `db:"password_hash"`
	Provider         string     `db:"provider"`
	ProviderSubject  *string    `db:"provider_subject"`
	FullName         string     `db:"full_name"`
	AvatarURL        string     `db:"avatar_url"`
	EmailConfirmedAt *time.Time `db:"email_confirmed_at"`
	TokenVersion     int        `db:"token_version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (i *Identity) IsConfirmed() bool {
	return i.EmailConfirmedAt != nil
}

// ToSession converts the row into the shape the session store consumes.
func (i *Identity) ToSession() *session.Identity {
	return &session.Identity{
		ID:             i.ID,
		Email:          i.Email,
		Provider:       i.Provider,
		EmailConfirmed: i.IsConfirmed(),
		Metadata: session.Metadata{
			FullName:  i.FullName,
			AvatarURL: i.AvatarURL,
		},
	}
}

type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked() && !t.IsUsed
}

// TokenPair is what a successful sign-in hands back to the caller.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}
