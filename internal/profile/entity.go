// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

// Profile is the application-level record of an identity. There is exactly
// one per identity, keyed by the identity id.
type Profile struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FullName  string    `db:"full_name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Profile) IsClient() bool {
	return p.Role == RoleClient
}

// DisplayName falls back to the email when no name is set.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}
