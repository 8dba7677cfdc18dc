// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p *Profile) error {
	if !ValidRole(p.Role) {
		return fmt.Errorf(
			"create profile: invalid role %q: %w",
			p.Role,
			core.ErrInvalidInput,
		)
	}
	p.Email = strings.ToLower(p.Email)
	return s.repo.Create(ctx, p)
}

func (s *Service) Upsert(ctx context.Context, p *Profile) error {
	if !ValidRole(p.Role) {
		return fmt.Errorf(
			"upsert profile: invalid role %q: %w",
			p.Role,
			core.ErrInvalidInput,
		)
	}
	p.Email = strings.ToLower(p.Email)
	return s.repo.Upsert(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ListAll walks every page of profiles ordered by name.
func (s *Service) ListAll(ctx context.Context) ([]Profile, error) {
	params := ListParams{Page: 1, PageSize: 100}

	var all []Profile
	for {
		page, total, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		params.Page++
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Profile, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) ListCustomers(
	ctx context.Context,
	params ListParams,
) ([]Profile, int, error) {
	params.Role = RoleClient
	return s.repo.List(ctx, params)
}

func (s *Service) CountCustomers(ctx context.Context) (int, error) {
	return s.repo.CountByRole(ctx, RoleClient)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

// UpdateMe changes the caller's own display name. Role is never writable
// from here.
func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	if req.FullName != nil {
		if err := s.repo.UpdateName(ctx, userID, *req.FullName); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, userID)
}
