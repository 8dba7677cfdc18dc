// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/oauth"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTokenReuse           = errors.New("token reuse detected")
	ErrEmailExists          = errors.New("email already exists")
	ErrEmailNotConfirmed    = errors.New("email not confirmed")
	ErrUnknownProvider      = errors.New("unknown identity provider")
	ErrOAuthState           = errors.New("oauth state missing or expired")
	ErrProviderEmail        = errors.New("provider email not verified")
	ErrIdentityDeleteDenied = errors.New("identity deletion disabled")
)

const (
	blacklistPrefix    = "blacklist:"
	oauthStatePrefix   = "oauth_state:"
	confirmationPrefix = "email_confirm:"
	expiredTokenGrace  = 24 * time.Hour
)

// ConfirmationSender delivers email confirmation tokens.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, token string) error
}

// LogConfirmationSender writes the confirmation path to the log. Suitable
// for development where no mailer is configured.
type LogConfirmationSender struct {
	Logger *slog.Logger
}

func (l LogConfirmationSender) SendConfirmation(ctx context.Context, email, token string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email confirmation issued",
		"email", email,
		"path", "/v1/auth/confirm?token="+token,
	)
	return nil
}

type Service struct {
	identities IdentityRepository
	tokens     TokenRepository
	jwt        *JWTManager
	redis      *redis.Client
	providers  oauth.Registry
	sender     ConfirmationSender
	cfg        config.AuthConfig
	logger     *slog.Logger
}

type ServiceDeps struct {
	Identities IdentityRepository
	Tokens     TokenRepository
	JWT        *JWTManager
	Redis      *redis.Client
	Providers  oauth.Registry
	Sender     ConfirmationSender
	Config     config.AuthConfig
	Logger     *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sender := deps.Sender
	if sender == nil {
		sender = LogConfirmationSender{Logger: logger}
	}

	return &Service{
		identities: deps.Identities,
		tokens:     deps.Tokens,
		jwt:        deps.JWT,
		redis:      deps.Redis,
		providers:  deps.Providers,
		sender:     sender,
		cfg:        deps.Config,
		logger:     logger,
	}
}

// AuthResult is the outcome of a sign-in or sign-up. Tokens is nil when the
// identity still has to confirm its email.
type AuthResult struct {
	Identity             *Identity
	Tokens               *TokenPair
	ConfirmationRequired bool
}

type ClientInfo struct {
	UserAgent string
	IPAddress string
}

func (s *Service) SignUp(
	ctx context.Context,
	email, password, fullName string,
	client ClientInfo,
) (*AuthResult, error) {
	identity, confirm, err := s.createPasswordIdentity(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	if confirm {
		return &AuthResult{Identity: identity, ConfirmationRequired: true}, nil
	}

	tokens, err := s.issueTokens(ctx, identity, client, "", nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Identity: identity, Tokens: tokens}, nil
}

// CreateIdentity registers a password identity on behalf of someone else.
// No tokens are issued.
func (s *Service) CreateIdentity(
	ctx context.Context,
	email, password, fullName string,
) (*Identity, bool, error) {
	return s.createPasswordIdentity(ctx, email, password, fullName)
}

func (s *Service) createPasswordIdentity(
	ctx context.Context,
	email, password, fullName string,
) (*Identity, bool, error) {
	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	identity := &Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &passwordHash,
		Provider:     ProviderEmail,
		FullName:     fullName,
	}
	if !s.cfg.RequireEmailConfirmation {
		now := time.Now()
		identity.EmailConfirmedAt = &now
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, false, ErrEmailExists
		}
		return nil, false, fmt.Errorf("create identity: %w", err)
	}

	if identity.IsConfirmed() {
		return identity, false, nil
	}

	if err := s.issueConfirmation(ctx, identity); err != nil {
		return nil, false, err
	}
	return identity, true, nil
}

func (s *Service) issueConfirmation(ctx context.Context, identity *Identity) error {
	token, err := core.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate confirmation token: %w", err)
	}

	key := confirmationPrefix + core.HashToken(token)
	if err := s.redis.Set(ctx, key, identity.ID, s.cfg.ConfirmationTTL).Err(); err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}

	if err := s.sender.SendConfirmation(ctx, identity.Email, token); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	key := confirmationPrefix + core.HashToken(token)

	identityID, err := s.redis.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("confirm email: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}

	if err := s.identities.ConfirmEmail(ctx, identityID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (s *Service) SignIn(
	ctx context.Context,
	email, password string,
	client ClientInfo,
) (*AuthResult, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // always verify to prevent account enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if s.cfg.RequireEmailConfirmation && !identity.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.identities.UpdatePassword(ctx, identity.ID, newHash)
	}

	tokens, err := s.issueTokens(ctx, identity, client, "", nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Identity: identity, Tokens: tokens}, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client ClientInfo,
) (*AuthResult, error) {
	storedToken, err := s.tokens.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.tokens.RevokeByFamilyID(ctx, storedToken.FamilyID)
		s.logger.WarnContext(ctx, "refresh token reuse",
			"identity_id", storedToken.UserID,
			"family_id", storedToken.FamilyID,
		)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	identity, err := s.identities.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	tokens, err := s.issueTokens(ctx, identity, client, storedToken.FamilyID, &storedToken.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Identity: identity, Tokens: tokens}, nil
}

// SignOut revokes the refresh token and blacklists the access token until
// it would have expired anyway. Either may be empty.
func (s *Service) SignOut(
	ctx context.Context,
	refreshToken string,
	access *AccessTokenClaims,
) error {
	if access != nil {
		if err := s.revokeAccessToken(ctx, access.JTI, access.ExpiresAt); err != nil {
			return err
		}
	}

	if refreshToken == "" {
		return nil
	}

	storedToken, err := s.tokens.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if access != nil && storedToken.UserID != access.IdentityID {
		return fmt.Errorf("sign out: %w", core.ErrForbidden)
	}

	if err := s.tokens.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) revokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// VerifyAccessToken checks signature, blacklist, and token version, and
// returns the identity the token belongs to.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*AccessTokenClaims, *Identity, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	exists, err := s.redis.Exists(ctx, blacklistPrefix+claims.JTI).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("check blacklist: %w", err)
	}
	if exists > 0 {
		return nil, nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	identity, err := s.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, nil, err
	}

	if claims.TokenVersion < identity.TokenVersion {
		return nil, nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, identity, nil
}

func (s *Service) IdentityByID(ctx context.Context, id string) (*Identity, error) {
	return s.identities.GetByID(ctx, id)
}

// DeleteIdentity removes the identity and kills all its sessions. It is
// refused unless identity deletion is enabled.
func (s *Service) DeleteIdentity(ctx context.Context, id string) error {
	if !s.cfg.AllowIdentityDeletion {
		return ErrIdentityDeleteDenied
	}

	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	if err := s.identities.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, expiredTokenGrace)
}

type oauthState struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// StartOAuth returns the consent URL for provider. The state and PKCE
// verifier are kept in Redis until the callback or expiry.
func (s *Service) StartOAuth(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	payload, err := json.Marshal(oauthState{Provider: p.Name(), Verifier: verifier})
	if err != nil {
		return "", fmt.Errorf("encode oauth state: %w", err)
	}
	if err := s.redis.Set(ctx, oauthStatePrefix+state, payload, s.cfg.OAuthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	return p.AuthCodeURL(state, verifier), nil
}

func (s *Service) CompleteOAuth(
	ctx context.Context,
	state, code string,
	client ClientInfo,
) (*AuthResult, error) {
	raw, err := s.redis.GetDel(ctx, oauthStatePrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOAuthState
	}
	if err != nil {
		return nil, fmt.Errorf("load oauth state: %w", err)
	}

	var st oauthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}

	p, ok := s.providers.Get(st.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}

	claims, err := p.Exchange(ctx, code, st.Verifier)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	if !claims.EmailVerified {
		return nil, ErrProviderEmail
	}

	identity, err := s.findOrCreateFederated(ctx, p.Name(), claims)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, identity, client, "", nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Identity: identity, Tokens: tokens}, nil
}

func (s *Service) findOrCreateFederated(
	ctx context.Context,
	provider string,
	claims *oauth.Claims,
) (*Identity, error) {
	identity, err := s.identities.GetByProviderSubject(ctx, provider, claims.Subject)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	identity, err = s.identities.GetByEmail(ctx, claims.Email)
	if err == nil {
		if err := s.identities.LinkProvider(ctx, identity.ID, provider, claims.Subject); err != nil {
			return nil, err
		}
		return s.identities.GetByID(ctx, identity.ID)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	subject := claims.Subject
	identity = &Identity{
		ID:               uuid.New().String(),
		Email:            claims.Email,
		Provider:         provider,
		ProviderSubject:  &subject,
		FullName:         claims.FullName(),
		AvatarURL:        claims.Picture,
		EmailConfirmedAt: &now,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return s.identities.GetByEmail(ctx, claims.Email)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "federated identity created",
		"identity_id", identity.ID,
		"provider", provider,
	)
	return identity, nil
}

func (s *Service) issueTokens(
	ctx context.Context,
	identity *Identity,
	client ClientInfo,
	familyID string,
	oldTokenID *string,
) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwt.CreateAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()
	err = s.tokens.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    identity.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.tokens.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshData.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(expiresAt) / time.Second),
		ExpiresAt:    expiresAt,
	}, nil
}
