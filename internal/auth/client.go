// AngelaMos | 2026
// client.go

package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/session"
)

// Client is the per-request view of the auth service. It holds the caller's
// tokens and tells subscribers when the signed-in identity changes.
type Client struct {
	svc  *Service
	info ClientInfo

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	verified     bool
	claims       *AccessTokenClaims
	identity     *Identity
	verifyErr    error
	tokens       *TokenPair
	subscribers  map[int]func(context.Context, session.Event)
	nextSubID    int
}

func (s *Service) NewClient(accessToken string, info ClientInfo) *Client {
	return &Client{
		svc:         s,
		info:        info,
		accessToken: accessToken,
		subscribers: make(map[int]func(context.Context, session.Event)),
	}
}

// Attach builds the client for r from its bearer token and puts it on ctx
// for the auth handlers.
func (s *Service) Attach(ctx context.Context, r *http.Request) (context.Context, session.IdentityProvider) {
	c := s.NewClient(middleware.ExtractToken(r), ClientInfoFromRequest(r))
	return NewContext(ctx, c), c
}

// WithRefreshToken lets SignOut and Refresh act on the caller's refresh
// token.
func (c *Client) WithRefreshToken(token string) *Client {
	c.mu.Lock()
	c.refreshToken = token
	c.mu.Unlock()
	return c
}

// Tokens returns the pair issued during this request, if any.
func (c *Client) Tokens() *TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) Subscribe(fn func(context.Context, session.Event)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(ctx context.Context, e session.Event) {
	c.mu.Lock()
	fns := make([]func(context.Context, session.Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, e)
	}
}

func (c *Client) verify(ctx context.Context) (*AccessTokenClaims, *Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.verified {
		c.verified = true
		if c.accessToken != "" {
			c.claims, c.identity, c.verifyErr = c.svc.VerifyAccessToken(ctx, c.accessToken)
		}
	}
	return c.claims, c.identity, c.verifyErr
}

func (c *Client) CurrentIdentity(ctx context.Context) (*session.Identity, error) {
	_, identity, err := c.verify(ctx)
	if err != nil {
		return nil, PublicError(err)
	}
	if identity == nil {
		return nil, nil
	}
	return identity.ToSession(), nil
}

func (c *Client) signedIn(ctx context.Context, res *AuthResult, event session.EventType) *session.Identity {
	c.mu.Lock()
	c.identity = res.Identity
	c.tokens = res.Tokens
	c.accessToken = res.Tokens.AccessToken
	c.refreshToken = res.Tokens.RefreshToken
	c.claims = nil
	c.verified = false
	c.verifyErr = nil
	c.mu.Unlock()

	id := res.Identity.ToSession()
	c.emit(ctx, session.Event{Type: event, Identity: id})
	return id
}

func (c *Client) SignInWithPassword(
	ctx context.Context,
	email, password string,
) (*session.Identity, error) {
	res, err := c.svc.SignIn(ctx, email, password, c.info)
	if err != nil {
		return nil, PublicError(err)
	}
	return c.signedIn(ctx, res, session.EventSignedIn), nil
}

func (c *Client) SignUp(
	ctx context.Context,
	params session.SignUpParams,
) (*session.SignUpResult, error) {
	res, err := c.svc.SignUp(ctx, params.Email, params.Password, params.FullName, c.info)
	if err != nil {
		return nil, PublicError(err)
	}

	if res.Tokens == nil {
		return &session.SignUpResult{
			Identity:             res.Identity.ToSession(),
			ConfirmationRequired: res.ConfirmationRequired,
		}, nil
	}
	return &session.SignUpResult{Identity: c.signedIn(ctx, res, session.EventSignedIn)}, nil
}

func (c *Client) SignInWithProvider(ctx context.Context, provider string) (string, error) {
	url, err := c.svc.StartOAuth(ctx, provider)
	if err != nil {
		return "", PublicError(err)
	}
	return url, nil
}

// CompleteProviderSignIn finishes a federated sign-in started by
// SignInWithProvider.
func (c *Client) CompleteProviderSignIn(
	ctx context.Context,
	state, code string,
) (*session.Identity, error) {
	res, err := c.svc.CompleteOAuth(ctx, state, code, c.info)
	if err != nil {
		return nil, PublicError(err)
	}
	return c.signedIn(ctx, res, session.EventSignedIn), nil
}

// Refresh rotates the refresh token set by WithRefreshToken.
func (c *Client) Refresh(ctx context.Context) (*session.Identity, error) {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	res, err := c.svc.Refresh(ctx, refreshToken, c.info)
	if err != nil {
		return nil, PublicError(err)
	}
	return c.signedIn(ctx, res, session.EventTokenRefreshed), nil
}

func (c *Client) SignOut(ctx context.Context) error {
	claims, _, _ := c.verify(ctx) //nolint:errcheck // a dead access token is still signed out

	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if err := c.svc.SignOut(ctx, refreshToken, claims); err != nil {
		return PublicError(err)
	}

	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.claims = nil
	c.identity = nil
	c.tokens = nil
	c.verified = true
	c.verifyErr = nil
	c.mu.Unlock()

	c.emit(ctx, session.Event{Type: session.EventSignedOut})
	return nil
}

func (c *Client) CreateIdentity(
	ctx context.Context,
	params session.SignUpParams,
) (*session.SignUpResult, error) {
	identity, confirm, err := c.svc.CreateIdentity(ctx, params.Email, params.Password, params.FullName)
	if err != nil {
		return nil, PublicError(err)
	}
	return &session.SignUpResult{
		Identity:             identity.ToSession(),
		ConfirmationRequired: confirm,
	}, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, identityID string) error {
	return PublicError(c.svc.DeleteIdentity(ctx, identityID))
}

type clientKey struct{}

func NewContext(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

func ClientFromContext(ctx context.Context) (*Client, bool) {
	c, ok := ctx.Value(clientKey{}).(*Client)
	return c, ok && c != nil
}
