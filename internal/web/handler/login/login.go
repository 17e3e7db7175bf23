// Package login implements the authorization code flow: the redirect to the
// identity provider and the callback exchanging the code for tokens.
package login

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/auth"
	"github.com/entra-rp/entra-rp/internal/metrics"
	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

const (
	// Path starts the login.
	Path = handler.RootPath + "auth"

	// CallbackPath is the redirect target registered at the provider.
	CallbackPath = Path + "/callback"

	invalidState = "Invalid State"
)

// Provider builds the authorization redirect and exchanges codes.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.TokenSet, error)
}

// Verifier checks the identity token signature and claims.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Config holds the collaborators of the login handler.
type Config struct {
	Provider Provider
	// Verifier is optional, nil skips identity token verification.
	Verifier Verifier
	Signer   *auth.StateSigner
	Store    session.Store
	Metrics  *metrics.Metrics
	// Secure marks the stateParam cookie https only.
	Secure bool
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg Config
	now func() time.Time
}

// New creates the login handler.
func New(cfg Config) (*Service, error) {
	if cfg.Provider == nil || cfg.Signer == nil || cfg.Store == nil {
		return nil, errors.Wrap(handler.ErrNilDependency, "login needs provider, signer and store")
	}

	return &Service{cfg: cfg, now: time.Now}, nil
}

// Init registers the login routes.
func (s *Service) Init(app *fiber.App) error {
	if app == nil {
		return handler.ErrNilApp
	}

	app.Get(Path, s.Start)
	app.Get(CallbackPath, s.Callback)

	return nil
}

// Start stores a fresh nonce in the signed stateParam cookie and redirects
// to the authorization endpoint.
func (s *Service) Start(c *fiber.Ctx) error {
	nonce, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	signed, err := s.cfg.Signer.Sign(nonce)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	ttl := s.cfg.Signer.TTL()

	c.Cookie(&fiber.Cookie{
		Name:     auth.StateCookieName,
		Value:    signed,
		Path:     handler.RootPath,
		MaxAge:   int(ttl.Seconds()),
		Expires:  s.now().Add(ttl),
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	s.cfg.Metrics.FlowStart()

	return c.Redirect(s.cfg.Provider.AuthURL(nonce), fiber.StatusFound)
}

// Callback handles the redirect back from the provider.
func (s *Service) Callback(c *fiber.Ctx) error {
	signed := c.Cookies(auth.StateCookieName)
	s.clearStateCookie(c)

	flow := &callbackFlow{state: awaitingCode}

	for !flow.state.terminal() {
		switch flow.state {
		case awaitingCode:
			s.validateState(c, flow, signed)
		case stateValidated:
			s.exchange(c, flow)
		case tokenExchanged:
			s.establish(c, flow)
		default:
			flow.fail(failed, errors.Errorf("unexpected callback state %s", flow.state))
		}
	}

	switch flow.state {
	case rejected:
		log.Warn().Err(flow.err).Str("IP", c.IP()).Msg("callback rejected")
		s.cfg.Metrics.CallbackDone(metrics.OutcomeRejected)

		return c.Status(fiber.StatusUnprocessableEntity).SendString(invalidState)
	case failed:
		log.Error().Err(flow.err).Msg("login failed")
		s.cfg.Metrics.CallbackDone(metrics.OutcomeFailed)

		return c.Redirect(handler.RootPath, fiber.StatusFound)
	default:
		s.cfg.Metrics.CallbackDone(metrics.OutcomeSessionEstablished)

		return c.Redirect(handler.ProfilePath, fiber.StatusFound)
	}
}

func (s *Service) validateState(c *fiber.Ctx, flow *callbackFlow, signed string) {
	nonce, err := s.cfg.Signer.Verify(signed)
	if err != nil {
		flow.fail(rejected, err)
		return
	}

	if !auth.MatchState(nonce, c.Query("state")) {
		flow.fail(rejected, auth.ErrInvalidState)
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		flow.fail(failed, errors.Wrapf(ErrProviderError, "%s: %s", providerErr, c.Query("error_description")))
		return
	}

	flow.code = c.Query("code")
	if flow.code == "" {
		flow.fail(failed, ErrMissingCode)
		return
	}

	flow.advance(stateValidated)
}

func (s *Service) exchange(c *fiber.Ctx, flow *callbackFlow) {
	ctx := c.UserContext()
	start := time.Now()

	tokens, err := s.cfg.Provider.Exchange(ctx, flow.code)
	s.cfg.Metrics.ExchangeSince(start)

	if err != nil {
		flow.fail(failed, errors.Wrap(err, "token exchange failed"))
		return
	}

	if s.cfg.Verifier != nil {
		if _, err = s.cfg.Verifier.Verify(ctx, tokens.IDToken); err != nil {
			flow.fail(failed, errors.Wrap(err, "id token verification failed"))
			return
		}
	}

	flow.tokens = tokens
	flow.advance(tokenExchanged)
}

func (s *Service) establish(c *fiber.Ctx, flow *callbackFlow) {
	id := session.ID(c)
	if id == "" {
		flow.fail(failed, ErrNoSession)
		return
	}

	data := &session.Data{CreatedAt: s.now().UTC()}
	if prev, err := s.cfg.Store.Get(id); err == nil {
		data.CreatedAt = prev.CreatedAt
	}

	data.TokenSet = flow.tokens

	if err := s.cfg.Store.Set(id, data); err != nil {
		flow.fail(failed, errors.Wrap(err, "failed to store token set"))
		return
	}

	flow.advance(sessionEstablished)
}

func (s *Service) clearStateCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.StateCookieName,
		Value:    "",
		Path:     handler.RootPath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
