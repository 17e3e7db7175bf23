// Package daemon wires configuration, session storage, the identity provider
// client and the web service together.
package daemon

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/auth"
	"github.com/entra-rp/entra-rp/internal/config"
	"github.com/entra-rp/entra-rp/internal/metrics"
	"github.com/entra-rp/entra-rp/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start serves http until a shutdown signal arrives and the shutdown completed.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	addr := ":" + strconv.Itoa(d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Msg("starting web service")

	return d.webService.Start(addr)
}

// WebService returns the web service.
func (d *Daemon) WebService() *web.Service {
	return d.webService
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	sessionStorage, err := NewStorage(&cfg.Session.Storage)
	if err != nil {
		return nil, err
	}

	deps := web.Deps{
		Storage:  sessionStorage,
		Provider: auth.NewProvider(ProviderConfig(&cfg.Provider), nil),
		Metrics:  metrics.New(nil),
	}

	if cfg.Provider.Verify.Enabled {
		deps.Verifier = auth.NewIDTokenVerifier(ctx, &auth.VerifyConfig{
			ClientID:        cfg.Provider.ClientID,
			JWKSURL:         cfg.Provider.Verify.JWKSURL,
			Issuer:          cfg.Provider.Verify.Issuer,
			SkipIssuerCheck: cfg.Provider.Verify.SkipIssuerCheck,
		})

		log.Info().Str("jwks", cfg.Provider.Verify.JWKSURL).Msg("id token verification enabled")
	}

	webService, err := web.New(cfg, deps)
	if err != nil {
		_ = sessionStorage.Close()
		return nil, err
	}

	log.Info().Str("storage", cfg.Session.Storage.Type).Msg("session storage ready")

	return &Daemon{cfg: cfg, webService: webService}, nil
}

// ProviderConfig maps the provider settings to the oauth client configuration.
func ProviderConfig(p *config.Provider) *auth.ProviderConfig {
	return &auth.ProviderConfig{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		AuthorizeURL: p.AuthorizeURL,
		TokenURL:     p.TokenURL,
		RedirectURL:  p.RedirectURI,
		Scopes:       p.Scopes,
		Timeout:      p.TokenTimeout,
	}
}
