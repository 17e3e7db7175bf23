// Package logout ends the session.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/metrics"
	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

// Path ends the session.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	store   session.Store
	cookie  session.MiddlewareConfig
	metrics *metrics.Metrics
}

// New creates the logout handler. cookie names the session cookie to clear.
func New(store session.Store, cookie session.MiddlewareConfig, m *metrics.Metrics) *Service {
	return &Service{store: store, cookie: cookie, metrics: m}
}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App) error {
	if app == nil {
		return handler.ErrNilApp
	}

	app.Get(Path, s.Logout)

	return nil
}

// Logout handles user logout by clearing the session.
func (s *Service) Logout(c *fiber.Ctx) error {
	var err error

	if id := session.ID(c); id != "" {
		if err = s.store.Destroy(id); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	s.metrics.LogoutDone(err)

	// Clear the session cookie
	session.ClearCookie(c, s.cookie)

	return c.Redirect(handler.RootPath, fiber.StatusFound)
}
