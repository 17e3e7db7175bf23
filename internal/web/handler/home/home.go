// Package home serves the landing page with the login link.
package home

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

// Service is the home handler service.
type Service struct {
	handler.Service
	store session.Store
	title string
}

// New creates the home handler.
func New(store session.Store, title string) *Service {
	if title == "" {
		title = handler.DefaultTitle
	}

	return &Service{store: store, title: title}
}

// Init registers the home route.
func (s *Service) Init(app *fiber.App) error {
	if app == nil {
		return handler.ErrNilApp
	}

	app.Get(handler.RootPath, s.Get)

	return nil
}

// Get renders the landing page.
func (s *Service) Get(c *fiber.Ctx) error {
	data, err := session.Load(c, s.store)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		log.Error().Err(err).Msg("failed to load session")
	}

	return c.Render("index", fiber.Map{
		"Title":         s.title,
		"Authenticated": err == nil && data.Authenticated(),
	}, handler.BaseLayout)
}
