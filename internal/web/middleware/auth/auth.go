package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

const localsKey = "session_data"

// New returns a middleware that lets only authenticated sessions pass and
// redirects everything else to the landing page.
func New(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := session.Load(c, store)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Error().Err(err).Msg("failed to load session")
			}

			return c.Redirect(handler.RootPath, fiber.StatusFound)
		}

		if !data.Authenticated() {
			return c.Redirect(handler.RootPath, fiber.StatusFound)
		}

		c.Locals(localsKey, data)

		return c.Next()
	}
}

// Data returns the authenticated session data attached by New.
func Data(c *fiber.Ctx) *session.Data {
	data, _ := c.Locals(localsKey).(*session.Data)
	return data
}
