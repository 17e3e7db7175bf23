package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const localsKey = "session_id"

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// Next defines a function to skip this middleware when returned true.
	Next func(c *fiber.Ctx) bool

	Store      Store
	CookieName string
	// Secure marks the cookie https only; false in dev mode.
	Secure bool
}

// Middleware makes sure every request has a stored session. Unknown ids are
// replaced by a fresh one, so a client can't choose its own id.
func Middleware(cfg MiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		if id := c.Cookies(cfg.CookieName); id != "" {
			_, err := cfg.Store.Get(id)
			if err == nil {
				c.Locals(localsKey, id)
				return c.Next()
			}

			if !errors.Is(err, ErrNotFound) {
				log.Error().Err(err).Msg("failed to read session, starting a new one")
			}
		}

		id, err := GenerateSessionID()
		if err != nil {
			return err
		}

		if err = cfg.Store.Set(id, &Data{CreatedAt: time.Now().UTC()}); err != nil {
			return pkgerrors.Wrap(err, "failed to create session")
		}

		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			Secure:   cfg.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		c.Locals(localsKey, id)

		return c.Next()
	}
}

// ID returns the session id the middleware attached to c.
func ID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsKey).(string)
	return id
}

// Load returns the session data of the current request.
func Load(c *fiber.Ctx, store Store) (*Data, error) {
	return store.Get(ID(c))
}

// ClearCookie expires the session cookie in the browser.
func ClearCookie(c *fiber.Ctx, cfg MiddlewareConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
