// Package profile renders the identity token claims of the signed in user.
package profile

import (
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/middleware/auth"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

// markupEscaper escapes the characters that would start markup. Quotes are
// kept so the claims JSON is shown as sent.
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;") //nolint:gochecknoglobals

// EscapeMarkup escapes &, < and > in s.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	store session.Store
	title string
}

// New creates the profile handler.
func New(store session.Store, title string) *Service {
	if title == "" {
		title = handler.DefaultTitle
	}

	return &Service{store: store, title: title}
}

// Init registers the profile route.
func (s *Service) Init(app *fiber.App) error {
	if app == nil {
		return handler.ErrNilApp
	}

	app.Get(handler.ProfilePath, auth.New(s.store), s.Get)

	return nil
}

// Get renders the decoded claims of the authenticated session.
func (s *Service) Get(c *fiber.Ctx) error {
	data := auth.Data(c)
	if data == nil {
		return c.Redirect(handler.RootPath, fiber.StatusFound)
	}

	claims, err := data.TokenSet.Claims()
	if err != nil {
		log.Warn().Err(err).Msg("can't decode id token of session")
		return c.Redirect(handler.RootPath, fiber.StatusFound)
	}

	view := fiber.Map{
		"Title":     s.title,
		"Claims":    template.HTML(EscapeMarkup(claims)), //nolint:gosec // markup characters are escaped
		"TokenType": data.TokenSet.TokenType,
	}

	if data.TokenSet.AccessToken != "" {
		view["AccessTokenExpired"] = !data.TokenSet.Token().Valid()
	}

	if !data.TokenSet.Expiry.IsZero() {
		view["Expiry"] = data.TokenSet.Expiry.Format("2006-01-02 15:04:05 MST")
	}

	return c.Render("profile", view, handler.BaseLayout)
}
