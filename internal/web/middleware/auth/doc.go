// Package auth provides authentication middleware for the web application.
//
// The middleware loads the session of the request and redirects to the
// landing page unless a token set was stored by the login callback. The
// session data is attached to fiber.Locals for the handler.
//
// Usage:
//
//	app.Get("/profile", auth.New(store), handler)
package auth
