// Package main provides the entry point of entra-rp, a minimal OAuth2
// authorization code relying party for Microsoft Entra ID. It serves a login
// link, redirects to the provider with a signed state cookie, exchanges the
// returned code for tokens and renders the claims of the identity token.
package main
