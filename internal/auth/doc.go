// Package auth implements the relying-party side of the OAuth2 authorization
// code flow against a single identity provider.
//
// # Flow
//
//   - GenerateStateToken creates the per-attempt anti-forgery nonce.
//   - StateSigner signs the nonce into the short lived stateParam cookie and
//     verifies it again on callback. The cookie is signed, not encrypted.
//   - Provider.AuthURL builds the authorization redirect.
//   - Provider.Exchange posts the authorization code to the token endpoint and
//     returns the TokenSet.
//   - DecodeIDTokenPayload extracts the claims segment of the identity token
//     without verifying it.
//   - IDTokenVerifier optionally checks signature, audience and expiry of the
//     identity token against the provider JWKS.
//
// Example usage:
//
//	provider := auth.NewProvider(&auth.ProviderConfig{...}, nil)
//	nonce, err := auth.GenerateStateToken()
//	signed, err := signer.Sign(nonce)
//	redirect := provider.AuthURL(nonce)
//
//	// on callback
//	cookieNonce, err := signer.Verify(c.Cookies(auth.StateCookieName))
//	if !auth.MatchState(cookieNonce, c.Query("state")) { ... }
//	tokenSet, err := provider.Exchange(ctx, c.Query("code"))
package auth
