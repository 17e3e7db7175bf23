package auth

import "errors"

var (
	// ErrNoIDToken is returned when the token response doesn't contain an ID token.
	// This typically indicates a misconfigured scope set or provider application.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrMalformedTokenResponse is returned when the token endpoint body is not a JSON object.
	ErrMalformedTokenResponse = errors.New("malformed token response")

	// ErrMalformedIDToken is returned when the identity token is not a three part compact token
	// or its payload can't be decoded.
	ErrMalformedIDToken = errors.New("malformed id token")

	// ErrMissingState is returned when the stateParam cookie is absent.
	ErrMissingState = errors.New("missing state cookie")

	// ErrInvalidState is returned when the stateParam cookie is tampered, expired or malformed.
	ErrInvalidState = errors.New("invalid state cookie")

	// ErrEmptySecret is returned when a signer is created without a key.
	ErrEmptySecret = errors.New("signing secret can not be empty")
)
