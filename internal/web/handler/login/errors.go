package login

import "errors"

var (
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrProviderError is returned when the provider redirected back with an error parameter.
	ErrProviderError = errors.New("provider returned an error")

	// ErrNoSession is returned when the callback request has no session attached.
	ErrNoSession = errors.New("no session attached to request")
)
