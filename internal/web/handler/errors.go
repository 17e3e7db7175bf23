package handler

import "errors"

var (
	// ErrNilApp is returned by Init when no fiber app is given.
	ErrNilApp = errors.New("fiber app is nil")

	// ErrNilDependency is returned by constructors missing a required collaborator.
	ErrNilDependency = errors.New("required dependency is nil")
)
