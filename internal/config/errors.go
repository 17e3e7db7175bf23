package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.url is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrSessionExpiryNotPositive error if session.expirytime is zero or negative.
	ErrSessionExpiryNotPositive = errors.New("config session.expirytime must be positive")

	// ErrDBHostRequired error if a database storage is selected without a host.
	ErrDBHostRequired = errors.New("config session.storage.db.host is required for mysql and postgres")
)
