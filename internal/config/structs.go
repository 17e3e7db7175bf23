package config

import (
	"time"

	"github.com/entra-rp/entra-rp/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool       `mapstructure:"devmode"` // disables Secure cookies and reloads templates from disk
	Title     string     `mapstructure:"title"`
	Log       logger.Log `mapstructure:"log"`
	Webserver Webserver  `mapstructure:"webserver"`
	Provider  Provider   `mapstructure:"provider"`
	Session   Session    `mapstructure:"session"`
}

// Webserver implement webserver settings.
type Webserver struct {
	Port           int    `mapstructure:"port" validate:"min=0,max=65535"`  // listening port
	URL            string `mapstructure:"url"`                              // public base url
	ShutDownTime   int    `mapstructure:"shutdowntime"`                     // seconds /checkalive reports 503 before stopping
	DisableRecover bool   `mapstructure:"disablerecover"`                   // disable recover middleware
	CookieSecret   string `mapstructure:"cookiesecret" validate:"required"` // signs the stateParam cookie
}

// Provider holds the identity provider client settings.
type Provider struct {
	ClientID     string        `mapstructure:"clientid" validate:"required"`
	ClientSecret string        `mapstructure:"clientsecret" validate:"required"`
	AuthorizeURL string        `mapstructure:"authorizeurl" validate:"required,url"`
	TokenURL     string        `mapstructure:"tokenurl" validate:"required,url"`
	RedirectURI  string        `mapstructure:"redirecturi" validate:"required,url"`
	Scopes       []string      `mapstructure:"scopes" validate:"min=1,dive,required"`
	TokenTimeout time.Duration `mapstructure:"tokentimeout"` // 0 disables the timeout
	Verify       Verify        `mapstructure:"verify"`
}

// Verify configures optional identity token signature verification.
type Verify struct {
	Enabled         bool   `mapstructure:"enabled"`
	JWKSURL         string `mapstructure:"jwksurl" validate:"required_if=Enabled true,omitempty,url"`
	Issuer          string `mapstructure:"issuer"`
	SkipIssuerCheck bool   `mapstructure:"skipissuercheck"`
}

// Session settings.
type Session struct {
	Secret     string        `mapstructure:"secret" validate:"required"` // derives the session cookie key
	CookieName string        `mapstructure:"cookiename" validate:"required"`
	ExpiryTime time.Duration `mapstructure:"expirytime"`
	Storage    Storage       `mapstructure:"storage"`
}

// Storage selects the session storage backend.
type Storage struct {
	Type       string        `mapstructure:"type" validate:"oneof=memory mysql postgres sqlite"`
	GCInterval time.Duration `mapstructure:"gcinterval"`
	Table      string        `mapstructure:"table"`
	DB         DB            `mapstructure:"db"`
	SQLitePath string        `mapstructure:"sqlitepath"`
}

// DB holds the database settings of the mysql and postgres session storages.
type DB struct {
	Extras   string `mapstructure:"extras"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}
