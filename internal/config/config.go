// Package config reads the service configuration from defaults, an optional
// TOML file, a .env file and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. ENTRA_RP_WEBSERVER_PORT.
	EnvPrefix = "ENTRA_RP"

	// DefaultPath is read when no config file was given and it exists.
	DefaultPath = "./etc/main.toml"

	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"

	// CallbackPath is appended to webserver.url when provider.redirecturi is not set.
	CallbackPath = "/auth/callback"

	masked = "********"
)

// envAliases binds the unprefixed variable names used by existing deployments.
var envAliases = map[string]string{ //nolint:gochecknoglobals
	"provider.clientid":      "CLIENT_ID",
	"provider.clientsecret":  "CLIENT_SECRET_VALUE",
	"session.secret":         "SECRET",
	"webserver.cookiesecret": "COOKIE_SECRET",
	"webserver.port":         "PORT",
}

// SetDefaults registers every known key so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("devmode", false)
	v.SetDefault("title", "Entra ID relying party")

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "entra-rp")
	v.SetDefault("log.servicename", "entra-rp")
	v.SetDefault("log.reportcaller", false)
	v.SetDefault("log.enableaccesslogtoconsole", true)
	v.SetDefault("log.disablecheckalive", true)
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.console.useconsolewriter", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "./log")

	for _, name := range []string{"access", "error", "info", "trace", "warn"} {
		v.SetDefault("log.file."+name+".name", name+".log")
		v.SetDefault("log.file."+name+".maxsize", 100)  //nolint:mnd
		v.SetDefault("log.file."+name+".maxbackups", 7) //nolint:mnd
		v.SetDefault("log.file."+name+".maxage", 30)    //nolint:mnd
	}

	v.SetDefault("webserver.port", 3000) //nolint:mnd
	v.SetDefault("webserver.url", "http://localhost:3000")
	v.SetDefault("webserver.shutdowntime", 5) //nolint:mnd
	v.SetDefault("webserver.disablerecover", false)
	v.SetDefault("webserver.cookiesecret", "")

	v.SetDefault("provider.clientid", "")
	v.SetDefault("provider.clientsecret", "")
	v.SetDefault("provider.authorizeurl", "https://login.microsoftonline.com/common/oauth2/v2.0/authorize")
	v.SetDefault("provider.tokenurl", "https://login.microsoftonline.com/common/oauth2/v2.0/token")
	v.SetDefault("provider.redirecturi", "") // derived from webserver.url when empty
	v.SetDefault("provider.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("provider.tokentimeout", "30s")
	v.SetDefault("provider.verify.enabled", false)
	v.SetDefault("provider.verify.jwksurl", "https://login.microsoftonline.com/common/discovery/v2.0/keys")
	v.SetDefault("provider.verify.issuer", "")
	v.SetDefault("provider.verify.skipissuercheck", true)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookiename", "session")
	v.SetDefault("session.expirytime", "24h")
	v.SetDefault("session.storage.type", "memory")
	v.SetDefault("session.storage.gcinterval", "10s")
	v.SetDefault("session.storage.table", "sessions")
	v.SetDefault("session.storage.sqlitepath", "./sessions.db")
	v.SetDefault("session.storage.db.host", "")
	v.SetDefault("session.storage.db.port", 0)
	v.SetDefault("session.storage.db.user", "")
	v.SetDefault("session.storage.db.password", "")
	v.SetDefault("session.storage.db.name", "")
	v.SetDefault("session.storage.db.extras", "")
}

// ReadConfig builds the configuration. An empty path falls back to DefaultPath
// when that file exists.
func ReadConfig(path string) (Config, error) {
	var c Config

	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envAliases {
		if err := v.BindEnv(key, env, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return Config{}, errors.Wrapf(err, "failed to bind env %s", env)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")

		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if c.Provider.RedirectURI == "" && c.Webserver.URL != "" {
		c.Provider.RedirectURI = strings.TrimRight(c.Webserver.URL, "/") + CallbackPath
	}

	return c, validate(&c)
}

// loadDotEnv exports the variables of a dotenv file without overriding the
// real environment.
func loadDotEnv(file string) error {
	if _, err := os.Stat(file); err != nil {
		return nil //nolint:nilerr // the file is optional
	}

	dotenv := viper.New()
	dotenv.SetConfigFile(file)
	dotenv.SetConfigType("env")

	if err := dotenv.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read %s", file)
	}

	for _, key := range dotenv.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}

		if err := os.Setenv(name, dotenv.GetString(key)); err != nil {
			return errors.Wrapf(err, "failed to export %s", name)
		}
	}

	return nil
}

// DumpConfigJSON renders c as indented JSON with secrets masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	out := *c
	out.Provider.ClientSecret = mask(out.Provider.ClientSecret)
	out.Session.Secret = mask(out.Session.Secret)
	out.Webserver.CookieSecret = mask(out.Webserver.CookieSecret)
	out.Session.Storage.DB.Password = mask(out.Session.Storage.DB.Password)

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(out); err != nil {
		return "", err //nolint:wrapcheck
	}

	return buffer.String(), nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return masked
}

// validate checks struct tags first, then the rules tags can't express.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.Session.ExpiryTime <= 0 {
		return errors.Wrap(ErrSessionExpiryNotPositive, invalidErrMessage)
	}

	switch c.Session.Storage.Type {
	case "mysql", "postgres":
		if c.Session.Storage.DB.Host == "" {
			return errors.Wrap(ErrDBHostRequired, invalidErrMessage)
		}
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // default of 5 seconds
	}

	return nil
}
