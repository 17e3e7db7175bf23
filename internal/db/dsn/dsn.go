// Package dsn builds connection strings for the database session storages.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/entra-rp/entra-rp/internal/config"
)

// MySQL builds a go-sql-driver DSN.
func MySQL(db *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s)/%s",
		db.User,
		db.Password,
		net.JoinHostPort(db.Host, strconv.Itoa(port(db.Port, 3306))), //nolint:mnd
		db.Name,
	)

	if db.Extras != "" {
		out += "?" + db.Extras
	}

	return out
}

// Postgres builds a postgres:// connection URI.
func Postgres(db *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(port(db.Port, 5432))), //nolint:mnd
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

func port(p, fallback int) int {
	if p == 0 {
		return fallback
	}

	return p
}
