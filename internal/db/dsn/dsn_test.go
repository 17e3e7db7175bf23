package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entra-rp/entra-rp/internal/config"
)

func TestMySQL(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "full",
			db:   config.DB{User: "rp", Password: "pw", Host: "db", Port: 3307, Name: "sessions", Extras: "parseTime=true"},
			want: "rp:pw@tcp(db:3307)/sessions?parseTime=true",
		},
		{
			name: "default port no extras",
			db:   config.DB{User: "rp", Password: "pw", Host: "db", Name: "sessions"},
			want: "rp:pw@tcp(db:3306)/sessions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MySQL(&tt.db))
		})
	}
}

func TestPostgres(t *testing.T) {
	db := config.DB{User: "rp", Password: "p@ss", Host: "db", Name: "sessions", Extras: "sslmode=disable"}

	assert.Equal(t, "postgres://rp:p%40ss@db:5432/sessions?sslmode=disable", Postgres(&db))
}
