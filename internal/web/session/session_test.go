package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entra-rp/entra-rp/internal/auth"
)

func newStore(t *testing.T) *StorageStore {
	t.Helper()

	store := NewStorageStore(memory.New(), time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStorageStore(t *testing.T) {
	store := newStore(t)

	_, err := store.Get("")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("unknown")
	require.ErrorIs(t, err, ErrNotFound)

	data := &Data{
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		TokenSet:  &auth.TokenSet{IDToken: "h.eyJzdWIiOiJ1MSJ9.s", TokenType: "Bearer"},
	}
	require.NoError(t, store.Set("abc", data))

	got, err := store.Get("abc")
	require.NoError(t, err)
	assert.True(t, got.Authenticated())
	assert.Equal(t, data.TokenSet.IDToken, got.TokenSet.IDToken)
	assert.True(t, data.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, store.Destroy("abc"))

	_, err = store.Get("abc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStorageStoreCorrupt(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Storage.Set("bad", []byte("{"), 0))

	_, err := store.Get("bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDataAuthenticated(t *testing.T) {
	var nilData *Data

	assert.False(t, nilData.Authenticated())
	assert.False(t, (&Data{}).Authenticated())
	assert.True(t, (&Data{TokenSet: &auth.TokenSet{}}).Authenticated())
}

func TestGenerateSessionID(t *testing.T) {
	a, err := GenerateSessionID()
	require.NoError(t, err)

	b, err := GenerateSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestMiddleware(t *testing.T) {
	store := newStore(t)
	cfg := MiddlewareConfig{Store: store, CookieName: "session"}

	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ID(c))
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		ClearCookie(c, cfg)
		return c.SendStatus(fiber.StatusNoContent)
	})

	// first request creates a record
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id := cookies[0].Value

	data, err := store.Get(id)
	require.NoError(t, err)
	assert.False(t, data.Authenticated())

	// known id is kept
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Cookies())

	// unknown id is replaced
	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("Cookie", "session=chosen-by-client")

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Len(t, resp.Cookies(), 1)
	assert.NotEqual(t, "chosen-by-client", resp.Cookies()[0].Value)

	// clear
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/logout", nil), -1)
	require.NoError(t, err)

	var cleared bool

	for _, c := range resp.Cookies() {
		if c.Name == "session" && c.Value == "" {
			cleared = true
		}
	}

	assert.True(t, cleared)
}

func TestMiddlewareNext(t *testing.T) {
	store := newStore(t)

	app := fiber.New()
	app.Use(Middleware(MiddlewareConfig{
		Store:      store,
		CookieName: "session",
		Next:       func(c *fiber.Ctx) bool { return c.Path() == "/checkalive" },
	}))
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/checkalive", nil), -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Cookies())
}
