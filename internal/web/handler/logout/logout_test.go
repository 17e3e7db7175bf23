package logout

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entra-rp/entra-rp/internal/auth"
	"github.com/entra-rp/entra-rp/internal/metrics"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

// failingStore fails every Destroy.
type failingStore struct {
	*session.StorageStore
}

func (failingStore) Destroy(string) error { return errors.New("storage down") }

func newApp(t *testing.T, store session.Store, m *metrics.Metrics) *fiber.App {
	t.Helper()

	cfg := session.MiddlewareConfig{Store: store, CookieName: "session"}

	app := fiber.New()
	app.Use(session.Middleware(cfg))
	require.NoError(t, New(store, cfg, m).Init(app))

	return app
}

func TestLogout(t *testing.T) {
	store := session.NewStorageStore(memory.New(), time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New(prometheus.NewRegistry())
	app := newApp(t, store, m)

	id, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, store.Set(id, &session.Data{TokenSet: &auth.TokenSet{IDToken: "h.e30.s"}}))

	req := httptest.NewRequest(fiber.MethodGet, Path, nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: id})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	_, err = store.Get(id)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.Len(t, resp.Cookies(), 1)
	assert.Empty(t, resp.Cookies()[0].Value)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Logout.WithLabelValues(metrics.ResultOK)), 0)
}

func TestLogoutDestroyFails(t *testing.T) {
	store := failingStore{session.NewStorageStore(memory.New(), time.Hour)}
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New(prometheus.NewRegistry())
	app := newApp(t, store, m)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, Path, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
	assert.InDelta(t, 1, testutil.ToFloat64(m.Logout.WithLabelValues(metrics.ResultError)), 0)
}
