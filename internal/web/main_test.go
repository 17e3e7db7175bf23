package web

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entra-rp/entra-rp/internal/auth"
	"github.com/entra-rp/entra-rp/internal/config"
	"github.com/entra-rp/entra-rp/internal/metrics"
)

type testEnv struct {
	svc      *Service
	exchange atomic.Int32
	status   atomic.Int32
}

func newTestConfig(tokenURL string) *config.Config {
	return &config.Config{
		Title: "Entra ID login",
		Webserver: config.Webserver{
			Port:         3000,
			CookieSecret: "cookie-secret",
		},
		Provider: config.Provider{
			ClientID:     "client",
			ClientSecret: "secret",
			AuthorizeURL: "https://login.example.com/authorize",
			TokenURL:     tokenURL,
			RedirectURI:  "http://localhost:3000/auth/callback",
			Scopes:       []string{"openid", "profile"},
		},
		Session: config.Session{
			Secret:     "session-secret",
			CookieName: "session",
			ExpiryTime: time.Hour,
		},
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{}
	env.status.Store(http.StatusOK)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		env.exchange.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(env.status.Load()))
		_, _ = io.WriteString(w, `{"id_token":"h.eyJzdWIiOiJ1MSJ9.s"}`)
	}))
	t.Cleanup(tokenServer.Close)

	cfg := newTestConfig(tokenServer.URL)
	reg := prometheus.NewRegistry()

	provider := auth.NewProvider(&auth.ProviderConfig{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		AuthorizeURL: cfg.Provider.AuthorizeURL,
		TokenURL:     cfg.Provider.TokenURL,
		RedirectURL:  cfg.Provider.RedirectURI,
		Scopes:       cfg.Provider.Scopes,
	}, tokenServer.Client())

	svc, err := New(cfg, Deps{
		Storage:  memory.New(),
		Provider: provider,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})
	require.NoError(t, err)

	env.svc = svc
	t.Cleanup(func() { _ = svc.store.Close() })

	return env
}

// browser keeps cookies between requests.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (b *browser) get(target string) (*http.Response, string) {
	b.t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)

	for _, c := range resp.Cookies() {
		if c.Value == "" || c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}

		b.cookies[c.Name] = &http.Cookie{Name: c.Name, Value: c.Value}
	}

	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	return resp, string(body)
}

func newBrowser(t *testing.T, env *testEnv) *browser {
	t.Helper()

	return &browser{t: t, app: env.svc.App, cookies: map[string]*http.Cookie{}}
}

func startLogin(t *testing.T, b *browser) string {
	t.Helper()

	resp, _ := b.get("/auth")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get(fiber.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "login.example.com", location.Host)

	q := location.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "query", q.Get("response_mode"))
	assert.Equal(t, "openid profile", q.Get("scope"))
	assert.Equal(t, "http://localhost:3000/auth/callback", q.Get("redirect_uri"))

	return q.Get("state")
}

func TestHome(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	resp, body := b.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/auth"`)
	assert.Contains(t, body, "Login with Microsoft Entra ID")
	assert.Contains(t, body, "<title>Entra ID login</title>")
	assert.Contains(t, b.cookies, "session")
}

func TestLoginFlow(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	state := startLogin(t, b)
	require.Contains(t, b.cookies, auth.StateCookieName)

	resp, _ := b.get("/auth/callback?code=c&state=" + state)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, int32(1), env.exchange.Load())
	assert.NotContains(t, b.cookies, auth.StateCookieName)

	resp, body := b.get("/profile")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"sub":"u1"`)

	_, body = b.get("/")
	assert.Contains(t, body, `href="/profile"`)

	resp, _ = b.get("/logout")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = b.get("/profile")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestLogoutKeepsOldCookieUnauthenticated(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	state := startLogin(t, b)
	b.get("/auth/callback?code=c&state=" + state)

	old := *b.cookies["session"]

	b.get("/logout")

	// replaying the pre-logout cookie must not restore the session
	b.cookies = map[string]*http.Cookie{"session": &old}

	resp, _ := b.get("/profile")
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestCallbackStateMismatch(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	startLogin(t, b)

	resp, body := b.get("/auth/callback?code=c&state=xyz999")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Invalid State", body)
	assert.Zero(t, env.exchange.Load())

	resp, _ = b.get("/profile")
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestCallbackTokenEndpointFails(t *testing.T) {
	env := newEnv(t)
	env.status.Store(http.StatusBadRequest)

	b := newBrowser(t, env)
	state := startLogin(t, b)

	resp, _ := b.get("/auth/callback?code=c&state=" + state)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, int32(1), env.exchange.Load())

	resp, _ = b.get("/profile")
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestCheckAlive(t *testing.T) {
	env := newEnv(t)

	resp, err := env.svc.App.Test(httptest.NewRequest(fiber.MethodGet, CheckAlivePath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
	assert.True(t, env.svc.Alive())

	env.svc.alive.Store(false)

	resp, err = env.svc.App.Test(httptest.NewRequest(fiber.MethodGet, CheckAlivePath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	startLogin(t, b)

	resp, body := b.get(MetricsPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "auth_flow_started_total 1")
}

func TestSessionCookieEncrypted(t *testing.T) {
	env := newEnv(t)
	b := newBrowser(t, env)

	b.get("/")

	cookie := b.cookies["session"]
	require.NotNil(t, cookie)
	assert.NotEqual(t, 64, len(cookie.Value), "session id must not be sent in clear")

	// a forged cookie is dropped and replaced
	b.cookies["session"] = &http.Cookie{Name: "session", Value: "forged"}
	b.get("/")
	assert.NotEqual(t, "forged", b.cookies["session"].Value)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, Deps{})
	require.Error(t, err)

	cfg := newTestConfig("http://localhost/token")

	_, err = New(cfg, Deps{})
	require.Error(t, err)

	cfg.Webserver.CookieSecret = ""
	_, err = New(cfg, Deps{Storage: memory.New(), Provider: auth.NewProvider(&auth.ProviderConfig{}, nil)})
	require.ErrorIs(t, err, auth.ErrEmptySecret)
}

func TestCookieKey(t *testing.T) {
	key := CookieKey("secret")
	assert.Len(t, key, 44)
	assert.Equal(t, key, CookieKey("secret"))
	assert.NotEqual(t, key, CookieKey("other"))
}

// closeRecorder records when the session storage gets closed.
type closeRecorder struct {
	fiber.Storage
	closed atomic.Bool
}

func (c *closeRecorder) Close() error {
	c.closed.Store(true)
	return c.Storage.Close()
}

func TestServeReturnsAfterStorageClosed(t *testing.T) {
	storage := &closeRecorder{Storage: memory.New()}

	svc, err := New(newTestConfig("http://127.0.0.1/token"), Deps{
		Storage:  storage,
		Provider: auth.NewProvider(&auth.ProviderConfig{}, nil),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)

	go func() { served <- svc.Serve(ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: time.Second}

	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + CheckAlivePath)
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	go svc.Shutdown()

	select {
	case err = <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}

	assert.True(t, storage.closed.Load(), "storage must be closed before Serve returns")
	assert.False(t, svc.Alive())
}

func TestStartListenError(t *testing.T) {
	env := newEnv(t)

	require.Error(t, env.svc.Start("not-an-address"))
}
