package web

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/entra-rp/entra-rp/internal/auth"
	"github.com/entra-rp/entra-rp/internal/config"
	fiberlog "github.com/entra-rp/entra-rp/internal/logger/adapter/fiber"
	"github.com/entra-rp/entra-rp/internal/metrics"
	"github.com/entra-rp/entra-rp/internal/web/handler"
	"github.com/entra-rp/entra-rp/internal/web/handler/home"
	"github.com/entra-rp/entra-rp/internal/web/handler/login"
	"github.com/entra-rp/entra-rp/internal/web/handler/logout"
	"github.com/entra-rp/entra-rp/internal/web/handler/profile"
	"github.com/entra-rp/entra-rp/internal/web/session"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// Deps are the collaborators built by the daemon.
type Deps struct {
	// Storage backs the session store.
	Storage fiber.Storage
	// Provider of the authorization code flow.
	Provider login.Provider
	// Verifier is optional.
	Verifier login.Verifier
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Gatherer served at /metrics, nil means the default gatherer.
	Gatherer prometheus.Gatherer
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	store        *session.StorageStore
	stopped      chan struct{}
	stopOnce     sync.Once
}

// Start starts the web service on the given address. It returns once a
// shutdown has stopped the server and closed the session storage.
func (s *Service) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", addr)
	}

	return s.Serve(ln)
}

// Serve serves http on ln, see Start.
func (s *Service) Serve(ln net.Listener) error {
	err := s.App.Listener(ln)

	// fiber stopped without a shutdown request
	if s.Alive() {
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("fiber listen error")
		}

		return err
	}

	// wait for Shutdown to finish
	<-s.stopped

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown reports 503 on /checkalive for the configured time, then stops the
// http server and closes the session storage.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	s.alive.Store(false)

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close session storage")
	}

	log.Info().Msg("http server was stopped ... good bye...")

	s.stopOnce.Do(func() { close(s.stopped) })
}

// Alive reports whether /checkalive answers OK.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// CookieKey derives the encryptcookie key from the session secret.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		return nil, pkgerrors.Wrap(handler.ErrNilDependency, "config")
	}

	if deps.Storage == nil || deps.Provider == nil {
		return nil, pkgerrors.Wrap(handler.ErrNilDependency, "storage and provider are required")
	}

	signer, err := auth.NewStateSigner(cfg.Webserver.CookieSecret)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "webserver.cookiesecret")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			Views:                 templateEngine,
			DisableStartupMessage: !cfg.DevMode,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:   cfg.Log,
		SkipURIs: []string{CheckAlivePath, MetricsPath},
	}))

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.Webserver.ShutDownTime <= 0,
		store:        session.NewStorageStore(deps.Storage, cfg.Session.ExpiryTime),
		stopped:      make(chan struct{}),
	}
	service.alive.Store(true)

	// probes are served before the session middleware, so they don't create sessions.
	app.Get(CheckAlivePath, service.checkAlive)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key:    CookieKey(cfg.Session.Secret),
		Except: []string{auth.StateCookieName},
	}))

	sessionCfg := session.MiddlewareConfig{
		Store:      service.store,
		CookieName: cfg.Session.CookieName,
		Secure:     !cfg.DevMode,
	}
	app.Use(session.Middleware(sessionCfg))

	loginHandler, err := login.New(login.Config{
		Provider: deps.Provider,
		Verifier: deps.Verifier,
		Signer:   signer,
		Store:    service.store,
		Metrics:  deps.Metrics,
		Secure:   !cfg.DevMode,
	})
	if err != nil {
		return nil, err
	}

	handlers := []handler.Service{
		home.New(service.store, cfg.Title),
		loginHandler,
		profile.New(service.store, cfg.Title),
		logout.New(service.store, sessionCfg, deps.Metrics),
	}

	for _, h := range handlers {
		if err = h.Init(app); err != nil {
			return nil, err
		}
	}

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}
