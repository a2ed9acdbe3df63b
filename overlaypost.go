// Package overlaypost serves a single-page form that overlays a template
// image on a content image, captions it and offers the result as a PNG
// download. It is built with Go, Echo and templ.
//
// Form fields are kept per browser session in memory; the optional template
// library is stored in SQLite and managed from /admin/.
package overlaypost

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/overlaypost/compositor"
	"github.com/eringen/overlaypost/views"
)

// App is the central overlaypost application. It wires together the
// compositor, form state, template library, handlers and middleware.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      *Store
	Cache      *TemplateCache
	Forms      *FormStore
	Compositor *compositor.Compositor

	loginLimiter   *Limiter
	composeLimiter *Limiter
	customRoutes   []func(*App)
	stopCleanup    func()
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the template library, builds the compositor and form store,
// and registers middleware and routes. Start calls it; tests call it
// directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("overlaypost: SessionSecret is required")
	}

	a.Echo.Logger.SetLevel(a.Config.logLevel())

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("overlaypost: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewTemplateCache(a.Store, a.Config.TemplateCacheTTL)

	if a.Compositor == nil {
		a.Compositor = compositor.New(compositor.WithMaxPixels(a.Config.pixelBudget()))
	}

	a.Forms = NewFormStore(a.Config.FormTTL, a.Config.MaxForms)
	a.stopCleanup = a.Forms.StartCleanup(time.Minute)

	a.loginLimiter = NewLimiter(5, time.Minute)
	a.composeLimiter = NewLimiter(a.Config.ComposePerMinute, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("%s listening on %s", a.Config.Name, a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))

	e.GET("/healthz", a.handleHealth)
	e.GET("/", a.handleHome)
	e.POST("/compose/", a.handleCompose)
	e.GET("/download/", a.handleDownload)
	e.POST("/reset/", a.handleReset)

	if a.Config.AdminPassword == "" {
		e.Logger.Infof("ADMIN_PASSWORD not set; template library admin disabled")
		return
	}
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/templates/upload/", a.handleTemplateUpload)
	e.POST("/admin/templates/:slug/delete/", a.handleTemplateDelete)
	e.DELETE("/admin/templates/:slug/", a.handleTemplateDelete)
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{Name: a.Config.Name}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	for _, l := range []*Limiter{a.loginLimiter, a.composeLimiter} {
		if l != nil {
			l.Stop()
		}
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("overlaypost: required environment variable %s is not set", key)
	}
	return v
}
