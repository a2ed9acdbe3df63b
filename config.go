package overlaypost

import (
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/overlaypost/compositor"
)

// SiteConfig holds all configuration for an overlaypost app.
type SiteConfig struct {
	Name string // Site name (default "Overlay Post")

	Addr         string // Listen address (default "127.0.0.1:3000")
	DatabasePath string // Template library SQLite path (default "data/templates.db")

	AdminPassword string // Template library password; empty disables /admin/
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	LogLevel string // debug, info, warn, error, off (default "info")

	MaxUploadBytes   int64         // Per-file upload limit (default 10MB)
	MaxPixels        int           // Decoded pixel budget per image (default 40 megapixels, negative disables)
	ComposePerMinute int           // Compose requests per IP per minute (default 30)
	FormTTL          time.Duration // Idle form state lifetime (default 1h)
	MaxForms         int           // Live form sessions kept in memory (default 500)
	TemplateCacheTTL time.Duration // Library listing cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Overlay Post"
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/templates.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 10 << 20
	}
	if c.MaxPixels == 0 {
		c.MaxPixels = 40_000_000
	}
	if c.ComposePerMinute == 0 {
		c.ComposePerMinute = 30
	}
	if c.FormTTL == 0 {
		c.FormTTL = time.Hour
	}
	if c.MaxForms == 0 {
		c.MaxForms = 500
	}
	if c.TemplateCacheTTL == 0 {
		c.TemplateCacheTTL = 5 * time.Minute
	}
}

// pixelBudget is MaxPixels in the compositor's terms, where zero disables.
func (c SiteConfig) pixelBudget() int {
	if c.MaxPixels < 0 {
		return 0
	}
	return c.MaxPixels
}

func (c SiteConfig) logLevel() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithCompositor replaces the compositor built from SiteConfig.
func WithCompositor(c *compositor.Compositor) Option {
	return func(a *App) {
		a.Compositor = c
	}
}
