package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eringen/overlaypost"
)

func runServe() error {
	cfg := overlaypost.SiteConfig{
		Name:          overlaypost.EnvOr("SITE_NAME", "FTP Generate Template"),
		Addr:          overlaypost.EnvOr("ADDR", ""),
		DatabasePath:  overlaypost.EnvOr("DATABASE_PATH", ""),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: overlaypost.MustEnv("SESSION_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE", false),
		LogLevel:      overlaypost.EnvOr("LOG_LEVEL", ""),

		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_MB", 0)) << 20,
		MaxPixels:        envInt("MAX_PIXELS", 0),
		ComposePerMinute: envInt("COMPOSE_PER_MINUTE", 0),
		FormTTL:          envDuration("FORM_TTL", 0),
		MaxForms:         envInt("MAX_FORMS", 0),
	}

	app := overlaypost.New(cfg)
	defer app.Close()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		app.Echo.Logger.Infof("shutting down")
		_ = app.Echo.Close()
	}()

	return app.Start()
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
