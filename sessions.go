package overlaypost

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
)

const (
	adminSessionName = "admin_session"
	formSessionName  = "form_session"
)

func newCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return store
}

// saveValue stores key=value in the named cookie session.
func saveValue(c echo.Context, name, key string, value any) error {
	sess, err := session.Get(name, c)
	if err != nil {
		return err
	}
	sess.Values[key] = value
	return sess.Save(c.Request(), c.Response())
}

// formID returns the visitor's form session ID, issuing a ULID on first
// contact. Form state itself stays server-side in the FormStore.
func formID(c echo.Context) (string, error) {
	sess, err := session.Get(formSessionName, c)
	if err != nil {
		return "", err
	}
	if id, ok := sess.Values["id"].(string); ok && id != "" {
		return id, nil
	}
	id := ulid.Make().String()
	if err := saveValue(c, formSessionName, "id", id); err != nil {
		return "", err
	}
	return id, nil
}

// IsAdmin checks if the current session may manage the template library.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(adminSessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context) error {
	return saveValue(c, adminSessionName, "authenticated", true)
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(adminSessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
